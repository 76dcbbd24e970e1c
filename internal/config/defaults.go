package config

import "os"

// Built-in defaults, each overridable via a TOPOPLAN_* environment variable
// before configuration files are applied on top.
const (
	// DefaultSolverCommand is the noncollinear solver build the surface
	// jobs require.
	DefaultSolverCommand = "vasp_ncl"
	// DefaultTraceCommand is the symmetry-trace extraction binary run over
	// a finished band calculation.
	DefaultTraceCommand = "vasp2trace"
	// DefaultPersistenceTarget is the local fallback results file used when
	// no database is configured.
	DefaultPersistenceTarget = "results.json"
	// DefaultWorkDir is the root for per-run job directories.
	DefaultWorkDir = "runs"
)

// Defaults returns the process-wide settings before any file is read.
func Defaults() Settings {
	return Settings{
		SolverCommand:     envOrDefault("TOPOPLAN_SOLVER_CMD", DefaultSolverCommand),
		TraceCommand:      envOrDefault("TOPOPLAN_TRACE_CMD", DefaultTraceCommand),
		PersistenceTarget: envOrDefault("TOPOPLAN_PERSISTENCE_TARGET", DefaultPersistenceTarget),
		WorkDir:           envOrDefault("TOPOPLAN_WORK_DIR", DefaultWorkDir),
		StabilityCheck:    false,
		AddMetadata:       true,
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
