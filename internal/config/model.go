// Package config loads the planner configuration: process-wide solver
// settings plus the run blocks naming the structures to plan.
package config

// Workflow kinds a run block may request.
const (
	WorkflowInvariants = "invariants"
	WorkflowTrace      = "trace"
)

// Settings are the process-wide execution parameters shared by every run.
// Fields left unset in configuration fall back to Defaults.
type Settings struct {
	// SolverCommand is the external solver binary invoked per job.
	SolverCommand string
	// TraceCommand is the symmetry-trace extraction binary, invoked in the
	// band run's directory by trace jobs.
	TraceCommand string
	// PersistenceTarget is where result documents go: a *.db path selects
	// the SQLite store, anything else a local JSON file.
	PersistenceTarget string
	// WorkDir is the root under which per-run job directories are created.
	WorkDir string
	// StabilityCheck tags the relaxation job for a post-hoc stability scan.
	StabilityCheck bool
	// AddMetadata attaches structure metadata to every planned graph.
	AddMetadata bool
}

// Run describes one structure to plan.
type Run struct {
	// Name is the run block label.
	Name string
	// StructurePath points at the structure file (POSCAR format).
	StructurePath string
	// Workflow selects invariants or trace planning.
	Workflow string
	// SymmetryReduction enables dropping symmetry-equivalent surfaces.
	SymmetryReduction bool
	// Overrides is the user solver-parameter layer, applied last.
	Overrides map[string]any
}

// Model is the fully decoded and merged configuration.
type Model struct {
	Settings Settings
	Runs     []*Run
}
