package runner

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/topotools/topoplan/internal/crystal"
	"github.com/topotools/topoplan/internal/ctxlog"
	"github.com/topotools/topoplan/internal/kspace"
	"github.com/topotools/topoplan/internal/solver"
	"github.com/topotools/topoplan/internal/staging"
	"github.com/topotools/topoplan/internal/workflow"
)

// SurfaceOutput is the output of one surface evaluation job: which boundary
// plane it computed and the parsed invariant result.
type SurfaceOutput struct {
	Surface kspace.Surface          `json:"surface"`
	Dir     string                  `json:"dir"`
	Result  *solver.InvariantResult `json:"result"`
}

// SurfaceModule wires the per-surface invariant evaluation runner.
type SurfaceModule struct {
	Exec      solver.Runner
	Structure *crystal.Structure
}

// Register binds the surface kind to its runner.
func (m *SurfaceModule) Register(r *Registry) {
	r.Register(workflow.KindSurface, &surfaceRunner{exec: m.Exec, structure: m.Structure})
}

// surfaceRunner evaluates the invariant on one boundary plane of the
// reciprocal cell. The surface label is appended to the solver command line
// so the evaluation tool knows which plane to pump.
type surfaceRunner struct {
	exec      solver.Runner
	structure *crystal.Structure
}

func (r *surfaceRunner) Run(ctx context.Context, job *Job) (any, error) {
	logger := ctxlog.FromContext(ctx)
	surface := job.Node.Surface
	if !surface.Valid() {
		return nil, fmt.Errorf("surface job %s has no valid surface label", job.Node.ID)
	}

	dir, err := job.prepareDir()
	if err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	parent := job.PrimaryParent()
	if parent == nil {
		return nil, fmt.Errorf("surface job %s has no single-point parent to stage from", job.Node.ID)
	}
	// The surface evaluation restarts from the single-point charge density.
	files := append(staging.DefaultFiles(), "CHGCAR")
	if err := staging.Stage(job.ParentDir(parent), dir, files); err != nil {
		return nil, err
	}

	// The noncollinear run needs explicit per-site moments; they are all
	// zero unless the caller attached any to the structure.
	params := make(map[string]any, len(job.Node.Params)+1)
	for k, v := range job.Node.Params {
		params[k] = v
	}
	params["MAGMOM"] = r.structure.NCLMagmoms()
	if err := solver.WriteParamsFile(filepath.Join(dir, paramsFileName), params); err != nil {
		return nil, err
	}

	logger.Debug("Launching surface evaluation.", "job", job.Node.ID, "surface", surface, "dir", dir)
	if err := r.exec.Run(ctx, dir, string(surface)); err != nil {
		return nil, err
	}

	result, err := solver.ReadInvariantResult(filepath.Join(dir, solver.InvariantOutName))
	if err != nil {
		return nil, err
	}
	return &SurfaceOutput{Surface: surface, Dir: dir, Result: result}, nil
}
