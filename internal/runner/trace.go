package runner

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/topotools/topoplan/internal/ctxlog"
	"github.com/topotools/topoplan/internal/persist"
	"github.com/topotools/topoplan/internal/solver"
	"github.com/topotools/topoplan/internal/staging"
	"github.com/topotools/topoplan/internal/workflow"
)

// TraceModule wires the symmetry-trace extraction runner. Exec is the trace
// binary, not the electronic-structure solver.
type TraceModule struct {
	Exec  solver.Runner
	Store persist.Store
}

// Register binds the trace kind to its runner.
func (m *TraceModule) Register(r *Registry) {
	r.Register(workflow.KindTrace, &traceRunner{exec: m.Exec, store: m.Store})
}

// traceRunner runs the trace extraction over a finished band run and
// persists the parsed summary. The extraction tool reads the band run's
// wavefunctions directly, so no input files are generated here.
type traceRunner struct {
	exec  solver.Runner
	store persist.Store
}

func (r *traceRunner) Run(ctx context.Context, job *Job) (any, error) {
	logger := ctxlog.FromContext(ctx)
	dir, err := job.prepareDir()
	if err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	parent := job.PrimaryParent()
	if parent == nil {
		return nil, fmt.Errorf("trace job %s has no band-run parent to stage from", job.Node.ID)
	}
	files := append(staging.DefaultFiles(), "CHGCAR", "WAVECAR", "PROCAR")
	if err := staging.Stage(job.ParentDir(parent), dir, files); err != nil {
		return nil, err
	}

	logger.Debug("Launching trace extraction.", "job", job.Node.ID, "dir", dir)
	if err := r.exec.Run(ctx, dir); err != nil {
		return nil, err
	}

	summary, err := solver.ReadTraceSummary(filepath.Join(dir, solver.TraceOutName))
	if err != nil {
		return nil, err
	}

	data, err := persist.Sanitize(map[string]any{
		"summary": summary,
		"dir":     dir,
	})
	if err != nil {
		return nil, err
	}
	doc := &persist.Document{
		Kind:  string(job.Node.Kind),
		RunID: job.Graph.RunID,
		Name:  job.Node.Name,
		Data:  data,
	}
	if err := r.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	return summary, nil
}
