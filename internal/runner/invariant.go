package runner

import (
	"context"
	"fmt"

	"github.com/topotools/topoplan/internal/ctxlog"
	"github.com/topotools/topoplan/internal/persist"
	"github.com/topotools/topoplan/internal/workflow"
)

// InvariantModule wires the aggregation runner joining the surface jobs.
type InvariantModule struct {
	Store persist.Store
}

// Register binds the invariant kind to its runner.
func (m *InvariantModule) Register(r *Registry) {
	r.Register(workflow.KindInvariant, &invariantRunner{store: m.Store})
}

// invariantRunner collects the retained surface results and persists them
// together with the equivalence map and the reduction flag, so downstream
// analysis can reconstruct what was skipped and why. It does not back-fill
// results for skipped surfaces itself.
type invariantRunner struct {
	store persist.Store
}

func (r *invariantRunner) Run(ctx context.Context, job *Job) (any, error) {
	logger := ctxlog.FromContext(ctx)

	surfaces := make(map[string]any, len(job.Node.Parents))
	for _, parent := range job.Node.Parents {
		out, ok := parent.Output.(*SurfaceOutput)
		if !ok {
			return nil, fmt.Errorf("surface job %s produced no invariant result", parent.ID)
		}
		surfaces[string(out.Surface)] = out.Result
	}

	data, err := persist.Sanitize(map[string]any{
		"surfaces":           surfaces,
		"equivalences":       job.Node.Params["equivalences"],
		"symmetry_reduction": job.Node.Params["symmetry_reduction"],
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

	logger.Info("Invariant results persisted.", "run", job.Graph.RunID, "surfaces", len(surfaces))
	return data, nil
}
