package app

import (
	"context"

	"github.com/topotools/topoplan/internal/config"
	"github.com/topotools/topoplan/internal/crystal"
	"github.com/topotools/topoplan/internal/ctxlog"
	"github.com/topotools/topoplan/internal/dimension"
	"github.com/topotools/topoplan/internal/kspace"
	"github.com/topotools/topoplan/internal/workflow"
)

// plan turns one configured run into a workflow graph. Invariant runs go
// through the symmetry pipeline first: reciprocal point group, equivalent
// boundary surfaces, then the reduced surface selection. Trace runs skip
// all of that, they always compute the same four-stage chain.
func (a *App) plan(ctx context.Context, s *crystal.Structure, run *config.Run) (*workflow.Graph, error) {
	logger := ctxlog.FromContext(ctx).With("run", run.Name)

	opts := workflow.Options{
		SolverCommand:     a.model.Settings.SolverCommand,
		PersistenceTarget: a.model.Settings.PersistenceTarget,
		SymmetryReduction: run.SymmetryReduction,
		StabilityCheck:    a.model.Settings.StabilityCheck,
		AddMetadata:       a.model.Settings.AddMetadata,
		Overrides:         run.Overrides,
	}

	hint := dimension.GapClassifier{}.Classify(s)
	logger.Debug("Dimensionality estimated.", "hint", hint, "layered", hint.AnyLayered())

	if run.Workflow == config.WorkflowTrace {
		return workflow.AssembleTraceRun(s, hint, opts)
	}

	group, err := kspace.ReciprocalPointGroup(s)
	if err != nil {
		return nil, err
	}
	logger.Debug("Reciprocal point group detected.", "operations", group.Size())

	equiv := kspace.EquivalentPlanes(group)
	surfaces := kspace.SelectPlanes(equiv, run.SymmetryReduction)
	logger.Info("Boundary surfaces selected.", "count", len(surfaces), "reduction", run.SymmetryReduction)

	return workflow.AssembleInvariantRun(s, surfaces, equiv, hint, opts)
}
