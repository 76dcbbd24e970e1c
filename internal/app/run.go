package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/topotools/topoplan/internal/config"
	"github.com/topotools/topoplan/internal/crystal"
	"github.com/topotools/topoplan/internal/ctxlog"
	"github.com/topotools/topoplan/internal/executor"
	"github.com/topotools/topoplan/internal/persist"
	"github.com/topotools/topoplan/internal/runner"
	"github.com/topotools/topoplan/internal/solver"
	"github.com/topotools/topoplan/internal/workflow"
)

// Run executes the main application logic: every configured run is planned
// and then executed (or printed, in plan-only mode) in file order. The first
// failing run stops the remaining ones.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.cfg.OpsPort > 0 {
		a.startOpsServer(a.cfg.OpsPort)
	}

	if len(a.model.Runs) == 0 {
		a.logger.Warn("No runs configured, nothing to plan.")
		return nil
	}

	var store persist.Store
	if !a.cfg.PlanOnly {
		var err error
		store, err = persist.Open(a.model.Settings.PersistenceTarget)
		if err != nil {
			return fmt.Errorf("failed to open persistence store: %w", err)
		}
		defer store.Close()
	}

	for _, run := range a.model.Runs {
		if err := a.executeRun(ctx, run, store); err != nil {
			return fmt.Errorf("run '%s' failed: %w", run.Name, err)
		}
		// Executor reports cancellation through the context, not as a job
		// failure; stop planning further runs once it trips.
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// executeRun plans one configured run and carries it through to the end:
// plan-only printing or full execution.
func (a *App) executeRun(ctx context.Context, run *config.Run, store persist.Store) error {
	logger := ctxlog.FromContext(ctx).With("run", run.Name)

	structure, err := crystal.ReadPOSCAR(run.StructurePath)
	if err != nil {
		return err
	}
	logger.Info("Structure loaded.", "formula", structure.ReducedFormula(), "sites", structure.NumSites())

	graph, err := a.plan(ctx, structure, run)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}
	logger.Info("Workflow planned.", "jobs", len(graph.Nodes), "runID", graph.RunID)

	if a.cfg.PlanOnly {
		return a.printPlan(graph)
	}

	reg := runner.New()
	for _, mod := range a.modules(structure, store) {
		mod.Register(reg)
	}

	layout := runner.Layout{Root: a.model.Settings.WorkDir}
	exec, err := executor.New(graph, reg, layout, a.cfg.Workers)
	if err != nil {
		return err
	}

	logger.Info("🚀 Starting concurrent execution...", "workers", a.cfg.Workers)
	if err := exec.Run(ctx); err != nil {
		return err
	}
	logger.Info("🏁 Execution finished.")
	return nil
}

// modules returns the runner bundles for one run. The structure is shared by
// the stages that generate input files; the store by the stages that persist
// results.
func (a *App) modules(structure *crystal.Structure, store persist.Store) []runner.Module {
	solverExec := &solver.ExecRunner{Command: a.model.Settings.SolverCommand}
	traceExec := &solver.ExecRunner{Command: a.model.Settings.TraceCommand}
	return []runner.Module{
		&runner.SolverModule{Exec: solverExec, Structure: structure},
		&runner.SurfaceModule{Exec: solverExec, Structure: structure},
		&runner.TraceModule{Exec: traceExec, Store: store},
		&runner.InvariantModule{Store: store},
	}
}

// printPlan writes the graph's JSON document to the application output.
func (a *App) printPlan(g *workflow.Graph) error {
	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g.Document()); err != nil {
		return fmt.Errorf("failed to render plan: %w", err)
	}
	return nil
}
