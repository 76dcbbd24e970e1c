// Package executor runs a planned workflow graph on a bounded worker pool.
// Jobs become ready when their last parent completes; a failed job cancels
// the run and everything downstream of it is skipped.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/topotools/topoplan/internal/ctxlog"
	"github.com/topotools/topoplan/internal/runner"
	"github.com/topotools/topoplan/internal/workflow"
)

// Executor orchestrates the end-to-end execution of one workflow graph. It
// manages concurrency, tracks per-node state, and dispatches jobs to the
// runners registered for their kinds.
type Executor struct {
	graph      *workflow.Graph
	registry   *runner.Registry
	layout     runner.Layout
	numWorkers int
	wg         sync.WaitGroup
}

// New returns an executor for the graph. It validates the registry up front
// so a plan with an unhandled job kind fails before anything runs. workers
// <= 0 selects one worker per CPU.
func New(g *workflow.Graph, reg *runner.Registry, layout runner.Layout, workers int) (*Executor, error) {
	if err := reg.Validate(g); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Executor{
		graph:      g,
		registry:   reg,
		layout:     layout,
		numWorkers: workers,
	}, nil
}

// Run executes the entire graph concurrently and returns an error if any job
// fails. It respects the cancellation signal from the provided context.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	readyChan := make(chan *workflow.Node, len(e.graph.Nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug("Initializing executor, finding root jobs...")
	rootCount := 0
	for _, n := range e.graph.Nodes {
		if n.DepCount() == 0 {
			logger.Debug("Found root job.", "jobID", n.ID)
			readyChan <- n
			rootCount++
		}
	}
	logger.Debug("Found all root jobs.", "count", rootCount)

	e.wg.Add(len(e.graph.Nodes))

	logger.Debug("Starting worker pool.", "workers", e.numWorkers)
	for i := 0; i < e.numWorkers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}

	logger.Info("Waiting for all jobs to complete...", "run", e.graph.RunID, "jobs", len(e.graph.Nodes))
	e.wg.Wait()
	logger.Info("All jobs completed.", "run", e.graph.RunID)
	close(readyChan)

	var failedJobs []string
	var rootCause error
	for _, n := range e.graph.Nodes {
		if n.GetState() == workflow.Failed {
			logger.Error("Job failed execution.", "jobID", n.ID, "error", n.Error)
			// A "skipped" error is a symptom, not a cause.
			if n.Error != nil && !strings.HasPrefix(n.Error.Error(), "skipped") && !errors.Is(n.Error, context.Canceled) {
				failedJobs = append(failedJobs, n.ID)
				// The first real error is reported as the root cause.
				if rootCause == nil {
					rootCause = n.Error
				}
			}
		}
	}

	if rootCause != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failedJobs, ", "), rootCause)
	}
	return nil
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *workflow.Node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range readyChan {
		workerLogger := logger.With("workerID", workerID, "jobID", n.ID)

		if ctx.Err() != nil {
			if n.Skip(ctx.Err(), &e.wg) {
				workerLogger.Warn("Context canceled, skipping job execution.")
				e.skipDependents(ctx, n)
			}
			continue
		}

		workerLogger.Debug("Worker picked up job for execution.")
		n.SetState(workflow.Running)
		JobsInFlight.Inc()
		start := time.Now()

		output, err := e.execute(ctx, n)

		JobsInFlight.Dec()
		JobDurationSeconds.WithLabelValues(string(n.Kind)).Observe(time.Since(start).Seconds())

		if err != nil {
			workerLogger.Error("Job execution failed.", "error", err)
			JobsTotal.WithLabelValues(string(n.Kind), "failed").Inc()
			n.SetState(workflow.Failed)
			n.Error = err
			cancel()
			e.skipDependents(ctx, n)
			e.wg.Done()
			continue
		}

		workerLogger.Debug("Job execution succeeded.")
		JobsTotal.WithLabelValues(string(n.Kind), "done").Inc()
		n.Output = output
		n.SetState(workflow.Done)

		for _, dependent := range n.Dependents {
			if dependent.DecrementDepCount() == 0 {
				workerLogger.Debug("Unlocking dependent job.", "dependentID", dependent.ID)
				readyChan <- dependent
			}
		}

		e.wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// execute dispatches one node to the runner registered for its kind.
func (e *Executor) execute(ctx context.Context, n *workflow.Node) (any, error) {
	rn, ok := e.registry.Lookup(n.Kind)
	if !ok {
		// Validate catches this before Run; kept as a guard for direct use.
		return nil, fmt.Errorf("no runner registered for kind '%s'", n.Kind)
	}
	job := &runner.Job{Graph: e.graph, Node: n, Layout: e.layout}
	return rn.Run(ctx, job)
}

// skipDependents recursively marks all downstream jobs as failed and
// releases their WaitGroup slots.
func (e *Executor) skipDependents(ctx context.Context, n *workflow.Node) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range n.Dependents {
		err := fmt.Errorf("skipped due to upstream failure of '%s'", n.ID)
		if dependent.Skip(err, &e.wg) {
			logger.Warn("Skipping dependent job due to upstream failure.", "jobID", dependent.ID, "dependency", n.ID)
			JobsTotal.WithLabelValues(string(dependent.Kind), "skipped").Inc()
			e.skipDependents(ctx, dependent)
		}
	}
}
