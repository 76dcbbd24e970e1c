package executor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topotools/topoplan/internal/crystal"
	"github.com/topotools/topoplan/internal/dimension"
	"github.com/topotools/topoplan/internal/kspace"
	"github.com/topotools/topoplan/internal/lin"
	"github.com/topotools/topoplan/internal/runner"
	"github.com/topotools/topoplan/internal/workflow"
)

// stubRunner records execution order and fails on demand.
type stubRunner struct {
	mu     sync.Mutex
	order  []string
	failOn map[string]error
}

func (r *stubRunner) Run(ctx context.Context, job *runner.Job) (any, error) {
	r.mu.Lock()
	r.order = append(r.order, job.Node.ID)
	r.mu.Unlock()
	if err := r.failOn[job.Node.ID]; err != nil {
		return nil, err
	}
	return job.Node.ID, nil
}

func (r *stubRunner) executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func registryFor(rn runner.Runner) *runner.Registry {
	reg := runner.New()
	for _, kind := range []workflow.Kind{
		workflow.KindRelax, workflow.KindStatic, workflow.KindNSCF,
		workflow.KindSurface, workflow.KindTrace, workflow.KindInvariant,
	} {
		reg.Register(kind, rn)
	}
	return reg
}

func planInvariant(t *testing.T) *workflow.Graph {
	t.Helper()
	s := &crystal.Structure{
		Lattice: crystal.Lattice{{4, 0, 0}, {0, 4, 0}, {0, 0, 4}},
		Sites: []crystal.Site{
			{Coords: lin.Vec3{0, 0, 0}, Element: "Na", Electrons: 11},
			{Coords: lin.Vec3{0.5, 0.5, 0.5}, Element: "Cl", Electrons: 17},
		},
	}
	g, err := workflow.AssembleInvariantRun(
		s,
		[]kspace.Surface{kspace.SurfaceKx0, kspace.SurfaceKx1},
		kspace.Equivalences{},
		dimension.Hint{dimension.MethodGap: 3},
		workflow.Options{SolverCommand: "vasp_ncl", PersistenceTarget: "results.db"},
	)
	require.NoError(t, err)
	return g
}

func indexOf(order []string) map[string]int {
	idx := make(map[string]int, len(order))
	for i, id := range order {
		idx[id] = i
	}
	return idx
}

func TestNewRejectsIncompleteRegistry(t *testing.T) {
	g := planInvariant(t)
	_, err := New(g, runner.New(), runner.Layout{Root: t.TempDir()}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no runner for kind")
}

func TestRunRespectsDependencyOrder(t *testing.T) {
	g := planInvariant(t)
	stub := &stubRunner{}
	ex, err := New(g, registryFor(stub), runner.Layout{Root: t.TempDir()}, 4)
	require.NoError(t, err)

	require.NoError(t, ex.Run(context.Background()))

	for _, n := range g.Nodes {
		assert.Equal(t, workflow.Done, n.GetState(), "job %s", n.ID)
	}

	order := stub.executed()
	require.Len(t, order, len(g.Nodes))
	idx := indexOf(order)
	assert.Less(t, idx["relax"], idx["static"])
	assert.Less(t, idx["static"], idx["surface.kx_0"])
	assert.Less(t, idx["static"], idx["surface.kx_1"])
	assert.Less(t, idx["surface.kx_0"], idx["invariant"])
	assert.Less(t, idx["surface.kx_1"], idx["invariant"])
}

func TestRunPropagatesOutputs(t *testing.T) {
	g := planInvariant(t)
	stub := &stubRunner{}
	ex, err := New(g, registryFor(stub), runner.Layout{Root: t.TempDir()}, 2)
	require.NoError(t, err)

	require.NoError(t, ex.Run(context.Background()))

	invariant, ok := g.Node("invariant")
	require.True(t, ok)
	assert.Equal(t, "invariant", invariant.Output)
	for _, parent := range invariant.Parents {
		assert.Equal(t, parent.ID, parent.Output,
			"parent outputs must be set before the join job runs")
	}
}

func TestRunFailureSkipsDownstream(t *testing.T) {
	g := planInvariant(t)
	boom := errors.New("scf did not converge")
	stub := &stubRunner{failOn: map[string]error{"static": boom}}
	ex, err := New(g, registryFor(stub), runner.Layout{Root: t.TempDir()}, 4)
	require.NoError(t, err)

	err = ex.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "execution failed for static")

	relax, _ := g.Node("relax")
	assert.Equal(t, workflow.Done, relax.GetState())

	static, _ := g.Node("static")
	assert.Equal(t, workflow.Failed, static.GetState())
	assert.ErrorIs(t, static.Error, boom)

	for _, id := range []string{"surface.kx_0", "surface.kx_1", "invariant"} {
		n, ok := g.Node(id)
		require.True(t, ok)
		assert.Equal(t, workflow.Failed, n.GetState(), "job %s", id)
		assert.Contains(t, n.Error.Error(), "skipped due to upstream failure")
	}

	assert.ElementsMatch(t, []string{"relax", "static"}, stub.executed(),
		"downstream jobs never reach a worker")
}

func TestRunDrainsWhenCanceledBeforeStart(t *testing.T) {
	g := planInvariant(t)
	stub := &stubRunner{}
	ex, err := New(g, registryFor(stub), runner.Layout{Root: t.TempDir()}, 2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Cancellation is reported through the context, not as a job failure.
	require.NoError(t, ex.Run(ctx))
	assert.Empty(t, stub.executed())
	for _, n := range g.Nodes {
		assert.Equal(t, workflow.Failed, n.GetState(), "job %s", n.ID)
	}
}
