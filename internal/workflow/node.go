// Package workflow plans the job graphs: which calculations run, in what
// order, and with which solver parameter overrides.
package workflow

import (
	"sync"
	"sync/atomic"

	"github.com/topotools/topoplan/internal/kspace"
)

// Kind identifies what a planned job computes.
type Kind string

const (
	KindRelax     Kind = "relax"
	KindStatic    Kind = "static"
	KindNSCF      Kind = "nscf"
	KindSurface   Kind = "surface"
	KindTrace     Kind = "trace"
	KindInvariant Kind = "invariant"
)

// SolverJob reports whether nodes of this kind invoke the external solver
// and therefore consume generated input files.
func (k Kind) SolverJob() bool {
	switch k {
	case KindRelax, KindStatic, KindNSCF, KindSurface, KindTrace:
		return true
	}
	return false
}

// State is the execution state of a node.
type State int32

const (
	// Pending indicates the node is waiting for its parents to complete.
	Pending State = iota
	// Running indicates a worker is currently executing the node.
	Running
	// Done indicates the node completed successfully.
	Done
	// Failed indicates the node failed or was skipped.
	Failed
)

// Node is one planned computational step. The plan-time fields (ID through
// Parents) are fixed once the node is placed in a graph; the remaining
// fields are owned by the execution engine.
type Node struct {
	// ID is unique within the graph.
	ID string
	// Kind selects the runner that executes the node.
	Kind Kind
	// Name is the human-readable job name, derived from the composition.
	Name string
	// Surface is set only on surface-evaluation nodes.
	Surface kspace.Surface
	// Params is the solver parameter bag, built up from override layers.
	Params map[string]any
	// Tags correlate the node with its run.
	Tags []string

	Parents    []*Node
	Dependents []*Node

	// Error holds the execution failure, if any.
	Error error
	// Output holds the runner result for downstream nodes.
	Output any

	// depCount tracks unmet parents for the scheduler.
	depCount atomic.Int32
	// state is the current execution state, managed atomically.
	state atomic.Int32
	// skipOnce guarantees a node is marked skipped exactly once.
	skipOnce sync.Once
}

// ApplyOverrides merges a parameter layer into the node. Later layers win
// on key collisions.
func (n *Node) ApplyOverrides(layer map[string]any) {
	for k, v := range layer {
		n.Params[k] = v
	}
}

// SetState atomically sets the node's execution state.
func (n *Node) SetState(s State) {
	n.state.Store(int32(s))
}

// GetState atomically retrieves the node's execution state.
func (n *Node) GetState() State {
	return State(n.state.Load())
}

// DepCount returns the current number of unmet dependencies.
func (n *Node) DepCount() int32 {
	return n.depCount.Load()
}

// DecrementDepCount decrements the dependency counter and returns the new
// value; the node is ready to run when it reaches zero.
func (n *Node) DecrementDepCount() int32 {
	return n.depCount.Add(-1)
}

// Skip marks the node failed and releases its WaitGroup slot exactly once,
// returning true the first time it runs.
func (n *Node) Skip(err error, wg *sync.WaitGroup) bool {
	var first bool
	n.skipOnce.Do(func() {
		n.SetState(Failed)
		n.Error = err
		wg.Done()
		first = true
	})
	return first
}
