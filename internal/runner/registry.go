// Package runner maps planned job kinds to the code that executes them. The
// registry is populated by modules at startup and validated against a graph
// before any job runs, so a plan never fails halfway through on a missing
// handler.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/topotools/topoplan/internal/workflow"
)

// Runner executes one planned job and returns the output its dependents see.
type Runner interface {
	Run(ctx context.Context, job *Job) (any, error)
}

// Module is the interface every runner bundle implements to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the runner for each job kind of a single execution.
type Registry struct {
	runners map[workflow.Kind]Runner
}

// New creates an empty Registry instance.
func New() *Registry {
	return &Registry{runners: make(map[workflow.Kind]Runner)}
}

// Register binds a runner to a job kind. Registering the same kind twice is
// a programmer error and panics.
func (r *Registry) Register(kind workflow.Kind, rn Runner) {
	if _, exists := r.runners[kind]; exists {
		panic(fmt.Sprintf("runner for kind '%s' already registered", kind))
	}
	slog.Debug("Registering job runner.", "kind", kind)
	r.runners[kind] = rn
}

// Lookup returns the runner bound to kind.
func (r *Registry) Lookup(kind workflow.Kind) (Runner, bool) {
	rn, ok := r.runners[kind]
	return rn, ok
}

// Validate checks that every node in the graph has a registered runner. It
// runs before execution starts so an incomplete registry fails the whole
// plan instead of one node at a time.
func (r *Registry) Validate(g *workflow.Graph) error {
	missing := make(map[workflow.Kind]bool)
	for _, n := range g.Nodes {
		if _, ok := r.runners[n.Kind]; !ok {
			missing[n.Kind] = true
		}
	}
	if len(missing) == 0 {
		return nil
	}

	kinds := make([]string, 0, len(missing))
	for k := range missing {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	return fmt.Errorf("registry validation failed: no runner for kind(s) %s", strings.Join(kinds, ", "))
}
