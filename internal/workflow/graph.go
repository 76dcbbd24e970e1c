package workflow

import (
	"fmt"

	"github.com/topotools/topoplan/internal/kspace"
)

// Graph is the planned DAG for one run: the ordered nodes plus the identity
// and tags shared by every job in it.
type Graph struct {
	// Name is derived from the structure's reduced composition.
	Name string
	// RunID is unique per planning invocation.
	RunID string
	Tags  []string
	Meta  map[string]any

	// Nodes holds every node in construction order, which downstream
	// serialization and scheduling treat as canonical.
	Nodes []*Node

	index map[string]*Node
}

func newGraph(name, runID string) *Graph {
	return &Graph{
		Name:  name,
		RunID: runID,
		index: make(map[string]*Node),
	}
}

// add places a node in the graph, enforcing ID uniqueness.
func (g *Graph) add(n *Node) error {
	if _, exists := g.index[n.ID]; exists {
		return fmt.Errorf("duplicate node id %q", n.ID)
	}
	g.Nodes = append(g.Nodes, n)
	g.index[n.ID] = n
	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// Roots returns the nodes with no parents, in graph order.
func (g *Graph) Roots() []*Node {
	var roots []*Node
	for _, n := range g.Nodes {
		if len(n.Parents) == 0 {
			roots = append(roots, n)
		}
	}
	return roots
}

// InitCounters stores each node's unmet dependency count for the scheduler.
func (g *Graph) InitCounters() {
	for _, n := range g.Nodes {
		n.depCount.Store(int32(len(n.Parents)))
	}
}

// link records that child depends on parent's output.
func link(parent, child *Node) {
	child.Parents = append(child.Parents, parent)
	parent.Dependents = append(parent.Dependents, child)
}

// DetectCycles checks for circular dependencies using depth-first search.
func (g *Graph) DetectCycles() error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		visiting[n.ID] = true
		for _, dep := range n.Parents {
			if visiting[dep.ID] {
				return fmt.Errorf("cycle detected involving '%s'", dep.ID)
			}
			if !visited[dep.ID] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(visiting, n.ID)
		visited[n.ID] = true
		return nil
	}

	for _, n := range g.Nodes {
		if !visited[n.ID] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Document is the serializable description of a planned graph.
type Document struct {
	Name  string         `json:"name"`
	RunID string         `json:"run_id"`
	Tags  []string       `json:"tags,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Jobs  []JobDocument  `json:"jobs"`
}

// JobDocument is the serializable description of one planned job.
type JobDocument struct {
	ID      string         `json:"id"`
	Kind    Kind           `json:"kind"`
	Name    string         `json:"name"`
	Surface kspace.Surface `json:"surface,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
	Tags    []string       `json:"tags,omitempty"`
	Parents []string       `json:"parents,omitempty"`
}

// Document renders the graph in its JSON-ready form, nodes in graph order.
func (g *Graph) Document() Document {
	doc := Document{
		Name:  g.Name,
		RunID: g.RunID,
		Tags:  g.Tags,
		Meta:  g.Meta,
		Jobs:  make([]JobDocument, 0, len(g.Nodes)),
	}
	for _, n := range g.Nodes {
		job := JobDocument{
			ID:      n.ID,
			Kind:    n.Kind,
			Name:    n.Name,
			Surface: n.Surface,
			Params:  n.Params,
			Tags:    n.Tags,
		}
		for _, p := range n.Parents {
			job.Parents = append(job.Parents, p.ID)
		}
		doc.Jobs = append(doc.Jobs, job)
	}
	return doc
}
