package runner

import (
	"os"
	"path/filepath"

	"github.com/topotools/topoplan/internal/workflow"
)

// Layout maps planned nodes to working directories: one directory per node
// under <Root>/<RunID>, so concurrent runs of the same structure never
// collide.
type Layout struct {
	Root string
}

// GraphDir returns the directory shared by all of a run's jobs.
func (l Layout) GraphDir(g *workflow.Graph) string {
	return filepath.Join(l.Root, g.RunID)
}

// NodeDir returns the working directory of one job.
func (l Layout) NodeDir(g *workflow.Graph, n *workflow.Node) string {
	return filepath.Join(l.Root, g.RunID, n.ID)
}

// Job is the execution-time view of one node: the node itself, the graph it
// belongs to, and the directory layout jobs read and write under.
type Job struct {
	Graph  *workflow.Graph
	Node   *workflow.Node
	Layout Layout
}

// Dir returns the job's working directory.
func (j *Job) Dir() string {
	return j.Layout.NodeDir(j.Graph, j.Node)
}

// PrimaryParent returns the job's first parent, or nil for root jobs. Every
// solver stage that stages files has exactly one parent by construction.
func (j *Job) PrimaryParent() *workflow.Node {
	if len(j.Node.Parents) == 0 {
		return nil
	}
	return j.Node.Parents[0]
}

// ParentDir returns the working directory of the given parent node.
func (j *Job) ParentDir(parent *workflow.Node) string {
	return j.Layout.NodeDir(j.Graph, parent)
}

// prepareDir creates the job's working directory.
func (j *Job) prepareDir() (string, error) {
	dir := j.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
