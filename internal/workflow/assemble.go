package workflow

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/topotools/topoplan/internal/crystal"
	"github.com/topotools/topoplan/internal/dimension"
	"github.com/topotools/topoplan/internal/kspace"
)

// Options carries the execution parameters a graph is assembled with: the
// global solver settings plus the per-run choices.
type Options struct {
	SolverCommand     string
	PersistenceTarget string
	SymmetryReduction bool
	StabilityCheck    bool
	AddMetadata       bool
	// Overrides is the user parameter layer from configuration, applied
	// last to every solver job.
	Overrides map[string]any
}

// ConfigurationError reports that assembly preconditions were not met.
// Assembly is all-or-nothing: when this is returned, no node was created.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid workflow configuration: %s", e.Reason)
}

func validateExecution(opts Options) error {
	if opts.SolverCommand == "" {
		return &ConfigurationError{Reason: "solver command is not set"}
	}
	if opts.PersistenceTarget == "" {
		return &ConfigurationError{Reason: "persistence target is not set"}
	}
	return nil
}

// AssembleInvariantRun plans the invariant workflow for one structure:
// relaxation → single point → one evaluation job per retained surface → an
// aggregation job joining them all. The surface jobs are mutually
// independent; the aggregation job carries the equivalence map and the
// reduction flag so downstream analysis knows which surfaces were skipped
// and why.
func AssembleInvariantRun(s *crystal.Structure, surfaces []kspace.Surface, equiv kspace.Equivalences, hint dimension.Hint, opts Options) (*Graph, error) {
	if len(surfaces) == 0 {
		return nil, &ConfigurationError{Reason: "no surfaces selected"}
	}
	for _, surf := range surfaces {
		if !surf.Valid() {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown surface %q", surf)}
		}
	}
	if err := validateExecution(opts); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	g := newGraph(s.ReducedFormula(), runID)
	g.Tags = []string{"invariants: " + runID}

	relax := &Node{
		ID:     string(KindRelax),
		Kind:   KindRelax,
		Name:   fmt.Sprintf("%s-%s", g.Name, KindRelax),
		Params: map[string]any{},
	}
	static := &Node{
		ID:     string(KindStatic),
		Kind:   KindStatic,
		Name:   fmt.Sprintf("%s-%s", g.Name, KindStatic),
		Params: map[string]any{},
	}
	link(relax, static)

	surfaceNodes := make([]*Node, 0, len(surfaces))
	for _, surf := range surfaces {
		n := &Node{
			ID:      fmt.Sprintf("%s.%s", KindSurface, surf),
			Kind:    KindSurface,
			Name:    fmt.Sprintf("%s-%s", g.Name, surf),
			Surface: surf,
			Params:  map[string]any{},
		}
		link(static, n)
		surfaceNodes = append(surfaceNodes, n)
	}

	invariant := &Node{
		ID:   string(KindInvariant),
		Kind: KindInvariant,
		Name: fmt.Sprintf("%s-%s", g.Name, KindInvariant),
		Params: map[string]any{
			"equivalences":       equiv,
			"symmetry_reduction": opts.SymmetryReduction,
		},
	}
	for _, n := range surfaceNodes {
		link(n, invariant)
	}

	nodes := append([]*Node{relax, static}, surfaceNodes...)
	nodes = append(nodes, invariant)
	for _, n := range nodes {
		if err := g.add(n); err != nil {
			return nil, fmt.Errorf("placing node: %w", err)
		}
	}

	layered := hint.AnyLayered()
	relax.ApplyOverrides(relaxConvergenceParams(layered))
	if layered {
		// The relaxed layered geometry must be evaluated with the same
		// dispersion treatment it was obtained with.
		static.ApplyOverrides(vdwParams())
		for _, n := range surfaceNodes {
			n.ApplyOverrides(vdwParams())
		}
	}
	applySolverWide(g, commonParams())
	static.ApplyOverrides(precisionParams())
	applySolverWide(g, opts.Overrides)

	finishGraph(g, s, opts, relax)

	if err := g.DetectCycles(); err != nil {
		return nil, fmt.Errorf("validating workflow graph: %w", err)
	}
	return g, nil
}

// AssembleTraceRun plans the band-trace workflow: relaxation → single point
// → non-self-consistent band run over the eight TRIM points → trace
// extraction. Unlike the invariant workflow there is no surface fan-out and
// the van-der-Waals correction stays on the relaxation job only.
func AssembleTraceRun(s *crystal.Structure, hint dimension.Hint, opts Options) (*Graph, error) {
	if err := validateExecution(opts); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	g := newGraph(s.ReducedFormula(), runID)
	g.Tags = []string{"trace: " + runID}

	chain := make([]*Node, 0, 4)
	var prev *Node
	for _, kind := range []Kind{KindRelax, KindStatic, KindNSCF, KindTrace} {
		n := &Node{
			ID:     string(kind),
			Kind:   kind,
			Name:   fmt.Sprintf("%s-%s", g.Name, kind),
			Params: map[string]any{},
		}
		if prev != nil {
			link(prev, n)
		}
		if err := g.add(n); err != nil {
			return nil, fmt.Errorf("placing node: %w", err)
		}
		chain = append(chain, n)
		prev = n
	}
	relax, nscf := chain[0], chain[2]

	relax.ApplyOverrides(relaxConvergenceParams(hint.AnyLayered()))
	applySolverWide(g, commonParams())
	nscf.ApplyOverrides(nscfParams(s))
	applySolverWide(g, opts.Overrides)

	finishGraph(g, s, opts, relax)

	if err := g.DetectCycles(); err != nil {
		return nil, fmt.Errorf("validating workflow graph: %w", err)
	}
	return g, nil
}

// applySolverWide merges a parameter layer into every node that invokes the
// solver, leaving aggregation-style nodes untouched.
func applySolverWide(g *Graph, layer map[string]any) {
	if len(layer) == 0 {
		return
	}
	for _, n := range g.Nodes {
		if n.Kind.SolverJob() {
			n.ApplyOverrides(layer)
		}
	}
}

// finishGraph attaches run correlation tags and metadata and initializes
// the scheduler counters.
func finishGraph(g *Graph, s *crystal.Structure, opts Options, relax *Node) {
	for _, n := range g.Nodes {
		n.Tags = append(n.Tags, g.RunID)
		n.Tags = append(n.Tags, g.Tags...)
	}
	if opts.StabilityCheck {
		relax.Tags = append(relax.Tags, "stability-check")
	}
	if opts.AddMetadata {
		g.Meta = map[string]any{
			"formula":         s.ReducedFormula(),
			"num_sites":       s.NumSites(),
			"total_electrons": s.TotalElectrons(),
		}
	}
	g.InitCounters()
}
