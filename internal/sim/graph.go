package sim

import (
	"fmt"
	"sort"

	"plantsim/internal/models"
)

// Requirement describes what a downstream machine needs from one upstream
// edge. Quantity 0 means completion of the upstream stage is enough.
type Requirement struct {
	Quantity float64
}

// Edge is a directed material/production dependency between two machines.
type Edge struct {
	Upstream   string
	Downstream string
	Req        Requirement
}

// Graph declares the production dependencies between machines. The relation
// must stay acyclic: AddEdge re-validates the whole graph, not just the new
// edge. Satisfaction uses AND semantics over all upstream edges; OR would
// need an explicit separate edge type and is intentionally unsupported.
type Graph struct {
	byDownstream map[string][]Edge
	byUpstream   map[string][]Edge
	nodes        map[string]struct{}
}

func NewGraph() *Graph {
	return &Graph{
		byDownstream: make(map[string][]Edge),
		byUpstream:   make(map[string][]Edge),
		nodes:        make(map[string]struct{}),
	}
}

// AddEdge registers a dependency and fails with ErrCycleDetected if the
// resulting edge set contains a cycle. The rejected edge is not retained.
func (g *Graph) AddEdge(upstream, downstream string, req Requirement) error {
	if upstream == "" || downstream == "" {
		return fmt.Errorf("%w: dependency edge with empty machine id", ErrInvalidConfiguration)
	}
	if upstream == downstream {
		return fmt.Errorf("%w: %s depends on itself", ErrCycleDetected, upstream)
	}
	for _, e := range g.byDownstream[downstream] {
		if e.Upstream == upstream {
			return fmt.Errorf("%w: duplicate edge %s -> %s", ErrInvalidConfiguration, upstream, downstream)
		}
	}
	if req.Quantity < 0 {
		return fmt.Errorf("%w: edge %s -> %s: negative quantity", ErrInvalidConfiguration, upstream, downstream)
	}

	edge := Edge{Upstream: upstream, Downstream: downstream, Req: req}
	g.byDownstream[downstream] = append(g.byDownstream[downstream], edge)
	g.byUpstream[upstream] = append(g.byUpstream[upstream], edge)
	g.nodes[upstream] = struct{}{}
	g.nodes[downstream] = struct{}{}

	if !g.acyclic() {
		// roll back the tentative edge
		g.byDownstream[downstream] = g.byDownstream[downstream][:len(g.byDownstream[downstream])-1]
		g.byUpstream[upstream] = g.byUpstream[upstream][:len(g.byUpstream[upstream])-1]
		return fmt.Errorf("%w: adding %s -> %s closes a cycle", ErrCycleDetected, upstream, downstream)
	}
	return nil
}

// Upstream returns the dependency edges feeding the given machine.
func (g *Graph) Upstream(downstream string) []Edge {
	return g.byDownstream[downstream]
}

// HasUpstream reports whether the machine has any upstream dependency.
func (g *Graph) HasUpstream(downstream string) bool {
	return len(g.byDownstream[downstream]) > 0
}

// Nodes returns all machine ids mentioned by the graph, sorted.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// IsSatisfied reports whether every upstream edge of the downstream machine
// is met by the batch's recorded outcomes and remaining material. All edges
// must be satisfied (AND semantics).
func (g *Graph) IsSatisfied(downstream string, b *Batch) error {
	for _, e := range g.byDownstream[downstream] {
		st := b.stage(e.Upstream)
		if st == nil {
			return fmt.Errorf("%w: batch %s has no stage at upstream %s", ErrDependencyUnsatisfied, b.id, e.Upstream)
		}
		if st.outcome != models.StagePassed {
			return fmt.Errorf("%w: upstream %s is %s for batch %s", ErrDependencyUnsatisfied, e.Upstream, st.outcome, b.id)
		}
		if e.Req.Quantity > 0 && st.available() < e.Req.Quantity {
			return fmt.Errorf("%w: upstream %s has %.3f available, edge requires %.3f",
				ErrDependencyUnsatisfied, e.Upstream, st.available(), e.Req.Quantity)
		}
	}
	return nil
}

// acyclic runs Kahn's algorithm over the whole edge set.
func (g *Graph) acyclic() bool {
	indeg := make(map[string]int, len(g.nodes))
	for n := range g.nodes {
		indeg[n] = len(g.byDownstream[n])
	}

	var ready []string
	for n, d := range indeg {
		if d == 0 {
			ready = append(ready, n)
		}
	}

	visited := 0
	for len(ready) > 0 {
		n := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		visited++
		for _, e := range g.byUpstream[n] {
			indeg[e.Downstream]--
			if indeg[e.Downstream] == 0 {
				ready = append(ready, e.Downstream)
			}
		}
	}
	return visited == len(g.nodes)
}
