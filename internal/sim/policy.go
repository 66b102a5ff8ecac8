package sim

import (
	"fmt"

	"plantsim/internal/models"
)

// Mode selects the orchestration policy the engine runs with.
type Mode string

const (
	// ModeIndependent is the baseline: machines run independently, every
	// dependency check is trivially satisfied and machines return to IDLE
	// as soon as a cycle completes.
	ModeIndependent Mode = "independent"
	// ModeDependency gates machine eligibility on upstream completion and
	// batch quality-gate outcomes; completed machines hold COMPLETE until
	// reset so downstream consumers can observe them.
	ModeDependency Mode = "dependency"
)

// policy is the orchestration capability layer the engine is polymorphic
// over. The baseline-verified tick/trigger contracts do not change between
// implementations.
type policy interface {
	// eligible reports whether the machine may be triggered now.
	eligible(id string) error
	// holdComplete reports whether completed machines keep the COMPLETE
	// state (true) or reset to IDLE within the same tick (false).
	holdComplete() bool
	// gated reports whether the machine participates in dependency
	// blocking at all.
	gated(id string) bool
}

type independentPolicy struct{}

func (independentPolicy) eligible(string) error { return nil }
func (independentPolicy) holdComplete() bool    { return false }
func (independentPolicy) gated(string) bool     { return false }

// dependencyPolicy answers eligibility from the dependency graph, the
// machines' observed states and the batch tracker. stateOf is supplied by
// the engine so the policy never holds its own copy of machine state.
type dependencyPolicy struct {
	graph   *Graph
	tracker *Tracker
	stateOf func(id string) (models.MachineState, bool)
}

func (p *dependencyPolicy) eligible(id string) error {
	edges := p.graph.Upstream(id)
	if len(edges) == 0 {
		return nil
	}
	for _, e := range edges {
		st, ok := p.stateOf(e.Upstream)
		if !ok {
			return fmt.Errorf("%w: upstream %s is not a registered machine", ErrDependencyUnsatisfied, e.Upstream)
		}
		if st != models.StateComplete {
			return fmt.Errorf("%w: upstream %s is %s", ErrDependencyUnsatisfied, e.Upstream, st)
		}
	}
	if p.tracker != nil {
		if b := p.tracker.BatchAt(id); b != nil {
			return p.graph.IsSatisfied(id, b)
		}
	}
	return nil
}

func (p *dependencyPolicy) holdComplete() bool { return true }

func (p *dependencyPolicy) gated(id string) bool { return p.graph.HasUpstream(id) }
