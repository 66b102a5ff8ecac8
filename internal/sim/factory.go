package sim

import (
	"fmt"

	"plantsim/internal/config"
	"plantsim/internal/models"
)

// Assemble builds the engine, machine roster, dependency graph and batches
// from configuration. Any configuration error (non-positive cycle time,
// cyclic dependency, malformed batch) fails here, before the first tick.
func Assemble(cfg *config.Config) (*Engine, error) {
	var (
		graph   *Graph
		tracker *Tracker
	)
	mode := Mode(cfg.Sim.Mode)
	if mode == ModeDependency {
		graph = NewGraph()
		for _, e := range cfg.Dependencies {
			if err := graph.AddEdge(e.Upstream, e.Downstream, Requirement{Quantity: e.Quantity}); err != nil {
				return nil, err
			}
		}
		if len(cfg.Batches) > 0 {
			tracker = NewTracker(graph)
			for _, bc := range cfg.Batches {
				b, err := NewBatch(bc.ID, bc.Quantity, bc.Stages)
				if err != nil {
					return nil, err
				}
				if err := tracker.Add(b); err != nil {
					return nil, err
				}
			}
		}
	} else if len(cfg.Dependencies) > 0 {
		return nil, fmt.Errorf("%w: dependency edges configured but sim.mode is %q", ErrInvalidConfiguration, cfg.Sim.Mode)
	}

	eng, err := NewEngine(Options{
		Mode:      mode,
		StopMode:  StopMode(cfg.Sim.StopMode),
		AutoStart: cfg.Sim.AutoStart,
	}, graph, tracker)
	if err != nil {
		return nil, err
	}

	for _, mc := range cfg.Machines {
		m, err := NewMachine(mc.ID, models.MachineKind(mc.Kind), mc.CycleTime)
		if err != nil {
			return nil, err
		}
		if err := eng.Register(m); err != nil {
			return nil, err
		}
	}
	return eng, nil
}
