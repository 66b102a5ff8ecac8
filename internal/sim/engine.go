package sim

import (
	"fmt"
	"sync"
	"time"

	"plantsim/internal/models"
)

// StopMode selects what Stop does to in-flight machines.
type StopMode string

const (
	// StopGraceful halts acceptance of new triggers but lets running
	// machines finish their cycle.
	StopGraceful StopMode = "graceful"
	// StopHard additionally forces running machines back to IDLE.
	StopHard StopMode = "hard"
)

// Options fixes the engine's orchestration behavior at construction time.
type Options struct {
	Mode      Mode
	StopMode  StopMode
	AutoStart bool // dependency mode: trigger newly eligible machines during the tick
}

// TickResult reports what happened during one tick so callers can log and
// persist without reaching into live engine state.
type TickResult struct {
	Completed []string // machines that finished a cycle this tick
	Started   []string // machines auto-started after dependency re-evaluation
	Ready     []string // machines eligible but left for an explicit trigger
}

// Engine is the central orchestration authority. It exclusively owns every
// Machine's state: all writes are serialized under its lock and causally
// ordered by tick, while readers only ever receive detached snapshots.
type Engine struct {
	mu   sync.RWMutex
	opts Options

	state    models.EngineState
	order    []string
	machines map[string]*Machine

	policy  policy
	graph   *Graph
	tracker *Tracker

	tick    uint64
	simTime time.Time
	current models.PlantSnapshot
}

// NewEngine wires the engine for the requested mode. Dependency mode
// requires a graph; the tracker may be nil when no batches are defined.
func NewEngine(opts Options, graph *Graph, tracker *Tracker) (*Engine, error) {
	e := &Engine{
		opts:     opts,
		state:    models.EngineIdle,
		machines: make(map[string]*Machine),
		graph:    graph,
		tracker:  tracker,
	}
	switch opts.Mode {
	case ModeIndependent:
		e.policy = independentPolicy{}
	case ModeDependency:
		if graph == nil {
			return nil, fmt.Errorf("%w: dependency mode requires a dependency graph", ErrInvalidConfiguration)
		}
		e.policy = &dependencyPolicy{
			graph:   graph,
			tracker: tracker,
			stateOf: e.machineState,
		}
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfiguration, opts.Mode)
	}
	switch opts.StopMode {
	case StopGraceful, StopHard:
	default:
		return nil, fmt.Errorf("%w: unknown stop mode %q", ErrInvalidConfiguration, opts.StopMode)
	}
	e.rebuildSnapshotLocked(nil)
	return e, nil
}

// Register adds a machine to the roster. Machines are created once at
// system start and never destroyed during a run.
func (e *Engine) Register(m *Machine) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.machines[m.ID()]; dup {
		return fmt.Errorf("%w: duplicate machine id %s", ErrInvalidConfiguration, m.ID())
	}
	e.machines[m.ID()] = m
	e.order = append(e.order, m.ID())
	e.rebuildSnapshotLocked(nil)
	return nil
}

// machineState is the read hook handed to the dependency policy. Callers
// already hold the engine lock.
func (e *Engine) machineState(id string) (models.MachineState, bool) {
	m, ok := e.machines[id]
	if !ok {
		return "", false
	}
	return m.State(), true
}

// Start flips the engine to RUNNING. Idempotent.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = models.EngineRunning
	e.rebuildSnapshotLocked(nil)
}

// Stop flips the engine to IDLE. Idempotent, and always leaves every
// machine in a well-defined state: graceful mode lets in-flight cycles
// finish on later ticks, hard mode forces them back to IDLE now.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = models.EngineIdle
	if e.opts.StopMode == StopHard {
		for _, id := range e.order {
			if m := e.machines[id]; m.State() == models.StateRunning {
				m.ForceIdle()
			}
		}
	}
	e.rebuildSnapshotLocked(nil)
}

// State returns the engine run state.
func (e *Engine) State() models.EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// TriggerMachine validates preconditions and delegates to Machine.Trigger.
// On any failure no machine state is mutated.
func (e *Engine) TriggerMachine(id string, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != models.EngineRunning {
		return fmt.Errorf("%w: trigger for %s rejected", ErrEngineNotRunning, id)
	}
	m, ok := e.machines[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMachine, id)
	}
	if err := e.policy.eligible(id); err != nil {
		return err
	}
	if m.State() == models.StateBlocked {
		// dependency now satisfied; lift the block before triggering
		m.Unblock()
	}
	if err := m.Trigger(now); err != nil {
		return err
	}
	e.rebuildSnapshotLocked(&now)
	return nil
}

// Tick advances every registered machine with the same currentTime, in
// registration order. It is the single serialization point for time
// progression. Dependency re-evaluation happens strictly after all machines
// have advanced, never interleaved, so a downstream machine cannot start on
// a stale upstream state from the same tick.
//
// Machines that are already RUNNING keep advancing even while the engine is
// stopped (graceful semantics); only new triggers are gated on the engine
// run state.
func (e *Engine) Tick(now time.Time) TickResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res TickResult
	for _, id := range e.order {
		m := e.machines[id]
		if m.Advance(now) {
			res.Completed = append(res.Completed, id)
			if !e.policy.holdComplete() {
				m.Reset()
			}
		}
	}

	if e.state == models.EngineRunning {
		e.reevaluateLocked(now, &res)
	}

	e.tick++
	e.simTime = now
	e.rebuildSnapshotLocked(&now)
	return res
}

// reevaluateLocked blocks, unblocks and (optionally) auto-starts machines
// after all of them have advanced for this tick.
func (e *Engine) reevaluateLocked(now time.Time, res *TickResult) {
	for _, id := range e.order {
		m := e.machines[id]
		if !e.policy.gated(id) {
			continue
		}
		err := e.policy.eligible(id)
		switch m.State() {
		case models.StateIdle:
			if err != nil {
				m.Block()
			} else if e.opts.AutoStart {
				if terr := m.Trigger(now); terr == nil {
					res.Started = append(res.Started, id)
				}
			} else {
				res.Ready = append(res.Ready, id)
			}
		case models.StateBlocked:
			if err == nil {
				m.Unblock()
				if e.opts.AutoStart {
					if terr := m.Trigger(now); terr == nil {
						res.Started = append(res.Started, id)
					}
				} else {
					res.Ready = append(res.Ready, id)
				}
			}
		}
	}
}

// AdvanceStage records a batch stage outcome through the engine so all
// mutation stays behind one lock. A conservation violation blocks only the
// affected batch.
func (e *Engine) AdvanceStage(batchID, machineID string, res StageResult) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tracker == nil {
		return fmt.Errorf("%w: no batches configured", ErrUnknownBatch)
	}
	err := e.tracker.AdvanceStage(batchID, machineID, res)
	e.rebuildSnapshotLocked(nil)
	return err
}

// RetryStage is the explicit operator retry for a blocked batch.
func (e *Engine) RetryStage(batchID, machineID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tracker == nil {
		return fmt.Errorf("%w: no batches configured", ErrUnknownBatch)
	}
	err := e.tracker.RetryStage(batchID, machineID)
	e.rebuildSnapshotLocked(nil)
	return err
}

// BatchSnapshot returns a detached view of one batch.
func (e *Engine) BatchSnapshot(id string) (models.BatchSnapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.tracker == nil {
		return models.BatchSnapshot{}, fmt.Errorf("%w: no batches configured", ErrUnknownBatch)
	}
	b, err := e.tracker.Get(id)
	if err != nil {
		return models.BatchSnapshot{}, err
	}
	return b.Snapshot(), nil
}

// AggregateSnapshot returns the plant snapshot assembled at the last state
// change. The copy is isolated from live engine state, so callers can hold
// or mutate it freely while ticks continue.
func (e *Engine) AggregateSnapshot() models.PlantSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copySnapshot(e.current)
}

// MachineSnapshot returns the latest snapshot of a single machine.
func (e *Engine) MachineSnapshot(id string) (models.MachineSnapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.machines[id]
	if !ok {
		return models.MachineSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownMachine, id)
	}
	return m.Snapshot(e.simTime), nil
}

// rebuildSnapshotLocked reassembles the cached aggregate. now overrides the
// progress reference time when the rebuild is caused by an out-of-tick
// mutation (trigger, stage advance); otherwise the last tick time is used so
// all machines are observed at the same instant.
func (e *Engine) rebuildSnapshotLocked(now *time.Time) {
	at := e.simTime
	if now != nil {
		at = *now
	}
	snap := models.PlantSnapshot{
		EngineState: e.state,
		Tick:        e.tick,
		SimTime:     e.simTime,
		Machines:    make([]models.MachineSnapshot, 0, len(e.order)),
		UpdatedAt:   time.Now().UTC(),
	}
	for _, id := range e.order {
		snap.Machines = append(snap.Machines, e.machines[id].Snapshot(at))
	}
	if e.tracker != nil {
		snap.Batches = e.tracker.Snapshots()
	}
	for _, id := range e.order {
		m := e.machines[id]
		if e.policy.gated(id) && m.State() != models.StateRunning && e.policy.eligible(id) == nil {
			snap.Ready = append(snap.Ready, id)
		}
	}
	e.current = snap
}

func copySnapshot(s models.PlantSnapshot) models.PlantSnapshot {
	out := s
	out.Machines = append([]models.MachineSnapshot(nil), s.Machines...)
	out.Ready = append([]string(nil), s.Ready...)
	out.Batches = make([]models.BatchSnapshot, len(s.Batches))
	for i, b := range s.Batches {
		bc := b
		bc.Stages = append([]models.StageSnapshot(nil), b.Stages...)
		out.Batches[i] = bc
	}
	return out
}
