package sim

import (
	"fmt"
	"time"

	"plantsim/internal/models"
)

// Machine is the state machine and progress model of a single manufacturing
// unit. It owns no clock: progress is always a pure function of the time
// passed in by the engine, so runs are reproducible given the same tick
// sequence. All mutation goes through the engine; Machine itself is not
// safe for concurrent use.
type Machine struct {
	id        string
	kind      models.MachineKind
	cycleTime time.Duration

	state     models.MachineState
	startedAt time.Time
	cycles    int
}

// NewMachine validates the fixed configuration. A non-positive cycle time is
// fatal at setup.
func NewMachine(id string, kind models.MachineKind, cycleTime time.Duration) (*Machine, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: machine id is empty", ErrInvalidConfiguration)
	}
	if cycleTime <= 0 {
		return nil, fmt.Errorf("%w: machine %s: cycle time must be > 0, got %s", ErrInvalidConfiguration, id, cycleTime)
	}
	return &Machine{
		id:        id,
		kind:      kind,
		cycleTime: cycleTime,
		state:     models.StateIdle,
	}, nil
}

func (m *Machine) ID() string                 { return m.id }
func (m *Machine) Kind() models.MachineKind   { return m.kind }
func (m *Machine) State() models.MachineState { return m.state }
func (m *Machine) CycleTime() time.Duration   { return m.cycleTime }
func (m *Machine) Cycles() int                { return m.cycles }

// Trigger starts a production cycle at the given simulation time. It is
// valid from IDLE or COMPLETE only; re-triggering a RUNNING machine is an
// error and must never reset the in-flight start timestamp.
func (m *Machine) Trigger(now time.Time) error {
	switch m.state {
	case models.StateRunning:
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, m.id)
	case models.StateBlocked:
		return fmt.Errorf("%w: %s", ErrMachineBlocked, m.id)
	}
	m.state = models.StateRunning
	m.startedAt = now
	return nil
}

// Progress reports the cycle fraction at the given time, clamped to [0,1].
// It is the only place progress is computed.
func (m *Machine) Progress(now time.Time) float64 {
	switch m.state {
	case models.StateRunning:
		p := float64(now.Sub(m.startedAt)) / float64(m.cycleTime)
		if p < 0 {
			return 0
		}
		if p > 1 {
			return 1
		}
		return p
	case models.StateComplete:
		return 1
	default:
		return 0
	}
}

// Advance recomputes progress for the given time and reports whether the
// cycle completed during this call. On completion the machine transitions
// RUNNING -> COMPLETE and the start timestamp is cleared.
func (m *Machine) Advance(now time.Time) bool {
	if m.state != models.StateRunning {
		return false
	}
	if now.Sub(m.startedAt) < m.cycleTime {
		return false
	}
	m.state = models.StateComplete
	m.startedAt = time.Time{}
	m.cycles++
	return true
}

// Reset returns a COMPLETE machine to IDLE so it can accept the next cycle.
// Machines are reset, never recreated, between cycles.
func (m *Machine) Reset() {
	if m.state == models.StateComplete {
		m.state = models.StateIdle
	}
}

// Block marks an idle machine as waiting on upstream dependencies.
func (m *Machine) Block() {
	if m.state == models.StateIdle {
		m.state = models.StateBlocked
	}
}

// Unblock lifts a dependency block, returning the machine to IDLE.
func (m *Machine) Unblock() {
	if m.state == models.StateBlocked {
		m.state = models.StateIdle
	}
}

// ForceIdle aborts any in-flight cycle. Used by the engine's hard-stop mode;
// the interrupted cycle is not counted.
func (m *Machine) ForceIdle() {
	m.state = models.StateIdle
	m.startedAt = time.Time{}
}

// Snapshot returns an immutable read-only view of the machine at the given
// simulation time. Side-effect free.
func (m *Machine) Snapshot(now time.Time) models.MachineSnapshot {
	return models.MachineSnapshot{
		ID:       m.id,
		Kind:     m.kind,
		State:    m.state,
		Progress: m.Progress(now),
		Cycles:   m.cycles,
	}
}
