package models

import "time"

// MachineKind identifies the type of a manufacturing unit.
type MachineKind string

const (
	KindFurnace MachineKind = "FURNACE"
	KindLPDC    MachineKind = "LPDC"
	KindCNC     MachineKind = "CNC"
	KindBuffer  MachineKind = "BUFFER"
)

// MachineState is the lifecycle state of a single machine.
type MachineState string

const (
	StateIdle     MachineState = "IDLE"
	StateRunning  MachineState = "RUNNING"
	StateComplete MachineState = "COMPLETE"
	StateBlocked  MachineState = "BLOCKED"
)

// EngineState is the global run state of the orchestration engine.
// It is an independent axis from per-machine states.
type EngineState string

const (
	EngineIdle    EngineState = "IDLE"
	EngineRunning EngineState = "RUNNING"
)

// MachineSnapshot is the read-only tag projection of one machine.
type MachineSnapshot struct {
	ID       string       `json:"id"`
	Kind     MachineKind  `json:"kind"`
	State    MachineState `json:"state"`
	Progress float64      `json:"progress"` // 0.0 .. 1.0
	Cycles   int          `json:"cycles"`   // completed production cycles
}

// PlantSnapshot aggregates the engine run state and every machine snapshot.
// It is the only artifact external readers (SCADA binding, persistence,
// websocket push) are allowed to consume; it is always a detached copy.
type PlantSnapshot struct {
	EngineState EngineState       `json:"engine_state"`
	Tick        uint64            `json:"tick"`
	SimTime     time.Time         `json:"sim_time"`
	Machines    []MachineSnapshot `json:"machines"`
	Batches     []BatchSnapshot   `json:"batches,omitempty"`
	Ready       []string          `json:"ready,omitempty"` // machines eligible to start
	UpdatedAt   time.Time         `json:"updated_at"`
}
