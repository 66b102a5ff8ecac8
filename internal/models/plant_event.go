package models

import "time"

// Event types appended to the plant log.
const (
	EventEngineStart   = "ENGINE_START"
	EventEngineStop    = "ENGINE_STOP"
	EventTrigger       = "TRIGGER"
	EventAutoStart     = "AUTO_START"
	EventCycleComplete = "CYCLE_COMPLETE"
	EventStageAdvanced = "STAGE_ADVANCED"
	EventBatchBlocked  = "BATCH_BLOCKED"
	EventStageRetried  = "STAGE_RETRIED"
	EventError         = "ERROR"
)

// PlantEvent is a single log entry.
type PlantEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // see Event* constants
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
