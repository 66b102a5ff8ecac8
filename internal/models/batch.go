package models

// BatchState is the lifecycle state of a production batch.
type BatchState string

const (
	BatchActive   BatchState = "ACTIVE"
	BatchBlocked  BatchState = "BLOCKED"
	BatchComplete BatchState = "COMPLETE"
)

// StageOutcome records the quality-gate result of one batch stage.
type StageOutcome string

const (
	StagePending StageOutcome = "PENDING"
	StagePassed  StageOutcome = "PASS"
	StageFailed  StageOutcome = "FAIL"
)

// StageSnapshot is the recorded outcome and material bookkeeping for one
// stage of a batch's path.
type StageSnapshot struct {
	MachineID string       `json:"machine_id"`
	Outcome   StageOutcome `json:"outcome"`
	QtyIn     float64      `json:"qty_in"`
	QtyOut    float64      `json:"qty_out"`
}

// BatchSnapshot is the read-only projection of a batch.
type BatchSnapshot struct {
	ID       string          `json:"id"`
	State    BatchState      `json:"state"`
	Quantity float64         `json:"quantity"` // material carried into the first stage
	Stages   []StageSnapshot `json:"stages"`
}
