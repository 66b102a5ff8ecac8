package sim

import "errors"

// Configuration errors are fatal at setup: the plant refuses to start
// rather than run with undefined timing or an unsound dependency graph.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrCycleDetected        = errors.New("dependency cycle detected")
)

// Operational errors are recoverable and reported to the caller; the
// engine's internal state is unchanged when one is returned.
var (
	ErrEngineNotRunning      = errors.New("engine is not running")
	ErrUnknownMachine        = errors.New("unknown machine")
	ErrUnknownBatch          = errors.New("unknown batch")
	ErrAlreadyRunning        = errors.New("machine already running")
	ErrMachineBlocked        = errors.New("machine is blocked")
	ErrDependencyUnsatisfied = errors.New("dependency unsatisfied")
	ErrStageAlreadyRecorded  = errors.New("stage outcome already recorded")
)

// ErrMaterialConservation is surfaced as a blocking condition on the batch,
// never as a crash; unaffected machines and batches keep running.
var ErrMaterialConservation = errors.New("material conservation violation")
