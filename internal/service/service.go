package service

import (
	"context"
	"time"

	"plantsim/internal/models"
	"plantsim/internal/repository"
	"plantsim/internal/sim"
)

// StageParams carries a recorded batch stage outcome from the operator
// layer into the tracker.
type StageParams struct {
	Passed      bool
	QtyConsumed float64
	QtyProduced float64
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "" or one of the models.Event* constants
}

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Control exposes the trigger interface: engine start/stop and machine
// triggers from the external sequencing/operator layer.
type Control interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	TriggerMachine(ctx context.Context, id string) error
}

// Batches exposes batch stage recording and the explicit operator retry.
type Batches interface {
	AdvanceStage(ctx context.Context, batchID, machineID string, p StageParams) error
	RetryStage(ctx context.Context, batchID, machineID string) error
	Get(ctx context.Context, batchID string) (models.BatchSnapshot, error)
}

// Monitoring is the tag exposure interface: read-only snapshots of the
// aggregate and of single machines.
type Monitoring interface {
	Snapshot(ctx context.Context) (models.PlantSnapshot, error)
	MachineSnapshot(ctx context.Context, id string) (models.MachineSnapshot, error)
}

// EventLog exposes the append-only plant log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.PlantEvent, error)
}

// Clock runs the background loop that drives simulation ticks.
// Stop via context cancellation in main() for graceful shutdown.
type Clock interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Control
	Batches
	Monitoring
	EventLog
	Clock
	Authorization
}

// NewService wires the engine and repository layer into concrete services.
func NewService(repos *repository.Repository, engine *sim.Engine) *Service {
	return &Service{
		Control:       NewControlService(engine, repos.Events),
		Batches:       NewBatchService(engine, repos.Events),
		Monitoring:    NewMonitoringService(engine),
		EventLog:      NewEventLogService(repos.Events),
		Clock:         NewClockService(engine, repos.Snapshots, repos.Events),
		Authorization: NewAuthService(repos.Auth),
	}
}
