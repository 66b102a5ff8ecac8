package service

import (
	"context"
	"errors"
	"time"

	"plantsim/internal/metrics"
	"plantsim/internal/models"
	"plantsim/internal/repository"
	"plantsim/internal/sim"

	"github.com/google/uuid"
)

// ControlService routes operator commands through the engine and records
// them in the plant log. Event append failures never roll a successful
// command back; the log is best-effort.
type ControlService struct {
	engine    *sim.Engine
	eventRepo repository.EventRepo
}

func NewControlService(engine *sim.Engine, eventRepo repository.EventRepo) *ControlService {
	return &ControlService{engine: engine, eventRepo: eventRepo}
}

// Start puts the engine into RUNNING and logs ENGINE_START. Idempotent.
func (s *ControlService) Start(ctx context.Context) error {
	s.engine.Start()
	return s.eventRepo.Append(ctx, models.PlantEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventEngineStart,
		Description: "Engine started",
	})
}

// Stop puts the engine into IDLE and logs ENGINE_STOP. Idempotent; what
// happens to in-flight machines depends on the configured stop mode.
func (s *ControlService) Stop(ctx context.Context) error {
	s.engine.Stop()
	return s.eventRepo.Append(ctx, models.PlantEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventEngineStop,
		Description: "Engine stopped",
	})
}

// TriggerMachine starts one machine's production cycle. Rejections leave
// engine and machine state untouched and are counted by reason.
func (s *ControlService) TriggerMachine(ctx context.Context, id string) error {
	now := time.Now().UTC()
	if err := s.engine.TriggerMachine(id, now); err != nil {
		metrics.TriggerFailuresTotal.WithLabelValues(triggerFailureReason(err)).Inc()
		return err
	}
	return s.eventRepo.Append(ctx, models.PlantEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  now,
		Type:        models.EventTrigger,
		Description: "Machine " + id + " triggered",
		Metadata:    map[string]any{"machine_id": id},
	})
}

// triggerFailureReason maps operational errors to a stable metric label.
func triggerFailureReason(err error) string {
	switch {
	case errors.Is(err, sim.ErrEngineNotRunning):
		return "engine_not_running"
	case errors.Is(err, sim.ErrUnknownMachine):
		return "unknown_machine"
	case errors.Is(err, sim.ErrDependencyUnsatisfied):
		return "dependency_unsatisfied"
	case errors.Is(err, sim.ErrAlreadyRunning):
		return "already_running"
	case errors.Is(err, sim.ErrMachineBlocked):
		return "machine_blocked"
	default:
		return "other"
	}
}
