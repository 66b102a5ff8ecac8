package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plantsim/internal/models"
	"plantsim/internal/repository"
	"plantsim/internal/sim"

	"github.com/google/uuid"
)

// BatchService records batch stage outcomes through the engine and mirrors
// significant transitions into the plant log.
type BatchService struct {
	engine    *sim.Engine
	eventRepo repository.EventRepo
}

func NewBatchService(engine *sim.Engine, eventRepo repository.EventRepo) *BatchService {
	return &BatchService{engine: engine, eventRepo: eventRepo}
}

// AdvanceStage validates quantities before handing the outcome to the
// tracker. A conservation violation or a failed quality gate blocks the
// batch; both are logged as BATCH_BLOCKED.
func (s *BatchService) AdvanceStage(ctx context.Context, batchID, machineID string, p StageParams) error {
	now := time.Now().UTC()
	err := s.engine.AdvanceStage(batchID, machineID, sim.StageResult{
		Passed:      p.Passed,
		QtyConsumed: p.QtyConsumed,
		QtyProduced: p.QtyProduced,
	})
	switch {
	case errors.Is(err, sim.ErrMaterialConservation):
		_ = s.eventRepo.Append(ctx, models.PlantEvent{
			EventID:     uuid.NewString(),
			OccurredAt:  now,
			Type:        models.EventBatchBlocked,
			Description: fmt.Sprintf("Batch %s blocked at %s: material conservation violated", batchID, machineID),
			Metadata:    map[string]any{"batch_id": batchID, "machine_id": machineID, "qty_consumed": p.QtyConsumed},
		})
		return err
	case err != nil:
		return err
	}

	evType := models.EventStageAdvanced
	desc := fmt.Sprintf("Batch %s passed stage %s", batchID, machineID)
	if !p.Passed {
		evType = models.EventBatchBlocked
		desc = fmt.Sprintf("Batch %s failed quality gate at %s", batchID, machineID)
	}
	return s.eventRepo.Append(ctx, models.PlantEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  now,
		Type:        evType,
		Description: desc,
		Metadata: map[string]any{
			"batch_id":     batchID,
			"machine_id":   machineID,
			"passed":       p.Passed,
			"qty_consumed": p.QtyConsumed,
			"qty_produced": p.QtyProduced,
		},
	})
}

// RetryStage reactivates a blocked batch on explicit operator request.
func (s *BatchService) RetryStage(ctx context.Context, batchID, machineID string) error {
	if err := s.engine.RetryStage(batchID, machineID); err != nil {
		return err
	}
	return s.eventRepo.Append(ctx, models.PlantEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventStageRetried,
		Description: fmt.Sprintf("Batch %s stage %s reset for retry", batchID, machineID),
		Metadata:    map[string]any{"batch_id": batchID, "machine_id": machineID},
	})
}

// Get returns a detached view of one batch.
func (s *BatchService) Get(ctx context.Context, batchID string) (models.BatchSnapshot, error) {
	return s.engine.BatchSnapshot(batchID)
}
