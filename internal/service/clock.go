package service

import (
	"context"
	"fmt"
	"time"

	"plantsim/internal/metrics"
	"plantsim/internal/models"
	"plantsim/internal/repository"
	"plantsim/internal/sim"

	"github.com/google/uuid"
)

// ClockService is the single writer of simulation time: it drives
// engine.Tick at a fixed cadence, persists the aggregated snapshot and
// mirrors tick outcomes into the plant log and the Prometheus gauges.
type ClockService struct {
	engine       *sim.Engine
	snapshotRepo repository.SnapshotRepo
	eventRepo    repository.EventRepo
}

func NewClockService(engine *sim.Engine, snapshotRepo repository.SnapshotRepo, eventRepo repository.EventRepo) *ClockService {
	return &ClockService{
		engine:       engine,
		snapshotRepo: snapshotRepo,
		eventRepo:    eventRepo,
	}
}

// Run ticks at the given interval until ctx is canceled. Persistence and
// logging are best-effort: a slow or failing store must never stall the
// simulation clock.
func (s *ClockService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.step(ctx, now.UTC())
		}
	}
}

// step performs one tick and publishes its observable side effects.
func (s *ClockService) step(ctx context.Context, now time.Time) {
	res := s.engine.Tick(now)
	metrics.SimTicksTotal.Inc()

	for _, id := range res.Completed {
		metrics.CyclesCompletedTotal.WithLabelValues(id).Inc()
		_ = s.eventRepo.Append(ctx, models.PlantEvent{
			EventID:     uuid.NewString(),
			OccurredAt:  now,
			Type:        models.EventCycleComplete,
			Description: fmt.Sprintf("Machine %s completed a cycle", id),
			Metadata:    map[string]any{"machine_id": id},
		})
	}
	for _, id := range res.Started {
		_ = s.eventRepo.Append(ctx, models.PlantEvent{
			EventID:     uuid.NewString(),
			OccurredAt:  now,
			Type:        models.EventAutoStart,
			Description: fmt.Sprintf("Machine %s auto-started after dependencies completed", id),
			Metadata:    map[string]any{"machine_id": id},
		})
	}

	snap := s.engine.AggregateSnapshot()
	metrics.Publish(snap)
	_ = s.snapshotRepo.Save(ctx, snap)
}
