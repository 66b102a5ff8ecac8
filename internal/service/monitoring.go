package service

import (
	"context"

	"plantsim/internal/models"
	"plantsim/internal/sim"
)

// MonitoringService serves read-only snapshots to the SCADA-facing layer.
// It never hands out references into live engine state.
type MonitoringService struct {
	engine *sim.Engine
}

func NewMonitoringService(engine *sim.Engine) *MonitoringService {
	return &MonitoringService{engine: engine}
}

// Snapshot returns the aggregate assembled at the engine's last state
// change. Values are internally consistent for this single call; separate
// polls may observe different ticks.
func (s *MonitoringService) Snapshot(ctx context.Context) (models.PlantSnapshot, error) {
	return s.engine.AggregateSnapshot(), nil
}

// MachineSnapshot returns the latest view of one machine.
func (s *MonitoringService) MachineSnapshot(ctx context.Context, id string) (models.MachineSnapshot, error) {
	return s.engine.MachineSnapshot(id)
}
