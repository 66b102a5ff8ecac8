package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"plantsim/internal/models"
)

var (
	// EngineRunning is 1 while the orchestration engine accepts triggers.
	EngineRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "plant_engine_running",
		Help: "Whether the orchestration engine is in the RUNNING state",
	})

	// SimTicksTotal counts processed simulation ticks.
	SimTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plant_sim_ticks_total",
		Help: "Total number of simulation ticks processed",
	})

	// MachineProgress exposes the current cycle fraction per machine.
	MachineProgress = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "plant_machine_progress",
		Help: "Cycle progress (0.0-1.0) per machine",
	}, []string{"machine_id", "kind"})

	// MachineRunning is 1 while a machine is mid-cycle.
	MachineRunning = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "plant_machine_running",
		Help: "Whether a machine is currently RUNNING",
	}, []string{"machine_id", "kind"})

	// CyclesCompletedTotal counts completed production cycles per machine.
	CyclesCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plant_machine_cycles_completed_total",
		Help: "Completed production cycles per machine",
	}, []string{"machine_id"})

	// TriggerFailuresTotal counts rejected trigger attempts by reason.
	TriggerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plant_trigger_failures_total",
		Help: "Rejected machine trigger attempts by reason",
	}, []string{"reason"})
)

// Publish projects an aggregated snapshot onto the gauges. It only ever
// reads the detached snapshot, never live engine state.
func Publish(snap models.PlantSnapshot) {
	if snap.EngineState == models.EngineRunning {
		EngineRunning.Set(1)
	} else {
		EngineRunning.Set(0)
	}
	for _, m := range snap.Machines {
		MachineProgress.WithLabelValues(m.ID, string(m.Kind)).Set(m.Progress)
		running := 0.0
		if m.State == models.StateRunning {
			running = 1
		}
		MachineRunning.WithLabelValues(m.ID, string(m.Kind)).Set(running)
	}
}
