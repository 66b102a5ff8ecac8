package service

import (
	"context"
	"testing"
	"time"

	"plantsim/internal/models"
)

func TestClockService_StepCompletesCyclesAndPersists(t *testing.T) {
	eng := newTestEngine(t, "furnace-1")
	eng.Start()
	start := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	if err := eng.TriggerMachine("furnace-1", start); err != nil {
		t.Fatalf("trigger: %v", err)
	}

	erepo := &fakeEventRepo{}
	srepo := &fakeSnapshotRepo{}
	cs := NewClockService(eng, srepo, erepo)

	cs.step(context.Background(), start.Add(10*time.Second))

	if len(erepo.events) != 1 || erepo.events[0].Type != models.EventCycleComplete {
		t.Fatalf("events = %+v, want one CYCLE_COMPLETE", erepo.events)
	}
	if len(srepo.saved) != 1 {
		t.Fatalf("snapshot saves = %d, want 1", len(srepo.saved))
	}
	saved := srepo.saved[0]
	if saved.Tick != 1 {
		t.Fatalf("saved tick = %d, want 1", saved.Tick)
	}
	if saved.Machines[0].Cycles != 1 {
		t.Fatalf("saved machine cycles = %d, want 1", saved.Machines[0].Cycles)
	}
}

func TestClockService_StepWithNothingInFlight(t *testing.T) {
	eng := newTestEngine(t, "furnace-1")
	erepo := &fakeEventRepo{}
	srepo := &fakeSnapshotRepo{}
	cs := NewClockService(eng, srepo, erepo)

	cs.step(context.Background(), time.Now().UTC())

	if len(erepo.events) != 0 {
		t.Fatalf("idle tick appended events: %+v", erepo.events)
	}
	if len(srepo.saved) != 1 {
		t.Fatalf("snapshot saves = %d, want 1", len(srepo.saved))
	}
}

func TestClockService_RunStopsOnContextCancel(t *testing.T) {
	eng := newTestEngine(t, "furnace-1")
	cs := NewClockService(eng, &fakeSnapshotRepo{}, &fakeEventRepo{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cs.Run(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after context cancel")
	}
}
