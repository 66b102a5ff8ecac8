package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEventLogService_NormalizesFilter(t *testing.T) {
	erepo := &fakeEventRepo{}
	els := NewEventLogService(erepo)

	loc := time.FixedZone("UTC+5", 5*3600)
	from := time.Date(2026, 8, 1, 10, 0, 0, 0, loc)
	to := time.Date(2026, 8, 2, 10, 0, 0, 0, loc)

	if _, err := els.List(context.Background(), LogFilter{From: from, To: to, Type: "  trigger "}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if erepo.lastFrom.Location() != time.UTC || erepo.lastTo.Location() != time.UTC {
		t.Fatalf("filter times not normalized to UTC: %v / %v", erepo.lastFrom, erepo.lastTo)
	}
	if erepo.lastType != "TRIGGER" {
		t.Fatalf("type = %q, want TRIGGER", erepo.lastType)
	}
}

func TestEventLogService_RejectsInvertedRange(t *testing.T) {
	els := NewEventLogService(&fakeEventRepo{})

	from := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := els.List(context.Background(), LogFilter{From: from, To: to})
	if !errors.Is(err, errInvalidTimeRange) {
		t.Fatalf("expected errInvalidTimeRange, got %v", err)
	}
}

func TestEventLogService_ZeroTimesPassThrough(t *testing.T) {
	erepo := &fakeEventRepo{}
	els := NewEventLogService(erepo)

	if _, err := els.List(context.Background(), LogFilter{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if !erepo.lastFrom.IsZero() || !erepo.lastTo.IsZero() {
		t.Fatalf("zero bounds were altered: %v / %v", erepo.lastFrom, erepo.lastTo)
	}
}
