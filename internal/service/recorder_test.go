package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gsj_gateway/internal/logger"
	"gsj_gateway/internal/models"
)

type stubSensors struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubSensors) Sensors(ctx context.Context) (models.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return models.Reading{}, s.err
	}
	return models.Reading{HeatingTempC: 40, HeatingStatus: 1}, nil
}

func TestRecorderService_RecordsTelemetry(t *testing.T) {
	events := &memEventRepo{}
	rec := NewRecorderService(&stubSensors{}, events, logger.Nop())

	rec.record(context.Background(), time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC))

	evs := events.ofType(models.EventTelemetry)
	if len(evs) != 1 {
		t.Fatalf("expected one TELEMETRY event, got %d", len(evs))
	}
	r, ok := evs[0].Metadata.(models.Reading)
	if !ok || r.HeatingTempC != 40 {
		t.Fatalf("unexpected metadata %+v", evs[0].Metadata)
	}
	if !evs[0].OccurredAt.Equal(time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", evs[0].OccurredAt)
	}
}

func TestRecorderService_ReadErrorSkipsEvent(t *testing.T) {
	events := &memEventRepo{}
	rec := NewRecorderService(&stubSensors{err: errors.New("portal down")}, events, logger.Nop())

	rec.record(context.Background(), time.Now())

	if n := len(events.ofType("")); n != 0 {
		t.Fatalf("expected no events, got %d", n)
	}
}

func TestRecorderService_RunStopsOnCancel(t *testing.T) {
	sensors := &stubSensors{}
	rec := NewRecorderService(sensors, &memEventRepo{}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rec.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
	sensors.mu.Lock()
	defer sensors.mu.Unlock()
	if sensors.calls == 0 {
		t.Fatalf("expected at least one tick")
	}
}

func TestRecorderService_DisabledReturnsImmediately(t *testing.T) {
	rec := NewRecorderService(&stubSensors{}, &memEventRepo{}, logger.Nop())
	done := make(chan struct{})
	go func() {
		rec.Run(context.Background(), 0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run with zero tick should return")
	}
}
