package service

import (
	"context"
	"time"

	"gsj_gateway/internal/logger"
	"gsj_gateway/internal/models"
	"gsj_gateway/internal/repository"

	"github.com/google/uuid"
)

type sensorReader interface {
	Sensors(ctx context.Context) (models.Reading, error)
}

// RecorderService periodically stores telemetry snapshots as TELEMETRY events.
type RecorderService struct {
	device    sensorReader
	eventRepo repository.EventRepo
	log       *logger.Logger
}

func NewRecorderService(device sensorReader, eventRepo repository.EventRepo, log *logger.Logger) *RecorderService {
	return &RecorderService{device: device, eventRepo: eventRepo, log: log}
}

// Run ticks at the given interval until ctx is canceled. A non-positive tick disables it.
func (s *RecorderService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		return
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.record(ctx, now)
		}
	}
}

func (s *RecorderService) record(ctx context.Context, now time.Time) {
	reading, err := s.device.Sensors(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warnw("telemetry_read_failed", "error", err)
		}
		return
	}
	if err := s.eventRepo.Append(ctx, models.Event{
		EventID:     uuid.NewString(),
		OccurredAt:  now.UTC(),
		Type:        models.EventTelemetry,
		Description: "Telemetry snapshot",
		Metadata:    reading,
	}); err != nil {
		s.log.Warnw("event_append_failed", "type", models.EventTelemetry, "error", err)
	}
}
