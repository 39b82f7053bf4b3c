package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gsj_gateway/internal/logger"
	"gsj_gateway/internal/models"
	"gsj_gateway/internal/repository"
)

const (
	defaultLogLimit = 200
	maxLogLimit     = 1000
)

var (
	errInvalidTimeRange = errors.New("from must not be after to")
	errUnknownEventType = errors.New("unknown event type")
)

var eventTypes = map[string]struct{}{
	models.EventLogin:          {},
	models.EventLoginFailed:    {},
	models.EventSessionExpired: {},
	models.EventSetParameter:   {},
	models.EventTelemetry:      {},
}

// EventLogService answers audit log queries.
type EventLogService struct {
	events repository.EventRepo
	now    func() time.Time
}

func NewEventLogService(events repository.EventRepo) *EventLogService {
	return &EventLogService{events: events, now: time.Now}
}

// normalize converts bounds to UTC, canonicalizes the type and clamps the limit.
func (f LogFilter) normalize() (LogFilter, error) {
	if !f.From.IsZero() {
		f.From = f.From.UTC()
	}
	if !f.To.IsZero() {
		f.To = f.To.UTC()
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return LogFilter{}, &ValidationError{Field: "range", Msg: errInvalidTimeRange.Error(), Err: errInvalidTimeRange}
	}

	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	if _, ok := eventTypes[f.Type]; f.Type != "" && !ok {
		return LogFilter{}, &ValidationError{Field: "type", Msg: fmt.Sprintf("%q", f.Type), Err: errUnknownEventType}
	}

	switch {
	case f.Limit < 0:
		return LogFilter{}, &ValidationError{Field: "limit", Msg: "must be positive"}
	case f.Limit == 0:
		f.Limit = defaultLogLimit
	case f.Limit > maxLogLimit:
		f.Limit = maxLogLimit
	}
	return f, nil
}

// List returns the newest f.Limit matching events, oldest first.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.Event, error) {
	f, err := f.normalize()
	if err != nil {
		return nil, err
	}
	events, err := s.events.List(ctx, f.From, f.To, f.Type, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Prune deletes events older than maxAge. A non-positive maxAge keeps everything.
func (s *EventLogService) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	return s.events.DeleteBefore(ctx, s.now().Add(-maxAge))
}

const retentionEvery = time.Hour

// RunRetention prunes once and then hourly until ctx is done.
func RunRetention(ctx context.Context, events EventLog, maxAge time.Duration, log *logger.Logger) {
	if maxAge <= 0 {
		return
	}
	prune := func() {
		n, err := events.Prune(ctx, maxAge)
		switch {
		case err != nil && ctx.Err() == nil:
			log.Warnw("event_prune_failed", "err", err)
		case n > 0:
			log.Infow("events_pruned", "deleted", n, "max_age", maxAge)
		}
	}

	prune()
	t := time.NewTicker(retentionEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			prune()
		}
	}
}
