package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"gsj_gateway/internal/logger"
	"gsj_gateway/internal/metrics"
	"gsj_gateway/internal/models"
	"gsj_gateway/internal/repository"
	"gsj_gateway/internal/session"

	"github.com/google/uuid"
)

// LoginService runs an uncached login with credentials from the request.
type LoginService struct {
	auth      session.Authenticator
	eventRepo repository.EventRepo
	metrics   *metrics.Metrics
	log       *logger.Logger
}

func NewLoginService(auth session.Authenticator, eventRepo repository.EventRepo, m *metrics.Metrics, log *logger.Logger) *LoginService {
	return &LoginService{auth: auth, eventRepo: eventRepo, metrics: m, log: log}
}

func (s *LoginService) Login(ctx context.Context, creds models.Credentials) (models.Session, error) {
	if err := creds.Validate(); err != nil {
		return models.Session{}, &ValidationError{Field: "credentials", Msg: err.Error(), Err: err}
	}

	start := time.Now()
	sess, err := s.auth.Login(ctx, creds)
	took := time.Since(start)

	ev := models.Event{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Metadata: map[string]any{
			"username": creds.Username,
			"cached":   false,
			"took_ms":  took.Milliseconds(),
		},
	}
	if err != nil {
		s.metrics.Login(metrics.OutcomeError)
		s.log.Warnw("per_request_login_failed", "username", creds.Username, "error", err)
		ev.Type = models.EventLoginFailed
		ev.Description = "Per-request login failed: " + err.Error()
	} else {
		ev.Type = models.EventLogin
		ev.Description = "Per-request login succeeded"
	}
	if appendErr := s.eventRepo.Append(ctx, ev); appendErr != nil {
		s.log.Warnw("event_append_failed", "type", ev.Type, "error", appendErr)
	}
	return sess, err
}

// SessionService reports on and refreshes the shared session.
type SessionService struct {
	store SessionStore
}

func NewSessionService(store SessionStore) *SessionService {
	return &SessionService{store: store}
}

func (s *SessionService) Status() SessionStatus {
	cur := s.store.Current()
	return SessionStatus{Active: !cur.IsZero(), ObtainedAt: cur.ObtainedAt}
}

func (s *SessionService) Relogin(ctx context.Context) (models.Session, error) {
	return s.store.Relogin(ctx)
}

// SessionObserver writes session lifecycle events to the event log and metrics.
type SessionObserver struct {
	eventRepo repository.EventRepo
	metrics   *metrics.Metrics
	log       *logger.Logger
}

func NewSessionObserver(eventRepo repository.EventRepo, m *metrics.Metrics, log *logger.Logger) *SessionObserver {
	return &SessionObserver{eventRepo: eventRepo, metrics: m, log: log}
}

func (o *SessionObserver) LoginSucceeded(ctx context.Context, sess models.Session, took time.Duration) {
	o.metrics.Login(metrics.OutcomeOK)
	names := make([]string, 0, len(sess.Cookies))
	for name := range sess.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	o.append(ctx, models.Event{
		Type:        models.EventLogin,
		Description: "Portal session established",
		Metadata:    map[string]any{"cached": true, "took_ms": took.Milliseconds(), "cookies": names},
	})
}

func (o *SessionObserver) LoginFailed(ctx context.Context, err error, took time.Duration) {
	o.metrics.Login(metrics.OutcomeError)
	meta := map[string]any{"cached": true, "took_ms": took.Milliseconds(), "error": err.Error()}
	if errors.Is(err, session.ErrLoginThrottled) {
		meta["throttled"] = true
	}
	o.append(ctx, models.Event{
		Type:        models.EventLoginFailed,
		Description: "Portal login failed",
		Metadata:    meta,
	})
}

func (o *SessionObserver) Invalidated(ctx context.Context, stale models.Session) {
	o.metrics.Invalidated()
	o.append(ctx, models.Event{
		Type:        models.EventSessionExpired,
		Description: "Portal rejected the cached session",
		Metadata:    map[string]any{"obtained_at": stale.ObtainedAt},
	})
}

func (o *SessionObserver) append(ctx context.Context, ev models.Event) {
	ev.EventID = uuid.NewString()
	ev.OccurredAt = time.Now().UTC()
	if err := o.eventRepo.Append(ctx, ev); err != nil {
		o.log.Warnw("event_append_failed", "type", ev.Type, "error", err)
	}
}
