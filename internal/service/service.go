package service

import (
	"context"
	"time"

	"gsj_gateway/internal/logger"
	"gsj_gateway/internal/metrics"
	"gsj_gateway/internal/models"
	"gsj_gateway/internal/repository"
	"gsj_gateway/internal/session"
)

// Device exposes the heat pump: telemetry reads and control writes.
type Device interface {
	Sensors(ctx context.Context) (models.Reading, error)
	SetMode(ctx context.Context, c Circuit, state int) error
	SetSetpoint(ctx context.Context, c Circuit, value float64) error
}

// Session exposes the cached portal session.
type Session interface {
	Status() SessionStatus
	Relogin(ctx context.Context) (models.Session, error)
}

// PortalLogin performs a one-off login with caller-supplied credentials.
type PortalLogin interface {
	Login(ctx context.Context, creds models.Credentials) (models.Session, error)
}

// EventLog queries and prunes the audit log.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.Event, error)
	Prune(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Recorder samples telemetry into the event log until ctx is cancelled.
type Recorder interface {
	Run(ctx context.Context, tick time.Duration)
}

type Authorization interface {
	GenerateToken(subject string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// SessionStore is the subset of *session.Store the services rely on.
type SessionStore interface {
	Ensure(ctx context.Context) (models.Session, error)
	Invalidate(ctx context.Context, stale models.Session) bool
	Relogin(ctx context.Context) (models.Session, error)
	Current() models.Session
}

// PortalAPI is the portal's parameter endpoint pair.
type PortalAPI interface {
	ReadParameters(ctx context.Context, sess models.Session) (map[string]any, error)
	WriteParameter(ctx context.Context, sess models.Session, cmd models.Command) error
}

type Service struct {
	Device
	Session
	PortalLogin
	EventLog
	Recorder
	Authorization
}

// Deps carries everything NewService wires together.
type Deps struct {
	Store     SessionStore
	Portal    PortalAPI
	Auth      session.Authenticator
	JWTSecret string
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

func NewService(repos *repository.Repository, d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	device := NewDeviceService(d.Store, d.Portal, repos.EventRepo, d.Metrics, log.Named("device"))
	return &Service{
		Device:        device,
		Session:       NewSessionService(d.Store),
		PortalLogin:   NewLoginService(d.Auth, repos.EventRepo, d.Metrics, log.Named("login")),
		EventLog:      NewEventLogService(repos.EventRepo),
		Recorder:      NewRecorderService(device, repos.EventRepo, log.Named("recorder")),
		Authorization: NewTokenService(d.JWTSecret),
	}
}
