package repository

import (
	"context"
	"database/sql"
	"time"

	"gsj_gateway/internal/models"
)

// EventRepo is the audit log. Events are never updated; old ones are pruned.
type EventRepo interface {
	Append(ctx context.Context, e models.Event) error
	List(ctx context.Context, from, to time.Time, typ string, limit int) ([]models.Event, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionRepo persists the cached portal session across restarts.
type SessionRepo interface {
	Save(ctx context.Context, s models.Session) error
	Load(ctx context.Context) (models.Session, error)
	Clear(ctx context.Context) error
}

type Repository struct {
	EventRepo   EventRepo
	SessionRepo SessionRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo:   NewEventSQLite(db),
		SessionRepo: NewSessionSQLite(db),
	}
}
