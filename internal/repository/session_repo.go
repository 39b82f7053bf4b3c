package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gsj_gateway/internal/models"
)

type SessionSQLite struct {
	db *sql.DB
}

func NewSessionSQLite(db *sql.DB) *SessionSQLite {
	return &SessionSQLite{db: db}
}

var _ SessionRepo = (*SessionSQLite)(nil)

const (
	sessionRowID = 1

	upsertSessionSQL = `
		INSERT INTO portal_session (id, cookies, obtained_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cookies=excluded.cookies,
			obtained_at=excluded.obtained_at
	`
	selectSessionSQL = `SELECT cookies, obtained_at FROM portal_session WHERE id=?`
	deleteSessionSQL = `DELETE FROM portal_session WHERE id=?`
)

// Save stores the session in the single portal_session row.
func (r *SessionSQLite) Save(ctx context.Context, s models.Session) error {
	b, err := json.Marshal(s.Cookies)
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}

	ts := s.ObtainedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	if _, err := r.db.ExecContext(ctx, upsertSessionSQL, sessionRowID, string(b), ts.UTC()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the persisted session, or a zero Session if none is stored.
func (r *SessionSQLite) Load(ctx context.Context) (models.Session, error) {
	var (
		raw string
		s   models.Session
	)
	err := r.db.QueryRowContext(ctx, selectSessionSQL, sessionRowID).Scan(&raw, &s.ObtainedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, nil
		}
		return models.Session{}, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &s.Cookies); err != nil {
		return models.Session{}, fmt.Errorf("decode cookies: %w", err)
	}
	s.ObtainedAt = s.ObtainedAt.UTC()
	return s, nil
}

// Clear removes the persisted session. Clearing an empty table is not an error.
func (r *SessionSQLite) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, deleteSessionSQL, sessionRowID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
