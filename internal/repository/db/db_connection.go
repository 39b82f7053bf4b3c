package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

var pragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA busy_timeout = 5000;",
}

// migrations run in order, each in its own transaction. PRAGMA user_version
// holds the number already applied. Append only.
var migrations = [][]string{
	{`CREATE TABLE IF NOT EXISTS portal_session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		cookies TEXT NOT NULL,
		obtained_at TIMESTAMP NOT NULL
	)`},
	{`CREATE TABLE IF NOT EXISTS portal_events (
		id TEXT PRIMARY KEY,
		occurred_at TIMESTAMP NOT NULL,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		meta TEXT
	)`,
		`CREATE INDEX IF NOT EXISTS idx_portal_events_occurred_at ON portal_events (occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_portal_events_type ON portal_events (type, occurred_at)`,
	},
}

// InitDB opens (creating if needed) the SQLite file backing the audit log and
// the persisted portal session, and brings its schema up to date.
func InitDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir %q: %w", dir, err)
		}
	}

	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := setup(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func setup(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return migrate(db)
}

func schemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func migrate(db *sql.DB) error {
	from, err := schemaVersion(db)
	if err != nil {
		return err
	}
	if from > len(migrations) {
		return fmt.Errorf("schema version %d is newer than this binary (%d)", from, len(migrations))
	}
	for v := from; v < len(migrations); v++ {
		if err := applyMigration(db, v+1, migrations[v]); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(db *sql.DB, version int, stmts []string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d statement %d: %w", version, i+1, err)
		}
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("migration %d: set version: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", version, err)
	}
	return nil
}
