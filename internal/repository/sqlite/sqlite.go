// Package sqlite provides SQLite-backed admin and student stores for local runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/spec-kit/student-admin-service/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS admins (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    name          TEXT NOT NULL,
    created_at    TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS students (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL UNIQUE,
    course     TEXT NOT NULL,
    marks      REAL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);`

// DB wraps the sql handle shared by the SQLite repositories.
type DB struct {
	Db *sql.DB
}

// Open opens (creating if needed) the database file at path and applies the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: open db: %w", err)
	}
	// SQLite allows one writer at a time; a single connection also keeps
	// ":memory:" databases from splitting across the pool.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.Open: create tables: %w", err)
	}
	return &DB{Db: db}, nil
}

// Close releases the underlying handle.
func (d *DB) Close() error {
	if d == nil || d.Db == nil {
		return nil
	}
	return d.Db.Close()
}

// Ping verifies the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	if d == nil || d.Db == nil {
		return errors.New("sqlite not configured")
	}
	return d.Db.PingContext(ctx)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return repository.ErrDuplicate
	}
	return err
}
