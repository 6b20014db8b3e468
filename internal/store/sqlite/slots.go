// Package sqlite stores slots in a single-file SQLite database. It is the
// default backend and plays the role browser local storage plays for the
// dashboard: one file per installation, one writer.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"bookinghub/backend/internal/store"
	"bookinghub/backend/internal/store/migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ store.SlotStore = (*Slots)(nil)

type Slots struct {
	path string
	db   *sql.DB
}

// Open creates the database file if needed and applies migrations.
func Open(ctx context.Context, path string) (*Slots, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate.Up(ctx, db, "sqlite3", migrations, "migrations"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Slots{path: path, db: db}, nil
}

func (s *Slots) Path() string {
	return s.path
}

func (s *Slots) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Slots) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, store.ErrUnavailable
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapErr(err)
	}
	return value, true, nil
}

func (s *Slots) Set(ctx context.Context, key, value string) error {
	if s == nil || s.db == nil {
		return store.ErrUnavailable
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	return mapErr(err)
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}
