package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/roster/internal/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS roster_blobs (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLite stores blobs as rows of a single table in a local database file.
type SQLite struct {
	db     *sql.DB
	prefix string
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func OpenSQLite(ctx context.Context, path, prefix string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// :memory: databases exist per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db, prefix: prefix}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM roster_blobs WHERE key = ?`, prefixed(s.prefix, key),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SQLite) Put(ctx context.Context, key string, data []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO roster_blobs (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		prefixed(s.prefix, key), data, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
