package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/core"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS roster_blobs (
	key        TEXT PRIMARY KEY,
	data       BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres stores blobs as rows of a single table.
type Postgres struct {
	pool   *pgxpool.Pool
	prefix string
}

// OpenPostgres connects a pool, verifies it and creates the table.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig, prefix string) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns >= 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Postgres{pool: pool, prefix: prefix}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := p.pool.QueryRow(ctx,
		`SELECT data FROM roster_blobs WHERE key = $1`, prefixed(p.prefix, key),
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (p *Postgres) Put(ctx context.Context, key string, data []byte) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO roster_blobs (key, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		prefixed(p.prefix, key), data,
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
