// Package storage provides the durable backends behind core.Blobs.
//
// Every backend stores the three roster collections as whole, independently
// keyed blobs and replaces a blob atomically: a failed Put leaves the
// previous blob readable.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/core"
	"github.com/JonMunkholm/roster/internal/logging"
)

// Open creates the backend selected by cfg, wrapped so that every call is
// bounded by cfg.Timeout.
func Open(ctx context.Context, cfg config.StoreConfig) (core.Blobs, error) {
	var (
		blobs core.Blobs
		err   error
	)

	switch strings.ToLower(cfg.Backend) {
	case config.BackendFile, "":
		blobs, err = NewFile(cfg.Dir)
	case config.BackendSQLite:
		blobs, err = OpenSQLite(ctx, cfg.SQLitePath, cfg.KeyPrefix)
	case config.BackendPostgres:
		blobs, err = OpenPostgres(ctx, cfg.Database, cfg.KeyPrefix)
	case config.BackendRedis:
		blobs, err = OpenRedis(ctx, cfg.Redis, cfg.KeyPrefix)
	case config.BackendMemory:
		blobs = NewMemory()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Backend, err)
	}

	logging.FromContext(ctx).Debug("storage opened", "backend", cfg.Backend)
	return WithTimeout(blobs, cfg.Timeout), nil
}

// timeoutBlobs bounds each call of the wrapped backend.
type timeoutBlobs struct {
	core.Blobs
	timeout time.Duration
}

// WithTimeout wraps b so that each Get and Put gets at most d.
// A non-positive d returns b unchanged.
func WithTimeout(b core.Blobs, d time.Duration) core.Blobs {
	if d <= 0 {
		return b
	}
	return &timeoutBlobs{Blobs: b, timeout: d}
}

func (t *timeoutBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Blobs.Get(ctx, key)
}

func (t *timeoutBlobs) Put(ctx context.Context, key string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Blobs.Put(ctx, key, data)
}

// prefixed joins a namespace prefix and a collection key.
func prefixed(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
