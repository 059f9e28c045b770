package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/core"
)

// Redis stores each blob as a plain string key. SET replaces the value in
// one step.
type Redis struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, cfg config.RedisConfig, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return NewRedis(client, prefix), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, prefixed(r.prefix, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Redis) Put(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, prefixed(r.prefix, key), data, 0).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
