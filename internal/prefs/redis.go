package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend shares preferences between every session pointed at the same
// Redis database.
type RedisBackend struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisBackend(ctx context.Context, addr, password string, db int, logger *slog.Logger) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisBackend{
		client: client,
		prefix: "crossing:prefs:",
		logger: logger.With("component", "prefs_redis"),
	}, nil
}

func (r *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("preference get failed", "key", key, "error", err)
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		r.logger.Error("preference set failed", "key", key, "error", err)
		return err
	}
	return nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
