package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var ErrUnknownBackend = errors.New("unknown preference backend")

// Backend is durable string key-value storage. Get reports ok=false for an
// absent key.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// BackendConfig selects and configures a Backend.
type BackendConfig struct {
	Kind          string
	Path          string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func OpenBackend(ctx context.Context, cfg BackendConfig, logger *slog.Logger) (Backend, error) {
	switch cfg.Kind {
	case "", "file":
		return NewFileBackend(cfg.Path, logger)
	case "memory":
		return NewMemoryBackend(), nil
	case "sqlite":
		return NewSQLiteBackend(ctx, cfg.SQLitePath)
	case "redis":
		return NewRedisBackend(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Kind)
	}
}

type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
