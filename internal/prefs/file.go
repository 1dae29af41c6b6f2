package prefs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/natefinch/atomic"
)

// FileBackend keeps preferences in a small JSON object on disk. Every Set
// rewrites the file atomically so a crash never leaves it half written.
type FileBackend struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

func NewFileBackend(path string, logger *slog.Logger) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("preference file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create preference dir: %w", err)
	}
	return &FileBackend{
		path:   path,
		logger: logger.With("component", "prefs_file", "path", path),
	}, nil
}

func (f *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileBackend) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		// a corrupt file is replaced rather than blocking every write
		f.logger.Warn("discarding unreadable preference file", "error", err)
		values = make(map[string]string)
	}
	values[key] = value

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := atomic.WriteFile(f.path, bytes.NewReader(append(data, '\n'))); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

func (f *FileBackend) Close() error {
	return nil
}

// Watch calls onChange whenever the file is replaced or written by anyone,
// until ctx is done. The parent directory is watched because atomic writes
// swap the file by rename.
func (f *FileBackend) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	go func() {
		defer watcher.Close()
		name := filepath.Clean(f.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					f.logger.Debug("preference file changed", "op", ev.Op.String())
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Warn("preference watcher error", "error", err)
			}
		}
	}()

	return nil
}

func (f *FileBackend) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}

	values := make(map[string]string)
	if len(bytes.TrimSpace(data)) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse preferences: %w", err)
	}
	if values == nil {
		// a literal null decodes to a nil map
		values = make(map[string]string)
	}
	return values, nil
}
