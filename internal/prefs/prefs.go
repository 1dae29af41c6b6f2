// Package prefs persists the reader's display preferences: font scale,
// auto-refresh and refresh interval.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Storage keys.
const (
	KeyFontScale       = "rg_font_scale"
	KeyAutoRefresh     = "rg_auto_refresh"
	KeyRefreshInterval = "rg_refresh_interval"
)

const (
	DefaultFontScale = 18
	MinFontScale     = 16
	MaxFontScale     = 24

	DefaultInterval = 30
	MinInterval     = 10
	MaxInterval     = 300
)

var (
	ErrUnknownPreference = errors.New("unknown preference")
	ErrOutOfRange        = errors.New("value out of range")
	ErrInvalidValue      = errors.New("invalid value")
)

// Preferences is a point-in-time read of every preference.
type Preferences struct {
	FontScale       int  `json:"font_scale"`
	AutoRefresh     bool `json:"auto_refresh"`
	IntervalSeconds int  `json:"refresh_interval"`
}

func Defaults() Preferences {
	return Preferences{
		FontScale:       DefaultFontScale,
		AutoRefresh:     false,
		IntervalSeconds: DefaultInterval,
	}
}

// Store applies defaults and ranges on top of a raw Backend. Read failures
// fall back to defaults; they are logged, never returned.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

func NewStore(backend Backend, logger *slog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger.With("component", "prefs"),
	}
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) Load(ctx context.Context) Preferences {
	return Preferences{
		FontScale:       s.FontScale(ctx),
		AutoRefresh:     s.AutoRefresh(ctx),
		IntervalSeconds: s.RefreshInterval(ctx),
	}
}

func (s *Store) FontScale(ctx context.Context) int {
	raw, ok := s.read(ctx, KeyFontScale)
	if !ok {
		return DefaultFontScale
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultFontScale
	}
	return clamp(n, MinFontScale, MaxFontScale)
}

// SetFontScale stores px clamped to the allowed range and returns what was
// stored.
func (s *Store) SetFontScale(ctx context.Context, px int) (int, error) {
	px = clamp(px, MinFontScale, MaxFontScale)
	if err := s.backend.Set(ctx, KeyFontScale, strconv.Itoa(px)); err != nil {
		return 0, fmt.Errorf("store font scale: %w", err)
	}
	return px, nil
}

func (s *Store) AutoRefresh(ctx context.Context) bool {
	raw, ok := s.read(ctx, KeyAutoRefresh)
	if !ok {
		return false
	}
	on, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return on
}

func (s *Store) SetAutoRefresh(ctx context.Context, on bool) error {
	if err := s.backend.Set(ctx, KeyAutoRefresh, strconv.FormatBool(on)); err != nil {
		return fmt.Errorf("store auto refresh: %w", err)
	}
	return nil
}

// RefreshInterval returns the stored interval in seconds. Values that got
// into storage out of range are clamped.
func (s *Store) RefreshInterval(ctx context.Context) int {
	raw, ok := s.read(ctx, KeyRefreshInterval)
	if !ok {
		return DefaultInterval
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultInterval
	}
	return clamp(n, MinInterval, MaxInterval)
}

// SetRefreshInterval stores secs if it is within range. An out-of-range value
// leaves storage untouched and reports false.
func (s *Store) SetRefreshInterval(ctx context.Context, secs int) (bool, error) {
	if !ValidInterval(secs) {
		return false, nil
	}
	if err := s.backend.Set(ctx, KeyRefreshInterval, strconv.Itoa(secs)); err != nil {
		return false, fmt.Errorf("store refresh interval: %w", err)
	}
	return true, nil
}

func ValidInterval(secs int) bool {
	return secs >= MinInterval && secs <= MaxInterval
}

// Get returns the effective value of a preference by name for display.
func (s *Store) Get(ctx context.Context, name string) (string, error) {
	key, err := resolve(name)
	if err != nil {
		return "", err
	}
	switch key {
	case KeyFontScale:
		return strconv.Itoa(s.FontScale(ctx)), nil
	case KeyAutoRefresh:
		return strconv.FormatBool(s.AutoRefresh(ctx)), nil
	default:
		return strconv.Itoa(s.RefreshInterval(ctx)), nil
	}
}

// Set parses value and writes the named preference.
func (s *Store) Set(ctx context.Context, name, value string) error {
	key, err := resolve(name)
	if err != nil {
		return err
	}

	value = strings.TrimSpace(value)
	switch key {
	case KeyFontScale:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: font scale %q", ErrInvalidValue, value)
		}
		_, err = s.SetFontScale(ctx, n)
		return err
	case KeyAutoRefresh:
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: auto refresh %q", ErrInvalidValue, value)
		}
		return s.SetAutoRefresh(ctx, on)
	default:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: refresh interval %q", ErrInvalidValue, value)
		}
		ok, err := s.SetRefreshInterval(ctx, n)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: refresh interval must be %d-%d seconds", ErrOutOfRange, MinInterval, MaxInterval)
		}
		return nil
	}
}

// Names lists the accepted preference names.
func Names() []string {
	return []string{"font-scale", "auto-refresh", "refresh-interval"}
}

func resolve(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "font-scale", "font_scale", KeyFontScale:
		return KeyFontScale, nil
	case "auto-refresh", "auto_refresh", KeyAutoRefresh:
		return KeyAutoRefresh, nil
	case "refresh-interval", "refresh_interval", "interval", KeyRefreshInterval:
		return KeyRefreshInterval, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPreference, name)
	}
}

func (s *Store) read(ctx context.Context, key string) (string, bool) {
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Warn("preference read failed, using default", "key", key, "error", err)
		return "", false
	}
	return strings.TrimSpace(raw), ok
}

func clamp(n, lo, hi int) int {
	return min(hi, max(lo, n))
}
