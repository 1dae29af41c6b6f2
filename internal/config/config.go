// Package config loads session settings. Sources, lowest to highest
// precedence: built-in defaults, an optional TOML file, the environment
// (including .env files). Command-line flags are applied on top by cmd.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel  slog.Level
	LogFormat string

	APIURL         string
	RequestTimeout time.Duration

	PreClose  time.Duration
	StickyBar bool

	PrefsBackend    string
	PrefsPath       string
	PrefsSQLitePath string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	OutputFile        string
	HTMLReloadSeconds int
	ServeAddr         string
	ShutdownTimeout   time.Duration
}

// FileConfig mirrors Config for the TOML file. Durations are strings such as
// "2m".
type FileConfig struct {
	LogLevel          string `toml:"log_level"`
	LogFormat         string `toml:"log_format"`
	APIURL            string `toml:"api_url"`
	RequestTimeout    string `toml:"request_timeout"`
	PreClose          string `toml:"pre_close"`
	StickyBar         *bool  `toml:"sticky_bar"`
	PrefsBackend      string `toml:"prefs_backend"`
	PrefsPath         string `toml:"prefs_path"`
	PrefsSQLitePath   string `toml:"prefs_sqlite_path"`
	RedisAddr         string `toml:"redis_addr"`
	RedisPassword     string `toml:"redis_password"`
	RedisDB           *int   `toml:"redis_db"`
	OutputFile        string `toml:"output_file"`
	HTMLReloadSeconds *int   `toml:"html_reload_seconds"`
	ServeAddr         string `toml:"serve_addr"`
}

func Defaults() *Config {
	dir := defaultDataDir()
	return &Config{
		LogLevel:          slog.LevelInfo,
		LogFormat:         "text",
		APIURL:            "http://localhost:5000/api/trains",
		RequestTimeout:    0,
		PreClose:          2 * time.Minute,
		StickyBar:         true,
		PrefsBackend:      "file",
		PrefsPath:         filepath.Join(dir, "prefs.json"),
		PrefsSQLitePath:   filepath.Join(dir, "prefs.db"),
		RedisAddr:         "localhost:6379",
		OutputFile:        "crossing.html",
		HTMLReloadSeconds: 0,
		ShutdownTimeout:   5 * time.Second,
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	cfg := Defaults()
	if path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.applyFile(fc); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FileConfig{}, fmt.Errorf("config file %s not found", path)
		}
		return FileConfig{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return fc, nil
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("CROSSING_API_URL must not be empty")
	}
	if c.PreClose < 0 {
		return fmt.Errorf("pre-close threshold must not be negative, got %s", c.PreClose)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

func (c *Config) applyFile(fc FileConfig) error {
	if fc.LogLevel != "" {
		c.LogLevel = parseLogLevel(fc.LogLevel, c.LogLevel)
	}
	setString(&c.LogFormat, fc.LogFormat)
	setString(&c.APIURL, fc.APIURL)
	if err := setDuration(&c.RequestTimeout, fc.RequestTimeout); err != nil {
		return fmt.Errorf("request_timeout: %w", err)
	}
	if err := setDuration(&c.PreClose, fc.PreClose); err != nil {
		return fmt.Errorf("pre_close: %w", err)
	}
	if fc.StickyBar != nil {
		c.StickyBar = *fc.StickyBar
	}
	setString(&c.PrefsBackend, fc.PrefsBackend)
	setString(&c.PrefsPath, fc.PrefsPath)
	setString(&c.PrefsSQLitePath, fc.PrefsSQLitePath)
	setString(&c.RedisAddr, fc.RedisAddr)
	setString(&c.RedisPassword, fc.RedisPassword)
	if fc.RedisDB != nil {
		c.RedisDB = *fc.RedisDB
	}
	setString(&c.OutputFile, fc.OutputFile)
	if fc.HTMLReloadSeconds != nil {
		c.HTMLReloadSeconds = *fc.HTMLReloadSeconds
	}
	setString(&c.ServeAddr, fc.ServeAddr)
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getLogLevelEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", c.LogFormat))

	c.APIURL = getEnv("CROSSING_API_URL", c.APIURL)
	c.RequestTimeout = getDurationEnv("REQUEST_TIMEOUT", c.RequestTimeout)

	c.PreClose = getDurationEnv("PRE_CLOSE", c.PreClose)
	c.StickyBar = getBoolEnv("STICKY_BAR", c.StickyBar)

	c.PrefsBackend = getEnv("PREFS_BACKEND", c.PrefsBackend)
	c.PrefsPath = getEnv("PREFS_PATH", c.PrefsPath)
	c.PrefsSQLitePath = getEnv("PREFS_SQLITE_PATH", c.PrefsSQLitePath)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getIntEnv("REDIS_DB", c.RedisDB)

	c.OutputFile = getEnv("OUTPUT_FILE", c.OutputFile)
	c.HTMLReloadSeconds = getIntEnv("HTML_RELOAD_SECONDS", c.HTMLReloadSeconds)
	c.ServeAddr = getEnv("SERVE_ADDR", c.ServeAddr)
	c.ShutdownTimeout = getDurationEnv("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
}

// NewLogger builds the process logger from the configured level and format.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "crossing-dashboard")
	}
	return ".crossing-dashboard"
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// ParseLogLevel is exported for the --log-level flag.
func ParseLogLevel(v string, defaultVal slog.Level) slog.Level {
	return parseLogLevel(v, defaultVal)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getLogLevelEnv(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return parseLogLevel(v, defaultVal)
}

func parseLogLevel(v string, defaultVal slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultVal
	}
}
