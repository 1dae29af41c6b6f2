package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Zachdehooge/crossing-dashboard/internal/fetcher"
	"github.com/Zachdehooge/crossing-dashboard/internal/prefs"
)

func TestPrintTrains(t *testing.T) {
	color.NoColor = true
	now := time.Date(2025, 8, 26, 10, 0, 0, 0, time.UTC)
	trains := []fetcher.Train{
		{TrainNo: "1", Name: "Soon", ETA: now.Add(90 * time.Second).Format(time.RFC3339), ETAFormatted: "10:01"},
		{TrainNo: "2", Name: "Later", Source: "erail", ETA: now.Add(20 * time.Minute).Format(time.RFC3339), ETAFormatted: "10:20"},
		{TrainNo: "3", Name: "Unknown", ETA: "tbd"},
	}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	printTrains(cmd, trains, 2*time.Minute, now)
	out := buf.String()

	for _, want := range []string{
		"Train: #1 Soon",
		"ETA: 10:01 (in 1 minute and 30 seconds)",
		"Gate Closing Soon",
		"Source: erail",
		"ETA: 10:20 (in 20 minutes)",
		"Gate Open",
		"ETA: unknown",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDisplayAddr(t *testing.T) {
	tests := map[string]string{
		":8080":          "localhost:8080",
		"127.0.0.1:9000": "127.0.0.1:9000",
	}
	for in, want := range tests {
		if got := displayAddr(in); got != want {
			t.Errorf("displayAddr(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestLoadConfigFlagsOverEnv(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("CROSSING_API_URL", "http://env.example/api/trains")
	t.Setenv("OUTPUT_FILE", "env.html")

	root := newRootCmd()
	if err := root.ParseFlags([]string{"--api-url", "http://flag.example/api/trains"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(root)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIURL != "http://flag.example/api/trains" {
		t.Errorf("api url = %q, expected the flag value", cfg.APIURL)
	}
	// an unset flag keeps its default out of the way
	if cfg.OutputFile != "env.html" {
		t.Errorf("output file = %q, expected env.html", cfg.OutputFile)
	}

	root = newRootCmd()
	if err := root.ParseFlags([]string{"-o", "flag.html", "--serve", ":9090"}); err != nil {
		t.Fatal(err)
	}
	cfg, err = loadConfig(root)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.OutputFile != "flag.html" || cfg.ServeAddr != ":9090" {
		t.Errorf("output/serve = %q/%q, expected flag.html/:9090", cfg.OutputFile, cfg.ServeAddr)
	}
	if cfg.APIURL != "http://env.example/api/trains" {
		t.Errorf("api url = %q, expected the env value", cfg.APIURL)
	}
}

func runPrefs(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"prefs"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestPrefsSet(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("PREFS_BACKEND", "file")
	t.Setenv("PREFS_PATH", filepath.Join(t.TempDir(), "prefs.json"))
	t.Setenv("LOG_LEVEL", "error")

	out, err := runPrefs(t, "set", "refresh-interval", "45")
	if err != nil {
		t.Fatalf("set 45: %v", err)
	}
	if !strings.Contains(out, "refresh-interval = 45") {
		t.Errorf("set output = %q", out)
	}

	if _, err := runPrefs(t, "set", "refresh-interval", "500"); !errors.Is(err, prefs.ErrOutOfRange) {
		t.Errorf("set 500: err = %v, expected ErrOutOfRange", err)
	}
	if _, err := runPrefs(t, "set", "font-scale", "big"); !errors.Is(err, prefs.ErrInvalidValue) {
		t.Errorf("set big: err = %v, expected ErrInvalidValue", err)
	}
	if _, err := runPrefs(t, "set", "theme", "dark"); !errors.Is(err, prefs.ErrUnknownPreference) {
		t.Errorf("set theme: err = %v, expected ErrUnknownPreference", err)
	}

	out, err = runPrefs(t, "get", "refresh-interval")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(out, "refresh-interval = 45") {
		t.Errorf("rejected write changed the stored interval: %q", out)
	}
}
