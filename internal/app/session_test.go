package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Zachdehooge/crossing-dashboard/internal/config"
	"github.com/Zachdehooge/crossing-dashboard/internal/fetcher"
	"github.com/Zachdehooge/crossing-dashboard/internal/generator"
	"github.com/Zachdehooge/crossing-dashboard/internal/metrics"
	"github.com/Zachdehooge/crossing-dashboard/internal/page"
	"github.com/Zachdehooge/crossing-dashboard/internal/prefs"
	"github.com/Zachdehooge/crossing-dashboard/internal/tui"
)

type stubSource struct {
	mu    sync.Mutex
	resp  *fetcher.TrainsResponse
	err   error
	calls int
}

func (s *stubSource) FetchTrains(context.Context) (*fetcher.TrainsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.resp, s.err
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubWatcher struct {
	onChange chan func()
}

func (w *stubWatcher) Watch(_ context.Context, onChange func()) error {
	w.onChange <- onChange
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func payload() *fetcher.TrainsResponse {
	next := fetcher.Train{
		TrainNo:      "12627",
		Name:         "Karnataka Exp",
		Source:       "erail",
		ETA:          time.Now().Add(10 * time.Minute).Format(time.RFC3339),
		ETAFormatted: "10:15",
	}
	return &fetcher.TrainsResponse{Success: true, NextTrain: &next, Trains: []fetcher.Train{next}}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestOnceWritesPage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "crossing.html")
	store := prefs.NewStore(prefs.NewMemoryBackend(), testLogger())
	store.SetFontScale(context.Background(), 22)

	s := NewSession(Options{
		Config:  config.Defaults(),
		Source:  &stubSource{resp: payload()},
		Prefs:   store,
		Metrics: metrics.New(),
		Writer:  generator.NewPageWriter(out, 0),
		Page:    1,
		Once:    true,
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	for _, want := range []string{"Karnataka Exp", "Gate Open", "font-size: 22px", "Last updated"} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestOnceReturnsFetchError(t *testing.T) {
	s := NewSession(Options{
		Config: config.Defaults(),
		Source: &stubSource{err: errors.New("connection refused")},
		Prefs:  prefs.NewStore(prefs.NewMemoryBackend(), testLogger()),
		Once:   true,
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Run(ctx); err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Run error = %v", err)
	}
}

func TestOnceReturnsAPIError(t *testing.T) {
	s := NewSession(Options{
		Config: config.Defaults(),
		Source: &stubSource{resp: &fetcher.TrainsResponse{Success: false, Error: "upstream down"}},
		Prefs:  prefs.NewStore(prefs.NewMemoryBackend(), testLogger()),
		Once:   true,
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Run(ctx); !errors.Is(err, fetcher.ErrAPI) {
		t.Errorf("Run error = %v, expected ErrAPI", err)
	}
}

func startSession(t *testing.T, store *prefs.Store, watcher PrefsWatcher, interval int) (*Session, *tui.Board, *stubSource) {
	t.Helper()
	board := tui.NewBoard()
	src := &stubSource{resp: payload()}
	opts := Options{
		Config:   config.Defaults(),
		Source:   src,
		Prefs:    store,
		Board:    board,
		Page:     1,
		Interval: interval,
	}
	if watcher != nil {
		opts.Watcher = watcher
	}
	s := NewSession(opts, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	waitFor(t, "first render", func() bool {
		snap, ok := board.Latest()
		return ok && len(snap.Rows) == 1
	})
	return s, board, src
}

func latest(b *tui.Board) page.Snapshot {
	s, _ := b.Latest()
	return s
}

func TestActions(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewStore(prefs.NewMemoryBackend(), testLogger())
	s, board, src := startSession(t, store, nil, 0)
	if h := latest(board).Hero; h == nil || h.Countdown == "" {
		t.Errorf("first render did not start the countdown: %+v", h)
	}

	s.ToggleAutoRefresh()
	waitFor(t, "auto refresh on", func() bool { return latest(board).Controls.AutoRefresh })
	if !store.AutoRefresh(ctx) {
		t.Error("auto refresh not persisted")
	}

	s.AdjustInterval(10)
	waitFor(t, "interval 40", func() bool { return latest(board).Controls.IntervalSeconds == 40 })
	if got := store.RefreshInterval(ctx); got != 40 {
		t.Errorf("stored interval = %d, expected 40", got)
	}

	s.AdjustInterval(-100)
	s.AdjustFontScale(1)
	waitFor(t, "font 19", func() bool { return latest(board).FontScale == 19 })
	if got := latest(board).Controls.IntervalSeconds; got != 40 {
		t.Errorf("out-of-range interval applied: %d", got)
	}

	before := src.Calls()
	s.Refresh()
	waitFor(t, "manual refresh", func() bool { return src.Calls() > before })
}

func TestLivePreferenceReload(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewStore(prefs.NewMemoryBackend(), testLogger())
	watcher := &stubWatcher{onChange: make(chan func(), 1)}
	_, board, _ := startSession(t, store, watcher, 0)

	onChange := <-watcher.onChange
	store.SetFontScale(ctx, 24)
	store.SetRefreshInterval(ctx, 120)
	store.SetAutoRefresh(ctx, true)
	onChange()

	waitFor(t, "reloaded preferences", func() bool {
		s := latest(board)
		return s.FontScale == 24 && s.Controls.IntervalSeconds == 120 && s.Controls.AutoRefresh
	})
}

func TestLiveReloadKeepsIntervalOverride(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewStore(prefs.NewMemoryBackend(), testLogger())
	watcher := &stubWatcher{onChange: make(chan func(), 1)}
	_, board, _ := startSession(t, store, watcher, 90)

	onChange := <-watcher.onChange
	store.SetRefreshInterval(ctx, 120)
	store.SetFontScale(ctx, 22)
	onChange()

	waitFor(t, "reloaded font scale", func() bool { return latest(board).FontScale == 22 })
	if got := latest(board).Controls.IntervalSeconds; got != 90 {
		t.Errorf("interval = %d, expected the override 90 to survive a reload", got)
	}
}
