// Package app wires one crossing-page session: preferences, controllers,
// the page model and whichever renderers are attached.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Zachdehooge/crossing-dashboard/internal/config"
	"github.com/Zachdehooge/crossing-dashboard/internal/countdown"
	"github.com/Zachdehooge/crossing-dashboard/internal/eventloop"
	"github.com/Zachdehooge/crossing-dashboard/internal/generator"
	"github.com/Zachdehooge/crossing-dashboard/internal/metrics"
	"github.com/Zachdehooge/crossing-dashboard/internal/page"
	"github.com/Zachdehooge/crossing-dashboard/internal/prefs"
	"github.com/Zachdehooge/crossing-dashboard/internal/refresh"
	"github.com/Zachdehooge/crossing-dashboard/internal/reltime"
	"github.com/Zachdehooge/crossing-dashboard/internal/tui"
)

// PrefsWatcher reports external changes to stored preferences.
type PrefsWatcher interface {
	Watch(ctx context.Context, onChange func()) error
}

type Options struct {
	Config *config.Config
	Source refresh.TrainSource
	Prefs  *prefs.Store
	// Watcher is optional; when set, outside edits to preferences apply live.
	Watcher PrefsWatcher
	Metrics *metrics.Metrics

	Writer *generator.PageWriter
	Board  *tui.Board

	Page int
	// Interval overrides the stored refresh interval when non-zero.
	Interval int
	// Once stops the session after the first fetch completes.
	Once bool
}

type Session struct {
	ID string

	loop      *eventloop.Loop
	page      *page.Page
	prefs     *prefs.Store
	watcher   PrefsWatcher
	countdown *countdown.Controller
	relative  *reltime.Updater
	refresh   *refresh.Controller
	writer    *generator.PageWriter
	board     *tui.Board
	metrics   *metrics.Metrics
	logger    *slog.Logger

	intervalOverride int
	once             bool
	ctx              context.Context
	cancel           context.CancelFunc
	result           error
}

func NewSession(opts Options, logger *slog.Logger) *Session {
	id := uuid.NewString()
	logger = logger.With("session_id", id)

	loop := eventloop.New(logger)
	pg := page.New(opts.Config.StickyBar)

	s := &Session{
		ID:               id,
		loop:             loop,
		page:             pg,
		prefs:            opts.Prefs,
		watcher:          opts.Watcher,
		writer:           opts.Writer,
		board:            opts.Board,
		metrics:          opts.Metrics,
		logger:           logger.With("component", "session"),
		intervalOverride: opts.Interval,
		once:             opts.Once,
	}

	s.countdown = countdown.New(loop, pg, countdown.Options{
		PreClose: opts.Config.PreClose,
		Sticky:   opts.Config.StickyBar,
		Now:      time.Now,
	})
	s.relative = reltime.New(loop, pg, time.Now)
	s.refresh = refresh.New(loop, opts.Source, pg, s.countdown, s.relative, logger, refresh.Options{
		Page:       opts.Page,
		Metrics:    opts.Metrics,
		OnComplete: s.fetchComplete,
	})

	loop.AfterEach(s.publish)
	return s
}

// Run drives the session until ctx is done, or until the first fetch
// completes in once mode. In once mode a failed fetch is returned.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.ctx = ctx
	s.cancel = cancel

	if s.watcher != nil && !s.once {
		if err := s.watcher.Watch(ctx, func() { s.loop.Post(s.ReloadPreferences) }); err != nil {
			s.logger.Warn("live preference reload disabled", "error", err)
		}
	}

	s.logger.Info("session started", "once", s.once)
	s.loop.Post(s.start)

	err := s.loop.Run(ctx)
	s.logger.Info("session stopped")
	if s.result != nil {
		return s.result
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// start restores preferences, arms auto-refresh and issues the initial
// fetch. The page has no hero yet, so the countdown starts on first render.
func (s *Session) start() {
	ctx := s.ctx
	p := s.prefs.Load(ctx)

	s.page.SetFontScale(p.FontScale)

	interval := p.IntervalSeconds
	if s.intervalOverride != 0 {
		if prefs.ValidInterval(s.intervalOverride) {
			interval = s.intervalOverride
		} else {
			s.logger.Warn("ignoring out-of-range refresh interval", "interval", s.intervalOverride)
		}
	}
	s.refresh.SetInterval(ctx, interval)
	s.page.SetIntervalSeconds(interval)

	s.relative.Start()

	s.page.SetAutoRefresh(p.AutoRefresh)
	if p.AutoRefresh && !s.once {
		s.refresh.SetAutoRefresh(ctx, true)
	}

	s.refresh.FetchTrainData(ctx)
}

func (s *Session) fetchComplete(err error) {
	if !s.once {
		return
	}
	s.result = err
	s.cancel()
}

// publish hands the page to the renderers when it changed.
func (s *Session) publish() {
	if !s.page.TakeDirty() {
		return
	}
	snap := s.page.Snapshot()

	if s.board != nil {
		s.board.Publish(snap)
	}
	if s.writer != nil {
		err := s.writer.Write(snap)
		s.metrics.PageWritten(err)
		if err != nil {
			s.logger.Error("failed to write page", "path", s.writer.Path(), "error", err)
		}
	}
}

// Actions below may be called from any goroutine; they run on the loop.

func (s *Session) Refresh() {
	s.loop.Post(func() { s.refresh.FetchTrainData(s.ctx) })
}

func (s *Session) ToggleAutoRefresh() {
	s.loop.Post(func() {
		on := !s.refresh.Enabled()
		if err := s.prefs.SetAutoRefresh(s.ctx, on); err != nil {
			s.logger.Error("failed to store auto refresh", "error", err)
		}
		s.refresh.SetAutoRefresh(s.ctx, on)
		s.page.SetAutoRefresh(on)
	})
}

// AdjustInterval moves the refresh interval by delta seconds. A result
// outside the allowed range is ignored.
func (s *Session) AdjustInterval(delta int) {
	s.loop.Post(func() {
		secs := int(s.refresh.Interval()/time.Second) + delta
		if !s.refresh.SetInterval(s.ctx, secs) {
			return
		}
		if _, err := s.prefs.SetRefreshInterval(s.ctx, secs); err != nil {
			s.logger.Error("failed to store refresh interval", "error", err)
		}
		s.page.SetIntervalSeconds(secs)
	})
}

func (s *Session) AdjustFontScale(delta int) {
	s.loop.Post(func() {
		px, err := s.prefs.SetFontScale(s.ctx, s.prefs.FontScale(s.ctx)+delta)
		if err != nil {
			s.logger.Error("failed to store font scale", "error", err)
			return
		}
		s.page.SetFontScale(px)
	})
}

// ReloadPreferences re-reads stored preferences and applies any that
// changed. Runs on the loop.
func (s *Session) ReloadPreferences() {
	p := s.prefs.Load(s.ctx)
	s.logger.Debug("preferences reloaded", "font_scale", p.FontScale, "auto_refresh", p.AutoRefresh, "interval", p.IntervalSeconds)

	s.page.SetFontScale(p.FontScale)

	// a valid --interval pins the interval for the whole session
	pinned := prefs.ValidInterval(s.intervalOverride)
	if !pinned && time.Duration(p.IntervalSeconds)*time.Second != s.refresh.Interval() {
		s.refresh.SetInterval(s.ctx, p.IntervalSeconds)
		s.page.SetIntervalSeconds(p.IntervalSeconds)
	}
	if p.AutoRefresh != s.refresh.Enabled() {
		s.refresh.SetAutoRefresh(s.ctx, p.AutoRefresh)
		s.page.SetAutoRefresh(p.AutoRefresh)
	}
}

var _ tui.Actions = (*Session)(nil)
