// Package refresh polls the train API and re-renders the page from each
// response. It also owns the auto-refresh timer.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Zachdehooge/crossing-dashboard/internal/eventloop"
	"github.com/Zachdehooge/crossing-dashboard/internal/fetcher"
	"github.com/Zachdehooge/crossing-dashboard/internal/metrics"
	"github.com/Zachdehooge/crossing-dashboard/internal/page"
	"github.com/Zachdehooge/crossing-dashboard/internal/prefs"
	"github.com/Zachdehooge/crossing-dashboard/internal/timefmt"
)

const EmptyMessage = "No upcoming trains at this crossing right now."

type TrainSource interface {
	FetchTrains(ctx context.Context) (*fetcher.TrainsResponse, error)
}

type View interface {
	SetLoading(loading bool)
	ShowHero(h page.Hero)
	ClearHero()
	ShowRows(rows []page.Row, p page.Pagination)
	ShowEmpty(msg string, p page.Pagination)
	SetLastUpdated(text string)
}

type Countdown interface {
	StartAttr(attr string) bool
	Stop()
}

type Relative interface {
	Start()
}

type State int

const (
	Disabled State = iota
	EnabledIdle
	EnabledFetching
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case EnabledIdle:
		return "enabled-idle"
	case EnabledFetching:
		return "enabled-fetching"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Options struct {
	Page    int
	Now     func() time.Time
	Metrics *metrics.Metrics
	// OnComplete runs on the loop after every fetch, successful or not.
	OnComplete func(err error)
}

type Controller struct {
	sched     eventloop.Scheduler
	source    TrainSource
	view      View
	countdown Countdown
	relative  Relative
	logger    *slog.Logger
	opts      Options

	enabled  bool
	interval time.Duration
	timer    eventloop.Timer
	inFlight int
}

func New(sched eventloop.Scheduler, source TrainSource, view View, countdown Countdown, relative Relative, logger *slog.Logger, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	return &Controller{
		sched:     sched,
		source:    source,
		view:      view,
		countdown: countdown,
		relative:  relative,
		logger:    logger.With("component", "refresh"),
		opts:      opts,
		interval:  prefs.DefaultInterval * time.Second,
	}
}

func (c *Controller) State() State {
	switch {
	case !c.enabled:
		return Disabled
	case c.inFlight > 0:
		return EnabledFetching
	default:
		return EnabledIdle
	}
}

func (c *Controller) Enabled() bool {
	return c.enabled
}

func (c *Controller) Interval() time.Duration {
	return c.interval
}

func (c *Controller) InFlight() int {
	return c.inFlight
}

// FetchTrainData issues one request and renders its result when it completes.
// Overlapping calls are not coalesced; whichever response completes last is
// what stays on the page.
func (c *Controller) FetchTrainData(ctx context.Context) {
	c.inFlight++
	c.view.SetLoading(true)
	c.opts.Metrics.FetchStarted()

	start := c.opts.Now()
	var (
		resp *fetcher.TrainsResponse
		err  error
	)
	c.sched.Async(
		func() { resp, err = c.source.FetchTrains(ctx) },
		func() { c.complete(resp, err, c.opts.Now().Sub(start)) },
	)
}

func (c *Controller) complete(resp *fetcher.TrainsResponse, err error, took time.Duration) {
	c.inFlight--

	if err == nil && resp == nil {
		err = errors.New("empty response")
	}

	switch {
	case err != nil:
		c.logger.Error("error fetching train data", "error", err)
		c.opts.Metrics.FetchDone(metrics.OutcomeFailed, took)
	case !resp.Success:
		err = resp.Err()
		c.Render(resp)
		c.opts.Metrics.FetchDone(metrics.OutcomeAPIError, took)
	default:
		c.Render(resp)
		c.opts.Metrics.FetchDone(metrics.OutcomeOK, took)
	}

	if c.inFlight == 0 {
		c.view.SetLoading(false)
	}
	if c.opts.OnComplete != nil {
		c.opts.OnComplete(err)
	}
}

// Render applies a payload to the page. An unsuccessful payload is logged and
// changes nothing; Render then reports false.
func (c *Controller) Render(resp *fetcher.TrainsResponse) bool {
	if resp == nil {
		return false
	}
	if !resp.Success {
		c.logger.Error("train API error", "error", resp.Error)
		return false
	}

	c.renderHero(resp.NextTrain)

	rows := Window(resp.Trains, c.opts.Page)
	pg := Paginate(len(resp.Trains), c.opts.Page)
	if resp.TotalTrains != nil {
		// pages window the list we got; the count is what the server knows about
		pg.Total = *resp.TotalTrains
	}
	if len(rows) == 0 {
		c.view.ShowEmpty(EmptyMessage, pg)
	} else {
		c.view.ShowRows(toRows(rows), pg)
	}
	c.opts.Metrics.Rendered(len(rows), cacheAge(resp.CacheInfo))

	c.relative.Start()
	c.view.SetLastUpdated(c.lastUpdated(resp.CacheInfo))

	c.logger.Debug("rendered train data", "trains", len(resp.Trains), "page", c.opts.Page, "rows", len(rows))
	return true
}

func (c *Controller) renderHero(next *fetcher.Train) {
	if next == nil {
		c.view.ClearHero()
		c.countdown.Stop()
		return
	}

	c.view.ShowHero(page.Hero{
		ArrivalAttr:  next.ETA,
		TrainNo:      next.TrainNo,
		Name:         next.Name,
		ETAFormatted: formattedETA(*next),
	})
	if !c.countdown.StartAttr(next.ETA) {
		// the old countdown belongs to a train that is no longer shown
		c.countdown.Stop()
		c.logger.Warn("next train has no usable arrival time", "train_no", next.TrainNo, "eta", next.ETA)
	}
}

// SetAutoRefresh starts or cancels the refresh timer. ctx is used for every
// fetch the timer triggers.
func (c *Controller) SetAutoRefresh(ctx context.Context, on bool) {
	if on == c.enabled {
		return
	}
	c.enabled = on
	if on {
		c.startTimer(ctx)
	} else {
		c.stopTimer()
	}
	c.opts.Metrics.SetAutoRefresh(on)
	c.logger.Info("auto refresh changed", "enabled", on, "interval", c.interval)
}

// SetInterval changes the refresh period. Values outside the allowed range
// are ignored and reported as false. A running timer is replaced in one step.
func (c *Controller) SetInterval(ctx context.Context, secs int) bool {
	if !prefs.ValidInterval(secs) {
		return false
	}
	c.interval = time.Duration(secs) * time.Second
	if c.enabled {
		c.startTimer(ctx)
	}
	return true
}

func (c *Controller) startTimer(ctx context.Context) {
	c.stopTimer()
	c.timer = c.sched.Every(c.interval, func() {
		if !c.enabled {
			return
		}
		c.FetchTrainData(ctx)
	})
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Stop cancels the refresh timer without changing the enabled flag.
func (c *Controller) Stop() {
	c.stopTimer()
}

func (c *Controller) lastUpdated(info *fetcher.CacheInfo) string {
	text := "Last updated " + c.opts.Now().Format("15:04:05")
	if info == nil {
		return text
	}
	if !info.Cached {
		return text + " (live)"
	}
	if info.AgeSeconds == nil {
		return text + " (cached)"
	}
	age := time.Duration(*info.AgeSeconds * float64(time.Second))
	return text + " (cached, " + timefmt.FormatAge(age) + " old)"
}

func toRows(trains []fetcher.Train) []page.Row {
	rows := make([]page.Row, len(trains))
	for i, t := range trains {
		rows[i] = page.Row{
			TrainNo:      t.TrainNo,
			Name:         t.Name,
			Source:       t.Source,
			ArrivalAttr:  t.ETA,
			ETAFormatted: formattedETA(t),
		}
	}
	return rows
}

func formattedETA(t fetcher.Train) string {
	if t.ETAFormatted != "" {
		return t.ETAFormatted
	}
	if at, ok := t.ArrivalTime(); ok {
		return at.Local().Format("15:04")
	}
	return ""
}

func cacheAge(info *fetcher.CacheInfo) *float64 {
	if info == nil {
		return nil
	}
	return info.AgeSeconds
}
