// Package countdown drives the hero countdown, gate chip and sticky progress
// bar from a single arrival timestamp.
package countdown

import (
	"time"

	"github.com/Zachdehooge/crossing-dashboard/internal/eventloop"
	"github.com/Zachdehooge/crossing-dashboard/internal/gate"
	"github.com/Zachdehooge/crossing-dashboard/internal/timefmt"
)

const (
	TickInterval = time.Second
	// MinBaseline floors the progress baseline so a train that is almost here
	// at start still shows a meaningful bar.
	MinBaseline = 60 * time.Second
)

type View interface {
	SetCountdown(text string)
	SetAria(text string)
	SetGate(s gate.State)
	SetProgress(frac float64)
}

type Options struct {
	PreClose time.Duration
	Sticky   bool
	Now      func() time.Time
}

type Controller struct {
	sched eventloop.Scheduler
	view  View
	opts  Options

	timer    eventloop.Timer
	target   time.Time
	baseline time.Duration
	state    gate.State
	progress float64
	running  bool
}

func New(sched eventloop.Scheduler, view View, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{sched: sched, view: view, opts: opts}
}

// StartAttr parses attr and starts the countdown. A blank or malformed value
// leaves the controller untouched and reports false.
func (c *Controller) StartAttr(attr string) bool {
	target, err := timefmt.ParseTimestamp(attr)
	if err != nil {
		return false
	}
	c.Start(target)
	return true
}

// Start supersedes any running countdown with a fresh one towards target and
// ticks once immediately.
func (c *Controller) Start(target time.Time) {
	c.Stop()
	c.target = target
	c.baseline = 0
	c.progress = 0
	c.state = gate.Open
	c.running = true

	timer := c.sched.Every(TickInterval, func() { c.Tick(c.opts.Now()) })
	c.timer = timer
	c.Tick(c.opts.Now())
}

func (c *Controller) Stop() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.running = false
}

func (c *Controller) Running() bool {
	return c.running
}

func (c *Controller) State() gate.State {
	return c.state
}

func (c *Controller) Progress() float64 {
	return c.progress
}

// Tick recomputes the view for now.
func (c *Controller) Tick(now time.Time) {
	if !c.running {
		return
	}

	remaining := c.target.Sub(now)
	if c.baseline == 0 {
		c.baseline = max(remaining, MinBaseline)
	}

	if remaining <= 0 {
		c.state = gate.Closed
		c.progress = 1
		c.view.SetCountdown(timefmt.FormatCountdown(0))
		c.view.SetGate(gate.Closed)
		c.view.SetAria("Gate closed.")
		if c.opts.Sticky {
			c.view.SetProgress(1)
		}
		c.Stop()
		return
	}

	text := timefmt.FormatCountdown(timefmt.Milliseconds(remaining))
	c.state = gate.ForRemaining(remaining, c.opts.PreClose)
	c.view.SetCountdown(text)
	c.view.SetAria("Arrives in " + text + ".")
	c.view.SetGate(c.state)

	if c.opts.Sticky {
		frac := 1 - float64(remaining)/float64(c.baseline)
		frac = min(1, max(0, frac))
		if frac > c.progress {
			c.progress = frac
		}
		c.view.SetProgress(c.progress)
	}
}
