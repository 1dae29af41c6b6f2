// Package reltime keeps the "in 3 minutes" labels on train rows current.
package reltime

import (
	"time"

	"github.com/Zachdehooge/crossing-dashboard/internal/eventloop"
	"github.com/Zachdehooge/crossing-dashboard/internal/timefmt"
)

const TickInterval = 15 * time.Second

type View interface {
	ArrivalAttrs() []string
	SetRelative(i int, label string)
}

type Updater struct {
	sched eventloop.Scheduler
	view  View
	now   func() time.Time
	timer eventloop.Timer
}

func New(sched eventloop.Scheduler, view View, now func() time.Time) *Updater {
	if now == nil {
		now = time.Now
	}
	return &Updater{sched: sched, view: view, now: now}
}

// Start replaces any running timer and updates every label immediately.
func (u *Updater) Start() {
	u.Stop()
	u.timer = u.sched.Every(TickInterval, func() { u.Update(u.now()) })
	u.Update(u.now())
}

func (u *Updater) Stop() {
	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}
}

// Update rewrites each label for now. Rows with a missing or malformed
// timestamp keep whatever they had.
func (u *Updater) Update(now time.Time) {
	for i, attr := range u.view.ArrivalAttrs() {
		eta, err := timefmt.ParseTimestamp(attr)
		if err != nil {
			continue
		}
		u.view.SetRelative(i, Label(eta.Sub(now)))
	}
}

// Label is the text shown for an arrival diff away.
func Label(diff time.Duration) string {
	if diff <= 0 {
		return "now"
	}
	rel := timefmt.FormatRelative(timefmt.Milliseconds(diff))
	if rel == "now" {
		return rel
	}
	return "in " + rel
}
