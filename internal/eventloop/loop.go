// Package eventloop runs all page work on one goroutine: timer callbacks and
// I/O completions are posted to it and executed one at a time.
package eventloop

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Timer is a cancel handle for a repeating callback.
type Timer interface {
	Stop()
}

// Scheduler is what controllers need from the host: repeating timers and
// off-loop work whose completion runs back on the loop.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Timer
	Async(work func(), done func())
}

type Loop struct {
	tasks  chan func()
	done   chan struct{}
	after  []func()
	logger *slog.Logger
}

func New(logger *slog.Logger) *Loop {
	return &Loop{
		tasks:  make(chan func(), 256),
		done:   make(chan struct{}),
		logger: logger.With("component", "event_loop"),
	}
}

// AfterEach registers fn to run after every task. Must be called before Run.
func (l *Loop) AfterEach(fn func()) {
	l.after = append(l.after, fn)
}

// Post queues fn. Posting after the loop has stopped is a no-op.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			l.runTask(fn)
			for _, hook := range l.after {
				l.runTask(hook)
			}
		}
	}
}

// runTask keeps one failing callback from taking the other timers down with it.
func (l *Loop) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", "panic", r)
		}
	}()
	fn()
}

type loopTimer struct {
	stopped atomic.Bool
	stop    chan struct{}
}

func (t *loopTimer) Stop() {
	if t.stopped.CompareAndSwap(false, true) {
		close(t.stop)
	}
}

// Every posts fn to the loop on each tick until the returned Timer is stopped.
// A tick already queued when Stop is called does not run.
func (l *Loop) Every(interval time.Duration, fn func()) Timer {
	t := &loopTimer{stop: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-t.stop:
				return
			case <-l.done:
				return
			case <-ticker.C:
				l.Post(func() {
					if t.stopped.Load() {
						return
					}
					fn()
				})
			}
		}
	}()

	return t
}

// Async runs work on its own goroutine and posts done to the loop afterwards.
func (l *Loop) Async(work func(), done func()) {
	go func() {
		work()
		l.Post(done)
	}()
}
