package eventloop

import "time"

// Manual is a Scheduler driven by hand. Timers fire only when asked and Async
// completions wait until Complete is called.
type Manual struct {
	timers  []*manualTimer
	pending []func()
}

func NewManual() *Manual {
	return &Manual{}
}

type manualTimer struct {
	interval time.Duration
	fn       func()
	stopped  bool
}

func (t *manualTimer) Stop() {
	t.stopped = true
}

func (m *Manual) Every(interval time.Duration, fn func()) Timer {
	t := &manualTimer{interval: interval, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Async runs work immediately and queues done.
func (m *Manual) Async(work func(), done func()) {
	work()
	m.pending = append(m.pending, done)
}

// Fire runs one tick of every live timer with the given interval and reports
// how many fired.
func (m *Manual) Fire(interval time.Duration) int {
	fired := 0
	for _, t := range m.liveTimers() {
		if t.interval == interval && !t.stopped {
			t.fn()
			fired++
		}
	}
	return fired
}

// Active returns the intervals of all timers that have not been stopped.
func (m *Manual) Active() []time.Duration {
	var out []time.Duration
	for _, t := range m.liveTimers() {
		out = append(out, t.interval)
	}
	return out
}

// Pending is the number of Async completions waiting to run.
func (m *Manual) Pending() int {
	return len(m.pending)
}

// Complete runs every queued completion in FIFO order, including ones queued
// while completing.
func (m *Manual) Complete() {
	for len(m.pending) > 0 {
		m.CompleteNext()
	}
}

// CompleteNext runs the oldest queued completion.
func (m *Manual) CompleteNext() {
	if len(m.pending) == 0 {
		return
	}
	done := m.pending[0]
	m.pending = m.pending[1:]
	done()
}

// CompleteLatest runs the newest queued completion, simulating a later
// request resolving first.
func (m *Manual) CompleteLatest() {
	if len(m.pending) == 0 {
		return
	}
	last := len(m.pending) - 1
	done := m.pending[last]
	m.pending = m.pending[:last]
	done()
}

func (m *Manual) liveTimers() []*manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
	out := make([]*manualTimer, len(live))
	copy(out, live)
	return out
}
