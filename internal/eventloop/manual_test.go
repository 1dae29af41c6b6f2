package eventloop

import (
	"testing"
	"time"
)

func TestManualFireAndStop(t *testing.T) {
	m := NewManual()
	var a, b int
	ta := m.Every(time.Second, func() { a++ })
	m.Every(15*time.Second, func() { b++ })

	if n := m.Fire(time.Second); n != 1 {
		t.Fatalf("Fire fired %d timers, expected 1", n)
	}
	ta.Stop()
	m.Fire(time.Second)
	m.Fire(15 * time.Second)

	if a != 1 || b != 1 {
		t.Errorf("ticks = (%d, %d), expected (1, 1)", a, b)
	}
	if got := m.Active(); len(got) != 1 || got[0] != 15*time.Second {
		t.Errorf("Active() = %v, expected [15s]", got)
	}
}

func TestManualCompletionOrder(t *testing.T) {
	m := NewManual()
	var order []string
	m.Async(func() {}, func() { order = append(order, "first") })
	m.Async(func() {}, func() { order = append(order, "second") })

	if m.Pending() != 2 {
		t.Fatalf("Pending() = %d, expected 2", m.Pending())
	}
	m.CompleteLatest()
	m.Complete()

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("completion order = %v, expected [second first]", order)
	}
}
