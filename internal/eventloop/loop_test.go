package eventloop

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runLoop(t *testing.T) (*Loop, context.CancelFunc, chan error) {
	t.Helper()
	l := New(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	return l, cancel, errc
}

func TestLoopRunsPostedTasksInOrder(t *testing.T) {
	l, cancel, errc := runLoop(t)
	defer cancel()

	got := make(chan int, 3)
	for i := 1; i <= 3; i++ {
		i := i
		l.Post(func() { got <- i })
	}

	for want := 1; want <= 3; want++ {
		select {
		case v := <-got:
			if v != want {
				t.Fatalf("task order: got %d, expected %d", v, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for task")
		}
	}

	cancel()
	if err := <-errc; err != context.Canceled {
		t.Errorf("Run returned %v, expected context.Canceled", err)
	}
}

func TestLoopSurvivesPanickingTask(t *testing.T) {
	l, cancel, _ := runLoop(t)
	defer cancel()

	l.Post(func() { panic("boom") })

	ran := make(chan struct{})
	l.Post(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("loop stopped after a panicking task")
	}
}

func TestLoopAfterEachHook(t *testing.T) {
	l := New(testLogger())
	var hooks atomic.Int32
	l.AfterEach(func() { hooks.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	ran := make(chan struct{})
	l.Post(func() {})
	l.Post(func() { close(ran) })
	<-ran

	synced := make(chan struct{})
	l.Post(func() { close(synced) })
	<-synced

	if hooks.Load() < 2 {
		t.Errorf("AfterEach ran %d times, expected at least 2", hooks.Load())
	}
}

func TestEveryStopsAfterStop(t *testing.T) {
	l, cancel, _ := runLoop(t)
	defer cancel()

	var ticks atomic.Int32
	timer := l.Every(5*time.Millisecond, func() { ticks.Add(1) })

	deadline := time.Now().Add(time.Second)
	for ticks.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ticks.Load() < 2 {
		t.Fatal("timer did not tick")
	}

	stopped := make(chan int32)
	l.Post(func() {
		timer.Stop()
		stopped <- ticks.Load()
	})
	atStop := <-stopped

	time.Sleep(30 * time.Millisecond)
	synced := make(chan struct{})
	l.Post(func() { close(synced) })
	<-synced

	if ticks.Load() != atStop {
		t.Errorf("timer ticked after Stop: %d ticks, expected %d", ticks.Load(), atStop)
	}
}

func TestAsyncCompletesOnLoop(t *testing.T) {
	l, cancel, _ := runLoop(t)
	defer cancel()

	var result int
	done := make(chan int)
	l.Async(func() { result = 42 }, func() { done <- result })

	select {
	case v := <-done:
		if v != 42 {
			t.Errorf("completion saw %d, expected 42", v)
		}
	case <-time.After(time.Second):
		t.Fatal("async completion never ran")
	}
}

func TestPostAfterStopDoesNotBlock(t *testing.T) {
	l, cancel, errc := runLoop(t)
	cancel()
	<-errc

	posted := make(chan struct{})
	go func() {
		l.Post(func() {})
		close(posted)
	}()

	select {
	case <-posted:
	case <-time.After(time.Second):
		t.Fatal("Post blocked on a stopped loop")
	}
}
