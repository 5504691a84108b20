package kinetic

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefer(t *testing.T) {
	rt, in := newEventInstance(t)

	var ran atomic.Bool
	if _, err := in.Defer(func() { ran.Store(true) }); err != nil {
		t.Fatalf("Defer: %v", err)
	}
	drainLoop(rt)
	if !ran.Load() {
		t.Error("deferred fn never ran")
	}
	if in.Jobs() != 0 {
		t.Errorf("job not retired, Jobs()=%d", in.Jobs())
	}
}

func TestDeferCancelled(t *testing.T) {
	rt, in := newEventInstance(t)

	var ran atomic.Bool
	j, err := in.Defer(func() { ran.Store(true) })
	if err != nil {
		t.Fatalf("Defer: %v", err)
	}
	j.Cancel()
	drainLoop(rt)
	if ran.Load() {
		t.Error("cancelled deferred fn ran")
	}
}

func TestDelay(t *testing.T) {
	_, in := newEventInstance(t)

	done := make(chan struct{})
	start := time.Now()
	if _, err := in.Delay(20*time.Millisecond, func() { close(done) }); err != nil {
		t.Fatalf("Delay: %v", err)
	}

	select {
	case <-done:
		if time.Since(start) < 15*time.Millisecond {
			t.Error("delay fired too early")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("delayed fn never ran")
	}
}

func TestDelayCancel(t *testing.T) {
	_, in := newEventInstance(t)

	var ran atomic.Bool
	j, err := in.Delay(30*time.Millisecond, func() { ran.Store(true) })
	if err != nil {
		t.Fatalf("Delay: %v", err)
	}
	j.Cancel()

	time.Sleep(80 * time.Millisecond)
	if ran.Load() {
		t.Error("cancelled delay fired")
	}
	if !j.Cancelled() {
		t.Error("job not marked cancelled")
	}
}

func TestEvery(t *testing.T) {
	_, in := newEventInstance(t)

	var ticks atomic.Int64
	j, err := in.Every(15*time.Millisecond, func() { ticks.Add(1) })
	if err != nil {
		t.Fatalf("Every: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	j.Cancel()
	seen := ticks.Load()
	if seen < 2 {
		t.Errorf("expected repeated ticks, got %d", seen)
	}

	time.Sleep(60 * time.Millisecond)
	if ticks.Load() != seen {
		t.Error("interval ticked after cancel")
	}
}

func TestDebounce(t *testing.T) {
	_, in := newEventInstance(t)

	var mu sync.Mutex
	var calls [][]any
	fn := in.Debounce(func(args ...any) {
		mu.Lock()
		calls = append(calls, args)
		mu.Unlock()
	}, 30*time.Millisecond)

	fn(1)
	fn(2)
	fn(3)

	time.Sleep(120 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Fatalf("debounce fired %d times, want 1", len(calls))
	}
	if len(calls[0]) != 1 || calls[0][0] != 3 {
		t.Errorf("expected last call's args, got %v", calls[0])
	}
}

func TestThrottle(t *testing.T) {
	_, in := newEventInstance(t)

	var mu sync.Mutex
	var calls [][]any
	fn := in.Throttle(func(args ...any) {
		mu.Lock()
		calls = append(calls, args)
		mu.Unlock()
	}, 40*time.Millisecond)

	fn("first")
	fn("second")
	fn("third")

	mu.Lock()
	if len(calls) != 1 || calls[0][0] != "first" {
		mu.Unlock()
		t.Fatalf("expected one immediate call with first args, got %v", calls)
	}
	mu.Unlock()

	// The queued call flushes once when the window closes, with the latest
	// arguments.
	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 {
		t.Fatalf("expected single flush, got %d calls", len(calls))
	}
	if calls[1][0] != "third" {
		t.Errorf("flush should use latest args, got %v", calls[1])
	}
}

func TestCancelJobs(t *testing.T) {
	_, in := newEventInstance(t)

	var ran atomic.Int64
	in.Delay(30*time.Millisecond, func() { ran.Add(1) })
	in.Delay(30*time.Millisecond, func() { ran.Add(1) })
	in.Every(20*time.Millisecond, func() { ran.Add(1) })

	if in.Jobs() != 3 {
		t.Fatalf("expected 3 outstanding jobs, got %d", in.Jobs())
	}
	if err := in.CancelJobs(); err != nil {
		t.Fatalf("CancelJobs: %v", err)
	}
	if in.Jobs() != 0 {
		t.Errorf("jobs remain after CancelJobs: %d", in.Jobs())
	}

	time.Sleep(100 * time.Millisecond)
	if ran.Load() != 0 {
		t.Errorf("cancelled jobs fired %d times", ran.Load())
	}
}

func TestDestroyCancelsJobs(t *testing.T) {
	_, in := newEventInstance(t)

	var ran atomic.Int64
	in.Delay(30*time.Millisecond, func() { ran.Add(1) })
	in.Every(20*time.Millisecond, func() { ran.Add(1) })

	in.Destroy()
	time.Sleep(100 * time.Millisecond)
	if ran.Load() != 0 {
		t.Errorf("jobs fired after destroy: %d", ran.Load())
	}
}

func TestJobsOnDestroyedInstance(t *testing.T) {
	_, in := newEventInstance(t)
	in.Destroy()

	if _, err := in.Delay(time.Millisecond, func() {}); err == nil {
		t.Error("Delay on destroyed instance should fail")
	}
	if _, err := in.Defer(func() {}); err == nil {
		t.Error("Defer on destroyed instance should fail")
	}
	if _, err := in.Every(time.Millisecond, func() {}); err == nil {
		t.Error("Every on destroyed instance should fail")
	}
}
