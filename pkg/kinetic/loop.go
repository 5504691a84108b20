package kinetic

import (
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// dispatchQueueSize bounds the loop's pending-callback queue. Dispatch is
// lossless up to this depth; beyond it the callback is dropped with a log
// entry rather than deadlocking a caller that is itself on the loop.
const dispatchQueueSize = 1024

// loop is the runtime's single cooperative dispatch loop. All asynchronous
// work (EmitAsync, deferred callbacks, timer job firings, wait resolutions)
// funnels through it, which serializes execution and makes ordering
// deterministic. Synchronous operations (property access, Emit) never touch
// the loop.
type loop struct {
	dispatchCh chan func()
	done       chan struct{}
	closed     atomic.Bool
	gid        atomic.Uint64
	logger     *slog.Logger
	wg         sync.WaitGroup
}

func newLoop(logger *slog.Logger) *loop {
	l := &loop{
		dispatchCh: make(chan func(), dispatchQueueSize),
		done:       make(chan struct{}),
		logger:     logger,
	}
	l.wg.Add(1)
	go l.run()
	return l
}

// run drains the dispatch queue until the loop is closed.
func (l *loop) run() {
	defer l.wg.Done()
	l.gid.Store(goroutineID())

	for {
		select {
		case fn := <-l.dispatchCh:
			l.execute(fn)
		case <-l.done:
			return
		}
	}
}

// execute runs one dispatched callback with panic recovery. A panicking
// callback is logged and never takes down the loop.
func (l *loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// dispatch queues fn to run on the loop goroutine. Safe to call from any
// goroutine, including the loop itself (the queue absorbs re-entrant
// dispatches). Discarded silently once the loop is closed.
func (l *loop) dispatch(fn func()) {
	if l.closed.Load() {
		return
	}
	select {
	case l.dispatchCh <- fn:
	case <-l.done:
	default:
		// Queue full. Blocking here could deadlock a caller running on
		// the loop, so drop and log instead.
		l.logger.Warn("dispatch queue full, discarding callback")
	}
}

// onLoop reports whether the calling goroutine is the loop goroutine.
func (l *loop) onLoop() bool {
	return goroutineID() == l.gid.Load()
}

// close stops the loop and waits for the run goroutine to exit. Idempotent.
func (l *loop) close() {
	if l.closed.Swap(true) {
		return
	}
	close(l.done)
	l.wg.Wait()
}

// goroutineID extracts the current goroutine's id from the runtime stack.
// Implementation detail of onLoop; not exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack header is "goroutine <id> ".
	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
