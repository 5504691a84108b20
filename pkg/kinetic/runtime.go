package kinetic

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/clockz"
)

// DefaultHistoryCapacity bounds each instance's undo and redo stacks unless
// overridden with WithHistoryCapacity.
const DefaultHistoryCapacity = 64

// Option configures a Runtime during creation.
type Option func(*Runtime)

// WithLogger sets the structured logger used for dispatch-boundary failures.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithClock sets the clock implementation for timestamps and scheduler
// timers. Default is clockz.RealClock; inject a fake clock for
// deterministic tests.
func WithClock(clock clockz.Clock) Option {
	return func(rt *Runtime) {
		if clock != nil {
			rt.clock = clock
		}
	}
}

// WithHistoryCapacity sets the per-instance undo/redo stack bound.
// Values below 1 are ignored.
func WithHistoryCapacity(n int) Option {
	return func(rt *Runtime) {
		if n > 0 {
			rt.historyCap = n
		}
	}
}

// WithMetrics attaches a metrics collector. A nil collector (the default)
// records nothing.
func WithMetrics(m *Metrics) Option {
	return func(rt *Runtime) {
		rt.metrics = m
	}
}

// Runtime owns the cooperative dispatch loop and the registry of live
// instances. Instances created from it share its loop, clock, and logger,
// and are destroyed when the runtime closes.
type Runtime struct {
	logger     *slog.Logger
	clock      clockz.Clock
	metrics    *Metrics
	historyCap int

	loop *loop

	mu        sync.RWMutex
	instances map[uint64]*Instance

	closed atomic.Bool
}

// New creates a runtime with the given options and starts its dispatch loop.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		logger:     slog.Default(),
		clock:      clockz.RealClock,
		historyCap: DefaultHistoryCapacity,
		instances:  make(map[uint64]*Instance),
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.loop = newLoop(rt.logger)
	return rt
}

// Dispatch queues fn to run on the runtime's loop goroutine. Safe from any
// goroutine; the correct way to re-enter the runtime from asynchronous work.
func (rt *Runtime) Dispatch(fn func()) {
	rt.loop.dispatch(fn)
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger { return rt.logger }

// Clock returns the runtime's clock.
func (rt *Runtime) Clock() clockz.Clock { return rt.clock }

// Closed reports whether Close has been called.
func (rt *Runtime) Closed() bool { return rt.closed.Load() }

// Instance looks up a live instance by identity. Returns nil if unknown or
// destroyed.
func (rt *Runtime) Instance(id uint64) *Instance {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.instances[id]
}

// Instances returns the live instances ordered by identity.
func (rt *Runtime) Instances() []*Instance {
	rt.mu.RLock()
	out := make([]*Instance, 0, len(rt.instances))
	for _, in := range rt.instances {
		out = append(out, in)
	}
	rt.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Close destroys all live instances and stops the dispatch loop.
// Returns ErrAlreadyClosed on repeated calls.
func (rt *Runtime) Close() error {
	if rt.closed.Swap(true) {
		return ErrAlreadyClosed
	}

	// Destroy roots first; Destroy recurses into children and removes
	// entries from the registry as it goes.
	for _, in := range rt.Instances() {
		if in.parentOf() == nil {
			in.Destroy()
		}
	}

	rt.loop.close()
	return nil
}

// register adds a newly constructed instance to the registry.
func (rt *Runtime) register(in *Instance) {
	rt.mu.Lock()
	rt.instances[in.id] = in
	rt.mu.Unlock()
	rt.metrics.recordInstanceCreated()
}

// unregister removes a destroyed instance from the registry.
func (rt *Runtime) unregister(in *Instance) {
	rt.mu.Lock()
	delete(rt.instances, in.id)
	rt.mu.Unlock()
	rt.metrics.recordInstanceDestroyed()
}
