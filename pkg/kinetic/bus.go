package kinetic

import (
	"reflect"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// Callback is an event listener body. Arguments are the emit arguments.
type Callback func(args ...any)

// listener is one registration in an instance's event table.
type listener struct {
	id       uint64
	fn       Callback
	fnPtr    uintptr // function identity, used by Off
	priority int
	once     bool
	conn     *Connection
}

// ListenOption configures a listener registration.
type ListenOption func(*listener)

// WithPriority orders the listener within its event. Higher priorities fire
// first; ties fire in registration order. Default priority is 0.
func WithPriority(p int) ListenOption {
	return func(l *listener) {
		l.priority = p
	}
}

// On registers a listener for event and returns its Connection.
func (in *Instance) On(event string, fn Callback, opts ...ListenOption) (*Connection, error) {
	return in.addListener("on", event, fn, false, opts)
}

// Once registers a listener that fires at most once. The registration is
// removed before the callback is invoked, so re-emitting the same event from
// inside the callback cannot fire it again.
func (in *Instance) Once(event string, fn Callback, opts ...ListenOption) (*Connection, error) {
	return in.addListener("once", event, fn, true, opts)
}

func (in *Instance) addListener(op, event string, fn Callback, once bool, opts []ListenOption) (*Connection, error) {
	if err := in.guard(op); err != nil {
		return nil, err
	}

	l := &listener{
		id:    nextID(),
		fn:    fn,
		fnPtr: reflect.ValueOf(fn).Pointer(),
		once:  once,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.conn = newConnection(func() {
		in.removeListener(event, l.id)
	})

	in.evMu.Lock()
	if in.events != nil {
		in.events[event] = insertByPriority(in.events[event], l)
	}
	in.evMu.Unlock()

	return l.conn, nil
}

// insertByPriority places l after every existing listener with priority >=
// l.priority, preserving registration order within a priority band.
func insertByPriority(ls []*listener, l *listener) []*listener {
	idx := len(ls)
	for i, existing := range ls {
		if existing.priority < l.priority {
			idx = i
			break
		}
	}
	ls = append(ls, nil)
	copy(ls[idx+1:], ls[idx:])
	ls[idx] = l
	return ls
}

// removeListener drops one listener by id and marks its connection
// disconnected.
func (in *Instance) removeListener(event string, id uint64) {
	in.evMu.Lock()
	defer in.evMu.Unlock()
	ls := in.events[event]
	for i, l := range ls {
		if l.id == id {
			l.conn.connected.Store(false)
			in.events[event] = append(ls[:i], ls[i+1:]...)
			if len(in.events[event]) == 0 {
				delete(in.events, event)
			}
			return
		}
	}
}

// Off removes every listener for event whose callback is fn (matched by
// function identity).
func (in *Instance) Off(event string, fn Callback) error {
	if err := in.guard("off"); err != nil {
		return err
	}
	ptr := reflect.ValueOf(fn).Pointer()

	in.evMu.Lock()
	defer in.evMu.Unlock()
	ls := in.events[event]
	kept := ls[:0]
	for _, l := range ls {
		if l.fnPtr == ptr {
			l.conn.connected.Store(false)
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) == 0 {
		delete(in.events, event)
	} else {
		in.events[event] = kept
	}
	return nil
}

// OffAll clears the listeners of the named events, or of every event when
// called with no arguments.
func (in *Instance) OffAll(events ...string) error {
	if err := in.guard("offAll"); err != nil {
		return err
	}

	in.evMu.Lock()
	defer in.evMu.Unlock()
	if len(events) == 0 {
		for _, ls := range in.events {
			for _, l := range ls {
				l.conn.connected.Store(false)
			}
		}
		in.events = make(map[string][]*listener)
		return nil
	}
	for _, event := range events {
		for _, l := range in.events[event] {
			l.conn.connected.Store(false)
		}
		delete(in.events, event)
	}
	return nil
}

// Emit dispatches event synchronously against a snapshot of the listener
// list taken at emit start. Listener mutations during dispatch (including a
// listener disconnecting itself) do not affect the in-flight dispatch.
// Listeners fire strictly by descending priority then registration order;
// each runs in isolation, so one failing listener never stops the rest.
func (in *Instance) Emit(event string, args ...any) error {
	if err := in.guard("emit"); err != nil {
		return err
	}
	in.emitInternal(event, args...)
	return nil
}

// emitInternal is Emit without the destroyed guard; the destroy sequence
// uses it to deliver "destroying" and "destroyed".
func (in *Instance) emitInternal(event string, args ...any) {
	in.evMu.Lock()
	var snapshot []*listener
	if ls := in.events[event]; len(ls) > 0 {
		snapshot = make([]*listener, len(ls))
		copy(snapshot, ls)
	}
	in.evMu.Unlock()

	if len(snapshot) == 0 {
		return
	}
	in.rt.metrics.recordEmit()

	for _, l := range snapshot {
		if l.once {
			// Removed before invocation: at most one firing even if the
			// callback re-enters emit for the same event.
			in.removeListener(event, l.id)
		}
		in.invokeListener(event, l, args)
	}
}

func (in *Instance) invokeListener(event string, l *listener, args []any) {
	defer func() {
		if r := recover(); r != nil {
			in.rt.metrics.recordListenerPanic()
			in.rt.logger.Error("listener panic",
				"instance", in.String(),
				"event", event,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	l.fn(args...)
}

// EmitAsync captures args by value now and schedules the equivalent
// synchronous emit on the next tick of the dispatch loop.
func (in *Instance) EmitAsync(event string, args ...any) error {
	if err := in.guard("emitAsync"); err != nil {
		return err
	}
	in.rt.Dispatch(func() {
		if in.destroyed.Load() {
			return
		}
		in.emitInternal(event, args...)
	})
	return nil
}

// OnceWithTimeout races a once-listener against a timer. Exactly one side
// wins; the loser is cancelled before the callback runs. The callback always
// receives timedOut, plus the emit arguments when the event won.
func (in *Instance) OnceWithTimeout(event string, timeout time.Duration, fn func(timedOut bool, args ...any)) (*Connection, error) {
	if err := in.guard("onceWithTimeout"); err != nil {
		return nil, err
	}

	var won atomic.Bool
	settled := make(chan struct{})
	var conn *Connection
	conn, err := in.Once(event, func(args ...any) {
		if !won.CompareAndSwap(false, true) {
			return
		}
		close(settled)
		fn(false, args...)
	})
	if err != nil {
		return nil, err
	}

	go func() {
		select {
		case <-in.rt.clock.After(timeout):
			in.rt.Dispatch(func() {
				if in.destroyed.Load() {
					return
				}
				if !won.CompareAndSwap(false, true) {
					return
				}
				close(settled)
				conn.Disconnect()
				fn(true)
			})
		case <-settled:
		case <-in.done:
		}
	}()

	return conn, nil
}
