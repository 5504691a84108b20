package kinetic

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Built-in lifecycle event names.
const (
	// EventDestroying fires at the start of teardown, while listeners are
	// still registered.
	EventDestroying = "destroying"

	// EventDestroyed fires after the destroy hooks have run, immediately
	// before the listener tables are cleared.
	EventDestroyed = "destroyed"

	// EventChanged fires on every accepted property write with arguments
	// (key, newValue, oldValue). Per-property listeners use the
	// "changed:<key>" channel instead.
	EventChanged = "changed"

	// EventRestored fires after a history snapshot has been applied.
	EventRestored = "restored"

	// EventChildAdded and EventChildRemoved fire on tree mutations with
	// the child instance as argument.
	EventChildAdded   = "childAdded"
	EventChildRemoved = "childRemoved"
)

// Instance is a mutable object with dynamic descriptor-driven properties.
// It owns its listener, observer, job, child, and history tables; they are
// torn down together when the instance is destroyed.
//
// Instances are created with Runtime.NewInstance and destroyed exactly once
// with Destroy. After destruction every operation other than Destroyed,
// ID, Class, and String fails with DestroyedError.
type Instance struct {
	id    uint64
	class *Class
	rt    *Runtime

	// mu guards fields and timestamps.
	fields  map[string]any
	created time.Time
	updated time.Time

	destroyed atomic.Bool

	// done is closed at the end of Destroy to release blocked waiters.
	done chan struct{}

	// events: per-event listener lists ordered by descending priority,
	// ties broken by registration order.
	events map[string][]*listener

	// observers: per-property observer lists in registration order.
	observers map[string][]*observer

	// jobs: outstanding scheduled work, force-cancelled on destroy.
	jobs map[uint64]*Job

	parent   *Instance
	children []*Instance

	// history: bounded undo/redo snapshot stacks.
	past   []map[string]any
	future []map[string]any

	mu     sync.RWMutex
	evMu   sync.Mutex
	obMu   sync.Mutex
	jobMu  sync.Mutex
	chMu   sync.Mutex
	histMu sync.Mutex
}

// NewInstance constructs an instance of class c. Defaults are applied before
// the lifecycle hooks run, in order: OnInit, Init (the user constructor,
// receiving args), PostInit. Construction fails with ConstructionError if the
// class is abstract or a required method is missing; Init errors abort
// construction and propagate to the caller.
func (rt *Runtime) NewInstance(c *Class, args ...any) (*Instance, error) {
	if rt.closed.Load() {
		return nil, ErrRuntimeClosed
	}
	if c == nil {
		return nil, &ConstructionError{Class: "<nil>", Reason: "nil class"}
	}
	if c.abstract {
		return nil, &ConstructionError{Class: c.name, Reason: "class is abstract"}
	}
	if missing := c.missingRequired(); len(missing) > 0 {
		return nil, &ConstructionError{Class: c.name, Reason: fmt.Sprintf("missing required methods %v", missing)}
	}

	now := rt.clock.Now()
	in := &Instance{
		id:        nextID(),
		class:     c,
		rt:        rt,
		fields:    make(map[string]any),
		created:   now,
		updated:   now,
		done:      make(chan struct{}),
		events:    make(map[string][]*listener),
		observers: make(map[string][]*observer),
		jobs:      make(map[uint64]*Job),
	}

	in.applyDefaults()
	rt.register(in)

	// Constructor-context hooks run unprotected: their failures abort
	// construction and belong to the caller.
	if hook := c.resolveOnInit(); hook != nil {
		hook(in)
	}
	if init := c.resolveInit(); init != nil {
		if err := init(in, args...); err != nil {
			rt.unregister(in)
			in.destroyed.Store(true)
			close(in.done)
			return nil, err
		}
	}
	if hook := c.resolvePostInit(); hook != nil {
		hook(in)
	}

	return in, nil
}

// applyDefaults stores construction defaults for every plain descriptor in
// the merged chain that does not already hold a value. Producer defaults are
// invoked per instance; mutable literal defaults are deep-copied so instances
// never share state by reference.
func (in *Instance) applyDefaults() {
	for name, p := range in.class.Props() {
		if !p.plain() {
			continue
		}
		if p.DefaultFunc == nil && p.Default == nil {
			continue
		}
		if _, exists := in.fields[name]; exists {
			continue
		}
		if p.DefaultFunc != nil {
			in.fields[name] = p.DefaultFunc()
		} else {
			in.fields[name] = deepCopy(p.Default)
		}
	}
}

// ID returns the process-unique identity of this instance.
func (in *Instance) ID() uint64 { return in.id }

// Class returns the instance's class descriptor.
func (in *Instance) Class() *Class { return in.class }

// Runtime returns the runtime that owns this instance.
func (in *Instance) Runtime() *Runtime { return in.rt }

// Created returns the construction timestamp.
func (in *Instance) Created() time.Time {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.created
}

// Updated returns the timestamp of the last accepted write.
func (in *Instance) Updated() time.Time {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.updated
}

// touch bumps the updated timestamp. Called on every accepted write.
func (in *Instance) touch() {
	now := in.rt.clock.Now()
	in.mu.Lock()
	in.updated = now
	in.mu.Unlock()
}

// Destroyed reports whether Destroy has completed or is in progress.
// Always usable, even after destruction.
func (in *Instance) Destroyed() bool { return in.destroyed.Load() }

// String renders "Class#id". Always usable, even after destruction.
func (in *Instance) String() string {
	return fmt.Sprintf("%s#%d", in.class.name, in.id)
}

// guard returns a DestroyedError for op if the instance is destroyed.
func (in *Instance) guard(op string) error {
	if in.destroyed.Load() {
		return &DestroyedError{Op: op}
	}
	return nil
}

// Destroy tears the instance down exactly once; repeated calls are no-ops.
// Order: children destroyed depth-first, jobs cancelled, "destroying"
// emitted, PreDestroy and OnDestroy hooks run (isolated), "destroyed"
// emitted, then all listener/observer/connection tables are cleared and any
// blocked waiters are released.
func (in *Instance) Destroy() {
	if in.destroyed.Swap(true) {
		return
	}

	// Children first, depth-first.
	in.chMu.Lock()
	children := in.children
	in.children = nil
	in.chMu.Unlock()
	for _, child := range children {
		child.Destroy()
	}

	in.cancelAllJobs()

	in.emitInternal(EventDestroying)
	in.runDestroyHook(in.class.resolvePreDestroy())
	in.runDestroyHook(in.class.resolveOnDestroy())
	in.emitInternal(EventDestroyed)

	// Clear tables and mark every issued connection disconnected.
	in.evMu.Lock()
	for _, ls := range in.events {
		for _, l := range ls {
			l.conn.connected.Store(false)
		}
	}
	in.events = nil
	in.evMu.Unlock()

	in.obMu.Lock()
	for _, obs := range in.observers {
		for _, o := range obs {
			o.conn.connected.Store(false)
		}
	}
	in.observers = nil
	in.obMu.Unlock()

	in.histMu.Lock()
	in.past = nil
	in.future = nil
	in.histMu.Unlock()

	if p := in.parentOf(); p != nil {
		p.detachChild(in)
	}
	in.rt.unregister(in)

	close(in.done)
}

// runDestroyHook invokes a teardown hook in isolation: a panic is logged and
// never interrupts the destroy sequence.
func (in *Instance) runDestroyHook(hook LifecycleHook) {
	if hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			in.rt.logger.Error("destroy hook panic",
				"instance", in.String(),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	hook(in)
}

// =============================================================================
// Children
// =============================================================================

// AddChild attaches child to this instance and emits "childAdded".
// A child belongs to at most one parent; attaching a parented child
// detaches it from its previous parent first.
func (in *Instance) AddChild(child *Instance) error {
	if err := in.guard("addChild"); err != nil {
		return err
	}
	if child == nil || child.destroyed.Load() {
		return &DestroyedError{Op: "addChild"}
	}
	if prev := child.parentOf(); prev != nil {
		if prev == in {
			return nil
		}
		if err := prev.RemoveChild(child); err != nil {
			return err
		}
	}

	in.chMu.Lock()
	in.children = append(in.children, child)
	in.chMu.Unlock()

	child.chMu.Lock()
	child.parent = in
	child.chMu.Unlock()

	in.emitInternal(EventChildAdded, child)
	return nil
}

// RemoveChild detaches child without destroying it and emits "childRemoved".
func (in *Instance) RemoveChild(child *Instance) error {
	if err := in.guard("removeChild"); err != nil {
		return err
	}
	if !in.detachChild(child) {
		return nil
	}

	child.chMu.Lock()
	child.parent = nil
	child.chMu.Unlock()

	in.emitInternal(EventChildRemoved, child)
	return nil
}

// detachChild removes child from the children slice. Reports whether it was
// present.
func (in *Instance) detachChild(child *Instance) bool {
	in.chMu.Lock()
	defer in.chMu.Unlock()
	for i, c := range in.children {
		if c == child {
			in.children = append(in.children[:i], in.children[i+1:]...)
			return true
		}
	}
	return false
}

// Children returns a copy of the child list.
func (in *Instance) Children() []*Instance {
	in.chMu.Lock()
	defer in.chMu.Unlock()
	return append([]*Instance(nil), in.children...)
}

// Parent returns the owning parent, or nil.
func (in *Instance) Parent() *Instance { return in.parentOf() }

func (in *Instance) parentOf() *Instance {
	in.chMu.Lock()
	defer in.chMu.Unlock()
	return in.parent
}
