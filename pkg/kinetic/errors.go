package kinetic

import (
	"errors"
	"fmt"
)

// ErrWaitOnLoop is returned when a wait-style call (WaitFor, WaitForTimeout,
// WaitForAny) is made from the runtime's dispatch loop goroutine. Waiting
// there would block the loop that has to deliver the event, so it is a usage
// error rather than a deadlock.
var ErrWaitOnLoop = errors.New("kinetic: wait called on the dispatch loop goroutine")

// ErrWaitTimeout is returned by WaitForTimeout when the deadline elapses
// before the event fires.
var ErrWaitTimeout = errors.New("kinetic: wait timed out")

// ErrRuntimeClosed is returned when attempting to use a runtime that has been
// closed via Close().
var ErrRuntimeClosed = errors.New("kinetic: runtime is closed")

// ErrAlreadyClosed is returned when calling Close() on a runtime that has
// already been closed.
var ErrAlreadyClosed = errors.New("kinetic: runtime already closed")

// ConstructionError reports a failure to build a class or construct an
// instance: instantiating an abstract class, subclassing a sealed class,
// a missing required method, or an invalid property descriptor.
type ConstructionError struct {
	Class  string // Class name involved
	Reason string // Human-readable cause
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("kinetic: cannot construct %s: %s", e.Class, e.Reason)
}

// ReadonlyPropertyError reports a write to a readonly or computed property.
// The stored value is left unchanged.
type ReadonlyPropertyError struct {
	Prop string // Property name
}

func (e *ReadonlyPropertyError) Error() string {
	return fmt.Sprintf("kinetic: property %q is readonly", e.Prop)
}

// DestroyedError reports an operation attempted on a destroyed instance.
// Only Destroyed() and String() remain usable after Destroy().
type DestroyedError struct {
	Op string // Operation that was attempted
}

func (e *DestroyedError) Error() string {
	return fmt.Sprintf("kinetic: %s on destroyed instance", e.Op)
}

// SuperMethodNotFoundError reports a super-call that walked the ancestor
// chain and found no matching method.
type SuperMethodNotFoundError struct {
	Class  string // Class the search started above
	Method string // Method name searched for
}

func (e *SuperMethodNotFoundError) Error() string {
	return fmt.Sprintf("kinetic: no super method %q above class %s", e.Method, e.Class)
}

// DecodeError reports malformed serialized input passed to ApplyText.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "kinetic: decode failed: " + e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
