// Package kinetic provides the public API for the kinetic reactive
// object runtime.
//
// This is the recommended import for most applications:
//
//	import "github.com/kinetic-dev/kinetic"
//
// Usage:
//
//	rt := kinetic.New()
//	defer rt.Close()
//
//	player := kinetic.MustClass("Player", nil, kinetic.ClassDef{
//	    Props: []kinetic.Property{{Name: "hp", Default: 100.0}},
//	})
//	in, _ := rt.NewInstance(player)
//	in.Observe("hp", func(newValue, oldValue any) { ... })
//	in.Set("hp", 80.0)
package kinetic

import (
	core "github.com/kinetic-dev/kinetic/pkg/kinetic"
)

// =============================================================================
// Runtime
// =============================================================================

// Runtime owns the instance registry, the dispatch loop, and the shared
// clock. Close it to destroy every live instance and stop the loop.
type Runtime = core.Runtime

// Option configures a Runtime at construction.
type Option = core.Option

// New creates a runtime and starts its dispatch loop.
var New = core.New

// WithLogger sets the structured logger used for listener panics and
// lifecycle events.
var WithLogger = core.WithLogger

// WithClock substitutes the runtime clock, mainly for tests.
var WithClock = core.WithClock

// WithHistoryCapacity bounds the undo and redo stacks of every instance.
var WithHistoryCapacity = core.WithHistoryCapacity

// WithMetrics attaches a Prometheus metrics set to the runtime.
var WithMetrics = core.WithMetrics

// =============================================================================
// Classes and instances
// =============================================================================

// Class is an immutable blueprint: property descriptors, methods, and
// lifecycle hooks, optionally chained to a parent class.
type Class = core.Class

// ClassDef is the input to NewClass.
type ClassDef = core.ClassDef

// Property describes one dynamic property on a class.
type Property = core.Property

// Instance is a live object constructed from a Class.
type Instance = core.Instance

type (
	Getter        = core.Getter
	Setter        = core.Setter
	Initializer   = core.Initializer
	Method        = core.Method
	Constructor   = core.Constructor
	LifecycleHook = core.LifecycleHook
)

// NewClass builds a class, validating property descriptors and the
// inheritance chain.
var NewClass = core.NewClass

// MustClass is NewClass that panics on a bad definition.
var MustClass = core.MustClass

// =============================================================================
// Events, observers, scheduling
// =============================================================================

// Callback is a bus listener.
type Callback = core.Callback

// ListenOption configures a single registration on the bus.
type ListenOption = core.ListenOption

// Connection is a handle for one listener registration.
type Connection = core.Connection

// ObserverFunc receives property change notifications.
type ObserverFunc = core.ObserverFunc

// Emission is one captured event, as returned by the wait helpers.
type Emission = core.Emission

// Job is a handle for one scheduled unit of work.
type Job = core.Job

// WithPriority orders a listener relative to others on the same event.
// Higher runs first.
var WithPriority = core.WithPriority

// Lifecycle and notification event names.
const (
	EventDestroying   = core.EventDestroying
	EventDestroyed    = core.EventDestroyed
	EventChanged      = core.EventChanged
	EventRestored     = core.EventRestored
	EventChildAdded   = core.EventChildAdded
	EventChildRemoved = core.EventChildRemoved
)

// =============================================================================
// Metrics
// =============================================================================

// Metrics is the Prometheus instrument set a runtime reports into.
type Metrics = core.Metrics

// MetricsOption configures NewMetrics.
type MetricsOption = core.MetricsOption

var (
	NewMetrics      = core.NewMetrics
	WithNamespace   = core.WithNamespace
	WithConstLabels = core.WithConstLabels
	WithRegistry    = core.WithRegistry
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrWaitOnLoop    = core.ErrWaitOnLoop
	ErrWaitTimeout   = core.ErrWaitTimeout
	ErrRuntimeClosed = core.ErrRuntimeClosed
	ErrAlreadyClosed = core.ErrAlreadyClosed
)

type (
	ConstructionError        = core.ConstructionError
	ReadonlyPropertyError    = core.ReadonlyPropertyError
	DestroyedError           = core.DestroyedError
	SuperMethodNotFoundError = core.SuperMethodNotFoundError
	DecodeError              = core.DecodeError
)

// =============================================================================
// Value conversion
// =============================================================================

// Num coerces any stored property value to float64.
var Num = core.Num

// Str coerces any stored property value to its string form.
var Str = core.Str

// Bool coerces any stored property value to a boolean.
var Bool = core.Bool
