// Package kinetic implements a reactive per-object state runtime: dynamic
// properties with computed, lazy, and readonly semantics, change notification,
// a priority-ordered event bus with cooperative wait support, one- and two-way
// property bindings, cooperative job scheduling (delay, interval, debounce,
// throttle), and snapshot-based undo/redo history.
//
// The entry point is a Runtime, which owns a single dispatch loop. Instances
// are created from immutable Class descriptors and live until destroyed:
//
//	rt := kinetic.New()
//	defer rt.Close()
//
//	unit, _ := kinetic.NewClass("Unit", nil, kinetic.ClassDef{
//	    Props: []kinetic.Property{
//	        {Name: "hp", Default: 100},
//	        {Name: "isAlive", Compute: func(in *kinetic.Instance) any {
//	            return kinetic.Num(in.MustGet("hp")) > 0
//	        }},
//	    },
//	})
//
//	in, _ := rt.NewInstance(unit)
//	in.On("changed:hp", func(args ...any) { ... })
//	in.Set("hp", 0)
//
// Property reads and writes, event emission, and change notification are
// synchronous and never suspend. Asynchronous work (EmitAsync, Defer, timer
// jobs) is marshalled onto the runtime's dispatch loop, which serializes it
// with deterministic ordering. Wait-style calls (WaitFor and friends) block
// the calling goroutine until the matching event fires and are a usage error
// on the loop goroutine itself.
//
// Listener, observer, and lifecycle-hook failures are recovered at the
// dispatch boundary and logged; they never interrupt the operation that
// triggered them. Construction failures and property errors are returned
// synchronously to the caller.
package kinetic
