package kinetic

import "sync/atomic"

// globalIDCounter is the source of unique identifiers for instances,
// listeners, observers, and jobs. Monotonically increasing, never reused.
var globalIDCounter uint64

// nextID returns the next unique identifier.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
