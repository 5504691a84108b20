package kinetic

import "sync/atomic"

// Connection is a disconnectable handle for one active event listener or
// property observer. Holding a Connection does not keep the instance alive;
// disconnecting after the instance is destroyed is a no-op.
//
// Disconnect is idempotent: the registration is removed at most once no
// matter how many handles race to disconnect it.
type Connection struct {
	connected  atomic.Bool
	disconnect func()
}

func newConnection(disconnect func()) *Connection {
	c := &Connection{disconnect: disconnect}
	c.connected.Store(true)
	return c
}

// Connected reports whether the registration is still active.
func (c *Connection) Connected() bool {
	return c.connected.Load()
}

// Disconnect removes the registration. Safe to call repeatedly and safe
// after the owning instance has been destroyed.
func (c *Connection) Disconnect() {
	if !c.connected.Swap(false) {
		return
	}
	if c.disconnect != nil {
		c.disconnect()
	}
}
