package kinetic

import (
	"time"
)

// Emission is one delivered event, as observed by the blocking waiters.
type Emission struct {
	Event string
	Args  []any
}

// WaitFor blocks until event fires once and returns its arguments. It must
// be called from outside the dispatch loop: a listener blocking the loop on
// an event that only the loop can deliver would never wake, so on-loop calls
// fail fast with ErrWaitOnLoop. Destroying the instance unblocks every
// waiter with a DestroyedError.
func (in *Instance) WaitFor(event string) ([]any, error) {
	ch, conn, err := in.waitChan("waitFor", event)
	if err != nil {
		return nil, err
	}
	defer conn.Disconnect()
	select {
	case em := <-ch:
		return em.Args, nil
	case <-in.done:
		return nil, &DestroyedError{Op: "waitFor"}
	}
}

// WaitForTimeout is WaitFor with an upper bound on the wait. On timeout the
// registration is dropped before returning, so a later emit of event goes
// nowhere.
func (in *Instance) WaitForTimeout(event string, timeout time.Duration) ([]any, error) {
	ch, conn, err := in.waitChan("waitForTimeout", event)
	if err != nil {
		return nil, err
	}
	defer conn.Disconnect()
	select {
	case em := <-ch:
		return em.Args, nil
	case <-in.rt.clock.After(timeout):
		return nil, ErrWaitTimeout
	case <-in.done:
		return nil, &DestroyedError{Op: "waitForTimeout"}
	}
}

// WaitForAny blocks until the first of events fires and reports which one
// won along with its arguments. The remaining registrations are dropped.
func (in *Instance) WaitForAny(events ...string) (Emission, error) {
	if in.rt.loop.onLoop() {
		return Emission{}, ErrWaitOnLoop
	}
	if err := in.guard("waitForAny"); err != nil {
		return Emission{}, err
	}

	ch := make(chan Emission, 1)
	conns := make([]*Connection, 0, len(events))
	for _, event := range events {
		event := event
		conn, err := in.Once(event, func(args ...any) {
			select {
			case ch <- Emission{Event: event, Args: args}:
			default:
			}
		})
		if err != nil {
			for _, c := range conns {
				c.Disconnect()
			}
			return Emission{}, err
		}
		conns = append(conns, conn)
	}
	defer func() {
		for _, c := range conns {
			c.Disconnect()
		}
	}()

	select {
	case em := <-ch:
		return em, nil
	case <-in.done:
		return Emission{}, &DestroyedError{Op: "waitForAny"}
	}
}

func (in *Instance) waitChan(op, event string) (chan Emission, *Connection, error) {
	if in.rt.loop.onLoop() {
		return nil, nil, ErrWaitOnLoop
	}
	if err := in.guard(op); err != nil {
		return nil, nil, err
	}
	ch := make(chan Emission, 1)
	conn, err := in.Once(event, func(args ...any) {
		select {
		case ch <- Emission{Event: event, Args: args}:
		default:
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return ch, conn, nil
}
