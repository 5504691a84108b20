package kinetic

import "runtime/debug"

// ObserverFunc receives the new and old value of an observed property.
type ObserverFunc func(newValue, oldValue any)

type observer struct {
	id   uint64
	fn   ObserverFunc
	conn *Connection
}

// Observe registers an observer for a single property. Observers fire before
// the generic "changed" and specific "changed:<key>" events and are the cheap
// per-property channel that bindings build on. The returned Connection
// removes the observer.
func (in *Instance) Observe(prop string, fn ObserverFunc) (*Connection, error) {
	if err := in.guard("observe"); err != nil {
		return nil, err
	}

	o := &observer{id: nextID(), fn: fn}
	o.conn = newConnection(func() {
		in.removeObserver(prop, o.id)
	})

	in.obMu.Lock()
	if in.observers != nil {
		in.observers[prop] = append(in.observers[prop], o)
	}
	in.obMu.Unlock()

	return o.conn, nil
}

func (in *Instance) removeObserver(prop string, id uint64) {
	in.obMu.Lock()
	defer in.obMu.Unlock()
	obs := in.observers[prop]
	for i, o := range obs {
		if o.id == id {
			in.observers[prop] = append(obs[:i], obs[i+1:]...)
			if len(in.observers[prop]) == 0 {
				delete(in.observers, prop)
			}
			return
		}
	}
}

// notify fans an accepted property write out to, in order: the property's
// observers, the generic "changed" event (key, new, old), and the specific
// "changed:<key>" event (new, old). Each observer runs in isolation; a
// failing observer is logged and never stops the remaining observers or the
// writing caller.
func (in *Instance) notify(key string, newValue, oldValue any) {
	in.obMu.Lock()
	var obs []*observer
	if cur := in.observers[key]; len(cur) > 0 {
		obs = make([]*observer, len(cur))
		copy(obs, cur)
	}
	in.obMu.Unlock()

	for _, o := range obs {
		in.invokeObserver(o, newValue, oldValue)
	}

	in.emitInternal(EventChanged, key, newValue, oldValue)
	in.emitInternal(EventChanged+":"+key, newValue, oldValue)
}

func (in *Instance) invokeObserver(o *observer, newValue, oldValue any) {
	defer func() {
		if r := recover(); r != nil {
			in.rt.metrics.recordListenerPanic()
			in.rt.logger.Error("observer panic",
				"instance", in.String(),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	o.fn(newValue, oldValue)
}
