package kinetic

import (
	"reflect"
)

// BindTo propagates changes of sourceProp on this instance into targetProp on
// target. When the source currently holds a value it is synced immediately;
// a valueless source leaves the target untouched until the first change. The
// returned closure tears the binding down.
func (in *Instance) BindTo(target *Instance, targetProp, sourceProp string) (func(), error) {
	if err := in.guard("bindTo"); err != nil {
		return nil, err
	}
	if err := target.guard("bindTo"); err != nil {
		return nil, err
	}

	if in.hasValue(sourceProp) {
		cur, err := in.Get(sourceProp)
		if err != nil {
			return nil, err
		}
		if err := target.Set(targetProp, cur); err != nil {
			return nil, err
		}
	}

	conn, err := in.Observe(sourceProp, func(newValue, _ any) {
		if target.destroyed.Load() {
			return
		}
		_ = target.Set(targetProp, newValue)
	})
	if err != nil {
		return nil, err
	}
	return conn.Disconnect, nil
}

// LinkTwoWay keeps propA on this instance and propB on other in sync in both
// directions. Each side skips its write when the incoming value already
// equals the current one, which is what breaks the mutual-notification cycle.
// Returns a closure that removes both halves of the link.
func (in *Instance) LinkTwoWay(other *Instance, propA, propB string) (func(), error) {
	if err := in.guard("linkTwoWay"); err != nil {
		return nil, err
	}
	if err := other.guard("linkTwoWay"); err != nil {
		return nil, err
	}

	cur, err := in.Get(propA)
	if err != nil {
		return nil, err
	}
	if err := other.Set(propB, cur); err != nil {
		return nil, err
	}

	forward := func(dst *Instance, dstProp string) ObserverFunc {
		return func(newValue, _ any) {
			if dst.destroyed.Load() {
				return
			}
			current, err := dst.Get(dstProp)
			if err == nil && reflect.DeepEqual(current, newValue) {
				return
			}
			_ = dst.Set(dstProp, newValue)
		}
	}

	connA, err := in.Observe(propA, forward(other, propB))
	if err != nil {
		return nil, err
	}
	connB, err := other.Observe(propB, forward(in, propA))
	if err != nil {
		connA.Disconnect()
		return nil, err
	}
	return func() {
		connA.Disconnect()
		connB.Disconnect()
	}, nil
}

// Watch invokes cb whenever any of props changes, passing the property name
// along with the new and old values. One closure unsubscribes all of them.
func (in *Instance) Watch(props []string, cb func(prop string, newValue, oldValue any)) (func(), error) {
	if err := in.guard("watch"); err != nil {
		return nil, err
	}

	conns := make([]*Connection, 0, len(props))
	for _, prop := range props {
		prop := prop
		conn, err := in.Observe(prop, func(newValue, oldValue any) {
			cb(prop, newValue, oldValue)
		})
		if err != nil {
			for _, c := range conns {
				c.Disconnect()
			}
			return nil, err
		}
		conns = append(conns, conn)
	}
	return func() {
		for _, c := range conns {
			c.Disconnect()
		}
	}, nil
}

// WatchAll invokes cb for every property change whose name passes pred. A nil
// pred matches everything.
func (in *Instance) WatchAll(pred func(prop string) bool, cb func(prop string, newValue, oldValue any)) (func(), error) {
	conn, err := in.On(EventChanged, func(args ...any) {
		if len(args) < 3 {
			return
		}
		prop, ok := args[0].(string)
		if !ok {
			return
		}
		if pred != nil && !pred(prop) {
			return
		}
		cb(prop, args[1], args[2])
	})
	if err != nil {
		return nil, err
	}
	return conn.Disconnect, nil
}
