package kinetic

import "fmt"

// Get resolves a property read against the active descriptor chain.
// Resolution order for a descriptor: getter, compute, stored value, lazy
// initializer (invoked once, cached, notified as a change from nil).
// Without a descriptor the read falls back to the raw stored field and then
// to class method lookup, returning the Method value itself.
//
// A missing property reads as nil without error; the dynamic model treats
// absent and nil identically.
func (in *Instance) Get(name string) (any, error) {
	if err := in.guard("get"); err != nil {
		return nil, err
	}

	p := in.class.Prop(name)
	if p != nil {
		switch {
		case p.Get != nil:
			return p.Get(in), nil
		case p.Compute != nil:
			// Recomputed from current state on every read; never cached.
			return p.Compute(in), nil
		}

		in.mu.RLock()
		v, ok := in.fields[name]
		in.mu.RUnlock()
		if ok {
			return v, nil
		}

		if p.Lazy != nil {
			v := p.Lazy(in)
			in.mu.Lock()
			in.fields[name] = v
			in.mu.Unlock()
			in.touch()
			in.notify(name, v, nil)
			return v, nil
		}
		return nil, nil
	}

	in.mu.RLock()
	v, ok := in.fields[name]
	in.mu.RUnlock()
	if ok {
		return v, nil
	}

	if m := in.class.MethodNamed(name); m != nil {
		return m, nil
	}
	return nil, nil
}

// MustGet is Get that panics on error. Convenient inside compute functions
// and method bodies where the instance is known to be live.
func (in *Instance) MustGet(name string) any {
	v, err := in.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Set resolves a property write. Readonly and computed descriptors reject
// the write with ReadonlyPropertyError and leave stored state untouched.
// A setter descriptor is invoked and the post-write value is re-read and
// notified unconditionally, even when the setter left the value unchanged
// (an accepted quirk of the model; setters that want quiet no-op writes
// must guard equality themselves). Plain writes store directly and notify
// old to new. Every accepted write bumps the updated timestamp.
func (in *Instance) Set(name string, value any) error {
	if err := in.guard("set"); err != nil {
		return err
	}

	p := in.class.Prop(name)
	if p != nil {
		if p.readonly() {
			return &ReadonlyPropertyError{Prop: name}
		}
		if p.Set != nil {
			old := in.currentValue(p, name)
			p.Set(in, value)
			in.touch()
			in.notify(name, in.currentValue(p, name), old)
			return nil
		}
	}

	in.mu.Lock()
	old := in.fields[name]
	in.fields[name] = value
	in.mu.Unlock()
	in.touch()
	in.notify(name, value, old)
	return nil
}

// RawSet stores a field directly, bypassing descriptors and notification.
// Intended for use inside Setter implementations.
func (in *Instance) RawSet(name string, value any) {
	in.mu.Lock()
	in.fields[name] = value
	in.mu.Unlock()
}

// RawGet reads a stored field directly, bypassing descriptors.
func (in *Instance) RawGet(name string) (any, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	v, ok := in.fields[name]
	return v, ok
}

// hasValue reports whether a read of name would produce something: a
// getter-backed or computed descriptor always does, otherwise a stored field
// must be present. Uncached lazy properties count as absent until first read.
func (in *Instance) hasValue(name string) bool {
	if p := in.class.Prop(name); p != nil && (p.Get != nil || p.Compute != nil) {
		return true
	}
	_, ok := in.RawGet(name)
	return ok
}

// currentValue reads the externally visible value of a setter-backed
// property: through its getter when present, from raw storage otherwise.
func (in *Instance) currentValue(p *Property, name string) any {
	if p.Get != nil {
		return p.Get(in)
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.fields[name]
}

// Call invokes a class method resolved by walking the ancestor chain from
// the most derived class.
func (in *Instance) Call(name string, args ...any) (any, error) {
	if err := in.guard("call"); err != nil {
		return nil, err
	}
	m := in.class.MethodNamed(name)
	if m == nil {
		return nil, fmt.Errorf("kinetic: class %s has no method %q", in.class.name, name)
	}
	return m(in, args...), nil
}

// Super invokes the first definition of name in the ancestor chain strictly
// above from. Method bodies use it to delegate to an overridden
// implementation; from is the class the calling method was defined on.
// Fails with SuperMethodNotFoundError when the walk finds nothing.
func (in *Instance) Super(from *Class, name string, args ...any) (any, error) {
	if err := in.guard("super"); err != nil {
		return nil, err
	}
	if from == nil {
		from = in.class
	}
	m, err := in.class.superMethod(from, name)
	if err != nil {
		return nil, err
	}
	return m(in, args...), nil
}
