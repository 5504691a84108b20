package kinetic

import "fmt"

// Getter reads a property value from an instance.
type Getter func(*Instance) any

// Setter writes a property value; the setter is responsible for mutating
// stored state (typically via RawSet on the instance).
type Setter func(*Instance, any)

// Initializer produces a property value from an instance. Used for both
// lazy (computed once, cached) and computed (recomputed every read)
// descriptors.
type Initializer func(*Instance) any

// Method is a dynamically dispatched class method.
type Method func(*Instance, ...any) any

// Constructor is the user constructor invoked during instance construction.
// A non-nil error aborts construction and propagates to the caller.
type Constructor func(*Instance, ...any) error

// LifecycleHook is invoked at a documented lifecycle point. Panics from
// PreDestroy/OnDestroy are recovered and logged; panics from OnInit/PostInit
// propagate because they run in constructor context.
type LifecycleHook func(*Instance)

// Property describes how a named property is read and written. Exactly one
// behavior applies:
//
//   - plain stored value (optional Default or DefaultFunc)
//   - Get/Set accessor pair
//   - Lazy: initialized on first read, cached in stored state
//   - Compute: recomputed from current state on every read, always readonly
//
// Compute and Lazy are each mutually exclusive with Set, and with each
// other. A Compute descriptor is readonly regardless of the Readonly flag.
type Property struct {
	Name string

	// Default is the initial stored value applied at construction.
	// Mutable defaults are deep-copied per instance so instances never
	// alias one another's state; the copy covers map[string]any and
	// []any trees. Other reference-carrying shapes (pointers, structs
	// holding slices or maps) are shared across instances — use
	// DefaultFunc to produce a fresh value per instance instead.
	Default any

	// DefaultFunc, when set, produces the initial value and is invoked
	// once per instance. Takes precedence over Default.
	DefaultFunc func() any

	Get     Getter
	Set     Setter
	Lazy    Initializer
	Compute Initializer

	// Readonly rejects writes with ReadonlyPropertyError.
	Readonly bool
}

// computed reports whether this property recomputes on every read.
func (p *Property) computed() bool { return p.Compute != nil }

// readonly reports whether writes to this property must be rejected.
func (p *Property) readonly() bool { return p.Readonly || p.Compute != nil }

// plain reports whether the property is backed by raw stored state only,
// making it eligible for a construction-time default.
func (p *Property) plain() bool { return p.Get == nil && p.Compute == nil }

// validate checks the mutual-exclusion rules for the descriptor.
func (p *Property) validate(class string) error {
	if p.Name == "" {
		return &ConstructionError{Class: class, Reason: "property with empty name"}
	}
	if p.Compute != nil && p.Set != nil {
		return &ConstructionError{Class: class, Reason: fmt.Sprintf("property %q: compute and set are mutually exclusive", p.Name)}
	}
	if p.Lazy != nil && p.Set != nil {
		return &ConstructionError{Class: class, Reason: fmt.Sprintf("property %q: lazy and set are mutually exclusive", p.Name)}
	}
	if p.Compute != nil && p.Lazy != nil {
		return &ConstructionError{Class: class, Reason: fmt.Sprintf("property %q: compute and lazy are mutually exclusive", p.Name)}
	}
	return nil
}

// ClassDef is the input to NewClass. All fields are optional.
type ClassDef struct {
	Props   []Property
	Methods map[string]Method

	// Abstract classes cannot be instantiated directly.
	Abstract bool

	// Sealed classes cannot be subclassed.
	Sealed bool

	// Require lists method names that must be defined somewhere in the
	// chain before an instance can be constructed. Abstract ancestors use
	// this to demand implementations from derived classes.
	Require []string

	// Lifecycle hooks, invoked in order at construction:
	// OnInit, then Init (the user constructor), then PostInit.
	// At destruction: PreDestroy, then OnDestroy.
	OnInit     LifecycleHook
	Init       Constructor
	PostInit   LifecycleHook
	PreDestroy LifecycleHook
	OnDestroy  LifecycleHook
}

// Class is an immutable descriptor shared by all instances of a class.
// Built once by NewClass and never mutated afterwards, so it is safe for
// concurrent reads without locking.
type Class struct {
	name    string
	parent  *Class
	props   map[string]*Property
	methods map[string]Method

	abstract bool
	sealed   bool
	require  []string

	onInit     LifecycleHook
	init       Constructor
	postInit   LifecycleHook
	preDestroy LifecycleHook
	onDestroy  LifecycleHook

	// chain lists this class followed by its ancestors, most derived
	// first. Method and property resolution walk it in order.
	chain []*Class
}

// NewClass builds a class descriptor. parent may be nil for a root class.
// Fails with ConstructionError if the parent is sealed or a property
// descriptor violates the exclusion rules.
func NewClass(name string, parent *Class, def ClassDef) (*Class, error) {
	if parent != nil && parent.sealed {
		return nil, &ConstructionError{Class: name, Reason: fmt.Sprintf("parent class %s is sealed", parent.name)}
	}

	c := &Class{
		name:       name,
		parent:     parent,
		props:      make(map[string]*Property, len(def.Props)),
		methods:    make(map[string]Method, len(def.Methods)),
		abstract:   def.Abstract,
		sealed:     def.Sealed,
		require:    append([]string(nil), def.Require...),
		onInit:     def.OnInit,
		init:       def.Init,
		postInit:   def.PostInit,
		preDestroy: def.PreDestroy,
		onDestroy:  def.OnDestroy,
	}

	for i := range def.Props {
		p := def.Props[i]
		if err := p.validate(name); err != nil {
			return nil, err
		}
		if p.Compute != nil {
			p.Readonly = true
		}
		c.props[p.Name] = &p
	}
	for mname, m := range def.Methods {
		c.methods[mname] = m
	}

	c.chain = append(c.chain, c)
	for a := parent; a != nil; a = a.parent {
		c.chain = append(c.chain, a)
	}

	return c, nil
}

// MustClass is NewClass that panics on error. Intended for package-level
// class declarations where the definition is static.
func MustClass(name string, parent *Class, def ClassDef) *Class {
	c, err := NewClass(name, parent, def)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// Parent returns the parent class, or nil for a root class.
func (c *Class) Parent() *Class { return c.parent }

// Abstract reports whether the class can be instantiated.
func (c *Class) Abstract() bool { return c.abstract }

// Sealed reports whether the class can be subclassed.
func (c *Class) Sealed() bool { return c.sealed }

// Prop resolves a property descriptor by walking the ancestor chain from
// the most derived class. Returns nil if no class in the chain declares it.
func (c *Class) Prop(name string) *Property {
	for _, a := range c.chain {
		if p, ok := a.props[name]; ok {
			return p
		}
	}
	return nil
}

// Props returns the merged property table for the chain; the most derived
// declaration of each name wins. The returned map is a copy.
func (c *Class) Props() map[string]*Property {
	merged := make(map[string]*Property)
	for i := len(c.chain) - 1; i >= 0; i-- {
		for name, p := range c.chain[i].props {
			merged[name] = p
		}
	}
	return merged
}

// MethodNamed resolves a method by walking the ancestor chain from the most
// derived class. Returns nil if no class in the chain defines it.
func (c *Class) MethodNamed(name string) Method {
	for _, a := range c.chain {
		if m, ok := a.methods[name]; ok {
			return m
		}
	}
	return nil
}

// superMethod searches the chain strictly above from for the first class
// defining name. Used by Instance.Super.
func (c *Class) superMethod(from *Class, name string) (Method, error) {
	past := false
	for _, a := range c.chain {
		if !past {
			if a == from {
				past = true
			}
			continue
		}
		if m, ok := a.methods[name]; ok {
			return m, nil
		}
	}
	return nil, &SuperMethodNotFoundError{Class: from.name, Method: name}
}

// hook resolution follows method resolution: the most derived definition
// wins. Returns nil when no class in the chain provides the hook.

func (c *Class) resolveOnInit() LifecycleHook {
	for _, a := range c.chain {
		if a.onInit != nil {
			return a.onInit
		}
	}
	return nil
}

func (c *Class) resolveInit() Constructor {
	for _, a := range c.chain {
		if a.init != nil {
			return a.init
		}
	}
	return nil
}

func (c *Class) resolvePostInit() LifecycleHook {
	for _, a := range c.chain {
		if a.postInit != nil {
			return a.postInit
		}
	}
	return nil
}

func (c *Class) resolvePreDestroy() LifecycleHook {
	for _, a := range c.chain {
		if a.preDestroy != nil {
			return a.preDestroy
		}
	}
	return nil
}

func (c *Class) resolveOnDestroy() LifecycleHook {
	for _, a := range c.chain {
		if a.onDestroy != nil {
			return a.onDestroy
		}
	}
	return nil
}

// missingRequired collects required-method names from the whole chain that
// no class in the chain defines.
func (c *Class) missingRequired() []string {
	var missing []string
	for _, a := range c.chain {
		for _, name := range a.require {
			if c.MethodNamed(name) == nil {
				missing = append(missing, name)
			}
		}
	}
	return missing
}
