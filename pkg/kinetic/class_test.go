package kinetic

import (
	"errors"
	"testing"
)

func TestNewClassRejectsSealedParent(t *testing.T) {
	base := MustClass("Base", nil, ClassDef{Sealed: true})

	_, err := NewClass("Derived", base, ClassDef{})
	var cerr *ConstructionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConstructionError, got %v", err)
	}
	if cerr.Class != "Derived" {
		t.Errorf("expected error for Derived, got %q", cerr.Class)
	}
}

func TestAbstractClassCannotBeInstantiated(t *testing.T) {
	rt := newTestRuntime(t)
	shape := MustClass("Shape", nil, ClassDef{Abstract: true})

	_, err := rt.NewInstance(shape)
	var cerr *ConstructionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConstructionError, got %v", err)
	}

	// A concrete subclass works.
	circle := MustClass("Circle", shape, ClassDef{})
	in := mustInstance(t, rt, circle)
	if in.Class().Name() != "Circle" {
		t.Errorf("expected Circle, got %s", in.Class().Name())
	}
}

func TestRequiredMethods(t *testing.T) {
	rt := newTestRuntime(t)
	animal := MustClass("Animal", nil, ClassDef{
		Abstract: true,
		Require:  []string{"speak"},
	})

	mute := MustClass("Mute", animal, ClassDef{})
	if _, err := rt.NewInstance(mute); err == nil {
		t.Fatal("expected construction to fail without required method")
	}

	dog := MustClass("Dog", animal, ClassDef{
		Methods: map[string]Method{
			"speak": func(in *Instance, args ...any) any { return "woof" },
		},
	})
	in := mustInstance(t, rt, dog)
	out, err := in.Call("speak")
	if err != nil {
		t.Fatalf("Call(speak): %v", err)
	}
	if out != "woof" {
		t.Errorf("expected woof, got %v", out)
	}
}

func TestPropertyExclusionRules(t *testing.T) {
	compute := func(in *Instance) any { return 1 }
	set := func(in *Instance, v any) {}

	cases := []struct {
		name string
		prop Property
	}{
		{"compute+set", Property{Name: "x", Compute: compute, Set: set}},
		{"lazy+set", Property{Name: "x", Lazy: compute, Set: set}},
		{"compute+lazy", Property{Name: "x", Compute: compute, Lazy: compute}},
		{"empty name", Property{}},
	}
	for _, tc := range cases {
		_, err := NewClass("Bad", nil, ClassDef{Props: []Property{tc.prop}})
		if err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestPropResolutionDerivedWins(t *testing.T) {
	base := MustClass("Base", nil, ClassDef{
		Props: []Property{
			{Name: "color", Default: "gray"},
			{Name: "size", Default: 1},
		},
	})
	derived := MustClass("Derived", base, ClassDef{
		Props: []Property{
			{Name: "color", Default: "red"},
		},
	})

	if derived.Prop("color").Default != "red" {
		t.Errorf("derived declaration should win, got %v", derived.Prop("color").Default)
	}
	if derived.Prop("size").Default != 1 {
		t.Errorf("inherited prop lost, got %v", derived.Prop("size").Default)
	}
	if base.Prop("color").Default != "gray" {
		t.Errorf("base table mutated, got %v", base.Prop("color").Default)
	}

	merged := derived.Props()
	if len(merged) != 2 {
		t.Errorf("expected 2 merged props, got %d", len(merged))
	}
}

func TestSuperMethodDispatch(t *testing.T) {
	rt := newTestRuntime(t)
	var base, derived *Class

	base = MustClass("Base", nil, ClassDef{
		Methods: map[string]Method{
			"describe": func(in *Instance, args ...any) any { return "base" },
		},
	})
	derived = MustClass("Derived", base, ClassDef{
		Methods: map[string]Method{
			"describe": func(in *Instance, args ...any) any {
				above, err := in.Super(derived, "describe")
				if err != nil {
					return err
				}
				return above.(string) + "+derived"
			},
		},
	})

	in := mustInstance(t, rt, derived)
	out, err := in.Call("describe")
	if err != nil {
		t.Fatalf("Call(describe): %v", err)
	}
	if out != "base+derived" {
		t.Errorf("expected base+derived, got %v", out)
	}
}

func TestSuperMethodNotFound(t *testing.T) {
	rt := newTestRuntime(t)
	root := MustClass("Root", nil, ClassDef{
		Methods: map[string]Method{
			"only": func(in *Instance, args ...any) any { return nil },
		},
	})
	in := mustInstance(t, rt, root)

	_, err := in.Super(root, "only")
	var serr *SuperMethodNotFoundError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SuperMethodNotFoundError, got %v", err)
	}
	if serr.Method != "only" || serr.Class != "Root" {
		t.Errorf("unexpected error detail: %+v", serr)
	}
}

func TestCallUnknownMethod(t *testing.T) {
	rt := newTestRuntime(t)
	c := MustClass("Plain", nil, ClassDef{})
	in := mustInstance(t, rt, c)

	if _, err := in.Call("nope"); err == nil {
		t.Fatal("expected error for unknown method")
	}
}
