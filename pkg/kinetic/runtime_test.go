package kinetic

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestRuntimeInstanceRegistry(t *testing.T) {
	rt := newTestRuntime(t)
	c := MustClass("Item", nil, ClassDef{})

	a := mustInstance(t, rt, c)
	b := mustInstance(t, rt, c)

	if rt.Instance(a.ID()) != a {
		t.Error("lookup by id failed")
	}
	if rt.Instance(99999999) != nil {
		t.Error("unknown id should resolve to nil")
	}

	all := rt.Instances()
	if len(all) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(all))
	}
	if all[0].ID() > all[1].ID() {
		t.Error("Instances() not sorted by id")
	}

	b.Destroy()
	if len(rt.Instances()) != 1 {
		t.Error("destroyed instance still listed")
	}
}

func TestRuntimeCloseDestroysInstances(t *testing.T) {
	rt := New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	c := MustClass("Item", nil, ClassDef{})

	root := mustInstance(t, rt, c)
	child := mustInstance(t, rt, c)
	root.AddChild(child)

	if err := rt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !root.Destroyed() || !child.Destroyed() {
		t.Error("Close did not destroy instance tree")
	}
	if !rt.Closed() {
		t.Error("Closed() should report true")
	}

	if err := rt.Close(); !errors.Is(err, ErrAlreadyClosed) {
		t.Errorf("second Close: expected ErrAlreadyClosed, got %v", err)
	}
	if _, err := rt.NewInstance(c); err == nil {
		t.Error("NewInstance on closed runtime should fail")
	}
}

func TestNewInstanceNilClass(t *testing.T) {
	rt := newTestRuntime(t)
	if _, err := rt.NewInstance(nil); err == nil {
		t.Error("expected error for nil class")
	}
}
