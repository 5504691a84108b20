package script

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/kinetic-dev/kinetic/pkg/kinetic"
)

func newLuaInstance(t *testing.T) (*lua.LState, *kinetic.Instance) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt := kinetic.New(kinetic.WithLogger(logger))
	t.Cleanup(func() { _ = rt.Close() })

	c := kinetic.MustClass("Player", nil, kinetic.ClassDef{
		Props: []kinetic.Property{
			{Name: "hp", Default: 100.0},
			{Name: "name", Default: "hero"},
			{Name: "kind", Default: "human", Readonly: true},
			{Name: "isAlive", Compute: func(in *kinetic.Instance) any {
				return kinetic.Num(in.MustGet("hp")) > 0
			}},
		},
		Methods: map[string]kinetic.Method{
			"heal": func(in *kinetic.Instance, args ...any) any {
				hp := kinetic.Num(in.MustGet("hp")) + kinetic.Num(args[0])
				in.Set("hp", hp)
				return hp
			},
		},
	})
	in, err := rt.NewInstance(c)
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}

	L := lua.NewState()
	t.Cleanup(L.Close)
	L.SetGlobal("player", Bind(L, in))
	return L, in
}

func TestLuaPropertyRead(t *testing.T) {
	L, _ := newLuaInstance(t)

	if err := L.DoString(`result = player.hp`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if got := L.GetGlobal("result"); got != lua.LNumber(100) {
		t.Errorf("expected 100, got %v", got)
	}
}

func TestLuaPropertyWrite(t *testing.T) {
	L, in := newLuaInstance(t)

	if err := L.DoString(`player.hp = 40`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if in.MustGet("hp") != 40.0 {
		t.Errorf("write did not reach instance, hp=%v", in.MustGet("hp"))
	}
}

func TestLuaComputedProperty(t *testing.T) {
	L, _ := newLuaInstance(t)

	script := `
		before = player.isAlive
		player.hp = 0
		after = player.isAlive
	`
	if err := L.DoString(script); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if L.GetGlobal("before") != lua.LTrue {
		t.Error("expected isAlive true before")
	}
	if L.GetGlobal("after") != lua.LFalse {
		t.Error("computed property stale in Lua")
	}
}

func TestLuaReadonlyRaises(t *testing.T) {
	L, in := newLuaInstance(t)

	err := L.DoString(`player.kind = "elf"`)
	if err == nil {
		t.Fatal("expected readonly write to raise")
	}
	if !strings.Contains(err.Error(), "readonly") {
		t.Errorf("unexpected error: %v", err)
	}
	if in.MustGet("kind") != "human" {
		t.Error("readonly value changed")
	}
}

func TestLuaMethodCall(t *testing.T) {
	L, in := newLuaInstance(t)

	if err := L.DoString(`healed = player:call("heal", 20)`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if L.GetGlobal("healed") != lua.LNumber(120) {
		t.Errorf("expected 120, got %v", L.GetGlobal("healed"))
	}
	if in.MustGet("hp") != 120.0 {
		t.Errorf("method effect lost, hp=%v", in.MustGet("hp"))
	}
}

func TestLuaEmitAndOn(t *testing.T) {
	L, _ := newLuaInstance(t)

	script := `
		seen = nil
		off = player:on("hit", function(amount) seen = amount end)
		player:emit("hit", 7)
		off()
		player:emit("hit", 99)
	`
	if err := L.DoString(script); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if L.GetGlobal("seen") != lua.LNumber(7) {
		t.Errorf("listener missed emit, seen=%v", L.GetGlobal("seen"))
	}
}

func TestLuaGoEmitReachesLua(t *testing.T) {
	L, in := newLuaInstance(t)

	if err := L.DoString(`count = 0; player:on("tick", function() count = count + 1 end)`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	in.Emit("tick")
	in.Emit("tick")
	if L.GetGlobal("count") != lua.LNumber(2) {
		t.Errorf("expected 2 ticks, got %v", L.GetGlobal("count"))
	}
}

func TestLuaHistory(t *testing.T) {
	L, in := newLuaInstance(t)

	script := `
		player:commit()
		player.hp = 5
		undone = player:undo()
	`
	if err := L.DoString(script); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if L.GetGlobal("undone") != lua.LTrue {
		t.Error("undo reported false")
	}
	if in.MustGet("hp") != 100.0 {
		t.Errorf("undo did not restore, hp=%v", in.MustGet("hp"))
	}
}

func TestLuaSnapshot(t *testing.T) {
	L, _ := newLuaInstance(t)

	if err := L.DoString(`snap = player:snapshot(); hp = snap.hp`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if L.GetGlobal("hp") != lua.LNumber(100) {
		t.Errorf("snapshot table wrong, hp=%v", L.GetGlobal("hp"))
	}
}

func TestLuaTableRoundTrip(t *testing.T) {
	L, in := newLuaInstance(t)

	if err := L.DoString(`player.loadout = {"sword", "shield"}`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	list, ok := in.MustGet("loadout").([]any)
	if !ok || len(list) != 2 || list[0] != "sword" {
		t.Fatalf("table not converted to slice: %v", in.MustGet("loadout"))
	}

	if err := L.DoString(`first = player.loadout[1]`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if L.GetGlobal("first") != lua.LString("sword") {
		t.Errorf("slice not converted back, got %v", L.GetGlobal("first"))
	}
}

func TestLuaCycleProtection(t *testing.T) {
	L, in := newLuaInstance(t)

	if err := L.DoString(`local t = {}; t.self = t; player.cyclic = t`); err != nil {
		t.Fatalf("cyclic table should not hang: %v", err)
	}
	m, ok := in.MustGet("cyclic").(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", in.MustGet("cyclic"))
	}
	if m["self"] != nil {
		t.Errorf("cycle not broken: %v", m["self"])
	}
}

func TestLuaToString(t *testing.T) {
	L, in := newLuaInstance(t)

	if err := L.DoString(`s = tostring(player)`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if L.GetGlobal("s") != lua.LString(in.String()) {
		t.Errorf("tostring mismatch: %v", L.GetGlobal("s"))
	}
}
