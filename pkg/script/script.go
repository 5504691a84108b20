// Package script exposes kinetic instances to embedded Lua. A bound
// instance behaves like a Lua object: property reads and writes route
// through the instance's descriptors, and methods cover events, history,
// and lifecycle.
//
// The binding is single-threaded by construction: listener callbacks
// registered from Lua run during emits made on the same goroutine that
// drives the LState.
package script

import (
	"github.com/kinetic-dev/kinetic/pkg/kinetic"
	lua "github.com/yuin/gopher-lua"
)

const instanceTypeName = "kinetic.instance"

// Register installs the instance metatable in L. Bind calls it implicitly;
// call it directly when preloading modules that expect the type to exist.
func Register(L *lua.LState) {
	if L.GetTypeMetatable(instanceTypeName) != lua.LNil {
		return
	}
	mt := L.NewTypeMetatable(instanceTypeName)
	L.SetField(mt, "__index", L.NewFunction(instanceIndex))
	L.SetField(mt, "__newindex", L.NewFunction(instanceNewIndex))
	L.SetField(mt, "__tostring", L.NewFunction(instanceToString))
}

// Bind wraps in as Lua userdata and returns it. The caller typically sets
// it as a global:
//
//	L.SetGlobal("player", script.Bind(L, player))
func Bind(L *lua.LState, in *kinetic.Instance) *lua.LUserData {
	Register(L)
	ud := L.NewUserData()
	ud.Value = in
	L.SetMetatable(ud, L.GetTypeMetatable(instanceTypeName))
	return ud
}

func checkInstance(L *lua.LState) *kinetic.Instance {
	ud := L.CheckUserData(1)
	if in, ok := ud.Value.(*kinetic.Instance); ok {
		return in
	}
	L.ArgError(1, "kinetic instance expected")
	return nil
}

// instanceMethods are reachable as inst:method(...). Property reads shadow
// nothing here: methods win over same-named properties.
var instanceMethods = map[string]lua.LGFunction{
	"id":       methodID,
	"class":    methodClass,
	"emit":     methodEmit,
	"on":       methodOn,
	"call":     methodCall,
	"commit":   methodCommit,
	"undo":     methodUndo,
	"redo":     methodRedo,
	"snapshot": methodSnapshot,
	"destroy":  methodDestroy,
}

func instanceIndex(L *lua.LState) int {
	in := checkInstance(L)
	name := L.CheckString(2)

	if fn, ok := instanceMethods[name]; ok {
		L.Push(L.NewFunction(fn))
		return 1
	}

	v, err := in.Get(name)
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	L.Push(toLua(L, v))
	return 1
}

func instanceNewIndex(L *lua.LState) int {
	in := checkInstance(L)
	name := L.CheckString(2)
	value := toGo(L.Get(3))

	if err := in.Set(name, value); err != nil {
		L.RaiseError("%s", err)
	}
	return 0
}

func instanceToString(L *lua.LState) int {
	in := checkInstance(L)
	L.Push(lua.LString(in.String()))
	return 1
}

func methodID(L *lua.LState) int {
	in := checkInstance(L)
	L.Push(lua.LNumber(in.ID()))
	return 1
}

func methodClass(L *lua.LState) int {
	in := checkInstance(L)
	L.Push(lua.LString(in.Class().Name()))
	return 1
}

func methodEmit(L *lua.LState) int {
	in := checkInstance(L)
	event := L.CheckString(2)

	args := make([]any, 0, L.GetTop()-2)
	for i := 3; i <= L.GetTop(); i++ {
		args = append(args, toGo(L.Get(i)))
	}
	if err := in.Emit(event, args...); err != nil {
		L.RaiseError("%s", err)
	}
	return 0
}

// methodOn registers a Lua listener and returns a disconnect function.
// The trampoline converts emit arguments to Lua values and protects the
// state: a failing Lua listener raises out of the protected call, which
// the event bus isolates like any other listener panic.
func methodOn(L *lua.LState) int {
	in := checkInstance(L)
	event := L.CheckString(2)
	fn := L.CheckFunction(3)

	conn, err := in.On(event, func(args ...any) {
		lvs := make([]lua.LValue, len(args))
		for i, a := range args {
			lvs[i] = toLua(L, a)
		}
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lvs...); err != nil {
			panic(err)
		}
	})
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}

	L.Push(L.NewFunction(func(L *lua.LState) int {
		conn.Disconnect()
		return 0
	}))
	return 1
}

func methodCall(L *lua.LState) int {
	in := checkInstance(L)
	name := L.CheckString(2)

	args := make([]any, 0, L.GetTop()-2)
	for i := 3; i <= L.GetTop(); i++ {
		args = append(args, toGo(L.Get(i)))
	}
	out, err := in.Call(name, args...)
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	L.Push(toLua(L, out))
	return 1
}

func methodCommit(L *lua.LState) int {
	in := checkInstance(L)
	if err := in.Commit(); err != nil {
		L.RaiseError("%s", err)
	}
	return 0
}

func methodUndo(L *lua.LState) int {
	return historyStep(L, (*kinetic.Instance).Undo)
}

func methodRedo(L *lua.LState) int {
	return historyStep(L, (*kinetic.Instance).Redo)
}

func historyStep(L *lua.LState, step func(*kinetic.Instance) (bool, error)) int {
	in := checkInstance(L)
	ok, err := step(in)
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	L.Push(lua.LBool(ok))
	return 1
}

func methodSnapshot(L *lua.LState) int {
	in := checkInstance(L)
	snap, err := in.Snapshot()
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	L.Push(toLua(L, snap))
	return 1
}

func methodDestroy(L *lua.LState) int {
	in := checkInstance(L)
	in.Destroy()
	return 0
}
