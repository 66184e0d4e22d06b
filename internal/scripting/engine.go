package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/doregistry/internal/core/hierarchy"
	"github.com/l1jgo/doregistry/internal/world"
)

// Engine wraps a single gopher-lua VM that implements parent hooks for
// scripted classes. Scripts register classes in the global `classes` table:
//
//	classes.DistributedDistrict = {
//	  on_child_arrive = function(ev) ... end,
//	  on_child_leave  = function(ev) ... end,
//	}
//
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
	reg *world.Collection
}

// NewEngine creates a Lua engine and loads every script in scriptsDir and
// scriptsDir/classes. Missing directories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	for _, dir := range []string{scriptsDir, filepath.Join(scriptsDir, "classes")} {
		if err := e.loadDir(dir); err != nil {
			e.vm.Close()
			return nil, err
		}
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("classes", vm.NewTable())
	e := &Engine{vm: vm, log: log}
	e.registerAPI()
	return e
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// Bind points the registry API (do_ids, is_registered, mark_for_deletion)
// at a collection. Hooks only fire for objects of that collection, so Bind
// must precede the first registration.
func (e *Engine) Bind(c *world.Collection) {
	e.reg = c
}

// Handles reports whether a script registered the class.
func (e *Engine) Handles(class string) bool {
	return e.classTable(class) != nil
}

// Classes returns the number of scripted classes.
func (e *Engine) Classes() int {
	n := 0
	if t, ok := e.vm.GetGlobal("classes").(*lua.LTable); ok {
		t.ForEach(func(_, v lua.LValue) {
			if _, ok := v.(*lua.LTable); ok {
				n++
			}
		})
	}
	return n
}

func (e *Engine) classTable(class string) *lua.LTable {
	classes, ok := e.vm.GetGlobal("classes").(*lua.LTable)
	if !ok {
		return nil
	}
	t, _ := classes.RawGetString(class).(*lua.LTable)
	return t
}

// NewObject creates an object whose parent hooks run the class's script.
func (e *Engine) NewObject(id hierarchy.DoID, class string) *Object {
	return &Object{Base: world.NewBase(id, class), e: e}
}

func (e *Engine) callHook(parent *Object, hook string, child world.Object, zone hierarchy.ZoneID) {
	cls := e.classTable(parent.ClassName())
	if cls == nil {
		return
	}
	fn := cls.RawGetString(hook)
	if fn == lua.LNil {
		return
	}

	ev := e.vm.NewTable()
	ev.RawSetString("parent", lua.LNumber(parent.DoID()))
	ev.RawSetString("parent_class", lua.LString(parent.ClassName()))
	ev.RawSetString("child", lua.LNumber(child.DoID()))
	ev.RawSetString("child_class", lua.LString(child.ClassName()))
	ev.RawSetString("zone", lua.LNumber(zone))
	if n, ok := child.(world.Named); ok {
		ev.RawSetString("child_name", lua.LString(n.Name()))
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, ev); err != nil {
		e.log.Error("lua hook error",
			zap.String("class", parent.ClassName()),
			zap.String("hook", hook),
			zap.Error(err))
	}
}

func (e *Engine) registerAPI() {
	// do_ids(parent [, zone]) → array of ids; no zone means every zone
	e.vm.SetGlobal("do_ids", e.vm.NewFunction(func(L *lua.LState) int {
		parent := hierarchy.DoID(checkUint32(L, 1))
		zone := hierarchy.AllZones
		if L.GetTop() >= 2 && L.Get(2) != lua.LNil {
			zone = hierarchy.ZoneID(checkUint32(L, 2))
		}
		t := L.NewTable()
		if e.reg != nil {
			for id := range e.reg.LookupIDs(parent, zone, nil) {
				t.Append(lua.LNumber(id))
			}
		}
		L.Push(t)
		return 1
	}))

	e.vm.SetGlobal("is_registered", e.vm.NewFunction(func(L *lua.LState) int {
		id := hierarchy.DoID(checkUint32(L, 1))
		L.Push(lua.LBool(e.reg != nil && e.reg.IsRegistered(id)))
		return 1
	}))

	e.vm.SetGlobal("mark_for_deletion", e.vm.NewFunction(func(L *lua.LState) int {
		if e.reg != nil {
			e.reg.MarkForDeletion(hierarchy.DoID(checkUint32(L, 1)))
		}
		return 0
	}))

	e.vm.SetGlobal("log_info", e.vm.NewFunction(func(L *lua.LState) int {
		e.log.Info(L.CheckString(1))
		return 0
	}))
}

// checkUint32 reads argument n as an id or zone, raising a Lua argument
// error when it does not fit in 32 bits.
func checkUint32(L *lua.LState, n int) uint32 {
	v := L.CheckInt64(n)
	if v < 0 || v > math.MaxUint32 {
		L.ArgError(n, "out of range for a 32-bit id")
		return 0
	}
	return uint32(v)
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// Object is a distributed object whose parent hooks are written in Lua.
type Object struct {
	world.Base
	e *Engine
}

func (o *Object) HandleChildArrive(child world.Object, zone hierarchy.ZoneID) {
	o.e.callHook(o, "on_child_arrive", child, zone)
}

func (o *Object) HandleChildLeave(child world.Object, zone hierarchy.ZoneID) {
	o.e.callHook(o, "on_child_leave", child, zone)
}
