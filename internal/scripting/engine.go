package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for tunable pursuit logic.
// Single-goroutine access only (game loop). Hot-reload planned via atomic swap.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	// Load core scripts first, then feature scripts
	corePath := filepath.Join(scriptsDir, "core")
	if err := e.loadDir(corePath); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load core scripts: %w", err)
	}

	for _, sub := range []string{"pursuit", "traffic"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
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

// PursuitPolicy holds per-wanted-level tuning returned by Lua.
type PursuitPolicy struct {
	Units      int    // total units that should be active at this level
	SpawnMode  string // "ahead" spawns on the target's projected route, "behind" at the pursuer depot
	Roadblocks bool   // whether the director may place roadblocks
}

// DefaultPolicy mirrors the shipped pursuit.lua so the director keeps
// working when scripts are absent or broken.
func DefaultPolicy(level int) PursuitPolicy {
	if level < 0 {
		level = 0
	}
	if level > 5 {
		level = 5
	}
	units := [6]int{0, 1, 2, 4, 6, 8}
	mode := "behind"
	if level >= 3 {
		mode = "ahead"
	}
	return PursuitPolicy{
		Units:      units[level],
		SpawnMode:  mode,
		Roadblocks: level >= 4,
	}
}

// GetPursuitPolicy calls Lua pursuit_policy(level).
func (e *Engine) GetPursuitPolicy(level int) PursuitPolicy {
	fn := e.vm.GetGlobal("pursuit_policy")
	if fn == lua.LNil {
		return DefaultPolicy(level)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(level)); err != nil {
		e.log.Error("lua pursuit_policy error", zap.Error(err), zap.Int("level", level))
		return DefaultPolicy(level)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua pursuit_policy returned non-table")
		return DefaultPolicy(level)
	}

	p := PursuitPolicy{
		Units:      lInt(rt, "units"),
		SpawnMode:  lStr(rt, "spawn_mode"),
		Roadblocks: rt.RawGetString("roadblocks") == lua.LTrue,
	}
	if p.SpawnMode != "ahead" && p.SpawnMode != "behind" {
		p.SpawnMode = "behind"
	}
	if p.Units < 0 {
		p.Units = 0
	}
	return p
}

// HeatDecaySeconds calls Lua heat_decay_seconds(level): how long the
// target must stay unseen before the wanted level drops one step.
func (e *Engine) HeatDecaySeconds(level int) int {
	v := e.callIntFunc("heat_decay_seconds", level)
	if v <= 0 {
		return 5
	}
	return v
}

// TrafficDensity calls Lua traffic_density(road_tiles): how many ambient
// vehicles a map of the given road area should carry.
func (e *Engine) TrafficDensity(roadTiles int) int {
	v := e.callIntFunc("traffic_density", roadTiles)
	if v < 0 {
		return 0
	}
	return v
}

// --- Lua helpers ---

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// callIntFunc calls a Lua function with int args and returns an int result.
func (e *Engine) callIntFunc(name string, args ...int) int {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return 0
	}

	lArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lArgs[i] = lua.LNumber(a)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lArgs...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return 0
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return int(lua.LVAsNumber(result))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
