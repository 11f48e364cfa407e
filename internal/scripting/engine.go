// Package scripting hosts the tunable game formulas (damage, hit chance,
// experience curve, regeneration) in a Lua script so operators can adjust
// balance without rebuilding the server. Every formula has a built-in
// fallback; a missing script file is not an error.
package scripting

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. Map actors share it; the mutex
// serializes the brief formula calls.
type Engine struct {
	mu  sync.Mutex
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads formulas.lua plus any extra .lua
// files from the scripts directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	entries, err := os.ReadDir(scriptsDir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("腳本目錄不存在，使用內建公式", zap.String("dir", scriptsDir))
			return e, nil
		}
		vm.Close()
		return nil, fmt.Errorf("read scripts dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(scriptsDir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		log.Debug("loaded lua script", zap.String("file", path))
	}
	return e, nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}

// DamageContext packs one melee or spell strike.
type DamageContext struct {
	MinDam      int
	MaxDam      int
	Accuracy    int
	TargetArmor int
	TargetEvade int
	Critical    bool // target unaware (facing away or at rest)
}

// Damage rolls one strike. A miss returns 0.
func (e *Engine) Damage(ctx DamageContext) int {
	if amount, ok := e.callInts("calc_damage",
		ctx.MinDam, ctx.MaxDam, ctx.Accuracy,
		ctx.TargetArmor, ctx.TargetEvade, boolInt(ctx.Critical)); ok {
		return amount
	}

	// Built-in fallback: linear hit chance, armor subtracts flat.
	hitRate := 50 + ctx.Accuracy - ctx.TargetEvade
	if ctx.Critical {
		hitRate += 30
	}
	if hitRate < 10 {
		hitRate = 10
	}
	if hitRate > 95 {
		hitRate = 95
	}
	if rand.Intn(100) >= hitRate {
		return 0
	}
	span := ctx.MaxDam - ctx.MinDam
	amount := ctx.MinDam
	if span > 0 {
		amount += rand.Intn(span + 1)
	}
	amount -= ctx.TargetArmor
	if amount < 0 {
		amount = 0
	}
	if ctx.Critical {
		amount = amount * 3 / 2
	}
	return amount
}

// ExpForLevel returns the cumulative experience required to reach level.
func (e *Engine) ExpForLevel(level int) int {
	if v, ok := e.callInts("exp_for_level", level); ok {
		return v
	}
	// Fallback cubic curve.
	return level * level * level * 15
}

// PlayerRegenHP returns the HP restored on one recover tick.
func (e *Engine) PlayerRegenHP(maxHP int) int {
	if v, ok := e.callInts("player_regen_hp", maxHP); ok {
		return v
	}
	v := maxHP / 10
	if v < 1 {
		v = 1
	}
	return v
}

// PlayerRegenTP returns the TP restored on one recover tick.
func (e *Engine) PlayerRegenTP(maxTP int) int {
	if v, ok := e.callInts("player_regen_tp", maxTP); ok {
		return v
	}
	v := maxTP / 10
	if v < 1 {
		v = 1
	}
	return v
}

// callInts calls a global Lua function with integer args; ok is false when
// the function is not defined or errors.
func (e *Engine) callInts(name string, args ...int) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return 0, false
	}
	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = lua.LNumber(a)
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, largs...); err != nil {
		e.log.Error("lua 公式執行失敗", zap.String("fn", name), zap.Error(err))
		return 0, false
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	if n, ok := ret.(lua.LNumber); ok {
		return int(n), true
	}
	return 0, false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
