// Package gamemap implements the per-map actor. One goroutine owns every
// mutable entity on the map (characters, NPCs, ground items, doors, chests,
// arena and wedding state) and serializes all gameplay mutations through a
// command inbox, so no further locking is needed inside a map.
//
// Operations spanning two maps (warp) go through the world coordinator,
// which mediates with leave-then-enter so a character is owned by exactly
// one map at all times.
package gamemap

import (
	"errors"
	"time"

	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/config"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
	"github.com/telgard/server/internal/scripting"
	"go.uber.org/zap"
)

// ErrMapDown is surfaced to waiters when the actor has shut down and can no
// longer answer a request.
var ErrMapDown = errors.New("map actor gone")

// NirvanaID is the reserved holding map used during cross-map warp.
const NirvanaID = 0

// WorldHooks is the narrow surface a map uses to start cross-map work. The
// world coordinator implements it; calls post to the coordinator inbox and
// never block the map actor.
type WorldHooks interface {
	// RequestWarp stages a warp for the player toward (mapID, coords).
	RequestWarp(playerID, mapID int, coords pub.Coords, anim WarpAnimation)
}

// WarpAnimation selects the warp effect shown to observers.
type WarpAnimation int

const (
	WarpAnimNone WarpAnimation = iota
	WarpAnimScroll
	WarpAnimAdmin
)

// Map is the single-writer actor for one loaded map.
type Map struct {
	id   int
	file *pub.MapFile

	cfg      *config.Config
	tables   *pub.Tables
	formulas *scripting.Engine
	log      *zap.Logger
	hooks    WorldHooks

	cmds chan func(*Map)
	done chan struct{}

	characters map[int]*character.Character // by player id
	npcs       map[int]*NPC                 // by index
	items      map[int]*GroundItem          // by index

	doors  map[pub.Coords]*Door
	chests map[pub.Coords]*Chest

	arenaQueue []int
	wedding    *Wedding

	jukeboxPlayer string
	jukeboxTicks  int

	// Sub-cadence counters, advanced by Tick.
	ticksPerSecond  int
	secondTicks     int
	npcActTicks     int
	recoverTicks    int
	npcRecoverTicks int
	npcSpawnTicks   int
	chestSpawnTicks int
	spikeTicks      int
	warpSuckTicks   int
	autoPickupTicks int
}

// New builds the actor for a map file. Run must be started by the caller.
func New(file *pub.MapFile, cfg *config.Config, tables *pub.Tables, formulas *scripting.Engine, log *zap.Logger) *Map {
	tps := int(time.Second / cfg.World.TickRate.Duration)
	if tps < 1 {
		tps = 1
	}
	m := &Map{
		id:             file.ID,
		file:           file,
		cfg:            cfg,
		tables:         tables,
		formulas:       formulas,
		log:            log.With(zap.Int("map", file.ID)),
		cmds:           make(chan func(*Map), 256),
		done:           make(chan struct{}),
		characters:     make(map[int]*character.Character),
		npcs:           make(map[int]*NPC),
		items:          make(map[int]*GroundItem),
		doors:          make(map[pub.Coords]*Door),
		chests:         make(map[pub.Coords]*Chest),
		ticksPerSecond: tps,
	}
	m.loadDoors()
	m.loadChests()
	m.spawnAllNpcs()
	return m
}

// SetHooks wires the world callback surface. Called once at boot before Run.
func (m *Map) SetHooks(h WorldHooks) {
	m.hooks = h
}

// ID returns the map id.
func (m *Map) ID() int {
	return m.id
}

// File returns the immutable map file.
func (m *Map) File() *pub.MapFile {
	return m.file
}

// Run serves the command inbox until Shutdown. A panicking command is logged
// and dropped; it aborts only the command, never the actor.
func (m *Map) Run() {
	for {
		select {
		case fn := <-m.cmds:
			m.safeRun(fn)
		case <-m.done:
			return
		}
	}
}

func (m *Map) safeRun(fn func(*Map)) {
	defer func() {
		if rec := recover(); rec != nil {
			m.log.Error("地圖指令 panic 已恢復", zap.Any("panic", rec))
		}
	}()
	fn(m)
}

// Shutdown stops the actor loop.
func (m *Map) Shutdown() {
	close(m.done)
}

// post enqueues a fire-and-forget command. Returns false when the actor is
// gone or the inbox is saturated; callers treat that as a logged no-op.
func (m *Map) post(fn func(*Map)) bool {
	select {
	case m.cmds <- fn:
		return true
	case <-m.done:
		return false
	}
}

// request runs fn on the actor goroutine and awaits its result.
func request[T any](m *Map, fn func(*Map) T) (T, error) {
	reply := make(chan T, 1)
	ok := m.post(func(mm *Map) {
		reply <- fn(mm)
	})
	if !ok {
		var zero T
		return zero, ErrMapDown
	}
	select {
	case v := <-reply:
		return v, nil
	case <-m.done:
		var zero T
		return zero, ErrMapDown
	}
}

// --- membership ---

// Enter inserts a character into the map and announces it to observers in
// range. The character's map id is stamped here.
func (m *Map) Enter(c *character.Character, anim WarpAnimation) {
	m.post(func(mm *Map) {
		c.MapID = mm.id
		c.InteractNpcIndex = -1
		mm.characters[c.PlayerID()] = c
		mm.broadcastEnter(c, anim)
	})
}

// Leave removes a character, cancels any open trade with its partner, and
// returns the character payload for handoff. Observers see a remove packet
// with the given animation.
func (m *Map) Leave(playerID int, anim WarpAnimation) (*character.Character, error) {
	return request(m, func(mm *Map) *character.Character {
		c, ok := mm.characters[playerID]
		if !ok {
			return nil
		}
		if c.Trading {
			mm.cancelTrade(c)
		}
		delete(mm.characters, playerID)
		mm.clearJukeboxOwner(c.Name)
		mm.broadcastLeave(c, anim)
		return c
	})
}

// Character looks up a character snapshot pointer by player id. Only the
// actor goroutine may mutate it; external callers use it read-only via
// request.
func (m *Map) get(playerID int) *character.Character {
	return m.characters[playerID]
}

// PlayerCount returns how many characters are on the map.
func (m *Map) PlayerCount() (int, error) {
	return request(m, func(mm *Map) int {
		return len(mm.characters)
	})
}

// --- broadcast primitives ---

// sendNear sends a packet to every character in server range of coords.
func (m *Map) sendNear(coords pub.Coords, w *protocol.Writer) {
	m.sendBufNear(coords, w.Bytes())
}

// sendBufNear is the pre-serialized fast path for fan-out.
func (m *Map) sendBufNear(coords pub.Coords, buf []byte) {
	for _, c := range m.characters {
		if c.Conn == nil {
			continue
		}
		if character.InRange(c.Coords, coords) {
			c.Conn.SendBuf(buf)
		}
	}
}

// sendNearPlayer anchors on the source character's coords and excludes the
// source from the fan-out.
func (m *Map) sendNearPlayer(sourceID int, w *protocol.Writer) {
	src, ok := m.characters[sourceID]
	if !ok {
		return
	}
	buf := w.Bytes()
	for pid, c := range m.characters {
		if pid == sourceID || c.Conn == nil {
			continue
		}
		if character.InRange(c.Coords, src.Coords) {
			c.Conn.SendBuf(buf)
		}
	}
}

// sendClientRangeNearPlayer is sendNearPlayer with the tighter client bound.
func (m *Map) sendClientRangeNearPlayer(sourceID int, w *protocol.Writer) {
	src, ok := m.characters[sourceID]
	if !ok {
		return
	}
	buf := w.Bytes()
	for pid, c := range m.characters {
		if pid == sourceID || c.Conn == nil {
			continue
		}
		if character.InClientRange(c.Coords, src.Coords) {
			c.Conn.SendBuf(buf)
		}
	}
}

// sendTo delivers to one character if present.
func (m *Map) sendTo(playerID int, w *protocol.Writer) {
	if c, ok := m.characters[playerID]; ok && c.Conn != nil {
		c.Conn.Send(w)
	}
}

// broadcastEnter announces a character to everyone already in range and
// pushes the fresh surroundings snapshot to the character itself.
func (m *Map) broadcastEnter(c *character.Character, anim WarpAnimation) {
	if !c.Hidden {
		m.sendNearPlayer(c.PlayerID(), playerEnterPacket(c, anim))
	}
	if c.Conn != nil {
		c.Conn.Send(m.nearbyPacket(c))
	}
}

func (m *Map) broadcastLeave(c *character.Character, anim WarpAnimation) {
	if c.Hidden {
		return
	}
	m.sendBufNear(c.Coords, playerLeavePacket(c.PlayerID(), anim).Bytes())
}

// clearJukeboxOwner releases the jukebox when its player leaves the map.
func (m *Map) clearJukeboxOwner(name string) {
	if m.jukeboxPlayer == name {
		m.jukeboxPlayer = ""
	}
}

// requestHomeWarp sends a dead character back to its spawn point.
func (m *Map) requestHomeWarp(c *character.Character) {
	if m.hooks == nil {
		return
	}
	m.hooks.RequestWarp(c.PlayerID(), c.HomeMap, c.HomeCoords, WarpAnimNone)
}

func damageContextFor(minDam, maxDam, accuracy, armor, evade int, critical bool) scripting.DamageContext {
	return scripting.DamageContext{
		MinDam:      minDam,
		MaxDam:      maxDam,
		Accuracy:    accuracy,
		TargetArmor: armor,
		TargetEvade: evade,
		Critical:    critical,
	}
}

// occupied reports whether a living character or NPC stands on the tile.
func (m *Map) occupied(c pub.Coords) bool {
	for _, ch := range m.characters {
		if ch.Coords == c && !ch.Hidden {
			return true
		}
	}
	for _, n := range m.npcs {
		if n.Alive && n.Coords == c {
			return true
		}
	}
	return false
}

// allocIndex returns the lowest free positive index in the set.
func allocIndex[V any](set map[int]V) int {
	idx := 1
	for {
		if _, taken := set[idx]; !taken {
			return idx
		}
		idx++
	}
}
