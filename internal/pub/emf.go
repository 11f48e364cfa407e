package pub

import (
	"fmt"
	"os"
)

// Coords is a tile position on a map.
type Coords struct {
	X int
	Y int
}

// TileSpec is a tile's special behaviour. Anything not present in the spec
// rows is plain ground.
type TileSpec int

const (
	SpecWall TileSpec = iota
	SpecChairDown
	SpecChairLeft
	SpecChairRight
	SpecChairUp
	SpecChairDownRight
	SpecChairUpLeft
	SpecChairAll
	SpecReserved8
	SpecChest
	SpecReserved10
	SpecReserved11
	SpecReserved12
	SpecReserved13
	SpecReserved14
	SpecReserved15
	SpecBankVault
	SpecNPCBoundary
	SpecMapEdge
	SpecFakeWall
	SpecBoard1
	SpecBoard2
	SpecBoard3
	SpecBoard4
	SpecBoard5
	SpecBoard6
	SpecBoard7
	SpecBoard8
	SpecJukebox
	SpecJump
	SpecWater
	SpecReserved31
	SpecArena
	SpecAmbientSource
	SpecTimedSpikes
	SpecSpikes
	SpecHiddenSpikes
)

// Walkable reports whether a character may stand on this tile spec.
func (s TileSpec) Walkable() bool {
	switch s {
	case SpecWall, SpecChest, SpecBankVault, SpecNPCBoundary, SpecMapEdge,
		SpecBoard1, SpecBoard2, SpecBoard3, SpecBoard4, SpecBoard5,
		SpecBoard6, SpecBoard7, SpecBoard8, SpecJukebox:
		return false
	}
	return true
}

// Chair reports whether the tile spec is a sittable chair.
func (s TileSpec) Chair() bool {
	return s >= SpecChairDown && s <= SpecChairAll
}

// Board returns the 1-based board index for board tiles, or 0.
func (s TileSpec) Board() int {
	if s >= SpecBoard1 && s <= SpecBoard8 {
		return int(s-SpecBoard1) + 1
	}
	return 0
}

// WarpRow is a warp source tile. Door 0 means no door, 1 an unkeyed door,
// anything above 1 names the key item spec required to open it.
type WarpRow struct {
	From     Coords
	Map      int
	To       Coords
	LevelReq int
	Door     int
}

// NpcSpawn is one spawn-slot row.
type NpcSpawn struct {
	Coords      Coords
	ID          int // NPC catalog id
	SpawnType   int
	RespawnSecs int
	Amount      int
}

// ChestSpawn is one chest refill row.
type ChestSpawn struct {
	Coords      Coords
	Key         int
	Slot        int
	ItemID      int
	RespawnSecs int
	Amount      int
}

// MapFile is the immutable data of one EMF map file.
type MapFile struct {
	ID     int
	Name   string
	Width  int
	Height int

	Music      int
	RelogAt    Coords
	PK         bool
	EffectSpec int

	Raw []byte // original bytes, served to clients on Warp.Take

	specs  map[Coords]TileSpec
	warps  map[Coords]*WarpRow
	Npcs   []NpcSpawn
	Chests []ChestSpawn
}

// Spec returns the tile spec at c; plain ground tiles return -1, false.
func (m *MapFile) Spec(c Coords) (TileSpec, bool) {
	s, ok := m.specs[c]
	return s, ok
}

// Warp returns the warp row at c, or nil.
func (m *MapFile) Warp(c Coords) *WarpRow {
	return m.warps[c]
}

// Warps returns every warp row on the map.
func (m *MapFile) Warps() []*WarpRow {
	out := make([]*WarpRow, 0, len(m.warps))
	for _, w := range m.warps {
		out = append(out, w)
	}
	return out
}

// InBounds reports whether c lies on the map.
func (m *MapFile) InBounds(c Coords) bool {
	return c.X >= 0 && c.Y >= 0 && c.X <= m.Width && c.Y <= m.Height
}

// Walkable reports whether a character can step onto c.
func (m *MapFile) Walkable(c Coords) bool {
	if !m.InBounds(c) {
		return false
	}
	if s, ok := m.specs[c]; ok {
		return s.Walkable()
	}
	return true
}

// SpecTiles iterates every tile with the given spec.
func (m *MapFile) SpecTiles(spec TileSpec) []Coords {
	var out []Coords
	for c, s := range m.specs {
		if s == spec {
			out = append(out, c)
		}
	}
	return out
}

// EmptyMap builds a synthetic featureless map. The warp transit map (id 0)
// is created this way; it never ships a file to clients.
func EmptyMap(id, width, height int) *MapFile {
	return &MapFile{
		ID:     id,
		Name:   "void",
		Width:  width,
		Height: height,
		specs:  make(map[Coords]TileSpec),
		warps:  make(map[Coords]*WarpRow),
	}
}

// LoadMap parses one EMF map file.
func LoadMap(path string, id int) (*MapFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map file %s: %w", path, err)
	}
	r := &recordReader{data: data}
	if got := string(r.bytes(3)); got != "EMF" {
		return nil, fmt.Errorf("map file %s: bad magic %q", path, got)
	}
	r.bytes(4) // revision

	m := &MapFile{
		ID:    id,
		Raw:   data,
		specs: make(map[Coords]TileSpec),
		warps: make(map[Coords]*WarpRow),
	}
	m.Name = r.name()
	m.Width = r.char()
	m.Height = r.char()
	m.Music = r.char()
	m.RelogAt = Coords{X: r.char(), Y: r.char()}
	m.PK = r.char() != 0
	m.EffectSpec = r.char()

	// NPC spawn rows
	for n := r.char(); n > 0; n-- {
		m.Npcs = append(m.Npcs, NpcSpawn{
			Coords:      Coords{X: r.char(), Y: r.char()},
			ID:          r.short(),
			SpawnType:   r.char(),
			RespawnSecs: r.short(),
			Amount:      r.char(),
		})
	}

	// Chest spawn rows
	for n := r.char(); n > 0; n-- {
		m.Chests = append(m.Chests, ChestSpawn{
			Coords:      Coords{X: r.char(), Y: r.char()},
			Key:         r.short(),
			Slot:        r.char(),
			ItemID:      r.short(),
			RespawnSecs: r.short(),
			Amount:      r.three(),
		})
	}

	// Tile spec rows: per row the y, a count, then (x, spec) pairs.
	for n := r.char(); n > 0; n-- {
		y := r.char()
		for k := r.char(); k > 0; k-- {
			x := r.char()
			m.specs[Coords{X: x, Y: y}] = TileSpec(r.char())
		}
	}

	// Warp rows: per row the y, a count, then warp tuples.
	for n := r.char(); n > 0; n-- {
		y := r.char()
		for k := r.char(); k > 0; k-- {
			x := r.char()
			w := &WarpRow{
				From:     Coords{X: x, Y: y},
				Map:      r.short(),
				To:       Coords{X: r.char(), Y: r.char()},
				LevelReq: r.char(),
				Door:     r.short(),
			}
			m.warps[w.From] = w
		}
	}

	return m, nil
}
