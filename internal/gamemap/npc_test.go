package gamemap

import (
	"path/filepath"
	"testing"

	"github.com/telgard/server/internal/config"
	"github.com/telgard/server/internal/pub"
	"github.com/telgard/server/internal/scripting"
	"go.uber.org/zap"
)

// newTestMapWithNpc builds a map whose file carries one spawn row.
func newTestMapWithNpc(t *testing.T, respawnSecs int) *Map {
	t.Helper()
	engine, err := scripting.NewEngine(filepath.Join(t.TempDir(), "missing"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(engine.Close)

	tables := testTables()
	tables.Npcs[7] = &pub.NpcRecord{ID: 7, Name: "rat", HP: 10}

	file := pub.EmptyMap(1, 30, 30)
	file.Npcs = []pub.NpcSpawn{
		{Coords: pub.Coords{X: 5, Y: 5}, ID: 7, RespawnSecs: respawnSecs, Amount: 1},
	}

	m := New(file, config.Defaults(), tables, engine, zap.NewNop())
	go m.Run()
	t.Cleanup(m.Shutdown)
	return m
}

func aliveNpcs(t *testing.T, m *Map) int {
	t.Helper()
	n, err := request(m, func(mm *Map) int {
		alive := 0
		for _, npc := range mm.npcs {
			if npc.Alive {
				alive++
			}
		}
		return alive
	})
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestRespawnRefillsDeadSlot(t *testing.T) {
	m := newTestMapWithNpc(t, 1)
	if got := aliveNpcs(t, m); got != 1 {
		t.Fatalf("alive NPCs at boot = %d, want 1", got)
	}

	if _, err := request(m, func(mm *Map) struct{} {
		for _, n := range mm.npcs {
			n.Alive = false
			n.DeadTicks = 0
		}
		return struct{}{}
	}); err != nil {
		t.Fatal(err)
	}

	// One refill cadence covers the one-second cooldown many times over.
	for i := 0; i < m.cfg.Npcs.RespawnRate; i++ {
		m.Tick()
	}
	barrier(t, m)

	if got := aliveNpcs(t, m); got != 1 {
		t.Fatalf("alive NPCs after the respawn window = %d, want 1", got)
	}
}

func TestSummonedNpcReaped(t *testing.T) {
	m := newTestMapWithNpc(t, 1)

	if _, err := request(m, func(mm *Map) struct{} {
		rec := mm.tables.Npc(7)
		n := &NPC{
			Index:     allocIndex(mm.npcs),
			ID:        rec.ID,
			Data:      rec,
			SpawnSlot: -1,
			Coords:    pub.Coords{X: 8, Y: 8},
			Opponents: make(map[int]*Opponent),
		}
		mm.npcs[n.Index] = n
		return struct{}{}
	}); err != nil {
		t.Fatal(err)
	}

	// One refill cadence advances the dead counter past the reap threshold.
	for i := 0; i < m.cfg.Npcs.RespawnRate; i++ {
		m.Tick()
	}
	barrier(t, m)

	total, err := request(m, func(mm *Map) int { return len(mm.npcs) })
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("NPCs on map after reap window = %d, want only the spawned one", total)
	}
}
