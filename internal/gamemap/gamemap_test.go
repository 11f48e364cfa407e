package gamemap

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-test/deep"
	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/config"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
	"github.com/telgard/server/internal/scripting"
	"go.uber.org/zap"
)

// recordConn captures everything sent to one player.
type recordConn struct {
	id int

	mu     sync.Mutex
	bufs   [][]byte
	closed string
}

func (r *recordConn) PlayerID() int { return r.id }

func (r *recordConn) Send(w *protocol.Writer) { r.SendBuf(w.Bytes()) }

func (r *recordConn) SendBuf(buf []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]byte, len(buf))
	copy(cp, buf)
	r.bufs = append(r.bufs, cp)
}

func (r *recordConn) Close(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = reason
}

func (r *recordConn) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bufs = nil
}

// countFamily returns how many captured packets carry the given family tag.
func (r *recordConn) countFamily(f protocol.Family) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.bufs {
		if len(b) >= 2 && b[1] == byte(f) {
			n++
		}
	}
	return n
}

func testTables() *pub.Tables {
	return &pub.Tables{
		Items: map[int]*pub.ItemRecord{
			1:   {ID: 1, Name: "gold", Type: pub.ItemMoney},
			100: {ID: 100, Name: "rock", Type: pub.ItemStatic, Weight: 1},
			101: {ID: 101, Name: "fern", Type: pub.ItemStatic, Weight: 1},
		},
		Npcs: map[int]*pub.NpcRecord{},
	}
}

func newTestMap(t *testing.T) *Map {
	t.Helper()
	engine, err := scripting.NewEngine(filepath.Join(t.TempDir(), "missing"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(engine.Close)

	m := New(pub.EmptyMap(1, 30, 30), config.Defaults(), testTables(), engine, zap.NewNop())
	go m.Run()
	t.Cleanup(m.Shutdown)
	return m
}

func newTestChar(id int, name string, at pub.Coords) (*character.Character, *recordConn) {
	conn := &recordConn{id: id}
	c := &character.Character{
		ID:               id,
		Name:             name,
		Level:            5,
		HP:               50,
		MaxHP:            50,
		TP:               20,
		MaxTP:            20,
		MaxWeight:        100,
		Coords:           at,
		InteractNpcIndex: -1,
		Conn:             conn,
	}
	return c, conn
}

// barrier waits until every previously posted command has run.
func barrier(t *testing.T, m *Map) {
	t.Helper()
	if _, err := request(m, func(*Map) struct{} { return struct{}{} }); err != nil {
		t.Fatal(err)
	}
}

func snapshot(t *testing.T, m *Map, playerID int) *character.Character {
	t.Helper()
	chars, err := m.SnapshotCharacters()
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range chars {
		if c.PlayerID() == playerID || c.ID == playerID {
			return c
		}
	}
	t.Fatalf("player %d not on map", playerID)
	return nil
}

func TestAllocIndexLowestFree(t *testing.T) {
	set := map[int]struct{}{1: {}, 2: {}, 4: {}}
	if got := allocIndex(set); got != 3 {
		t.Errorf("allocIndex = %d, want 3", got)
	}
	if got := allocIndex(map[int]struct{}{}); got != 1 {
		t.Errorf("allocIndex on empty = %d, want 1", got)
	}
}

func TestWalkAntiSpeed(t *testing.T) {
	m := newTestMap(t)
	c, _ := newTestChar(7, "ayla", pub.Coords{X: 5, Y: 5})
	m.Enter(c, WarpAnimNone)
	barrier(t, m)

	m.Walk(7, character.DirRight, pub.Coords{X: 6, Y: 5}, 1000)
	barrier(t, m)
	if got := snapshot(t, m, 7).Coords; got != (pub.Coords{X: 6, Y: 5}) {
		t.Fatalf("first step not applied, at %v", got)
	}

	// 20ms later: under the walk interval, must be rejected.
	m.Walk(7, character.DirRight, pub.Coords{X: 7, Y: 5}, 1020)
	barrier(t, m)
	if got := snapshot(t, m, 7).Coords; got != (pub.Coords{X: 6, Y: 5}) {
		t.Errorf("speed-hacked step applied, at %v", got)
	}

	// Past the interval the next step goes through.
	m.Walk(7, character.DirRight, pub.Coords{X: 7, Y: 5}, 1050)
	barrier(t, m)
	if got := snapshot(t, m, 7).Coords; got != (pub.Coords{X: 7, Y: 5}) {
		t.Errorf("legitimate step rejected, at %v", got)
	}
}

func TestWalkDesyncSnapsBack(t *testing.T) {
	m := newTestMap(t)
	c, conn := newTestChar(7, "ayla", pub.Coords{X: 5, Y: 5})
	m.Enter(c, WarpAnimNone)
	barrier(t, m)
	conn.reset()

	// Claimed destination does not match one step right.
	m.Walk(7, character.DirRight, pub.Coords{X: 9, Y: 9}, 1000)
	barrier(t, m)

	if got := snapshot(t, m, 7).Coords; got != (pub.Coords{X: 5, Y: 5}) {
		t.Errorf("desynced step applied, at %v", got)
	}
	if conn.countFamily(protocol.FamilyRange) == 0 {
		t.Error("no snapshot sent to resync the client")
	}
}

func TestDoorAutoCloseSendsNothing(t *testing.T) {
	m := newTestMap(t)
	c, conn := newTestChar(7, "ayla", pub.Coords{X: 5, Y: 5})
	m.Enter(c, WarpAnimNone)
	barrier(t, m)

	at := pub.Coords{X: 6, Y: 5}
	if _, err := request(m, func(mm *Map) struct{} {
		mm.doors[at] = &Door{Coords: at, Open: true}
		return struct{}{}
	}); err != nil {
		t.Fatal(err)
	}
	conn.reset()

	// Enough base ticks to cover door_close_rate seconds.
	secs := m.cfg.Map.DoorCloseRate + 2
	for i := 0; i < secs*m.ticksPerSecond; i++ {
		m.Tick()
	}
	barrier(t, m)

	open, err := request(m, func(mm *Map) bool { return mm.doors[at].Open })
	if err != nil {
		t.Fatal(err)
	}
	if open {
		t.Error("door still open after close delay")
	}
	if n := conn.countFamily(protocol.FamilyDoor); n != 0 {
		t.Errorf("auto-close broadcast %d door packets, want 0", n)
	}
}

func TestAutoPickupNearestLowestID(t *testing.T) {
	m := newTestMap(t)
	a, _ := newTestChar(10, "ayla", pub.Coords{X: 5, Y: 6})
	b, _ := newTestChar(20, "bram", pub.Coords{X: 6, Y: 5})
	a.AutoPickup = []int{100}
	b.AutoPickup = []int{100}
	m.Enter(a, WarpAnimNone)
	m.Enter(b, WarpAnimNone)

	if _, err := request(m, func(mm *Map) struct{} {
		mm.spawnItem(100, 1, pub.Coords{X: 5, Y: 5}, 0)
		return struct{}{}
	}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < m.cfg.World.AutoPickupRate; i++ {
		m.Tick()
	}
	barrier(t, m)

	// Both stand one tile away; the lower player id wins the tie.
	if got := snapshot(t, m, 10).ItemAmount(100); got != 1 {
		t.Errorf("player 10 holds %d, want 1", got)
	}
	if got := snapshot(t, m, 20).ItemAmount(100); got != 0 {
		t.Errorf("player 20 holds %d, want 0", got)
	}
	left, err := request(m, func(mm *Map) int { return len(mm.items) })
	if err != nil {
		t.Fatal(err)
	}
	if left != 0 {
		t.Errorf("%d ground items left, want 0", left)
	}
}

func TestAutoPickupHonorsProtection(t *testing.T) {
	m := newTestMap(t)
	a, _ := newTestChar(10, "ayla", pub.Coords{X: 5, Y: 6})
	a.AutoPickup = []int{100}
	m.Enter(a, WarpAnimNone)

	// Item protected for another player.
	if _, err := request(m, func(mm *Map) struct{} {
		mm.spawnItem(100, 1, pub.Coords{X: 5, Y: 5}, 99)
		return struct{}{}
	}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < m.cfg.World.AutoPickupRate; i++ {
		m.Tick()
	}
	barrier(t, m)

	if got := snapshot(t, m, 10).ItemAmount(100); got != 0 {
		t.Errorf("protected item picked up by non-owner, holds %d", got)
	}
}

func TestTradeSwapsAtomically(t *testing.T) {
	m := newTestMap(t)
	a, _ := newTestChar(1, "ayla", pub.Coords{X: 5, Y: 5})
	b, _ := newTestChar(2, "bram", pub.Coords{X: 6, Y: 5})
	a.Items = []character.Item{{ID: 100, Amount: 5}}
	b.Items = []character.Item{{ID: 101, Amount: 7}}
	m.Enter(a, WarpAnimNone)
	m.Enter(b, WarpAnimNone)

	m.RequestTrade(1, 2)
	m.AcceptTrade(2, 1)
	m.AddTradeItem(1, 100, 5)
	m.AddTradeItem(2, 101, 7)
	m.AgreeTrade(1, true)
	m.AgreeTrade(2, true)
	barrier(t, m)

	gotA := snapshot(t, m, 1)
	gotB := snapshot(t, m, 2)
	if diff := deep.Equal(gotA.Items, []character.Item{{ID: 101, Amount: 7}}); diff != nil {
		t.Errorf("a inventory: %v", diff)
	}
	if diff := deep.Equal(gotB.Items, []character.Item{{ID: 100, Amount: 5}}); diff != nil {
		t.Errorf("b inventory: %v", diff)
	}
	if gotA.Trading || gotB.Trading {
		t.Error("trade state not cleared after swap")
	}
}

func TestTradeOfferCapped(t *testing.T) {
	m := newTestMap(t)
	a, _ := newTestChar(1, "ayla", pub.Coords{X: 5, Y: 5})
	b, _ := newTestChar(2, "bram", pub.Coords{X: 6, Y: 5})
	a.Items = []character.Item{{ID: 100, Amount: 50}, {ID: 101, Amount: 50}}
	m.Enter(a, WarpAnimNone)
	m.Enter(b, WarpAnimNone)

	m.RequestTrade(1, 2)
	m.AcceptTrade(2, 1)
	barrier(t, m)

	// Force the offer list to the cap, then try one more line.
	if _, err := request(m, func(mm *Map) struct{} {
		c := mm.get(1)
		for i := 0; i < mm.cfg.Limits.MaxTrade; i++ {
			c.TradeItems = append(c.TradeItems, character.Item{ID: 1000 + i, Amount: 1})
		}
		return struct{}{}
	}); err != nil {
		t.Fatal(err)
	}
	m.AddTradeItem(1, 101, 1)
	barrier(t, m)

	if got := len(snapshot(t, m, 1).TradeItems); got != m.cfg.Limits.MaxTrade {
		t.Errorf("offer lines = %d, want %d", got, m.cfg.Limits.MaxTrade)
	}
}

func TestLeaveCancelsOpenTrade(t *testing.T) {
	m := newTestMap(t)
	a, _ := newTestChar(1, "ayla", pub.Coords{X: 5, Y: 5})
	b, connB := newTestChar(2, "bram", pub.Coords{X: 6, Y: 5})
	m.Enter(a, WarpAnimNone)
	m.Enter(b, WarpAnimNone)

	m.RequestTrade(1, 2)
	m.AcceptTrade(2, 1)
	barrier(t, m)
	connB.reset()

	if _, err := m.Leave(1, WarpAnimNone); err != nil {
		t.Fatal(err)
	}
	barrier(t, m)

	if got := snapshot(t, m, 2); got.Trading {
		t.Error("partner still trading after counterpart left")
	}
	if connB.countFamily(protocol.FamilyTrade) == 0 {
		t.Error("partner not told the trade closed")
	}
}
