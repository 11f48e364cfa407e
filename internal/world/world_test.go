package world

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/config"
	"github.com/telgard/server/internal/gamemap"
	"github.com/telgard/server/internal/lang"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
	"github.com/telgard/server/internal/scripting"
	"go.uber.org/zap"
)

// fakeHandle stands in for a player actor and records what reaches it.
type fakeHandle struct {
	id      int
	account int
	name    string

	mu     sync.Mutex
	bufs   [][]byte
	staged []stagedWarp
	closed string
}

type stagedWarp struct {
	MapID  int
	Coords pub.Coords
	Local  bool
}

func (f *fakeHandle) PlayerID() int          { return f.id }
func (f *fakeHandle) AccountID() int         { return f.account }
func (f *fakeHandle) CharacterName() string  { return f.name }
func (f *fakeHandle) Send(w *protocol.Writer) { f.SendBuf(w.Bytes()) }

func (f *fakeHandle) SendBuf(buf []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(buf))
	copy(cp, buf)
	f.bufs = append(f.bufs, cp)
}

func (f *fakeHandle) Close(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = reason
}

func (f *fakeHandle) Pulse() {}

func (f *fakeHandle) StageWarp(mapID int, coords pub.Coords, local bool, _ gamemap.WarpAnimation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staged = append(f.staged, stagedWarp{MapID: mapID, Coords: coords, Local: local})
}

func (f *fakeHandle) SetFrozen(bool)     {}
func (f *fakeHandle) SetMuted(string)    {}
func (f *fakeHandle) OpenCaptcha(string) {}

func (f *fakeHandle) lastStaged(t *testing.T) stagedWarp {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.staged) == 0 {
		t.Fatal("no warp staged")
	}
	return f.staged[len(f.staged)-1]
}

// countFamily returns how many captured packets carry the family tag.
func (f *fakeHandle) countFamily(fam protocol.Family) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.bufs {
		if len(b) >= 2 && b[1] == byte(fam) {
			n++
		}
	}
	return n
}

func newTestWorld(t *testing.T, mapIDs ...int) *World {
	t.Helper()
	cfg := config.Defaults()
	engine, err := scripting.NewEngine(filepath.Join(t.TempDir(), "missing"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(engine.Close)

	maps := make(map[int]*gamemap.Map)
	for _, id := range append([]int{gamemap.NirvanaID}, mapIDs...) {
		m := gamemap.New(pub.EmptyMap(id, 30, 30), cfg, &pub.Tables{}, engine, zap.NewNop())
		go m.Run()
		maps[id] = m
	}

	w := New(cfg, &lang.Table{}, maps, nil, zap.NewNop())
	go w.Run()
	t.Cleanup(w.Shutdown)
	return w
}

// barrier drains the coordinator inbox up to this point.
func barrier(t *testing.T, w *World) {
	t.Helper()
	if _, err := request(w, func(*World) struct{} { return struct{}{} }); err != nil {
		t.Fatal(err)
	}
}

func mapCount(t *testing.T, w *World, mapID int) int {
	t.Helper()
	n, err := w.Map(mapID).PlayerCount()
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func enter(t *testing.T, w *World, h *fakeHandle, mapID int) *character.Character {
	t.Helper()
	w.AddPlayer(h)
	c := &character.Character{
		ID:               h.id,
		Name:             h.name,
		MaxHP:            50,
		HP:               50,
		MapID:            mapID,
		HomeMap:          mapID,
		Coords:           pub.Coords{X: 5, Y: 5},
		HomeCoords:       pub.Coords{X: 5, Y: 5},
		InteractNpcIndex: -1,
		Conn:             h,
	}
	m, err := w.EnterGame(h, c)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatalf("enter refused for %s", h.name)
	}
	return c
}

func TestWarpHandoffNeverOnTwoMaps(t *testing.T) {
	w := newTestWorld(t, 1, 2)
	h := &fakeHandle{id: 7, account: 1, name: "ayla"}
	enter(t, w, h, 1)

	dest := pub.Coords{X: 9, Y: 9}
	w.RequestWarp(7, 2, dest, gamemap.WarpAnimNone)
	barrier(t, w)

	// First phase parks the character in the transit map.
	if got := mapCount(t, w, 1); got != 0 {
		t.Errorf("source map holds %d after stage, want 0", got)
	}
	if got := mapCount(t, w, gamemap.NirvanaID); got != 1 {
		t.Errorf("transit map holds %d after stage, want 1", got)
	}
	if got := mapCount(t, w, 2); got != 0 {
		t.Errorf("destination holds %d before accept, want 0", got)
	}
	staged := h.lastStaged(t)
	if staged.MapID != 2 || staged.Coords != dest || staged.Local {
		t.Errorf("staged = %+v, want map 2 at %v cross-map", staged, dest)
	}

	w.CompleteWarp(7, 2, dest, gamemap.WarpAnimNone)
	barrier(t, w)

	if got := mapCount(t, w, gamemap.NirvanaID); got != 0 {
		t.Errorf("transit map holds %d after accept, want 0", got)
	}
	if got := mapCount(t, w, 2); got != 1 {
		t.Errorf("destination holds %d after accept, want 1", got)
	}
	chars, err := w.Map(2).SnapshotCharacters()
	if err != nil {
		t.Fatal(err)
	}
	if len(chars) != 1 || chars[0].Coords != dest {
		t.Errorf("arrived at %v, want %v", chars[0].Coords, dest)
	}
}

func TestCompleteWarpRequiresStagedHop(t *testing.T) {
	w := newTestWorld(t, 1, 2)
	h := &fakeHandle{id: 7, account: 1, name: "ayla"}
	enter(t, w, h, 1)

	// Accept without a staged warp: the character stays put.
	w.CompleteWarp(7, 2, pub.Coords{X: 9, Y: 9}, gamemap.WarpAnimNone)
	barrier(t, w)

	if got := mapCount(t, w, 1); got != 1 {
		t.Errorf("source map holds %d, want 1", got)
	}
	if got := mapCount(t, w, 2); got != 0 {
		t.Errorf("destination holds %d, want 0", got)
	}
}

func TestLocalWarpStagesWithLocalFlag(t *testing.T) {
	w := newTestWorld(t, 1)
	h := &fakeHandle{id: 7, account: 1, name: "ayla"}
	enter(t, w, h, 1)

	w.RequestWarp(7, 1, pub.Coords{X: 20, Y: 20}, gamemap.WarpAnimNone)
	barrier(t, w)

	if staged := h.lastStaged(t); !staged.Local {
		t.Errorf("same-map warp staged as cross-map: %+v", staged)
	}
}

func TestEnterGameRejectsDuplicateName(t *testing.T) {
	w := newTestWorld(t, 1)
	h1 := &fakeHandle{id: 7, account: 1, name: "ayla"}
	enter(t, w, h1, 1)

	h2 := &fakeHandle{id: 8, account: 2, name: "Ayla"}
	w.AddPlayer(h2)
	c := &character.Character{ID: 8, Name: "Ayla", MapID: 1, HomeMap: 1, InteractNpcIndex: -1, Conn: h2}
	m, err := w.EnterGame(h2, c)
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Error("duplicate character name entered the world")
	}
	if got := mapCount(t, w, 1); got != 1 {
		t.Errorf("map holds %d, want 1", got)
	}
}

func TestReserveAccountExclusive(t *testing.T) {
	w := newTestWorld(t)
	if ok, err := w.ReserveAccount(42); err != nil || !ok {
		t.Fatalf("first reserve = %v, %v", ok, err)
	}
	if ok, _ := w.ReserveAccount(42); ok {
		t.Error("second reserve of a held account succeeded")
	}
	w.ReleaseAccount(42)
	if ok, _ := w.ReserveAccount(42); !ok {
		t.Error("reserve after release failed")
	}
}

func TestPartyOfTwoDisbandsOnQuit(t *testing.T) {
	w := newTestWorld(t, 1)
	h1 := &fakeHandle{id: 1, account: 1, name: "ayla"}
	h2 := &fakeHandle{id: 2, account: 2, name: "bram"}
	enter(t, w, h1, 1)
	enter(t, w, h2, 1)

	w.PartyAccept(2, 1)
	barrier(t, w)

	size, err := request(w, func(ww *World) int {
		if p := ww.partyOf(1); p != nil {
			return len(p.Members)
		}
		return 0
	})
	if err != nil {
		t.Fatal(err)
	}
	if size != 2 {
		t.Fatalf("party size = %d, want 2", size)
	}

	// The non-leader quits; one member is no party.
	w.PartyRemove(2, 2)
	barrier(t, w)

	left, err := request(w, func(ww *World) int { return len(ww.parties) })
	if err != nil {
		t.Fatal(err)
	}
	if left != 0 {
		t.Errorf("%d parties left, want 0", left)
	}
	if h1.countFamily(protocol.FamilyParty) == 0 {
		t.Error("remaining member never told the party closed")
	}
}

func TestPartyKickLeaderOnly(t *testing.T) {
	w := newTestWorld(t, 1)
	h1 := &fakeHandle{id: 1, account: 1, name: "ayla"}
	h2 := &fakeHandle{id: 2, account: 2, name: "bram"}
	h3 := &fakeHandle{id: 3, account: 3, name: "cora"}
	enter(t, w, h1, 1)
	enter(t, w, h2, 1)
	enter(t, w, h3, 1)

	w.PartyAccept(2, 1)
	w.PartyAccept(3, 1)
	barrier(t, w)

	// A regular member cannot kick someone else.
	w.PartyRemove(2, 3)
	barrier(t, w)
	size, err := request(w, func(ww *World) int { return len(ww.partyOf(1).Members) })
	if err != nil {
		t.Fatal(err)
	}
	if size != 3 {
		t.Fatalf("party size after rogue kick = %d, want 3", size)
	}

	// The leader can.
	w.PartyRemove(1, 3)
	barrier(t, w)
	size, err = request(w, func(ww *World) int { return len(ww.partyOf(1).Members) })
	if err != nil {
		t.Fatal(err)
	}
	if size != 2 {
		t.Errorf("party size after leader kick = %d, want 2", size)
	}
}

func TestDisconnectLeavesPartyAndFreesAccount(t *testing.T) {
	w := newTestWorld(t, 1)
	h1 := &fakeHandle{id: 1, account: 10, name: "ayla"}
	h2 := &fakeHandle{id: 2, account: 20, name: "bram"}
	for _, acct := range []int{10, 20} {
		if ok, err := w.ReserveAccount(acct); err != nil || !ok {
			t.Fatalf("reserve %d = %v, %v", acct, ok, err)
		}
	}
	enter(t, w, h1, 1)
	enter(t, w, h2, 1)
	w.PartyAccept(2, 1)
	barrier(t, w)

	w.RemovePlayer(2)
	barrier(t, w)

	if got := mapCount(t, w, 1); got != 1 {
		t.Errorf("map holds %d after disconnect, want 1", got)
	}
	left, err := request(w, func(ww *World) int { return len(ww.parties) })
	if err != nil {
		t.Fatal(err)
	}
	if left != 0 {
		t.Errorf("%d parties left after disconnect, want 0", left)
	}
	if ok, _ := w.ReserveAccount(20); !ok {
		t.Error("account still reserved after disconnect")
	}
	if ok, _ := w.ReserveAccount(10); ok {
		t.Error("connected player's account lock was dropped")
	}
	// The freed name can come back online.
	h3 := &fakeHandle{id: 3, account: 30, name: "bram"}
	enter(t, w, h3, 1)
}

func TestThrottleLoginBudget(t *testing.T) {
	w := newTestWorld(t)

	budget := w.cfg.RateLimit.LoginAttemptsPerMinute
	for i := 0; i < budget; i++ {
		if w.ThrottleLogin("10.9.9.9") {
			t.Fatalf("attempt %d throttled under the per-minute budget", i+1)
		}
	}
	if !w.ThrottleLogin("10.9.9.9") {
		t.Error("attempt past the per-minute budget not throttled")
	}
	if w.ThrottleLogin("10.9.9.10") {
		t.Error("first attempt from a fresh ip throttled")
	}
}

func TestThrottleLoginDisabled(t *testing.T) {
	w := newTestWorld(t)
	w.cfg.RateLimit.Enabled = false

	for i := 0; i < w.cfg.RateLimit.LoginAttemptsPerMinute*2; i++ {
		if w.ThrottleLogin("10.9.9.11") {
			t.Fatal("throttled with rate limiting disabled")
		}
	}
}

func TestWarpHooksNeverBlock(t *testing.T) {
	// The coordinator is deliberately not running, so the inbox fills up.
	w := New(config.Defaults(), &lang.Table{}, map[int]*gamemap.Map{}, nil, zap.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 600; i++ {
			w.RequestWarp(1, 2, pub.Coords{X: 1, Y: 1}, gamemap.WarpAnimNone)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RequestWarp blocked on a saturated coordinator inbox")
	}
}
