package gamemap

import (
	"github.com/telgard/server/internal/pub"
)

// GroundItem is one item lying on the map floor. OwnerID 0 means public;
// while ProtectedTicks > 0 only the owner may pick it up.
type GroundItem struct {
	Index  int
	ID     int
	Amount int
	Coords pub.Coords

	OwnerID        int
	ProtectedTicks int
}

// Door tracks the open state of one keyed warp tile. Key 0 and 1 open
// without an inventory check; a key above 1 names the required key spec.
type Door struct {
	Coords    pub.Coords
	Key       int
	Open      bool
	OpenTicks int
}

// ChestSlot is one refillable line of a chest.
type ChestSlot struct {
	Slot        int
	ItemID      int
	Amount      int
	RespawnSecs int
	TakenAt     int64 // unix seconds of last take, 0 = full
}

// Chest is one chest tile with its refill schedule and live contents.
type Chest struct {
	Coords pub.Coords
	Key    int
	Slots  []*ChestSlot

	// Extra holds player-deposited items with no respawn schedule.
	Extra []ChestSlot
}

// Contents returns the currently visible item lines.
func (ch *Chest) Contents() []ChestSlot {
	out := make([]ChestSlot, 0, len(ch.Slots)+len(ch.Extra))
	for _, s := range ch.Slots {
		if s.TakenAt == 0 {
			out = append(out, *s)
		}
	}
	out = append(out, ch.Extra...)
	return out
}

// WeddingState tracks the priest ceremony progression.
type WeddingState int

const (
	WeddingRequested WeddingState = iota
	WeddingAccepted
	WeddingPriestDialog1
	WeddingPriestDialog2
	WeddingPriestDialog3
	WeddingPriestDialog4
	WeddingPriestDialog5
	WeddingDone
)

// Wedding is the at-most-one ceremony running on a map.
type Wedding struct {
	PartnerIDs [2]int // player ids, index 0 initiated
	NpcIndex   int    // officiating priest
	State      WeddingState
	StateTicks int
}

func (m *Map) loadDoors() {
	for _, w := range m.file.Warps() {
		if w.Door > 0 {
			m.doors[w.From] = &Door{Coords: w.From, Key: w.Door}
		}
	}
}

func (m *Map) loadChests() {
	for _, row := range m.file.Chests {
		ch, ok := m.chests[row.Coords]
		if !ok {
			ch = &Chest{Coords: row.Coords, Key: row.Key}
			m.chests[row.Coords] = ch
		}
		ch.Slots = append(ch.Slots, &ChestSlot{
			Slot:        row.Slot,
			ItemID:      row.ItemID,
			Amount:      row.Amount,
			RespawnSecs: row.RespawnSecs,
		})
	}
}
