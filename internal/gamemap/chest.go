package gamemap

import (
	"time"

	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
)

// OpenChest opens the chest window for the requester and remembers which
// chest it is looking at; content updates are scoped to watchers of the
// same coords.
func (m *Map) OpenChest(playerID int, coords pub.Coords) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		ch := mm.chests[coords]
		if c == nil || ch == nil {
			return
		}
		if character.Distance(c.Coords, coords) > 1 {
			return
		}
		if ch.Key > 1 && !mm.hasKey(c, ch.Key) {
			return
		}
		at := coords
		c.ChestAt = &at
		mm.sendTo(playerID, chestOpenPacket(ch))
	})
}

// CloseChest drops the requester's chest handle.
func (m *Map) CloseChest(playerID int) {
	m.post(func(mm *Map) {
		if c := mm.get(playerID); c != nil {
			c.ChestAt = nil
		}
	})
}

// TakeChestItem moves one chest line into the requester's inventory.
func (m *Map) TakeChestItem(playerID, itemID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || c.ChestAt == nil {
			return
		}
		ch := mm.chests[*c.ChestAt]
		if ch == nil {
			return
		}

		for _, s := range ch.Slots {
			if s.TakenAt != 0 || s.ItemID != itemID {
				continue
			}
			if !c.CanHold(mm.tables, itemID, s.Amount) {
				mm.sendTo(playerID, itemRejectPacket())
				return
			}
			taken := c.AddItem(itemID, s.Amount, mm.cfg.Limits.MaxItem)
			if taken <= 0 {
				return
			}
			s.TakenAt = time.Now().Unix()
			mm.sendTo(playerID, chestGetPacket(c, ch, itemID, taken, mm.tables))
			mm.broadcastChest(ch, playerID)
			return
		}

		for i, s := range ch.Extra {
			if s.ItemID != itemID {
				continue
			}
			if !c.CanHold(mm.tables, itemID, s.Amount) {
				mm.sendTo(playerID, itemRejectPacket())
				return
			}
			taken := c.AddItem(itemID, s.Amount, mm.cfg.Limits.MaxItem)
			if taken <= 0 {
				return
			}
			if taken == s.Amount {
				ch.Extra = append(ch.Extra[:i], ch.Extra[i+1:]...)
			} else {
				ch.Extra[i].Amount -= taken
			}
			mm.sendTo(playerID, chestGetPacket(c, ch, itemID, taken, mm.tables))
			mm.broadcastChest(ch, playerID)
			return
		}
	})
}

// AddChestItem deposits an inventory item into the open chest.
func (m *Map) AddChestItem(playerID, itemID, amount int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || c.ChestAt == nil || amount <= 0 {
			return
		}
		ch := mm.chests[*c.ChestAt]
		if ch == nil {
			return
		}
		removed := c.RemoveItem(itemID, amount)
		if removed <= 0 {
			return
		}
		merged := false
		for i := range ch.Extra {
			if ch.Extra[i].ItemID == itemID {
				ch.Extra[i].Amount += removed
				merged = true
				break
			}
		}
		if !merged {
			ch.Extra = append(ch.Extra, ChestSlot{ItemID: itemID, Amount: removed})
		}
		mm.sendTo(playerID, chestAddPacket(c, ch, itemID, mm.tables))
		mm.broadcastChest(ch, playerID)
	})
}

// broadcastChest refreshes the chest window of every other watcher.
func (m *Map) broadcastChest(ch *Chest, exceptID int) {
	buf := chestAgreePacket(ch).Bytes()
	for pid, c := range m.characters {
		if pid == exceptID || c.ChestAt == nil || *c.ChestAt != ch.Coords || c.Conn == nil {
			continue
		}
		c.Conn.SendBuf(buf)
	}
}

// respawnChests refills taken slots whose respawn window has elapsed.
func (m *Map) respawnChests() {
	now := time.Now().Unix()
	for _, ch := range m.chests {
		changed := false
		for _, s := range ch.Slots {
			if s.TakenAt == 0 || now-s.TakenAt < int64(s.RespawnSecs) {
				continue
			}
			s.TakenAt = 0
			changed = true
		}
		if changed {
			m.broadcastChest(ch, 0)
		}
	}
}

func addChestContents(w *protocol.Writer, ch *Chest) {
	for _, s := range ch.Contents() {
		w.AddShort(s.ItemID)
		w.AddThree(s.Amount)
	}
}

func chestOpenPacket(ch *Chest) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionOpen, protocol.FamilyChest)
	w.AddChar(ch.Coords.X)
	w.AddChar(ch.Coords.Y)
	addChestContents(w, ch)
	return w
}

func chestAgreePacket(ch *Chest) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionAgree, protocol.FamilyChest)
	addChestContents(w, ch)
	return w
}

func chestGetPacket(c *character.Character, ch *Chest, id, amount int, t *pub.Tables) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionGet, protocol.FamilyChest)
	w.AddShort(id)
	w.AddThree(amount)
	w.AddChar(c.Weight(t))
	w.AddChar(c.MaxWeight)
	addChestContents(w, ch)
	return w
}

func chestAddPacket(c *character.Character, ch *Chest, id int, t *pub.Tables) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyChest)
	w.AddShort(id)
	w.AddThree(c.ItemAmount(id))
	w.AddChar(c.Weight(t))
	w.AddChar(c.MaxWeight)
	addChestContents(w, ch)
	return w
}
