package gamemap

import (
	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
)

// dropProtectSecs is how long a fresh drop stays reserved for its owner.
const dropProtectSecs = 5

// spawnItem places an item on the floor and announces it. ownerID 0 makes
// the item public immediately.
func (m *Map) spawnItem(id, amount int, coords pub.Coords, ownerID int) *GroundItem {
	it := &GroundItem{
		Index:   allocIndex(m.items),
		ID:      id,
		Amount:  amount,
		Coords:  coords,
		OwnerID: ownerID,
	}
	if ownerID != 0 {
		it.ProtectedTicks = dropProtectSecs
	}
	m.items[it.Index] = it
	m.sendNear(coords, itemAddPacket(it))
	return it
}

// GetItem picks up a ground item into the requester's inventory.
func (m *Map) GetItem(playerID, itemIndex int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		it := mm.items[itemIndex]
		if c == nil || it == nil {
			return
		}
		if character.Distance(c.Coords, it.Coords) > mm.cfg.World.DropDistance {
			return
		}
		if it.ProtectedTicks > 0 && it.OwnerID != playerID {
			return
		}
		mm.pickup(c, it)
	})
}

func (m *Map) pickup(c *character.Character, it *GroundItem) {
	if !c.CanHold(m.tables, it.ID, it.Amount) {
		m.sendTo(c.PlayerID(), itemRejectPacket())
		return
	}
	taken := c.AddItem(it.ID, it.Amount, m.cfg.Limits.MaxItem)
	if taken <= 0 {
		return
	}
	if taken == it.Amount {
		delete(m.items, it.Index)
		m.sendBufNear(it.Coords, itemRemovePacket(it.Index).Bytes())
	} else {
		it.Amount -= taken
		m.sendBufNear(it.Coords, itemAddPacket(it).Bytes())
	}
	m.sendTo(c.PlayerID(), itemGetPacket(c, it.ID, taken, m.tables))
}

// DropItem moves amount of an inventory item onto the floor near the
// character. Amounts of zero or past the holding are rejected.
func (m *Map) DropItem(playerID, itemID, amount int, coords pub.Coords) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || amount <= 0 || amount > c.ItemAmount(itemID) {
			return
		}
		if c.Trading {
			return
		}
		rec := mm.tables.Item(itemID)
		if rec == nil || rec.Special == pub.SpecialLore {
			return
		}
		if character.Distance(c.Coords, coords) > mm.cfg.World.DropDistance ||
			!mm.file.Walkable(coords) {
			coords = c.Coords
		}
		c.RemoveItem(itemID, amount)
		it := mm.spawnItem(itemID, amount, coords, playerID)
		mm.sendTo(playerID, itemDropPacket(c, it, mm.tables))
	})
}

// JunkItem destroys amount of an inventory item.
func (m *Map) JunkItem(playerID, itemID, amount int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || amount <= 0 || c.Trading {
			return
		}
		removed := c.RemoveItem(itemID, amount)
		if removed > 0 {
			mm.sendTo(playerID, itemJunkPacket(c, itemID, removed, mm.tables))
		}
	})
}

// UseItem consumes or activates an inventory item by type.
func (m *Map) UseItem(playerID, itemID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || !c.HasItem(itemID) {
			return
		}
		rec := mm.tables.Item(itemID)
		if rec == nil {
			return
		}
		switch rec.Type {
		case pub.ItemHeal:
			c.RemoveItem(itemID, 1)
			c.HP += rec.HP
			if c.HP > c.MaxHP {
				c.HP = c.MaxHP
			}
			c.TP += rec.TP
			if c.TP > c.MaxTP {
				c.TP = c.MaxTP
			}
			mm.sendTo(playerID, recoverPacket(c))
			mm.sendNearPlayer(playerID, avatarDamagePacket(c, 0))
		case pub.ItemTeleport:
			if mm.hooks == nil {
				return
			}
			c.RemoveItem(itemID, 1)
			mm.hooks.RequestWarp(playerID, rec.Spec1,
				pub.Coords{X: rec.Spec2, Y: rec.Spec3}, WarpAnimScroll)
		case pub.ItemSpell:
			if c.AddSpell(rec.Spec1) {
				c.RemoveItem(itemID, 1)
				mm.sendTo(playerID, spellLearnPacket(rec.Spec1))
			}
		case pub.ItemExpReward:
			c.RemoveItem(itemID, 1)
			mm.awardExp(c, rec.Spec1)
		case pub.ItemBeer:
			c.RemoveItem(itemID, 1)
			mm.sendNearPlayer(playerID, emotePacket(playerID, emoteDrunk))
		}
	})
}

const emoteDrunk = 13

// EquipItem moves an inventory item onto the paperdoll.
func (m *Map) EquipItem(playerID, itemID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || !c.HasItem(itemID) {
			return
		}
		rec := mm.tables.Item(itemID)
		if rec == nil {
			return
		}
		if c.Level < rec.LevelReq {
			return
		}
		if rec.ClassReq != 0 && c.Class != rec.ClassReq {
			return
		}
		slot := c.EquipSlotFor(rec)
		if slot < 0 || c.Paperdoll[slot] != 0 {
			return
		}
		c.RemoveItem(itemID, 1)
		c.Paperdoll[slot] = itemID
		c.CalcStats(mm.tables)
		mm.sendTo(playerID, paperdollChangePacket(c, itemID, slot, true))
		mm.sendNearPlayer(playerID, playerEnterPacket(c, WarpAnimNone))
	})
}

// UnequipItem moves a paperdoll item back to the inventory.
func (m *Map) UnequipItem(playerID, itemID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || !c.Equipped(itemID) {
			return
		}
		for slot, id := range c.Paperdoll {
			if id != itemID {
				continue
			}
			c.Paperdoll[slot] = 0
			c.AddItem(itemID, 1, mm.cfg.Limits.MaxItem)
			c.CalcStats(mm.tables)
			mm.sendTo(playerID, paperdollChangePacket(c, itemID, slot, false))
			mm.sendNearPlayer(playerID, playerEnterPacket(c, WarpAnimNone))
			return
		}
	})
}

// --- item payloads ---

func itemRejectPacket() *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionSpec, protocol.FamilyItem)
	w.AddChar(0) // too heavy
	return w
}

func itemGetPacket(c *character.Character, id, amount int, t *pub.Tables) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionGet, protocol.FamilyItem)
	w.AddShort(id)
	w.AddThree(amount)
	w.AddThree(c.ItemAmount(id))
	w.AddChar(c.Weight(t))
	w.AddChar(c.MaxWeight)
	return w
}

func itemDropPacket(c *character.Character, it *GroundItem, t *pub.Tables) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionDrop, protocol.FamilyItem)
	w.AddShort(it.ID)
	w.AddThree(it.Amount)
	w.AddThree(c.ItemAmount(it.ID))
	w.AddShort(it.Index)
	w.AddChar(it.Coords.X)
	w.AddChar(it.Coords.Y)
	w.AddChar(c.Weight(t))
	w.AddChar(c.MaxWeight)
	return w
}

func itemJunkPacket(c *character.Character, id, amount int, t *pub.Tables) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionJunk, protocol.FamilyItem)
	w.AddShort(id)
	w.AddThree(amount)
	w.AddThree(c.ItemAmount(id))
	w.AddChar(c.Weight(t))
	w.AddChar(c.MaxWeight)
	return w
}

func spellLearnPacket(spellID int) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionAgree, protocol.FamilyStatSkill)
	w.AddShort(spellID)
	return w
}

func paperdollChangePacket(c *character.Character, itemID, slot int, equipped bool) *protocol.Writer {
	action := protocol.ActionAgree
	if !equipped {
		action = protocol.ActionRemove
	}
	w := protocol.NewWriter(action, protocol.FamilyPaperdoll)
	w.AddShort(c.PlayerID())
	w.AddShort(itemID)
	w.AddChar(slot)
	w.AddShort(c.MaxHP)
	w.AddShort(c.MaxTP)
	w.AddShort(c.MinDam)
	w.AddShort(c.MaxDam)
	w.AddShort(c.Accuracy)
	w.AddShort(c.Evade)
	w.AddShort(c.Armor)
	return w
}
