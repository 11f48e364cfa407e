package gamemap

import (
	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
)

// bankSize returns the character's locker line capacity at its bank level.
func (m *Map) bankSize(c *character.Character) int {
	return m.cfg.Bank.BaseSize + c.BankLevel*m.cfg.Bank.SizeStep
}

// DepositGold moves carried gold into the bank through the open bank NPC.
func (m *Map) DepositGold(playerID, amount int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || amount <= 0 || amount > c.Gold() {
			return
		}
		if mm.interactNpc(c, pub.NpcBank) == nil {
			return
		}
		if c.GoldBank+amount > mm.cfg.Limits.MaxBankGold {
			amount = mm.cfg.Limits.MaxBankGold - c.GoldBank
		}
		if amount <= 0 {
			return
		}
		c.RemoveItem(character.GoldItemID, amount)
		c.GoldBank += amount
		mm.sendTo(playerID, bankReplyPacket(c))
	})
}

// WithdrawGold moves banked gold back into the inventory.
func (m *Map) WithdrawGold(playerID, amount int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || amount <= 0 || amount > c.GoldBank {
			return
		}
		if mm.interactNpc(c, pub.NpcBank) == nil {
			return
		}
		c.GoldBank -= amount
		c.AddItem(character.GoldItemID, amount, mm.cfg.Limits.MaxItem)
		mm.sendTo(playerID, bankReplyPacket(c))
	})
}

// AddLockerItem deposits an inventory item at an adjacent bank vault tile.
func (m *Map) AddLockerItem(playerID, itemID, amount int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || amount <= 0 || itemID == character.GoldItemID {
			return
		}
		if !mm.nearVault(c) {
			return
		}
		available := c.ItemAmount(itemID)
		if amount > available {
			amount = available
		}
		if amount <= 0 {
			return
		}
		deposited := c.BankAdd(itemID, amount, mm.cfg.Limits.MaxItem, mm.bankSize(c))
		if deposited <= 0 {
			mm.sendTo(playerID, lockerFullPacket(mm.bankSize(c)))
			return
		}
		c.RemoveItem(itemID, deposited)
		mm.sendTo(playerID, lockerReplyPacket(c, itemID, mm.tables))
	})
}

// TakeLockerItem withdraws a whole locker line at an adjacent vault tile.
func (m *Map) TakeLockerItem(playerID, itemID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || !mm.nearVault(c) {
			return
		}
		banked := 0
		for _, line := range c.Bank {
			if line.ID == itemID {
				banked = line.Amount
				break
			}
		}
		if banked <= 0 || !c.CanHold(mm.tables, itemID, banked) {
			return
		}
		c.BankRemove(itemID, banked)
		c.AddItem(itemID, banked, mm.cfg.Limits.MaxItem)
		mm.sendTo(playerID, lockerGetPacket(c, itemID, banked, mm.tables))
	})
}

// OpenLocker sends the locker contents for an adjacent vault tile.
func (m *Map) OpenLocker(playerID int, coords pub.Coords) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil {
			return
		}
		if s, ok := mm.file.Spec(coords); !ok || s != pub.SpecBankVault {
			return
		}
		if character.Distance(c.Coords, coords) > 1 {
			return
		}
		mm.sendTo(playerID, lockerOpenPacket(c, coords))
	})
}

// UpgradeLocker buys one locker capacity step, up to the configured cap.
func (m *Map) UpgradeLocker(playerID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil {
			return
		}
		if mm.interactNpc(c, pub.NpcBank) == nil {
			return
		}
		if c.BankLevel >= mm.cfg.Bank.MaxUpgrades {
			return
		}
		cost := mm.cfg.Bank.UpgradeBaseCost + c.BankLevel*mm.cfg.Bank.UpgradeCostStep
		if c.Gold() < cost {
			return
		}
		c.RemoveItem(character.GoldItemID, cost)
		c.BankLevel++
		mm.sendTo(playerID, lockerUpgradePacket(c))
	})
}

// nearVault reports whether the character stands next to any bank vault tile.
func (m *Map) nearVault(c *character.Character) bool {
	for _, dir := range []character.Direction{character.DirDown, character.DirLeft, character.DirUp, character.DirRight} {
		dx, dy := dir.Offset()
		at := pub.Coords{X: c.Coords.X + dx, Y: c.Coords.Y + dy}
		if s, ok := m.file.Spec(at); ok && s == pub.SpecBankVault {
			return true
		}
	}
	if s, ok := m.file.Spec(c.Coords); ok && s == pub.SpecBankVault {
		return true
	}
	return false
}

// --- bank payloads ---

func bankOpenPacket(c *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionOpen, protocol.FamilyBank)
	w.AddInt(c.GoldBank)
	w.AddChar(c.BankLevel)
	return w
}

func bankReplyPacket(c *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyBank)
	w.AddInt(c.Gold())
	w.AddInt(c.GoldBank)
	return w
}

func addLockerContents(w *protocol.Writer, c *character.Character) {
	for _, line := range c.Bank {
		w.AddShort(line.ID)
		w.AddThree(line.Amount)
	}
}

func lockerOpenPacket(c *character.Character, coords pub.Coords) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionOpen, protocol.FamilyLocker)
	w.AddChar(coords.X)
	w.AddChar(coords.Y)
	addLockerContents(w, c)
	return w
}

func lockerReplyPacket(c *character.Character, id int, t *pub.Tables) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyLocker)
	w.AddShort(id)
	w.AddThree(c.ItemAmount(id))
	w.AddChar(c.Weight(t))
	w.AddChar(c.MaxWeight)
	addLockerContents(w, c)
	return w
}

func lockerGetPacket(c *character.Character, id, amount int, t *pub.Tables) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionGet, protocol.FamilyLocker)
	w.AddShort(id)
	w.AddThree(amount)
	w.AddChar(c.Weight(t))
	w.AddChar(c.MaxWeight)
	addLockerContents(w, c)
	return w
}

func lockerFullPacket(size int) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionSpec, protocol.FamilyLocker)
	w.AddChar(size)
	return w
}

func lockerUpgradePacket(c *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionBuy, protocol.FamilyLocker)
	w.AddInt(c.Gold())
	w.AddChar(c.BankLevel)
	return w
}
