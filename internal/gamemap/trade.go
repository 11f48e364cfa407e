package gamemap

import (
	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
)

// RequestTrade asks another character on this map to trade.
func (m *Map) RequestTrade(playerID, targetID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		target := mm.get(targetID)
		if c == nil || target == nil || c.Trading || target.Trading {
			return
		}
		if !character.InClientRange(c.Coords, target.Coords) {
			return
		}
		c.InteractPlayerID = targetID
		mm.sendTo(targetID, tradeRequestPacket(c))
	})
}

// AcceptTrade opens the trade window on both sides. Only valid when the
// target has a pending request from the accepter's partner.
func (m *Map) AcceptTrade(playerID, partnerID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		partner := mm.get(partnerID)
		if c == nil || partner == nil {
			return
		}
		if partner.InteractPlayerID != playerID || c.Trading || partner.Trading {
			return
		}
		c.InteractPlayerID = partnerID
		c.Trading, partner.Trading = true, true
		c.TradeAccepted, partner.TradeAccepted = false, false
		mm.sendTo(playerID, tradeOpenPacket(c, partner))
		mm.sendTo(partnerID, tradeOpenPacket(partner, c))
	})
}

// AddTradeItem offers amount of an item in the open trade. At most the
// configured number of lines; offering more of an already-listed item
// replaces that line.
func (m *Map) AddTradeItem(playerID, itemID, amount int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || !c.Trading || amount <= 0 {
			return
		}
		partner := mm.get(c.InteractPlayerID)
		if partner == nil {
			return
		}
		if amount > c.ItemAmount(itemID) {
			return
		}
		rec := mm.tables.Item(itemID)
		if rec == nil || rec.Special == pub.SpecialLore {
			return
		}

		replaced := false
		for i := range c.TradeItems {
			if c.TradeItems[i].ID == itemID {
				c.TradeItems[i].Amount = amount
				replaced = true
				break
			}
		}
		if !replaced {
			if len(c.TradeItems) >= mm.cfg.Limits.MaxTrade {
				return
			}
			c.TradeItems = append(c.TradeItems, character.Item{ID: itemID, Amount: amount})
		}

		// Any change resets both accept flags.
		c.TradeAccepted, partner.TradeAccepted = false, false
		mm.sendTradeState(c, partner)
	})
}

// RemoveTradeItem withdraws an offered line.
func (m *Map) RemoveTradeItem(playerID, itemID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || !c.Trading {
			return
		}
		partner := mm.get(c.InteractPlayerID)
		if partner == nil {
			return
		}
		for i := range c.TradeItems {
			if c.TradeItems[i].ID == itemID {
				c.TradeItems = append(c.TradeItems[:i], c.TradeItems[i+1:]...)
				break
			}
		}
		c.TradeAccepted, partner.TradeAccepted = false, false
		mm.sendTradeState(c, partner)
	})
}

// AgreeTrade marks one side accepted; when both sides have accepted the
// swap executes atomically inside this one command.
func (m *Map) AgreeTrade(playerID int, agree bool) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || !c.Trading {
			return
		}
		partner := mm.get(c.InteractPlayerID)
		if partner == nil {
			return
		}
		c.TradeAccepted = agree
		if !agree {
			mm.sendTradeState(c, partner)
			return
		}
		if !partner.TradeAccepted {
			mm.sendTo(partner.PlayerID(), tradeAgreePacket(c.PlayerID(), true))
			return
		}
		mm.executeTrade(c, partner)
	})
}

// executeTrade swaps the two offer lists. Offers are revalidated against
// live inventories first; a stale offer cancels the trade instead of
// duplicating items.
func (m *Map) executeTrade(a, b *character.Character) {
	for _, line := range a.TradeItems {
		if a.ItemAmount(line.ID) < line.Amount {
			m.cancelTrade(a)
			return
		}
	}
	for _, line := range b.TradeItems {
		if b.ItemAmount(line.ID) < line.Amount {
			m.cancelTrade(b)
			return
		}
	}

	aGave := append([]character.Item(nil), a.TradeItems...)
	bGave := append([]character.Item(nil), b.TradeItems...)
	for _, line := range aGave {
		a.RemoveItem(line.ID, line.Amount)
		b.AddItem(line.ID, line.Amount, m.cfg.Limits.MaxItem)
	}
	for _, line := range bGave {
		b.RemoveItem(line.ID, line.Amount)
		a.AddItem(line.ID, line.Amount, m.cfg.Limits.MaxItem)
	}

	m.sendTo(a.PlayerID(), tradeUsePacket(bGave, aGave))
	m.sendTo(b.PlayerID(), tradeUsePacket(aGave, bGave))

	a.ResetTrade()
	b.ResetTrade()
	a.InteractPlayerID = 0
	b.InteractPlayerID = 0
}

// CancelTrade closes the trade window on both sides without a swap.
func (m *Map) CancelTrade(playerID int) {
	m.post(func(mm *Map) {
		if c := mm.get(playerID); c != nil && c.Trading {
			mm.cancelTrade(c)
		}
	})
}

// cancelTrade clears trade state on the character and its partner and
// notifies both. Runs on the actor goroutine.
func (m *Map) cancelTrade(c *character.Character) {
	partnerID := c.InteractPlayerID
	c.ResetTrade()
	c.InteractPlayerID = 0
	m.sendTo(c.PlayerID(), tradeClosePacket(partnerID))

	partner := m.get(partnerID)
	if partner == nil || !partner.Trading {
		return
	}
	partner.ResetTrade()
	partner.InteractPlayerID = 0
	m.sendTo(partnerID, tradeClosePacket(c.PlayerID()))
}

// sendTradeState mirrors both offer lists to both windows.
func (m *Map) sendTradeState(a, b *character.Character) {
	m.sendTo(a.PlayerID(), tradeReplyPacket(a, b))
	m.sendTo(b.PlayerID(), tradeReplyPacket(b, a))
}

// --- trade payloads ---

func tradeRequestPacket(from *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionRequest, protocol.FamilyTrade)
	w.AddChar(138) // dialog id the client expects on trade prompts
	w.AddShort(from.PlayerID())
	w.AddString(from.Name)
	return w
}

func tradeOpenPacket(self, partner *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionOpen, protocol.FamilyTrade)
	w.AddShort(partner.PlayerID())
	w.AddBreakString(partner.Name)
	w.AddShort(self.PlayerID())
	w.AddBreakString(self.Name)
	return w
}

func addTradeOffer(w *protocol.Writer, who *character.Character) {
	w.AddShort(who.PlayerID())
	for _, line := range who.TradeItems {
		w.AddShort(line.ID)
		w.AddThree(line.Amount)
	}
	w.AddBreak()
}

func tradeReplyPacket(self, partner *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyTrade)
	addTradeOffer(w, self)
	addTradeOffer(w, partner)
	return w
}

func tradeAgreePacket(playerID int, agreed bool) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionAgree, protocol.FamilyTrade)
	w.AddShort(playerID)
	w.AddChar(boolChar(agreed))
	return w
}

// tradeUsePacket reports the completed swap: what arrived, what left.
func tradeUsePacket(gained, gave []character.Item) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionUse, protocol.FamilyTrade)
	for _, line := range gained {
		w.AddShort(line.ID)
		w.AddThree(line.Amount)
	}
	w.AddBreak()
	for _, line := range gave {
		w.AddShort(line.ID)
		w.AddThree(line.Amount)
	}
	w.AddBreak()
	return w
}

func tradeClosePacket(partnerID int) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionClose, protocol.FamilyTrade)
	w.AddShort(partnerID)
	return w
}
