package gamemap

import (
	"strings"

	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
)

// OpenNpc opens the dialog for the NPC at index: shop stock, skill-master
// list, bank balance or inn questions depending on the record type.
func (m *Map) OpenNpc(playerID, npcIndex int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		n := mm.npcs[npcIndex]
		if c == nil || n == nil || !n.Alive {
			return
		}
		if !character.InClientRange(c.Coords, n.Coords) {
			return
		}
		c.InteractNpcIndex = npcIndex

		switch n.Data.Type {
		case pub.NpcShop:
			if shop := mm.tables.Shops[n.Data.VendorID]; shop != nil {
				mm.sendTo(playerID, shopOpenPacket(n, shop))
			}
		case pub.NpcSkillMaster:
			if master := mm.tables.Masters[n.Data.VendorID]; master != nil {
				mm.sendTo(playerID, masterOpenPacket(n, master))
			}
		case pub.NpcBank:
			mm.sendTo(playerID, bankOpenPacket(c))
		case pub.NpcInn:
			if inn := mm.tables.Inns[n.Data.VendorID]; inn != nil {
				mm.sendTo(playerID, innOpenPacket(n, inn, c))
			}
		case pub.NpcPriest:
			mm.openPriest(c, n)
		case pub.NpcLawyer:
			mm.sendTo(playerID, lawOpenPacket(n))
		}
	})
}

// interactNpc resolves the character's open-dialog NPC, nil when stale.
func (m *Map) interactNpc(c *character.Character, wantType pub.NpcType) *NPC {
	n := m.npcs[c.InteractNpcIndex]
	if n == nil || !n.Alive || n.Data.Type != wantType {
		return nil
	}
	if !character.InRange(c.Coords, n.Coords) {
		return nil
	}
	return n
}

// BuyItem purchases amount of an item from the open shop.
func (m *Map) BuyItem(playerID, itemID, amount int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || amount <= 0 {
			return
		}
		n := mm.interactNpc(c, pub.NpcShop)
		if n == nil {
			return
		}
		shop := mm.tables.Shops[n.Data.VendorID]
		if shop == nil {
			return
		}
		trade := findTrade(shop, itemID)
		if trade == nil || trade.BuyPrice <= 0 {
			return
		}
		if trade.MaxAmount > 0 && amount > trade.MaxAmount {
			amount = trade.MaxAmount
		}
		cost := trade.BuyPrice * amount
		if c.Gold() < cost || !c.CanHold(mm.tables, itemID, amount) {
			return
		}
		c.RemoveItem(character.GoldItemID, cost)
		c.AddItem(itemID, amount, mm.cfg.Limits.MaxItem)
		mm.sendTo(playerID, shopBuyPacket(c, itemID, amount, mm.tables))
	})
}

// SellItem sells amount of an inventory item to the open shop.
func (m *Map) SellItem(playerID, itemID, amount int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || amount <= 0 || amount > c.ItemAmount(itemID) {
			return
		}
		n := mm.interactNpc(c, pub.NpcShop)
		if n == nil {
			return
		}
		shop := mm.tables.Shops[n.Data.VendorID]
		if shop == nil {
			return
		}
		trade := findTrade(shop, itemID)
		if trade == nil || trade.SellPrice <= 0 {
			return
		}
		c.RemoveItem(itemID, amount)
		c.AddItem(character.GoldItemID, trade.SellPrice*amount, mm.cfg.Limits.MaxItem)
		mm.sendTo(playerID, shopSellPacket(c, itemID, mm.tables))
	})
}

// CraftItem crafts one output from the open shop's recipe list.
func (m *Map) CraftItem(playerID, itemID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil {
			return
		}
		n := mm.interactNpc(c, pub.NpcShop)
		if n == nil {
			return
		}
		shop := mm.tables.Shops[n.Data.VendorID]
		if shop == nil {
			return
		}
		for _, craft := range shop.Crafts {
			if craft.ItemID != itemID {
				continue
			}
			for _, ing := range craft.Ingredients {
				if c.ItemAmount(ing.ItemID) < ing.Amount {
					return
				}
			}
			for _, ing := range craft.Ingredients {
				c.RemoveItem(ing.ItemID, ing.Amount)
			}
			c.AddItem(itemID, 1, mm.cfg.Limits.MaxItem)
			mm.sendTo(playerID, shopBuyPacket(c, itemID, 1, mm.tables))
			return
		}
	})
}

// LearnSkill buys a spell from the open skill master.
func (m *Map) LearnSkill(playerID, spellID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || c.HasSpell(spellID) {
			return
		}
		n := mm.interactNpc(c, pub.NpcSkillMaster)
		if n == nil {
			return
		}
		master := mm.tables.Masters[n.Data.VendorID]
		if master == nil {
			return
		}
		for _, sk := range master.Skills {
			if sk.SpellID != spellID {
				continue
			}
			if c.Level < sk.LevelReq || c.Gold() < sk.Price {
				return
			}
			if sk.ClassReq != 0 && c.Class != sk.ClassReq {
				return
			}
			if c.AdjStr < sk.StrReq || c.AdjInt < sk.IntReq || c.AdjWis < sk.WisReq ||
				c.AdjAgi < sk.AgiReq || c.AdjCon < sk.ConReq || c.AdjCha < sk.ChaReq {
				return
			}
			c.RemoveItem(character.GoldItemID, sk.Price)
			c.AddSpell(spellID)
			mm.sendTo(playerID, masterLearnPacket(c, spellID))
			return
		}
	})
}

// AnswerInn checks a citizenship quiz answer and, when all answers match,
// moves the character's home to the inn's spawn point.
func (m *Map) AnswerInn(playerID int, answers []string) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil {
			return
		}
		n := mm.interactNpc(c, pub.NpcInn)
		if n == nil {
			return
		}
		inn := mm.tables.Inns[n.Data.VendorID]
		if inn == nil || len(answers) < len(inn.Questions) {
			return
		}
		wrong := 0
		for i, q := range inn.Questions {
			if !strings.EqualFold(strings.TrimSpace(answers[i]), q.Answer) {
				wrong++
			}
		}
		if wrong == 0 {
			c.Home = inn.Name
			c.HomeMap = inn.SpawnMap
			c.HomeCoords = pub.Coords{X: inn.SpawnX, Y: inn.SpawnY}
		}
		mm.sendTo(playerID, innReplyPacket(wrong))
	})
}

// SleepInn rests the character at the inn: full heal for a fee.
func (m *Map) SleepInn(playerID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil {
			return
		}
		n := mm.interactNpc(c, pub.NpcInn)
		if n == nil {
			return
		}
		inn := mm.tables.Inns[n.Data.VendorID]
		if inn == nil {
			return
		}
		c.HP = c.MaxHP
		c.TP = c.MaxTP
		if mm.hooks != nil {
			mm.hooks.RequestWarp(playerID, inn.SleepMap,
				pub.Coords{X: inn.SleepX, Y: inn.SleepY}, WarpAnimNone)
		}
	})
}

func findTrade(shop *pub.Shop, itemID int) *pub.ShopTrade {
	for i := range shop.Trades {
		if shop.Trades[i].ItemID == itemID {
			return &shop.Trades[i]
		}
	}
	return nil
}

// --- shop payloads ---

func shopOpenPacket(n *NPC, shop *pub.Shop) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionOpen, protocol.FamilyShop)
	w.AddShort(n.Index)
	w.AddBreakString(shop.Name)
	for _, t := range shop.Trades {
		w.AddShort(t.ItemID)
		w.AddThree(t.BuyPrice)
		w.AddThree(t.SellPrice)
		w.AddChar(t.MaxAmount)
	}
	w.AddBreak()
	for _, cr := range shop.Crafts {
		w.AddShort(cr.ItemID)
		w.AddChar(len(cr.Ingredients))
		for _, ing := range cr.Ingredients {
			w.AddShort(ing.ItemID)
			w.AddChar(ing.Amount)
		}
	}
	w.AddBreak()
	return w
}

func shopBuyPacket(c *character.Character, id, amount int, t *pub.Tables) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionBuy, protocol.FamilyShop)
	w.AddInt(c.Gold())
	w.AddShort(id)
	w.AddThree(amount)
	w.AddChar(c.Weight(t))
	w.AddChar(c.MaxWeight)
	return w
}

func shopSellPacket(c *character.Character, id int, t *pub.Tables) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionSell, protocol.FamilyShop)
	w.AddThree(c.ItemAmount(id))
	w.AddShort(id)
	w.AddInt(c.Gold())
	w.AddChar(c.Weight(t))
	w.AddChar(c.MaxWeight)
	return w
}

func masterOpenPacket(n *NPC, master *pub.Master) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionOpen, protocol.FamilyStatSkill)
	w.AddShort(n.Index)
	w.AddBreakString(master.Name)
	for _, sk := range master.Skills {
		w.AddShort(sk.SpellID)
		w.AddChar(sk.LevelReq)
		w.AddChar(sk.ClassReq)
		w.AddThree(sk.Price)
		w.AddShort(sk.StrReq)
		w.AddShort(sk.IntReq)
		w.AddShort(sk.WisReq)
		w.AddShort(sk.AgiReq)
		w.AddShort(sk.ConReq)
		w.AddShort(sk.ChaReq)
	}
	return w
}

func masterLearnPacket(c *character.Character, spellID int) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionTake, protocol.FamilyStatSkill)
	w.AddShort(spellID)
	w.AddInt(c.Gold())
	return w
}

func innOpenPacket(n *NPC, inn *pub.Inn, c *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionOpen, protocol.FamilyCitizen)
	w.AddShort(n.Index)
	w.AddChar(boolChar(c.Home == inn.Name))
	w.AddBreakString(inn.Name)
	for _, q := range inn.Questions {
		w.AddBreakString(q.Question)
	}
	return w
}

func innReplyPacket(wrong int) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyCitizen)
	w.AddChar(wrong)
	return w
}
