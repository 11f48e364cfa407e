package gamemap

import (
	"strings"

	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
)

// Priest reply codes sent in Priest.Reply.
const (
	priestNotDressed    = 1
	priestLowLevel      = 2
	priestPartnerWrong  = 3
	priestAlreadyActive = 4
	priestBusy          = 5
	priestDoYou         = 6
)

// openPriest opens the priest dialog for a character that interacted with a
// priest NPC. Runs on the actor goroutine.
func (m *Map) openPriest(c *character.Character, n *NPC) {
	m.sendTo(c.PlayerID(), priestOpenPacket(n))
}

// RequestWedding starts a ceremony at the open priest NPC. The requester
// must be engaged, dressed in the ceremony armor and name its fiancé.
func (m *Map) RequestWedding(playerID int, partnerName string) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil {
			return
		}
		n := mm.interactNpc(c, pub.NpcPriest)
		if n == nil {
			return
		}
		if mm.wedding != nil {
			mm.sendTo(playerID, priestReplyPacket(priestBusy))
			return
		}
		if !strings.EqualFold(c.Fiance, partnerName) {
			mm.sendTo(playerID, priestReplyPacket(priestPartnerWrong))
			return
		}
		partner := mm.findByName(partnerName)
		if partner == nil || !character.InRange(partner.Coords, n.Coords) {
			mm.sendTo(playerID, priestReplyPacket(priestPartnerWrong))
			return
		}
		if !mm.wearingCeremonyArmor(c) || !mm.wearingCeremonyArmor(partner) {
			mm.sendTo(playerID, priestReplyPacket(priestNotDressed))
			return
		}

		mm.wedding = &Wedding{
			PartnerIDs: [2]int{playerID, partner.PlayerID()},
			NpcIndex:   n.Index,
			State:      WeddingRequested,
		}
		c.InteractPlayerID = partner.PlayerID()
		mm.sendTo(partner.PlayerID(), priestRequestPacket(c))
	})
}

// AcceptWedding is the partner's confirmation; the ceremony dialog then
// advances on the tick scheduler.
func (m *Map) AcceptWedding(playerID int) {
	m.post(func(mm *Map) {
		wd := mm.wedding
		if wd == nil || wd.State != WeddingRequested || wd.PartnerIDs[1] != playerID {
			return
		}
		c := mm.get(playerID)
		if c == nil {
			return
		}
		c.InteractPlayerID = wd.PartnerIDs[0]
		wd.State = WeddingAccepted
		wd.StateTicks = 0
	})
}

// SayIDo is each partner's answer during the final dialog line.
func (m *Map) SayIDo(playerID int) {
	m.post(func(mm *Map) {
		wd := mm.wedding
		if wd == nil || wd.State != WeddingPriestDialog5 {
			return
		}
		if wd.PartnerIDs[0] != playerID && wd.PartnerIDs[1] != playerID {
			return
		}
		n := mm.npcs[wd.NpcIndex]
		if n != nil {
			mm.sendNear(n.Coords, emotePacket(playerID, emoteLevelUp))
		}
	})
}

// advanceWedding walks the ceremony dialog one step per second. Both
// partners must remain in range of the priest; anyone leaving cancels it.
func (m *Map) advanceWedding() {
	wd := m.wedding
	if wd == nil || wd.State == WeddingRequested {
		return
	}
	n := m.npcs[wd.NpcIndex]
	a := m.get(wd.PartnerIDs[0])
	b := m.get(wd.PartnerIDs[1])
	if n == nil || a == nil || b == nil ||
		!character.InRange(a.Coords, n.Coords) || !character.InRange(b.Coords, n.Coords) {
		m.wedding = nil
		return
	}

	wd.StateTicks++
	if wd.StateTicks < 4 {
		return
	}
	wd.StateTicks = 0

	switch wd.State {
	case WeddingAccepted:
		wd.State = WeddingPriestDialog1
		m.sendNear(n.Coords, npcTalkPacket(n, weddingLines[0]))
	case WeddingPriestDialog1, WeddingPriestDialog2, WeddingPriestDialog3, WeddingPriestDialog4:
		line := int(wd.State-WeddingPriestDialog1) + 1
		wd.State++
		m.sendNear(n.Coords, npcTalkPacket(n, weddingLines[line]))
		if wd.State == WeddingPriestDialog5 {
			m.sendTo(a.PlayerID(), priestReplyPacket(priestDoYou))
			m.sendTo(b.PlayerID(), priestReplyPacket(priestDoYou))
		}
	case WeddingPriestDialog5:
		wd.State = WeddingDone
		a.Partner, b.Partner = b.Name, a.Name
		a.Fiance, b.Fiance = "", ""
		a.InteractPlayerID, b.InteractPlayerID = 0, 0
		m.sendNear(n.Coords, npcTalkPacket(n, weddingLines[5]))
		m.sendNear(n.Coords, weddingEffectPacket(a.Coords))
		m.wedding = nil
	}
}

var weddingLines = [6]string{
	"Dearly beloved, we are gathered here today.",
	"Marriage is the union of two souls.",
	"If anyone objects, speak now or forever hold your peace.",
	"The rings, please.",
	"Do you take each other, for better or for worse?",
	"I now pronounce you married. You may kiss!",
}

func (m *Map) wearingCeremonyArmor(c *character.Character) bool {
	want := m.cfg.Marriage.FemaleArmorID
	if c.Gender == character.GenderMale {
		want = m.cfg.Marriage.MaleArmorID
	}
	return c.Paperdoll[character.EquipArmor] == want
}

func (m *Map) findByName(name string) *character.Character {
	for _, c := range m.characters {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// RequestEngagement files the lawyer paperwork: the requester pays, the
// named partner becomes its fiancé once both sides have filed.
func (m *Map) RequestEngagement(playerID int, partnerName string) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || c.Partner != "" {
			return
		}
		n := mm.interactNpc(c, pub.NpcLawyer)
		if n == nil {
			return
		}
		if c.Gold() < mm.cfg.Marriage.ApprovalCost {
			return
		}
		c.RemoveItem(character.GoldItemID, mm.cfg.Marriage.ApprovalCost)
		c.Fiance = partnerName
		mm.sendTo(playerID, lawReplyPacket(c))
	})
}

// RequestDivorce dissolves a marriage at the lawyer.
func (m *Map) RequestDivorce(playerID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || c.Partner == "" {
			return
		}
		n := mm.interactNpc(c, pub.NpcLawyer)
		if n == nil {
			return
		}
		if c.Gold() < mm.cfg.Marriage.ApprovalCost {
			return
		}
		c.RemoveItem(character.GoldItemID, mm.cfg.Marriage.ApprovalCost)
		if ex := mm.findByName(c.Partner); ex != nil {
			ex.Partner = ""
		}
		c.Partner = ""
		mm.sendTo(playerID, lawReplyPacket(c))
	})
}

// --- priest/lawyer payloads ---

func priestOpenPacket(n *NPC) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionOpen, protocol.FamilyPriest)
	w.AddShort(n.Index)
	return w
}

func priestReplyPacket(code int) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyPriest)
	w.AddShort(code)
	return w
}

func priestRequestPacket(from *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionRequest, protocol.FamilyPriest)
	w.AddShort(from.PlayerID())
	w.AddString(from.Name)
	return w
}

func lawOpenPacket(n *NPC) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionOpen, protocol.FamilyMarriage)
	w.AddShort(n.Index)
	return w
}

func lawReplyPacket(c *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyMarriage)
	w.AddInt(c.Gold())
	w.AddBreakString(c.Fiance)
	w.AddBreakString(c.Partner)
	return w
}

func weddingEffectPacket(at pub.Coords) *protocol.Writer {
	return effectPacket(1, at)
}
