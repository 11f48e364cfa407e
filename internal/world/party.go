package world

import (
	"github.com/telgard/server/internal/protocol"
)

// partyOf returns the party containing playerID, or nil.
func (w *World) partyOf(playerID int) *Party {
	for _, p := range w.parties {
		for _, pid := range p.Members {
			if pid == playerID {
				return p
			}
		}
	}
	return nil
}

// PartyRequest forwards an invite or join request to the target.
func (w *World) PartyRequest(sourceID, targetID int, sourceName string, invite bool) {
	w.post(func(ww *World) {
		target := ww.players[targetID]
		if target == nil {
			return
		}
		if ww.partyOf(targetID) != nil && invite {
			return
		}
		action := protocol.ActionRequest
		if invite {
			action = protocol.ActionPlayer
		}
		out := protocol.NewWriter(action, protocol.FamilyParty)
		out.AddShort(sourceID)
		out.AddString(sourceName)
		target.Send(out)
	})
}

// PartyAccept joins the accepter to the inviter's party, creating one when
// the inviter is solo.
func (w *World) PartyAccept(accepterID, inviterID int) {
	w.post(func(ww *World) {
		if ww.partyOf(accepterID) != nil {
			return
		}
		if ww.players[accepterID] == nil || ww.players[inviterID] == nil {
			return
		}
		p := ww.partyOf(inviterID)
		if p == nil {
			p = &Party{LeaderID: inviterID, Members: []int{inviterID}}
			ww.parties = append(ww.parties, p)
		}
		p.Members = append(p.Members, accepterID)
		ww.broadcastParty(p)
	})
}

// PartyRemove kicks a member (leader only) or lets a member quit. Removing
// from a party of two disbands it.
func (w *World) PartyRemove(requesterID, targetID int) {
	w.post(func(ww *World) {
		p := ww.partyOf(requesterID)
		if p == nil {
			return
		}
		if targetID != requesterID && p.LeaderID != requesterID {
			return
		}
		ww.removeFromParty(p, targetID)
	})
}

// leaveParty removes a disconnecting player from its party, if any. Runs on
// the actor goroutine.
func (w *World) leaveParty(playerID int) {
	if p := w.partyOf(playerID); p != nil {
		w.removeFromParty(p, playerID)
	}
}

func (w *World) removeFromParty(p *Party, playerID int) {
	for i, pid := range p.Members {
		if pid == playerID {
			p.Members = append(p.Members[:i], p.Members[i+1:]...)
			break
		}
	}
	if h := w.players[playerID]; h != nil {
		out := protocol.NewWriter(protocol.ActionClose, protocol.FamilyParty)
		out.AddShort(playerID)
		h.Send(out)
	}

	// A party of one is no party.
	if len(p.Members) < 2 {
		w.disbandParty(p)
		return
	}
	if p.LeaderID == playerID {
		p.LeaderID = p.Members[0]
	}
	removed := protocol.NewWriter(protocol.ActionRemove, protocol.FamilyParty)
	removed.AddShort(playerID)
	buf := removed.Bytes()
	for _, pid := range p.Members {
		if h := w.players[pid]; h != nil {
			h.SendBuf(buf)
		}
	}
}

func (w *World) disbandParty(p *Party) {
	out := protocol.NewWriter(protocol.ActionClose, protocol.FamilyParty)
	out.AddShort(0)
	buf := out.Bytes()
	for _, pid := range p.Members {
		if h := w.players[pid]; h != nil {
			h.SendBuf(buf)
		}
	}
	for i, candidate := range w.parties {
		if candidate == p {
			w.parties = append(w.parties[:i], w.parties[i+1:]...)
			return
		}
	}
}

// broadcastParty sends the member list to every member.
func (w *World) broadcastParty(p *Party) {
	out := protocol.NewWriter(protocol.ActionList, protocol.FamilyParty)
	for _, pid := range p.Members {
		h := w.players[pid]
		if h == nil {
			continue
		}
		out.AddShort(pid)
		out.AddChar(boolChar(pid == p.LeaderID))
		out.AddBreakString(h.CharacterName())
	}
	buf := out.Bytes()
	for _, pid := range p.Members {
		if h := w.players[pid]; h != nil {
			h.SendBuf(buf)
		}
	}
}

func boolChar(b bool) int {
	if b {
		return 1
	}
	return 0
}
