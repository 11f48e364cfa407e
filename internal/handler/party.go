package handler

import (
	"github.com/telgard/server/internal/player"
	"github.com/telgard/server/internal/protocol"
)

const (
	partyRequestJoin   = 0
	partyRequestInvite = 1
)

func (d *Deps) registerParty(reg *protocol.Registry) {
	playing(reg, protocol.FamilyParty, protocol.ActionRequest, d.handlePartyRequest)
	playing(reg, protocol.FamilyParty, protocol.ActionAccept, d.handlePartyAccept)
	playing(reg, protocol.FamilyParty, protocol.ActionRemove, d.handlePartyRemove)
	playing(reg, protocol.FamilyParty, protocol.ActionTake, d.handlePartyQuit)
}

func (d *Deps) handlePartyRequest(p *player.Player, r *protocol.Reader) {
	kind := r.GetChar()
	targetID := r.GetShort()
	if targetID == p.PlayerID() {
		return
	}
	d.World.PartyRequest(p.PlayerID(), targetID, p.CharName, kind == partyRequestInvite)
}

func (d *Deps) handlePartyAccept(p *player.Player, r *protocol.Reader) {
	r.GetChar()
	inviterID := r.GetShort()
	d.World.PartyAccept(p.PlayerID(), inviterID)
}

func (d *Deps) handlePartyRemove(p *player.Player, r *protocol.Reader) {
	d.World.PartyRemove(p.PlayerID(), r.GetShort())
}

func (d *Deps) handlePartyQuit(p *player.Player, r *protocol.Reader) {
	d.World.PartyRemove(p.PlayerID(), p.PlayerID())
}
