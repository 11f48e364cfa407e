package handler

import (
	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/player"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
)

const (
	sitActionSit   = 1
	sitActionStand = 2
)

func (d *Deps) registerMovement(reg *protocol.Registry) {
	playing(reg, protocol.FamilyWalk, protocol.ActionPlayer, d.handleWalk)
	playing(reg, protocol.FamilyWalk, protocol.ActionAdmin, d.handleWalk)
	playing(reg, protocol.FamilyWalk, protocol.ActionSpec, d.handleWalk)
	playing(reg, protocol.FamilyFace, protocol.ActionPlayer, d.handleFace)
	playing(reg, protocol.FamilySit, protocol.ActionRequest, d.handleSit)
	playing(reg, protocol.FamilyChair, protocol.ActionRequest, d.handleChair)
	playing(reg, protocol.FamilyEmote, protocol.ActionReport, d.handleEmote)
	playing(reg, protocol.FamilyAttack, protocol.ActionUse, d.handleAttack)
	playing(reg, protocol.FamilyRefresh, protocol.ActionRequest, d.handleRefresh)
	playing(reg, protocol.FamilyPlayerRange, protocol.ActionRequest, d.handlePlayerRange)
	playing(reg, protocol.FamilyNPCRange, protocol.ActionRequest, d.handleNpcRange)
	playing(reg, protocol.FamilyRange, protocol.ActionRequest, d.handleRange)
}

// handleWalk covers the plain, admin and ghost walk variants; the map actor
// applies the admin bypass from the character's own level, not the action.
func (d *Deps) handleWalk(p *player.Player, r *protocol.Reader) {
	if p.Frozen {
		return
	}
	dir := character.Direction(r.GetChar())
	timestamp := int64(r.GetThree())
	x := r.GetChar()
	y := r.GetChar()
	if dir > character.DirRight {
		return
	}
	p.MapHandle.Walk(p.PlayerID(), dir, pub.Coords{X: x, Y: y}, timestamp)
}

func (d *Deps) handleFace(p *player.Player, r *protocol.Reader) {
	dir := character.Direction(r.GetChar())
	if dir > character.DirRight {
		return
	}
	p.MapHandle.Face(p.PlayerID(), dir)
}

func (d *Deps) handleSit(p *player.Player, r *protocol.Reader) {
	switch r.GetChar() {
	case sitActionSit:
		p.MapHandle.SitFloor(p.PlayerID())
	case sitActionStand:
		p.MapHandle.Stand(p.PlayerID())
	}
}

func (d *Deps) handleChair(p *player.Player, r *protocol.Reader) {
	switch r.GetChar() {
	case sitActionSit:
		x := r.GetChar()
		y := r.GetChar()
		p.MapHandle.SitChair(p.PlayerID(), pub.Coords{X: x, Y: y})
	case sitActionStand:
		p.MapHandle.Stand(p.PlayerID())
	}
}

func (d *Deps) handleEmote(p *player.Player, r *protocol.Reader) {
	p.MapHandle.Emote(p.PlayerID(), r.GetChar())
}

func (d *Deps) handleAttack(p *player.Player, r *protocol.Reader) {
	if p.Frozen || p.Captcha.Open {
		return
	}
	dir := character.Direction(r.GetChar())
	timestamp := int64(r.GetThree())
	if dir > character.DirRight {
		return
	}
	p.MapHandle.Attack(p.PlayerID(), dir, timestamp)
}

func (d *Deps) handleRefresh(p *player.Player, r *protocol.Reader) {
	p.MapHandle.Refresh(p.PlayerID())
}

func (d *Deps) handlePlayerRange(p *player.Player, r *protocol.Reader) {
	p.MapHandle.RequestPlayers(p.PlayerID())
}

func (d *Deps) handleNpcRange(p *player.Player, r *protocol.Reader) {
	p.MapHandle.RequestNpcs(p.PlayerID())
}

func (d *Deps) handleRange(p *player.Player, r *protocol.Reader) {
	p.MapHandle.Refresh(p.PlayerID())
}
