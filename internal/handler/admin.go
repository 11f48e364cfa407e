package handler

import (
	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/player"
	"github.com/telgard/server/internal/protocol"
)

func (d *Deps) registerAdmin(reg *protocol.Registry) {
	playing(reg, protocol.FamilyAdminInteract, protocol.ActionKick, d.adminOnly(character.AdminGuardian, d.handleAdminKick))
	playing(reg, protocol.FamilyAdminInteract, protocol.ActionSpec, d.adminOnly(character.AdminGuardian, d.handleAdminMute))
	playing(reg, protocol.FamilyAdminInteract, protocol.ActionUse, d.adminOnly(character.AdminGuardian, d.handleAdminFreeze))
	playing(reg, protocol.FamilyAdminInteract, protocol.ActionOpen, d.adminOnly(character.AdminGM, d.handleAdminGlobalLock))
	playing(reg, protocol.FamilyAdminInteract, protocol.ActionTake, d.adminOnly(character.AdminLight, d.handleAdminWarpTo))
	playing(reg, protocol.FamilyAdminInteract, protocol.ActionAgree, d.adminOnly(character.AdminLight, d.handleAdminHide))
	playing(reg, protocol.FamilyAdminInteract, protocol.ActionTell, d.adminOnly(character.AdminGuardian, d.handleAdminCaptcha))
}

// adminOnly drops the packet silently for under-privileged characters; a
// warn log is the only trace, matching how other bad input is handled.
func (d *Deps) adminOnly(min character.AdminLevel, fn func(p *player.Player, r *protocol.Reader)) func(p *player.Player, r *protocol.Reader) {
	return func(p *player.Player, r *protocol.Reader) {
		if p.Admin < min {
			p.Log().Warn("權限不足的管理封包")
			return
		}
		fn(p, r)
	}
}

func (d *Deps) handleAdminKick(p *player.Player, r *protocol.Reader) {
	name := r.GetString()
	if name == "" {
		return
	}
	d.World.AdminKick(p.CharName, name)
}

func (d *Deps) handleAdminMute(p *player.Player, r *protocol.Reader) {
	name := r.GetString()
	if name == "" {
		return
	}
	d.World.AdminMute(p.CharName, name)
}

func (d *Deps) handleAdminFreeze(p *player.Player, r *protocol.Reader) {
	freeze := r.GetChar() == 1
	name := r.GetString()
	if name == "" {
		return
	}
	d.World.AdminFreeze(p.CharName, name, freeze)
}

func (d *Deps) handleAdminGlobalLock(p *player.Player, r *protocol.Reader) {
	d.World.AdminLockGlobal(p.CharName, r.GetChar() == 1)
}

func (d *Deps) handleAdminWarpTo(p *player.Player, r *protocol.Reader) {
	name := r.GetString()
	if name == "" {
		return
	}
	d.World.AdminWarpTo(p.PlayerID(), name)
}

func (d *Deps) handleAdminHide(p *player.Player, r *protocol.Reader) {
	p.MapHandle.SetHidden(p.PlayerID(), r.GetChar() == 1)
}

func (d *Deps) handleAdminCaptcha(p *player.Player, r *protocol.Reader) {
	r.SetChunked(true)
	name := r.GetString()
	r.NextChunk()
	answer := r.GetString()
	if name == "" || answer == "" {
		return
	}
	d.World.AdminCaptcha(p.CharName, name, answer)
}
