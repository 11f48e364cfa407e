package handler

import (
	"github.com/telgard/server/internal/player"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
)

func (d *Deps) registerItems(reg *protocol.Registry) {
	playing(reg, protocol.FamilyItem, protocol.ActionUse, d.handleItemUse)
	playing(reg, protocol.FamilyItem, protocol.ActionDrop, d.handleItemDrop)
	playing(reg, protocol.FamilyItem, protocol.ActionJunk, d.handleItemJunk)
	playing(reg, protocol.FamilyItem, protocol.ActionGet, d.handleItemGet)
	playing(reg, protocol.FamilyPaperdoll, protocol.ActionAdd, d.handleEquip)
	playing(reg, protocol.FamilyPaperdoll, protocol.ActionRemove, d.handleUnequip)
	playing(reg, protocol.FamilyStatSkill, protocol.ActionAdd, d.handleStatPoint)
}

func (d *Deps) handleItemUse(p *player.Player, r *protocol.Reader) {
	p.MapHandle.UseItem(p.PlayerID(), r.GetShort())
}

func (d *Deps) handleItemDrop(p *player.Player, r *protocol.Reader) {
	itemID := r.GetShort()
	amount := r.GetInt()
	x := r.GetChar()
	y := r.GetChar()
	p.MapHandle.DropItem(p.PlayerID(), itemID, amount, pub.Coords{X: x, Y: y})
}

func (d *Deps) handleItemJunk(p *player.Player, r *protocol.Reader) {
	itemID := r.GetShort()
	amount := r.GetInt()
	p.MapHandle.JunkItem(p.PlayerID(), itemID, amount)
}

func (d *Deps) handleItemGet(p *player.Player, r *protocol.Reader) {
	if p.Captcha.Open {
		return
	}
	p.MapHandle.GetItem(p.PlayerID(), r.GetShort())
}

func (d *Deps) handleEquip(p *player.Player, r *protocol.Reader) {
	p.MapHandle.EquipItem(p.PlayerID(), r.GetShort())
}

func (d *Deps) handleUnequip(p *player.Player, r *protocol.Reader) {
	p.MapHandle.UnequipItem(p.PlayerID(), r.GetShort())
}

func (d *Deps) handleStatPoint(p *player.Player, r *protocol.Reader) {
	p.MapHandle.AddStatPoint(p.PlayerID(), r.GetShort())
}
