package handler

import (
	"github.com/telgard/server/internal/player"
	"github.com/telgard/server/internal/protocol"
)

func (d *Deps) registerTrade(reg *protocol.Registry) {
	playing(reg, protocol.FamilyTrade, protocol.ActionRequest, d.handleTradeRequest)
	playing(reg, protocol.FamilyTrade, protocol.ActionAccept, d.handleTradeAccept)
	playing(reg, protocol.FamilyTrade, protocol.ActionAdd, d.handleTradeAdd)
	playing(reg, protocol.FamilyTrade, protocol.ActionRemove, d.handleTradeRemove)
	playing(reg, protocol.FamilyTrade, protocol.ActionAgree, d.handleTradeAgree)
	playing(reg, protocol.FamilyTrade, protocol.ActionClose, d.handleTradeClose)
}

func (d *Deps) handleTradeRequest(p *player.Player, r *protocol.Reader) {
	r.GetChar() // dialog id, unused
	p.MapHandle.RequestTrade(p.PlayerID(), r.GetShort())
}

func (d *Deps) handleTradeAccept(p *player.Player, r *protocol.Reader) {
	r.GetChar()
	p.MapHandle.AcceptTrade(p.PlayerID(), r.GetShort())
}

func (d *Deps) handleTradeAdd(p *player.Player, r *protocol.Reader) {
	itemID := r.GetShort()
	amount := r.GetInt()
	p.MapHandle.AddTradeItem(p.PlayerID(), itemID, amount)
}

func (d *Deps) handleTradeRemove(p *player.Player, r *protocol.Reader) {
	p.MapHandle.RemoveTradeItem(p.PlayerID(), r.GetShort())
}

func (d *Deps) handleTradeAgree(p *player.Player, r *protocol.Reader) {
	p.MapHandle.AgreeTrade(p.PlayerID(), r.GetChar() == 1)
}

func (d *Deps) handleTradeClose(p *player.Player, r *protocol.Reader) {
	p.MapHandle.CancelTrade(p.PlayerID())
}
