package handler

import (
	"github.com/telgard/server/internal/player"
	"github.com/telgard/server/internal/protocol"
	"go.uber.org/zap"
)

func (d *Deps) registerWarp(reg *protocol.Registry) {
	playing(reg, protocol.FamilyWarp, protocol.ActionTake, d.handleWarpTake)
	playing(reg, protocol.FamilyWarp, protocol.ActionAccept, d.handleWarpAccept)
}

// handleWarpTake serves the destination map file for a staged cross-map
// warp. The client asks for it when its cache misses.
func (d *Deps) handleWarpTake(p *player.Player, r *protocol.Reader) {
	ws := p.Warp
	if ws == nil || ws.Local {
		return
	}
	file := d.Maps[ws.MapID]
	if file == nil {
		p.Log().Warn("warp 目的地地圖檔不存在", zap.Int("map", ws.MapID))
		return
	}
	w := protocol.NewWriter(protocol.ActionTake, protocol.FamilyWarp)
	w.AddShort(ws.MapID)
	w.AddBytes(file.Raw)
	p.Send(w)
}

// handleWarpAccept lands a staged warp: the client is ready, so the world
// moves the character out of nirvana onto the destination map.
func (d *Deps) handleWarpAccept(p *player.Player, r *protocol.Reader) {
	mapID := r.GetShort()
	ws := p.Warp
	if ws == nil || ws.MapID != mapID {
		return
	}
	p.Warp = nil
	p.MapHandle = d.World.Map(ws.MapID)
	d.World.CompleteWarp(p.PlayerID(), ws.MapID, ws.Coords, ws.Animation)
}
