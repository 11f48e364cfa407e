package world

import (
	"github.com/telgard/server/internal/gamemap"
	"github.com/telgard/server/internal/pub"
	"go.uber.org/zap"
)

// RequestWarp begins the two-phase warp: the character leaves its current
// map into nirvana (map 0) and the player actor stages the warp session and
// prompts the client. Implements gamemap.WorldHooks.
func (w *World) RequestWarp(playerID, mapID int, coords pub.Coords, anim gamemap.WarpAnimation) {
	w.postHook(func(ww *World) {
		h := ww.players[playerID]
		if h == nil {
			return
		}
		srcID, placed := ww.locations[playerID]
		if !placed {
			return
		}
		dest := ww.maps[mapID]
		if dest == nil {
			ww.log.Error("warp 目的地地圖不存在", zap.Int("player", playerID), zap.Int("map", mapID))
			return
		}
		src := ww.maps[srcID]
		nirvana := ww.maps[gamemap.NirvanaID]
		if src == nil || nirvana == nil {
			return
		}

		local := srcID == mapID
		c, err := src.Leave(playerID, anim)
		if err != nil || c == nil {
			return
		}
		nirvana.Enter(c, gamemap.WarpAnimNone)
		ww.locations[playerID] = gamemap.NirvanaID

		h.StageWarp(mapID, coords, local, anim)
	})
}

// CompleteWarp finishes the warp once the client acknowledged: the
// character leaves nirvana and enters the destination with its staged
// coordinates. The nirvana hop means it is never on two maps at once.
func (w *World) CompleteWarp(playerID, mapID int, coords pub.Coords, anim gamemap.WarpAnimation) {
	w.post(func(ww *World) {
		if ww.locations[playerID] != gamemap.NirvanaID {
			return
		}
		dest := ww.maps[mapID]
		nirvana := ww.maps[gamemap.NirvanaID]
		if dest == nil || nirvana == nil {
			return
		}
		c, err := nirvana.Leave(playerID, gamemap.WarpAnimNone)
		if err != nil || c == nil {
			return
		}
		c.Coords = coords
		ww.locations[playerID] = mapID
		dest.Enter(c, anim)
	})
}
