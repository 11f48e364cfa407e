package gamemap

import (
	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/pub"
	"go.uber.org/zap"
)

// Walk applies one step. The client sends its intended destination; the
// server validates direction, adjacency, walkability and walk speed, then
// broadcasts to observers. timestamp is the client walk time in unix millis.
func (m *Map) Walk(playerID int, dir character.Direction, coords pub.Coords, timestamp int64) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || c.Sit != character.Standing {
			return
		}

		// Anti-speed: reject steps arriving faster than the walk interval.
		if interval := mm.cfg.RateLimit.WalkInterval.Milliseconds(); mm.cfg.RateLimit.Enabled &&
			timestamp-c.LastWalk < interval {
			return
		}

		dx, dy := dir.Offset()
		next := pub.Coords{X: c.Coords.X + dx, Y: c.Coords.Y + dy}
		if next != coords {
			// Client desync; snap it back with a fresh snapshot.
			mm.sendTo(playerID, mm.nearbyPacket(c))
			return
		}
		if !mm.file.Walkable(next) && c.Admin < character.AdminLight {
			return
		}

		c.LastWalk = timestamp
		c.Direction = dir
		c.Coords = next

		if !c.Hidden {
			mm.sendNearPlayer(playerID, walkPacket(c))
		}

		if warp := mm.file.Warp(next); warp != nil {
			mm.stepOnWarp(c, warp)
			return
		}
		if spec, ok := mm.file.Spec(next); ok {
			switch spec {
			case pub.SpecSpikes, pub.SpecHiddenSpikes:
				mm.spikeHit(c)
			case pub.SpecArena:
				mm.enqueueArena(c)
			}
		}
	})
}

// stepOnWarp handles stepping onto a warp tile: closed keyed doors block,
// level requirements block, otherwise the warp is staged with the world.
func (m *Map) stepOnWarp(c *character.Character, warp *pub.WarpRow) {
	if warp.Door > 0 {
		d := m.doors[warp.From]
		if d == nil || !d.Open {
			return
		}
	}
	if c.Level < warp.LevelReq {
		return
	}
	if m.hooks == nil {
		m.log.Error("warp 請求沒有 world 掛鉤", zap.Int("player", c.PlayerID()))
		return
	}
	m.hooks.RequestWarp(c.PlayerID(), warp.Map, warp.To, WarpAnimNone)
}

// spikeHit applies static spike damage and reports it to observers.
func (m *Map) spikeHit(c *character.Character) {
	if c.GhostTicks > 0 || c.Hidden {
		return
	}
	amount := c.MaxHP / 6
	if amount < 1 {
		amount = 1
	}
	c.HP -= amount
	if c.HP < 0 {
		c.HP = 0
	}
	m.sendTo(c.PlayerID(), recoverPacket(c))
	m.sendNearPlayer(c.PlayerID(), avatarDamagePacket(c, amount))
	if c.HP == 0 {
		m.killCharacter(c)
	}
}

// Face turns a standing character in place.
func (m *Map) Face(playerID int, dir character.Direction) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || c.Sit != character.Standing {
			return
		}
		c.Direction = dir
		if !c.Hidden {
			mm.sendNearPlayer(playerID, facePacket(playerID, dir))
		}
	})
}

// SitFloor seats the character on the ground where it stands.
func (m *Map) SitFloor(playerID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || c.Sit != character.Standing {
			return
		}
		c.Sit = character.SitFloor
		mm.sendTo(playerID, sitPacket(c))
		mm.sendNearPlayer(playerID, sitPacket(c))
	})
}

// SitChair seats the character on an adjacent chair tile.
func (m *Map) SitChair(playerID int, coords pub.Coords) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || c.Sit != character.Standing {
			return
		}
		spec, ok := mm.file.Spec(coords)
		if !ok || !spec.Chair() {
			return
		}
		if character.Distance(c.Coords, coords) != 1 || mm.occupiedChair(coords) {
			return
		}
		c.Direction = chairFacing(spec, c.Coords, coords)
		c.Coords = coords
		c.Sit = character.SitChair
		mm.sendTo(playerID, sitPacket(c))
		mm.sendNearPlayer(playerID, sitPacket(c))
	})
}

func (m *Map) occupiedChair(coords pub.Coords) bool {
	for _, c := range m.characters {
		if c.Coords == coords {
			return true
		}
	}
	return false
}

// chairFacing picks the facing a chair spec allows, falling back to the
// approach direction for all-direction chairs.
func chairFacing(spec pub.TileSpec, from, chair pub.Coords) character.Direction {
	switch spec {
	case pub.SpecChairDown, pub.SpecChairDownRight:
		return character.DirDown
	case pub.SpecChairLeft, pub.SpecChairUpLeft:
		return character.DirLeft
	case pub.SpecChairUp:
		return character.DirUp
	case pub.SpecChairRight:
		return character.DirRight
	}
	return directionToward(chair, from)
}

// Stand raises a sitting character.
func (m *Map) Stand(playerID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || c.Sit == character.Standing {
			return
		}
		c.Sit = character.Standing
		mm.sendTo(playerID, standPacket(c))
		mm.sendNearPlayer(playerID, standPacket(c))
	})
}

// Emote plays an emote to observers.
func (m *Map) Emote(playerID, emote int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || c.Hidden {
			return
		}
		mm.sendNearPlayer(playerID, emotePacket(playerID, emote))
	})
}

// Talk broadcasts local chat to observers in client range.
func (m *Map) Talk(playerID int, message string) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil {
			return
		}
		mm.sendClientRangeNearPlayer(playerID, talkPacket(playerID, message))
	})
}

// Refresh resends the full in-range snapshot to the requester.
func (m *Map) Refresh(playerID int) {
	m.post(func(mm *Map) {
		if c := mm.get(playerID); c != nil {
			mm.sendTo(playerID, mm.nearbyPacket(c))
		}
	})
}

// RequestPlayers answers the in-range character list.
func (m *Map) RequestPlayers(playerID int) {
	m.post(func(mm *Map) {
		if c := mm.get(playerID); c != nil {
			mm.sendTo(playerID, mm.nearbyPlayersPacket(c))
		}
	})
}

// RequestNpcs answers the in-range NPC list.
func (m *Map) RequestNpcs(playerID int) {
	m.post(func(mm *Map) {
		if c := mm.get(playerID); c != nil {
			mm.sendTo(playerID, mm.nearbyNpcsPacket(c))
		}
	})
}
