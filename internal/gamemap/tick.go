package gamemap

import (
	"sort"

	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/pub"
)

// Tick is the per-map pulse from the global scheduler. Sub-cadences run by
// incrementing counters; every cadence is a whole number of base ticks.
func (m *Map) Tick() {
	m.post(func(mm *Map) {
		mm.runTick()
	})
}

func (m *Map) runTick() {
	w := &m.cfg.World

	if m.cfg.Npcs.ActRate > 0 {
		m.npcActTicks++
		if m.npcActTicks >= m.cfg.Npcs.ActRate {
			m.npcActTicks = 0
			m.actNpcs()
		}
	}

	m.npcRecoverTicks++
	if m.npcRecoverTicks >= w.NpcRecoverRate {
		m.npcRecoverTicks = 0
		m.recoverNpcs()
	}

	m.npcSpawnTicks++
	if m.npcSpawnTicks >= m.cfg.Npcs.RespawnRate {
		m.npcSpawnTicks = 0
		m.respawnDead()
	}

	m.recoverTicks++
	if m.recoverTicks >= w.RecoverRate {
		m.recoverTicks = 0
		m.recoverPlayers()
	}

	m.chestSpawnTicks++
	if m.chestSpawnTicks >= w.ChestSpawnRate {
		m.chestSpawnTicks = 0
		m.respawnChests()
	}

	m.spikeTicks++
	if m.spikeTicks >= w.SpikeRate {
		m.spikeTicks = 0
		m.timedSpikes()
	}

	m.warpSuckTicks++
	if m.warpSuckTicks >= w.WarpSuckRate {
		m.warpSuckTicks = 0
		m.timedWarpSuck()
	}

	m.autoPickupTicks++
	if m.autoPickupTicks >= w.AutoPickupRate {
		m.autoPickupTicks = 0
		m.autoPickup()
	}

	// One-second cadences share the secondTicks counter.
	m.secondTicks++
	if m.secondTicks >= m.ticksPerSecond {
		m.secondTicks = 0
		m.closeDoors()
		m.protectTick()
		m.tickJukebox()
		m.ghostTick()
		m.advanceWedding()
	}
}

// recoverNpcs heals alive NPCs by a tenth of max plus one.
func (m *Map) recoverNpcs() {
	for _, n := range m.npcs {
		if !n.Alive || n.HP >= n.MaxHP {
			continue
		}
		n.HP += n.MaxHP/10 + 1
		if n.HP > n.MaxHP {
			n.HP = n.MaxHP
		}
	}
}

// recoverPlayers regenerates HP/TP for every character via the formula
// engine. Sitting characters regenerate double.
func (m *Map) recoverPlayers() {
	for _, c := range m.characters {
		if c.HP >= c.MaxHP && c.TP >= c.MaxTP {
			continue
		}
		hp := m.formulas.PlayerRegenHP(c.MaxHP)
		tp := m.formulas.PlayerRegenTP(c.MaxTP)
		if c.Sit != character.Standing {
			hp *= 2
			tp *= 2
		}
		c.HP += hp
		if c.HP > c.MaxHP {
			c.HP = c.MaxHP
		}
		c.TP += tp
		if c.TP > c.MaxTP {
			c.TP = c.MaxTP
		}
		m.sendTo(c.PlayerID(), recoverPacket(c))
	}
}

// protectTick decrements ground-item owner protection; expired items go
// public.
func (m *Map) protectTick() {
	for _, it := range m.items {
		if it.ProtectedTicks > 0 {
			it.ProtectedTicks--
			if it.ProtectedTicks == 0 {
				it.OwnerID = 0
			}
		}
	}
}

// ghostTick decrements post-death immunity.
func (m *Map) ghostTick() {
	for _, c := range m.characters {
		if c.GhostTicks > 0 {
			c.GhostTicks--
		}
	}
}

// timedSpikes damages every character standing on a timed-spike tile and
// plays the effect for observers.
func (m *Map) timedSpikes() {
	fired := false
	for _, c := range m.characters {
		spec, ok := m.file.Spec(c.Coords)
		if !ok || spec != pub.SpecTimedSpikes {
			continue
		}
		if !fired {
			for _, at := range m.file.SpecTiles(pub.SpecTimedSpikes) {
				m.sendNear(at, effectPacket(2, at))
			}
			fired = true
		}
		m.spikeHit(c)
	}
}

// timedWarpSuck force-warps characters standing next to a doorless warp
// tile (door ≤ 1) whose level requirement they meet.
func (m *Map) timedWarpSuck() {
	if m.hooks == nil {
		return
	}
	for _, c := range m.characters {
		if c.GhostTicks > 0 {
			continue
		}
		for _, dir := range []character.Direction{character.DirDown, character.DirLeft, character.DirUp, character.DirRight} {
			dx, dy := dir.Offset()
			at := pub.Coords{X: c.Coords.X + dx, Y: c.Coords.Y + dy}
			warp := m.file.Warp(at)
			if warp == nil || warp.Door > 1 {
				continue
			}
			if c.Level < warp.LevelReq {
				continue
			}
			m.sendNear(at, effectPacket(3, at))
			m.hooks.RequestWarp(c.PlayerID(), warp.Map, warp.To, WarpAnimNone)
			break
		}
	}
}

// autoPickup hands each eligible ground item to the nearest character that
// wants it. Distance ties break by ascending player id.
func (m *Map) autoPickup() {
	// Stable id order so equal distances resolve deterministically.
	ids := make([]int, 0, len(m.characters))
	for pid := range m.characters {
		ids = append(ids, pid)
	}
	sort.Ints(ids)

	for _, it := range m.items {
		var winner *character.Character
		bestDist := -1
		for _, pid := range ids {
			c := m.characters[pid]
			if !c.WantsPickup(it.ID) {
				continue
			}
			if it.ProtectedTicks > 0 && it.OwnerID != pid {
				continue
			}
			d := character.Distance(c.Coords, it.Coords)
			if d > m.cfg.World.DropDistance {
				continue
			}
			if bestDist < 0 || d < bestDist {
				winner, bestDist = c, d
			}
		}
		if winner != nil {
			m.pickup(winner, it)
		}
	}
}
