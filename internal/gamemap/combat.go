package gamemap

import (
	"math/rand"

	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/pub"
)

// Attack swings at the tile in front of the attacker. timestamp feeds the
// same anti-speed gate as walking.
func (m *Map) Attack(playerID int, dir character.Direction, timestamp int64) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || c.Sit != character.Standing || c.GhostTicks > 0 {
			return
		}
		if interval := mm.cfg.RateLimit.AttackInterval.Milliseconds(); mm.cfg.RateLimit.Enabled &&
			timestamp-c.LastWalk < interval {
			return
		}
		c.LastWalk = timestamp
		c.Direction = dir
		if !c.Hidden {
			mm.sendNearPlayer(playerID, attackPacket(playerID, dir))
		}

		dx, dy := dir.Offset()
		target := pub.Coords{X: c.Coords.X + dx, Y: c.Coords.Y + dy}
		for _, n := range mm.npcs {
			if n.Alive && n.Coords == target {
				mm.strikeNpc(c, n)
				return
			}
		}
		if mm.file.PK {
			for _, victim := range mm.characters {
				if victim.PlayerID() != playerID && victim.Coords == target && !victim.Hidden {
					mm.strikeCharacter(c, victim)
					return
				}
			}
		}
	})
}

func (m *Map) strikeNpc(attacker *character.Character, n *NPC) {
	if n.Data.Type == pub.NpcFriendly || n.Data.Type >= pub.NpcShop {
		return
	}
	// Target unaware when facing away from the attacker.
	critical := n.Direction == attacker.Direction
	amount := m.formulas.Damage(damageContextFor(
		attacker.MinDam, attacker.MaxDam, attacker.Accuracy,
		n.Data.Armor, n.Data.Evade, critical))

	n.HP -= amount
	if n.HP < 0 {
		n.HP = 0
	}
	if amount > 0 {
		n.recordDamage(attacker.PlayerID(), amount)
	}

	if n.HP > 0 {
		m.sendNear(n.Coords, npcDamagePacket(attacker.PlayerID(), attacker.Direction, n, amount))
		return
	}
	m.npcDie(n, attacker)
}

// npcDie drops loot, pays experience by damage share and schedules respawn.
func (m *Map) npcDie(n *NPC, killer *character.Character) {
	n.Alive = false
	n.DeadTicks = 0

	drop := m.rollDrop(n, killer)
	m.sendNear(n.Coords, npcDeathPacket(killer.PlayerID(), killer.Direction, n, drop))

	total := n.TotalDamage()
	if total <= 0 {
		n.Opponents = make(map[int]*Opponent)
		return
	}
	baseExp := int(float64(n.Data.Exp) * m.cfg.World.ExpMultiplier)
	for pid, o := range n.Opponents {
		c := m.characters[pid]
		if c == nil {
			continue
		}
		share := baseExp * o.Damage / total
		if share < 1 {
			share = 1
		}
		m.awardExp(c, share)
	}
	n.Opponents = make(map[int]*Opponent)
}

func (m *Map) rollDrop(n *NPC, killer *character.Character) *GroundItem {
	drops := m.tables.Drops[n.ID]
	if len(drops) == 0 {
		return nil
	}
	roll := rand.Intn(1_000_000)
	acc := 0
	for _, d := range drops {
		acc += d.Chance
		if roll >= acc {
			continue
		}
		amount := d.Min
		if span := d.Max - d.Min; span > 0 {
			amount += rand.Intn(span + 1)
		}
		if amount <= 0 {
			return nil
		}
		return m.spawnItem(d.ItemID, amount, n.Coords, killer.PlayerID())
	}
	return nil
}

// awardExp pays experience and processes any level-ups.
func (m *Map) awardExp(c *character.Character, amount int) {
	c.Exp += amount
	leveled := false
	for c.Exp >= m.formulas.ExpForLevel(c.Level+1) {
		c.Level++
		c.StatPoints += 3
		c.SkillPoints++
		leveled = true
	}
	if leveled {
		c.CalcStats(m.tables)
		c.HP = c.MaxHP
		c.TP = c.MaxTP
		m.sendNearPlayer(c.PlayerID(), emotePacket(c.PlayerID(), emoteLevelUp))
	}
	m.sendTo(c.PlayerID(), expPacket(c, amount, leveled))
}

// emoteLevelUp is the client's level-up flourish.
const emoteLevelUp = 15

func (m *Map) strikeCharacter(attacker, victim *character.Character) {
	if victim.GhostTicks > 0 {
		return
	}
	critical := victim.Direction == attacker.Direction || victim.Sit != character.Standing
	amount := m.formulas.Damage(damageContextFor(
		attacker.MinDam, attacker.MaxDam, attacker.Accuracy,
		victim.Armor, victim.Evade, critical))
	victim.HP -= amount
	if victim.HP < 0 {
		victim.HP = 0
	}
	m.sendNear(victim.Coords, avatarDamagePacket(victim, amount))
	m.sendTo(victim.PlayerID(), recoverPacket(victim))
	if victim.HP == 0 {
		m.killCharacter(victim)
	}
}
