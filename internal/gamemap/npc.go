package gamemap

import (
	"math/rand"

	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/pub"
	"go.uber.org/zap"
)

// boredTicksMax is how many act ticks an opponent stays on the hate list
// without dealing damage before being forgotten.
const boredTicksMax = 30

// Opponent is one attacker on an NPC's hate list, used for targeting and
// for exp/loot attribution by damage share.
type Opponent struct {
	PlayerID   int
	Damage     int
	BoredTicks int
}

// NPC is one live NPC instance on a map.
type NPC struct {
	Index     int
	ID        int
	Data      *pub.NpcRecord
	SpawnSlot int // index into the file's spawn table, -1 for summoned

	Coords    pub.Coords
	Direction character.Direction

	Alive bool
	HP    int
	MaxHP int

	DeadTicks   int // ticks since death, for respawn cooldown
	WalkTicks   int
	AttackTicks int

	Opponents map[int]*Opponent
}

// TotalDamage sums all opponent damage for exp-share math.
func (n *NPC) TotalDamage() int {
	total := 0
	for _, o := range n.Opponents {
		total += o.Damage
	}
	return total
}

func (n *NPC) recordDamage(playerID, amount int) {
	o, ok := n.Opponents[playerID]
	if !ok {
		o = &Opponent{PlayerID: playerID}
		n.Opponents[playerID] = o
	}
	o.Damage += amount
	o.BoredTicks = 0
}

func (m *Map) spawnAllNpcs() {
	for slot, row := range m.file.Npcs {
		rec := m.tables.Npc(row.ID)
		if rec == nil {
			m.log.Warn("NPC 目錄缺少紀錄", zap.Int("npc", row.ID))
			continue
		}
		for i := 0; i < row.Amount; i++ {
			m.spawnNpc(slot, row, rec)
		}
	}
}

func (m *Map) spawnNpc(slot int, row pub.NpcSpawn, rec *pub.NpcRecord) *NPC {
	coords := m.spawnCoords(row.Coords)
	n := &NPC{
		Index:     allocIndex(m.npcs),
		ID:        rec.ID,
		Data:      rec,
		SpawnSlot: slot,
		Coords:    coords,
		Direction: character.Direction(rand.Intn(4)),
		Alive:     true,
		HP:        rec.HP,
		MaxHP:     rec.HP,
		Opponents: make(map[int]*Opponent),
	}
	m.npcs[n.Index] = n
	return n
}

// spawnCoords jitters the spawn point to a nearby walkable free tile so
// stacked spawn rows fan out.
func (m *Map) spawnCoords(at pub.Coords) pub.Coords {
	for attempt := 0; attempt < 8; attempt++ {
		c := pub.Coords{
			X: at.X + rand.Intn(5) - 2,
			Y: at.Y + rand.Intn(5) - 2,
		}
		if m.file.Walkable(c) && !m.occupied(c) {
			return c
		}
	}
	return at
}

// respawnDead refills dead spawn slots whose cooldown has elapsed. The
// cadence only fires every respawn_rate base ticks, so dead counters advance
// by that step to stay in base-tick units.
func (m *Map) respawnDead() {
	step := m.cfg.Npcs.RespawnRate
	if step < 1 {
		step = 1
	}
	for idx, n := range m.npcs {
		if n.Alive {
			continue
		}
		n.DeadTicks += step
		if n.SpawnSlot < 0 {
			// Summoned NPCs do not respawn.
			if n.DeadTicks > m.ticksPerSecond*5 {
				delete(m.npcs, idx)
			}
			continue
		}
		row := m.file.Npcs[n.SpawnSlot]
		cooldownTicks := row.RespawnSecs * m.ticksPerSecond
		if n.DeadTicks < cooldownTicks {
			continue
		}
		delete(m.npcs, idx)
		if rec := m.tables.Npc(row.ID); rec != nil {
			fresh := m.spawnNpc(n.SpawnSlot, row, rec)
			m.sendNear(fresh.Coords, npcAppearPacket(fresh))
		}
	}
}

// actNpcs runs one AI decision per alive NPC.
func (m *Map) actNpcs() {
	for _, n := range m.npcs {
		if !n.Alive {
			continue
		}
		m.actNpc(n)
	}
}

func (m *Map) actNpc(n *NPC) {
	m.forgetBoredOpponents(n)

	switch n.Data.Type {
	case pub.NpcAggressive, pub.NpcPassive:
		if target := m.npcTarget(n); target != nil {
			m.npcEngage(n, target)
			return
		}
	}

	m.npcIdle(n)
}

func (m *Map) forgetBoredOpponents(n *NPC) {
	for pid, o := range n.Opponents {
		o.BoredTicks++
		c, here := m.characters[pid]
		if o.BoredTicks > boredTicksMax || !here || c.Hidden {
			delete(n.Opponents, pid)
		}
	}
}

// npcTarget picks the character to chase: the top-damage opponent still in
// range, else for aggressive NPCs the nearest visible character.
func (m *Map) npcTarget(n *NPC) *character.Character {
	var best *character.Character
	bestDamage := -1
	for pid, o := range n.Opponents {
		c, ok := m.characters[pid]
		if !ok || c.Hidden || c.HP <= 0 {
			continue
		}
		if !character.InRange(n.Coords, c.Coords) {
			continue
		}
		if o.Damage > bestDamage {
			best, bestDamage = c, o.Damage
		}
	}
	if best != nil || n.Data.Type != pub.NpcAggressive {
		return best
	}

	bestDist := -1
	for _, c := range m.characters {
		if c.Hidden || c.HP <= 0 || c.Admin >= character.AdminLight {
			continue
		}
		if !character.InRange(n.Coords, c.Coords) {
			continue
		}
		d := character.Distance(n.Coords, c.Coords)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func (m *Map) npcEngage(n *NPC, target *character.Character) {
	if character.Distance(n.Coords, target.Coords) == 1 {
		m.npcAttack(n, target)
		return
	}
	m.npcStepToward(n, target.Coords)
}

func (m *Map) npcAttack(n *NPC, target *character.Character) {
	n.AttackTicks++
	if n.AttackTicks < 2 {
		return
	}
	n.AttackTicks = 0
	n.Direction = directionToward(n.Coords, target.Coords)

	amount := m.formulas.Damage(damageContextFor(
		n.Data.MinDam, n.Data.MaxDam, n.Data.Accuracy,
		target.Armor, target.Evade, false))
	target.HP -= amount
	if target.HP < 0 {
		target.HP = 0
	}

	m.sendNear(n.Coords, npcAttackPacket(n, target, amount))
	if target.HP == 0 {
		m.killCharacter(target)
	}
}

// killCharacter sends the character home and restores a sliver of HP. The
// ghost window keeps NPCs off it while the client relocates.
func (m *Map) killCharacter(c *character.Character) {
	c.HP = c.MaxHP / 10
	if c.HP < 1 {
		c.HP = 1
	}
	c.GhostTicks = 4
	for _, n := range m.npcs {
		delete(n.Opponents, c.PlayerID())
	}
	m.requestHomeWarp(c)
}

func (m *Map) npcStepToward(n *NPC, target pub.Coords) {
	n.WalkTicks++
	if n.WalkTicks < 2 {
		return
	}
	n.WalkTicks = 0
	dir := directionToward(n.Coords, target)
	m.npcStep(n, dir)
}

func (m *Map) npcIdle(n *NPC) {
	if talk := m.tables.Talk[n.ID]; talk != nil && len(talk.Messages) > 0 {
		if rand.Intn(100) < talk.Rate {
			msg := talk.Messages[rand.Intn(len(talk.Messages))]
			m.sendNear(n.Coords, npcTalkPacket(n, msg))
		}
	}

	n.WalkTicks++
	if n.WalkTicks < 4 {
		return
	}
	n.WalkTicks = 0
	if rand.Intn(3) != 0 {
		return
	}
	m.npcStep(n, character.Direction(rand.Intn(4)))
}

func (m *Map) npcStep(n *NPC, dir character.Direction) {
	n.Direction = dir
	dx, dy := dir.Offset()
	next := pub.Coords{X: n.Coords.X + dx, Y: n.Coords.Y + dy}
	if !m.npcWalkable(next) || m.occupied(next) {
		return
	}
	// Stay leashed to the spawn point.
	if n.SpawnSlot >= 0 {
		home := m.file.Npcs[n.SpawnSlot].Coords
		if character.Distance(next, home) > 10 {
			return
		}
	}
	n.Coords = next
	m.sendNear(n.Coords, npcWalkPacket(n))
}

// npcWalkable is the character walkability test plus the NPC boundary tile.
func (m *Map) npcWalkable(c pub.Coords) bool {
	if !m.file.Walkable(c) {
		return false
	}
	if s, ok := m.file.Spec(c); ok && s == pub.SpecNPCBoundary {
		return false
	}
	// NPCs never wander onto warp tiles.
	return m.file.Warp(c) == nil
}

func directionToward(from, to pub.Coords) character.Direction {
	dx := to.X - from.X
	dy := to.Y - from.Y
	adx, ady := dx, dy
	if adx < 0 {
		adx = -adx
	}
	if ady < 0 {
		ady = -ady
	}
	if adx > ady {
		if dx > 0 {
			return character.DirRight
		}
		return character.DirLeft
	}
	if dy > 0 {
		return character.DirDown
	}
	return character.DirUp
}
