package gamemap

import (
	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/protocol"
)

// Trainable base stats, as numbered on the wire.
const (
	statStr = 1
	statInt = 2
	statWis = 3
	statAgi = 4
	statCon = 5
	statCha = 6
)

// AddStatPoint spends one unspent stat point on a base stat and reports the
// recalculated numbers back.
func (m *Map) AddStatPoint(playerID, statID int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || c.StatPoints < 1 {
			return
		}
		switch statID {
		case statStr:
			c.Str++
		case statInt:
			c.Int++
		case statWis:
			c.Wis++
		case statAgi:
			c.Agi++
		case statCon:
			c.Con++
		case statCha:
			c.Cha++
		default:
			return
		}
		c.StatPoints--
		c.CalcStats(mm.tables)
		mm.sendTo(playerID, statPointPacket(c))
	})
}

func statPointPacket(c *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionPlayer, protocol.FamilyStatSkill)
	w.AddShort(c.StatPoints)
	w.AddShort(c.AdjStr)
	w.AddShort(c.AdjInt)
	w.AddShort(c.AdjWis)
	w.AddShort(c.AdjAgi)
	w.AddShort(c.AdjCon)
	w.AddShort(c.AdjCha)
	w.AddShort(c.MaxHP)
	w.AddShort(c.MaxTP)
	w.AddShort(c.MaxSP)
	w.AddShort(c.MaxWeight)
	w.AddShort(c.MinDam)
	w.AddShort(c.MaxDam)
	w.AddShort(c.Accuracy)
	w.AddShort(c.Evade)
	w.AddShort(c.Armor)
	return w
}
