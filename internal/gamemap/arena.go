package gamemap

import (
	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
)

// EnqueueArena queues a character that stepped onto an arena launch tile.
// When two fighters are waiting the duel launches: both are moved to the
// map's relog point a few tiles apart and announced to the whole map.
func (m *Map) enqueueArena(c *character.Character) {
	for _, pid := range m.arenaQueue {
		if pid == c.PlayerID() {
			return
		}
	}
	m.arenaQueue = append(m.arenaQueue, c.PlayerID())
	if len(m.arenaQueue) < 2 {
		return
	}

	a := m.get(m.arenaQueue[0])
	b := m.get(m.arenaQueue[1])
	m.arenaQueue = m.arenaQueue[2:]
	if a == nil || b == nil {
		return
	}

	at := m.file.RelogAt
	m.placeFighter(a, pub.Coords{X: at.X - 1, Y: at.Y})
	m.placeFighter(b, pub.Coords{X: at.X + 1, Y: at.Y})

	buf := arenaLaunchPacket(a, b).Bytes()
	for _, other := range m.characters {
		if other.Conn != nil {
			other.Conn.SendBuf(buf)
		}
	}
}

func (m *Map) placeFighter(c *character.Character, to pub.Coords) {
	if !m.file.Walkable(to) {
		to = m.file.RelogAt
	}
	m.broadcastLeave(c, WarpAnimNone)
	c.Coords = to
	c.HP = c.MaxHP
	m.broadcastEnter(c, WarpAnimAdmin)
}

func arenaLaunchPacket(a, b *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionUse, protocol.FamilyArena)
	w.AddShort(a.PlayerID())
	w.AddBreakString(a.Name)
	w.AddShort(b.PlayerID())
	w.AddBreakString(b.Name)
	return w
}
