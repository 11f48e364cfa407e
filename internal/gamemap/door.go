package gamemap

import (
	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/pub"
)

// OpenDoor opens the door at coords. A key of 0 or 1 opens freely; above 1
// the opener must carry a key item whose first spec matches.
func (m *Map) OpenDoor(playerID int, coords pub.Coords) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		d := mm.doors[coords]
		if c == nil || d == nil || d.Open {
			return
		}
		if !character.InClientRange(c.Coords, coords) {
			return
		}
		if d.Key > 1 && !mm.hasKey(c, d.Key) {
			return
		}
		d.Open = true
		d.OpenTicks = 0
		mm.sendNear(coords, doorOpenPacket(coords))
	})
}

func (m *Map) hasKey(c *character.Character, key int) bool {
	for _, it := range c.Items {
		rec := m.tables.Item(it.ID)
		if rec != nil && rec.Type == pub.ItemKey && rec.Spec1 == key {
			return true
		}
	}
	return false
}

// closeDoors advances open doors one second and silently closes any that
// reach the close threshold. Auto-close sends no broadcast; clients close
// doors on their own timer.
func (m *Map) closeDoors() {
	for _, d := range m.doors {
		if !d.Open {
			continue
		}
		d.OpenTicks++
		if d.OpenTicks >= m.cfg.Map.DoorCloseRate {
			d.Open = false
			d.OpenTicks = 0
		}
	}
}
