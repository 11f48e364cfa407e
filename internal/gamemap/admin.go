package gamemap

import (
	"github.com/telgard/server/internal/character"
)

// SnapshotCharacters deep-copies every character on the map for the save
// worker. The copies are detached; the actor keeps mutating the originals.
func (m *Map) SnapshotCharacters() ([]*character.Character, error) {
	return request(m, func(mm *Map) []*character.Character {
		out := make([]*character.Character, 0, len(mm.characters))
		for _, c := range mm.characters {
			out = append(out, c.Clone())
		}
		return out
	})
}

// SetHidden toggles admin invisibility. Hiding removes the character from
// observers; unhiding re-announces it.
func (m *Map) SetHidden(playerID int, hidden bool) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || c.Hidden == hidden {
			return
		}
		if hidden {
			mm.broadcastLeave(c, WarpAnimNone)
			c.Hidden = true
			return
		}
		c.Hidden = false
		mm.sendNearPlayer(playerID, playerEnterPacket(c, WarpAnimAdmin))
	})
}

// SendToAll fan-outs a pre-built packet to every character on the map.
func (m *Map) SendToAll(buf []byte) {
	m.post(func(mm *Map) {
		for _, c := range mm.characters {
			if c.Conn != nil {
				c.Conn.SendBuf(buf)
			}
		}
	})
}
