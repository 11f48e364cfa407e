package gamemap

import (
	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
)

// jukeboxPlaySecs is how long a purchased track locks the jukebox.
const jukeboxPlaySecs = 90

// jukeboxCost is the gold price per track.
const jukeboxCost = 25

// OpenJukebox opens the track list at an adjacent jukebox tile. The reply
// names whoever currently holds the box, if anyone.
func (m *Map) OpenJukebox(playerID int, coords pub.Coords) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil {
			return
		}
		if s, ok := mm.file.Spec(coords); !ok || s != pub.SpecJukebox {
			return
		}
		if character.Distance(c.Coords, coords) > 1 {
			return
		}
		mm.sendTo(playerID, jukeboxOpenPacket(coords, mm.jukeboxPlayer))
	})
}

// PlayJukebox buys a track. The client sends track+1; while a track is
// already playing new requests are rejected.
func (m *Map) PlayJukebox(playerID, trackPlusOne int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil || trackPlusOne < 1 {
			return
		}
		if mm.jukeboxTicks > 0 {
			mm.sendTo(playerID, jukeboxBusyPacket())
			return
		}
		if c.Gold() < jukeboxCost {
			return
		}
		c.RemoveItem(character.GoldItemID, jukeboxCost)
		mm.jukeboxPlayer = c.Name
		mm.jukeboxTicks = jukeboxPlaySecs

		track := trackPlusOne - 1
		mm.sendTo(playerID, jukeboxAgreePacket(c.Gold()))
		buf := jukeboxPlayPacket(track).Bytes()
		for _, other := range mm.characters {
			if other.Conn != nil {
				other.Conn.SendBuf(buf)
			}
		}
	})
}

// tickJukebox runs the one-second countdown and releases the box at zero.
func (m *Map) tickJukebox() {
	if m.jukeboxTicks <= 0 {
		return
	}
	m.jukeboxTicks--
	if m.jukeboxTicks == 0 {
		m.jukeboxPlayer = ""
	}
}

func jukeboxOpenPacket(coords pub.Coords, owner string) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionOpen, protocol.FamilyJukebox)
	w.AddChar(coords.X)
	w.AddChar(coords.Y)
	w.AddString(owner)
	return w
}

func jukeboxBusyPacket() *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyJukebox)
	w.AddChar(1)
	return w
}

func jukeboxAgreePacket(gold int) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionAgree, protocol.FamilyJukebox)
	w.AddInt(gold)
	return w
}

func jukeboxPlayPacket(track int) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionPlayer, protocol.FamilyJukebox)
	w.AddShort(track)
	return w
}
