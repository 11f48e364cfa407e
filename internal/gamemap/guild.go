package gamemap

import "github.com/telgard/server/internal/character"

// ChargeGold removes gold from the character if it holds enough. Guild fees
// and other world-level costs go through here so the inventory mutation
// stays on the owning map actor.
func (m *Map) ChargeGold(playerID, amount int) (bool, error) {
	return request(m, func(mm *Map) bool {
		c := mm.get(playerID)
		if c == nil || c.Gold() < amount {
			return false
		}
		c.RemoveItem(character.GoldItemID, amount)
		return true
	})
}

// SetGuild stamps the character's guild identity and refreshes its tag for
// everyone nearby. Empty tag clears membership.
func (m *Map) SetGuild(playerID int, tag, name, rankStr string, rank int) {
	m.post(func(mm *Map) {
		c := mm.get(playerID)
		if c == nil {
			return
		}
		c.GuildTag = tag
		c.GuildName = name
		c.GuildRankStr = rankStr
		c.GuildRank = rank
		if !c.Hidden {
			mm.sendNearPlayer(c.PlayerID(), playerEnterPacket(c, WarpAnimNone))
		}
	})
}
