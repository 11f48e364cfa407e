package gamemap

// Outbound packet payloads. Builders keep wire layout in one place so the
// command files stay readable; anything fanned out to more than a couple of
// observers goes through sendBufNear with the pre-built bytes.

import (
	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
)

// addCharacterInfo appends the full appearance block for one character.
func addCharacterInfo(w *protocol.Writer, c *character.Character) {
	w.AddBreakString(c.Name)
	w.AddShort(c.PlayerID())
	w.AddShort(c.MapID)
	w.AddShort(c.Coords.X)
	w.AddShort(c.Coords.Y)
	w.AddChar(int(c.Direction))
	w.AddChar(6) // appearance block marker expected by the client
	w.AddString(padGuildTag(c.GuildTag))
	w.AddChar(c.Level)
	w.AddChar(int(c.Gender))
	w.AddChar(c.HairStyle)
	w.AddChar(c.HairColor)
	w.AddChar(c.Skin)
	w.AddShort(c.MaxHP)
	w.AddShort(c.HP)
	w.AddShort(c.MaxTP)
	w.AddShort(c.TP)
	// Visible paperdoll graphics only.
	for _, slot := range []int{character.EquipBoots, character.EquipArmor, character.EquipHat, character.EquipShield, character.EquipWeapon} {
		w.AddShort(c.Paperdoll[slot])
	}
	w.AddChar(int(c.Sit))
	w.AddChar(boolChar(c.Hidden))
	w.AddBreak()
}

func padGuildTag(tag string) string {
	for len(tag) < 3 {
		tag += " "
	}
	return tag
}

func boolChar(b bool) int {
	if b {
		return 1
	}
	return 0
}

// playerEnterPacket announces a character appearing to observers.
func playerEnterPacket(c *character.Character, anim WarpAnimation) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionAgree, protocol.FamilyPlayers)
	w.AddChar(int(anim))
	addCharacterInfo(w, c)
	return w
}

// playerLeavePacket announces a character vanishing.
func playerLeavePacket(playerID int, anim WarpAnimation) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionRemove, protocol.FamilyAvatar)
	w.AddShort(playerID)
	w.AddChar(int(anim))
	return w
}

func walkPacket(c *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionPlayer, protocol.FamilyWalk)
	w.AddShort(c.PlayerID())
	w.AddChar(int(c.Direction))
	w.AddChar(c.Coords.X)
	w.AddChar(c.Coords.Y)
	return w
}

func facePacket(playerID int, dir character.Direction) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionPlayer, protocol.FamilyFace)
	w.AddShort(playerID)
	w.AddChar(int(dir))
	return w
}

func sitPacket(c *character.Character) *protocol.Writer {
	family := protocol.FamilySit
	if c.Sit == character.SitChair {
		family = protocol.FamilyChair
	}
	w := protocol.NewWriter(protocol.ActionPlayer, family)
	w.AddShort(c.PlayerID())
	w.AddChar(c.Coords.X)
	w.AddChar(c.Coords.Y)
	w.AddChar(int(c.Direction))
	w.AddChar(0)
	return w
}

func standPacket(c *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionRemove, protocol.FamilySit)
	w.AddShort(c.PlayerID())
	w.AddChar(c.Coords.X)
	w.AddChar(c.Coords.Y)
	return w
}

func emotePacket(playerID, emote int) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionPlayer, protocol.FamilyEmote)
	w.AddShort(playerID)
	w.AddChar(emote)
	return w
}

func talkPacket(playerID int, message string) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionPlayer, protocol.FamilyTalk)
	w.AddShort(playerID)
	w.AddString(message)
	return w
}

func attackPacket(playerID int, dir character.Direction) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionPlayer, protocol.FamilyAttack)
	w.AddShort(playerID)
	w.AddChar(int(dir))
	return w
}

// avatarDamagePacket shows damage done to a character.
func avatarDamagePacket(c *character.Character, amount int) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyAvatar)
	w.AddShort(c.PlayerID())
	w.AddThree(amount)
	w.AddChar(int(c.Direction))
	w.AddChar(hpPercent(c.HP, c.MaxHP))
	w.AddChar(boolChar(c.HP == 0))
	return w
}

func hpPercent(hp, maxHP int) int {
	if maxHP <= 0 {
		return 0
	}
	return hp * 100 / maxHP
}

// itemAddPacket announces a new ground item.
func itemAddPacket(it *GroundItem) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionAdd, protocol.FamilyItem)
	w.AddShort(it.ID)
	w.AddShort(it.Index)
	w.AddThree(it.Amount)
	w.AddChar(it.Coords.X)
	w.AddChar(it.Coords.Y)
	return w
}

// itemRemovePacket clears a ground item from clients.
func itemRemovePacket(index int) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionRemove, protocol.FamilyItem)
	w.AddShort(index)
	return w
}

func doorOpenPacket(coords pub.Coords) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionOpen, protocol.FamilyDoor)
	w.AddChar(coords.X)
	w.AddShort(coords.Y)
	return w
}

// --- NPC payloads ---

func addNpcInfo(w *protocol.Writer, n *NPC) {
	w.AddChar(n.Index)
	w.AddShort(n.ID)
	w.AddChar(n.Coords.X)
	w.AddChar(n.Coords.Y)
	w.AddChar(int(n.Direction))
}

func npcAppearPacket(n *NPC) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionAgree, protocol.FamilyNPC)
	addNpcInfo(w, n)
	return w
}

func npcWalkPacket(n *NPC) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionPlayer, protocol.FamilyNPC)
	w.AddChar(n.Index)
	w.AddChar(n.Coords.X)
	w.AddChar(n.Coords.Y)
	w.AddChar(int(n.Direction))
	return w
}

func npcAttackPacket(n *NPC, target *character.Character, amount int) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionPlayer, protocol.FamilyNPC)
	w.AddChar(n.Index)
	w.AddChar(boolChar(target.HP == 0))
	w.AddChar(int(n.Direction))
	w.AddShort(target.PlayerID())
	w.AddThree(amount)
	w.AddChar(hpPercent(target.HP, target.MaxHP))
	return w
}

func npcTalkPacket(n *NPC, message string) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionPlayer, protocol.FamilyNPC)
	w.AddChar(n.Index)
	w.AddChar(len(message))
	w.AddString(message)
	return w
}

// npcDamagePacket shows a player strike landing on an NPC.
func npcDamagePacket(attackerID int, dir character.Direction, n *NPC, amount int) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyNPC)
	w.AddShort(attackerID)
	w.AddChar(int(dir))
	w.AddShort(n.Index)
	w.AddThree(amount)
	w.AddChar(hpPercent(n.HP, n.MaxHP))
	return w
}

// npcDeathPacket announces a kill plus the loot drop, if any.
func npcDeathPacket(killerID int, dir character.Direction, n *NPC, drop *GroundItem) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionSpec, protocol.FamilyNPC)
	w.AddShort(killerID)
	w.AddChar(int(dir))
	w.AddShort(n.Index)
	if drop != nil {
		w.AddShort(drop.Index)
		w.AddShort(drop.ID)
		w.AddChar(drop.Coords.X)
		w.AddChar(drop.Coords.Y)
		w.AddThree(drop.Amount)
	} else {
		w.AddShort(0)
		w.AddShort(0)
		w.AddChar(0)
		w.AddChar(0)
		w.AddThree(0)
	}
	return w
}

// recoverPacket carries a character's own HP/TP update.
func recoverPacket(c *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionPlayer, protocol.FamilyRecover)
	w.AddShort(c.HP)
	w.AddShort(c.TP)
	w.AddShort(c.SP)
	return w
}

// expPacket carries an experience award and the post-award totals.
func expPacket(c *character.Character, gained int, leveled bool) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionServer, protocol.FamilyRecover)
	w.AddInt(c.Exp)
	w.AddThree(gained)
	w.AddChar(boolChar(leveled))
	if leveled {
		w.AddChar(c.Level)
		w.AddShort(c.StatPoints)
		w.AddShort(c.SkillPoints)
		w.AddShort(c.MaxHP)
		w.AddShort(c.MaxTP)
		w.AddShort(c.MaxSP)
	}
	return w
}

// effectPacket plays a tile effect (spikes, warp suck).
func effectPacket(kind int, coords pub.Coords) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionAgree, protocol.FamilyEffect)
	w.AddChar(coords.X)
	w.AddChar(coords.Y)
	w.AddChar(kind)
	return w
}

// --- range snapshots ---

// nearbyPacket is the full in-range snapshot for one observer.
func (m *Map) nearbyPacket(observer *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyRange)

	chars := make([]*character.Character, 0, 8)
	for _, c := range m.characters {
		if c.Hidden && c.PlayerID() != observer.PlayerID() {
			continue
		}
		if character.InRange(observer.Coords, c.Coords) {
			chars = append(chars, c)
		}
	}
	w.AddChar(len(chars))
	w.AddBreak()
	for _, c := range chars {
		addCharacterInfo(w, c)
	}

	for _, n := range m.npcs {
		if n.Alive && character.InRange(observer.Coords, n.Coords) {
			addNpcInfo(w, n)
		}
	}
	w.AddBreak()

	for _, it := range m.items {
		if character.InRange(observer.Coords, it.Coords) {
			w.AddShort(it.Index)
			w.AddShort(it.ID)
			w.AddChar(it.Coords.X)
			w.AddChar(it.Coords.Y)
			w.AddThree(it.Amount)
		}
	}
	return w
}

// nearbyPlayersPacket lists only the in-range characters.
func (m *Map) nearbyPlayersPacket(observer *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyPlayerRange)
	count := 0
	for _, c := range m.characters {
		if c.Hidden && c.PlayerID() != observer.PlayerID() {
			continue
		}
		if character.InRange(observer.Coords, c.Coords) {
			count++
		}
	}
	w.AddChar(count)
	w.AddBreak()
	for _, c := range m.characters {
		if c.Hidden && c.PlayerID() != observer.PlayerID() {
			continue
		}
		if character.InRange(observer.Coords, c.Coords) {
			addCharacterInfo(w, c)
		}
	}
	return w
}

// nearbyNpcsPacket lists only the in-range NPCs.
func (m *Map) nearbyNpcsPacket(observer *character.Character) *protocol.Writer {
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyNPCRange)
	for _, n := range m.npcs {
		if n.Alive && character.InRange(observer.Coords, n.Coords) {
			addNpcInfo(w, n)
		}
	}
	return w
}
