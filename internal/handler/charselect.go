package handler

import (
	"math/rand"
	"strings"

	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
	"go.uber.org/zap"
)

const (
	characterReplyExists    = 1
	characterReplyNotApproved = 4
	characterReplyOK        = 5
	characterReplyDeleted   = 6
	maxCharsPerAccount      = 3
)

func (d *Deps) registerCharacter(reg *protocol.Registry) {
	states := []protocol.SessionState{protocol.StateLoggedIn}
	reg.Register(protocol.FamilyCharacter, protocol.ActionRequest, states, d.handleCharacterRequest)
	reg.Register(protocol.FamilyCharacter, protocol.ActionCreate, states, d.handleCharacterCreate)
	reg.Register(protocol.FamilyCharacter, protocol.ActionTake, states, d.handleCharacterTake)
	reg.Register(protocol.FamilyCharacter, protocol.ActionRemove, states, d.handleCharacterRemove)
}

func validCharacterName(name string) bool {
	if len(name) < 4 || len(name) > 12 {
		return false
	}
	for _, c := range name {
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// handleCharacterRequest approves or rejects a proposed name and hands the
// client a session id for the follow-up create packet.
func (d *Deps) handleCharacterRequest(sess any, r *protocol.Reader) {
	p := asPlayer(sess)
	if p == nil {
		return
	}
	name := strings.ToLower(r.GetString())

	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyCharacter)
	if len(p.Chars) >= maxCharsPerAccount || !validCharacterName(name) {
		w.AddShort(characterReplyNotApproved)
		w.AddBreakString("NO")
		p.Send(w)
		return
	}

	ctx, cancel := d.dbCtx()
	defer cancel()
	taken, err := d.Characters.NameTaken(ctx, name)
	if err != nil || taken {
		w.AddShort(characterReplyExists)
		w.AddBreakString("NO")
		p.Send(w)
		return
	}

	p.SessionID = 1 + rand.Intn(64000)
	w.AddShort(p.SessionID)
	w.AddBreakString("OK")
	p.Send(w)
}

func (d *Deps) handleCharacterCreate(sess any, r *protocol.Reader) {
	p := asPlayer(sess)
	if p == nil {
		return
	}
	sessionID := r.GetShort()
	gender := r.GetShort()
	hairStyle := r.GetShort()
	hairColor := r.GetShort()
	skin := r.GetShort()
	r.SetChunked(true)
	r.NextChunk()
	name := strings.ToLower(r.GetString())

	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyCharacter)
	if sessionID != p.SessionID || p.SessionID == 0 ||
		len(p.Chars) >= maxCharsPerAccount || !validCharacterName(name) ||
		gender > 1 {
		w.AddShort(characterReplyNotApproved)
		w.AddBreakString("NO")
		p.Send(w)
		return
	}
	p.SessionID = 0

	ctx, cancel := d.dbCtx()
	defer cancel()
	if taken, err := d.Characters.NameTaken(ctx, name); err != nil || taken {
		w.AddShort(characterReplyExists)
		w.AddBreakString("NO")
		p.Send(w)
		return
	}

	c := d.newCharacter(p.Account, name, gender, hairStyle, hairColor, skin)
	id, err := d.Characters.Create(ctx, c)
	if err != nil {
		d.Log.Error("角色建立失敗", zap.String("name", name), zap.Error(err))
		w.AddShort(characterReplyNotApproved)
		w.AddBreakString("NO")
		p.Send(w)
		return
	}
	c.ID = id
	p.Chars = append(p.Chars, c)
	d.Log.Info("角色已建立", zap.String("name", name), zap.Int("account", p.Account))

	w.AddShort(characterReplyOK)
	d.addCharacterRoster(w, p.Chars)
	p.Send(w)
}

// newCharacter builds a level-0 character at the configured spawn point
// with the newbie defaults from the class table.
func (d *Deps) newCharacter(accountID int, name string, gender, hairStyle, hairColor, skin int) *character.Character {
	c := &character.Character{
		AccountID: accountID,
		Name:      name,
		Gender:    character.Gender(gender),
		HairStyle: hairStyle,
		HairColor: hairColor,
		Skin:      skin,
		MapID:     d.Cfg.World.StartMap,
		Coords:    pub.Coords{X: d.Cfg.World.StartX, Y: d.Cfg.World.StartY},
		HomeMap:   d.Cfg.World.StartMap,
		Home:      "Wanderer",
	}
	c.HomeCoords = c.Coords
	c.InteractNpcIndex = -1
	c.CalcStats(d.Tables)
	c.HP = c.MaxHP
	c.TP = c.MaxTP
	return c
}

// handleCharacterTake opens the delete confirmation dialog.
func (d *Deps) handleCharacterTake(sess any, r *protocol.Reader) {
	p := asPlayer(sess)
	if p == nil {
		return
	}
	charID := r.GetInt()
	if d.rosterIndex(p.Chars, charID) < 0 {
		return
	}
	p.SessionID = 1 + rand.Intn(64000)
	w := protocol.NewWriter(protocol.ActionPlayer, protocol.FamilyCharacter)
	w.AddShort(p.SessionID)
	w.AddInt(charID)
	p.Send(w)
}

func (d *Deps) handleCharacterRemove(sess any, r *protocol.Reader) {
	p := asPlayer(sess)
	if p == nil {
		return
	}
	sessionID := r.GetShort()
	charID := r.GetInt()
	idx := d.rosterIndex(p.Chars, charID)
	if sessionID != p.SessionID || p.SessionID == 0 || idx < 0 {
		return
	}
	p.SessionID = 0

	ctx, cancel := d.dbCtx()
	defer cancel()
	if err := d.Characters.Delete(ctx, charID, p.Account); err != nil {
		d.Log.Error("角色刪除失敗", zap.Int("character", charID), zap.Error(err))
		return
	}
	name := p.Chars[idx].Name
	p.Chars = append(p.Chars[:idx], p.Chars[idx+1:]...)
	d.Log.Info("角色已刪除", zap.String("name", name), zap.Int("account", p.Account))

	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyCharacter)
	w.AddShort(characterReplyDeleted)
	d.addCharacterRoster(w, p.Chars)
	p.Send(w)
}

func (d *Deps) rosterIndex(chars []*character.Character, charID int) int {
	for i, c := range chars {
		if c.ID == charID {
			return i
		}
	}
	return -1
}

// addCharacterRoster appends the select-screen listing shared by the login
// reply and every character CRUD reply.
func (d *Deps) addCharacterRoster(w *protocol.Writer, chars []*character.Character) {
	w.AddChar(len(chars))
	w.AddBreak()
	for _, c := range chars {
		w.AddBreakString(c.Name)
		w.AddInt(c.ID)
		w.AddChar(c.Level)
		w.AddChar(int(c.Gender))
		w.AddChar(c.HairStyle)
		w.AddChar(c.HairColor)
		w.AddChar(c.Skin)
		w.AddChar(int(c.Admin))
		w.AddShort(c.Paperdoll[character.EquipBoots])
		w.AddShort(c.Paperdoll[character.EquipArmor])
		w.AddShort(c.Paperdoll[character.EquipHat])
		w.AddShort(c.Paperdoll[character.EquipShield])
		w.AddShort(c.Paperdoll[character.EquipWeapon])
		w.AddBreak()
	}
}
