package handler

import (
	"math/rand"

	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/protocol"
	"go.uber.org/zap"
)

const (
	welcomeReplySelected  = 1
	welcomeReplyEntered   = 2
	welcomeFileMap        = 1
)

func (d *Deps) registerWelcome(reg *protocol.Registry) {
	states := []protocol.SessionState{protocol.StateLoggedIn}
	reg.Register(protocol.FamilyWelcome, protocol.ActionRequest, states, d.handleWelcomeRequest)
	reg.Register(protocol.FamilyWelcome, protocol.ActionAgree, states, d.handleWelcomeAgree)
	reg.Register(protocol.FamilyWelcome, protocol.ActionMsg, states, d.handleWelcomeMsg)
}

// handleWelcomeRequest pins the selected character and sends the client
// everything it needs to decide which files to fetch before entering.
func (d *Deps) handleWelcomeRequest(sess any, r *protocol.Reader) {
	p := asPlayer(sess)
	if p == nil {
		return
	}
	charID := r.GetInt()
	idx := d.rosterIndex(p.Chars, charID)
	if idx < 0 {
		return
	}

	c := p.Chars[idx]
	c.CalcStats(d.Tables)
	p.PendingChar = c
	p.SessionID = 1 + rand.Intn(64000)

	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyWelcome)
	w.AddShort(welcomeReplySelected)
	w.AddShort(p.SessionID)
	w.AddInt(c.ID)
	w.AddShort(c.MapID)
	w.AddBreakString(c.Name)
	w.AddBreakString(c.Title)
	w.AddBreakString(c.GuildName)
	w.AddBreakString(c.GuildRankStr)
	w.AddChar(c.Class)
	w.AddString(padTag(c.GuildTag))
	w.AddChar(int(c.Admin))
	w.AddChar(c.Level)
	w.AddInt(c.Exp)
	w.AddInt(c.Usage)
	w.AddShort(c.HP)
	w.AddShort(c.MaxHP)
	w.AddShort(c.TP)
	w.AddShort(c.MaxTP)
	w.AddShort(c.SP)
	w.AddShort(c.MaxSP)
	w.AddShort(c.StatPoints)
	w.AddShort(c.SkillPoints)
	w.AddShort(c.Karma)
	w.AddShort(c.AdjStr)
	w.AddShort(c.AdjInt)
	w.AddShort(c.AdjWis)
	w.AddShort(c.AdjAgi)
	w.AddShort(c.AdjCon)
	w.AddShort(c.AdjCha)
	w.AddShort(c.MinDam)
	w.AddShort(c.MaxDam)
	w.AddShort(c.Accuracy)
	w.AddShort(c.Evade)
	w.AddShort(c.Armor)
	for slot := 0; slot < character.EquipSlots; slot++ {
		w.AddShort(c.Paperdoll[slot])
	}
	w.AddBreak()
	p.Send(w)
}

// handleWelcomeAgree serves a data file to the client. Only the selected
// character's map is available through this path.
func (d *Deps) handleWelcomeAgree(sess any, r *protocol.Reader) {
	p := asPlayer(sess)
	if p == nil || p.PendingChar == nil {
		return
	}
	fileType := r.GetChar()
	if fileType != welcomeFileMap {
		return
	}
	file := d.Maps[p.PendingChar.MapID]
	if file == nil {
		p.Log().Warn("請求的地圖檔不存在", zap.Int("map", p.PendingChar.MapID))
		return
	}
	w := protocol.NewWriter(protocol.ActionAgree, protocol.FamilyWelcome)
	w.AddChar(welcomeFileMap)
	w.AddBytes(file.Raw)
	p.Send(w)
}

// handleWelcomeMsg finishes login: the character joins the world and the
// session becomes Playing.
func (d *Deps) handleWelcomeMsg(sess any, r *protocol.Reader) {
	p := asPlayer(sess)
	if p == nil {
		return
	}
	sessionID := r.GetShort()
	charID := r.GetInt()
	c := p.PendingChar
	if c == nil || c.ID != charID || sessionID != p.SessionID || p.SessionID == 0 {
		return
	}
	p.SessionID = 0

	c.Conn = p
	c.InteractNpcIndex = -1

	// Built before the map actor takes ownership of the character.
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyWelcome)
	w.AddShort(welcomeReplyEntered)
	w.AddBreak()
	for _, line := range d.Cfg.Server.News {
		w.AddBreakString(line)
	}
	w.AddChar(c.Weight(d.Tables))
	w.AddChar(c.MaxWeight)
	for _, it := range c.Items {
		w.AddShort(it.ID)
		w.AddInt(it.Amount)
	}
	w.AddBreak()
	for _, sp := range c.Spells {
		w.AddShort(sp.ID)
		w.AddShort(sp.Level)
	}
	w.AddBreak()

	m, err := d.World.EnterGame(p, c)
	if err != nil || m == nil {
		p.Log().Warn("進入世界被拒", zap.String("name", c.Name), zap.Error(err))
		p.Close("enter game refused")
		return
	}

	p.MapHandle = m
	p.CharID = c.ID
	p.CharName = c.Name
	p.GuildTag = c.GuildTag
	p.Admin = c.Admin
	p.PendingChar = nil
	p.Chars = nil
	p.State = protocol.StatePlaying
	p.Send(w)

	d.Log.Info("角色進入世界",
		zap.String("name", c.Name),
		zap.Int("map", m.ID()),
		zap.Int("player", p.PlayerID()),
	)
}

// padTag renders a guild tag as a fixed 3-byte field.
func padTag(tag string) string {
	for len(tag) < 3 {
		tag += " "
	}
	return tag[:3]
}
