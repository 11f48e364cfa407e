package handler

import (
	"strings"

	"github.com/telgard/server/internal/persist"
	"github.com/telgard/server/internal/protocol"
	"go.uber.org/zap"
)

// Account and login reply codes. A failed login never reveals whether the
// name or the password was wrong.
const (
	accountReplyExists     = 1
	accountReplyNotApproved = 2
	accountReplyCreated    = 3
	accountReplyChangeOK   = 6
	accountReplyContinue   = 1000

	loginReplyWrongUserPass = 1
	loginReplyBanned        = 3
	loginReplyLoggedIn      = 5
	loginReplyBusy          = 6
	loginReplyOK            = 3000
)

func (d *Deps) registerAccount(reg *protocol.Registry) {
	states := []protocol.SessionState{protocol.StateInitialized}
	reg.Register(protocol.FamilyAccount, protocol.ActionRequest, states, d.handleAccountRequest)
	reg.Register(protocol.FamilyAccount, protocol.ActionCreate, states, d.handleAccountCreate)
	reg.Register(protocol.FamilyLogin, protocol.ActionRequest, states, d.handleLogin)
}

func validAccountName(name string) bool {
	if len(name) < 4 || len(name) > 16 {
		return false
	}
	for _, c := range name {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}

// handleAccountRequest checks name availability before the client shows the
// full registration form.
func (d *Deps) handleAccountRequest(sess any, r *protocol.Reader) {
	p := asPlayer(sess)
	if p == nil {
		return
	}
	name := strings.ToLower(r.GetString())

	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyAccount)
	if !validAccountName(name) {
		w.AddShort(accountReplyNotApproved)
		w.AddBreakString("NO")
		p.Send(w)
		return
	}

	ctx, cancel := d.dbCtx()
	defer cancel()
	taken, err := d.Accounts.Exists(ctx, name)
	if err != nil {
		d.Log.Error("帳號查詢失敗", zap.String("name", name), zap.Error(err))
		taken = true
	}
	if taken {
		w.AddShort(accountReplyExists)
		w.AddBreakString("NO")
	} else {
		w.AddShort(accountReplyContinue)
		w.AddBreakString("OK")
	}
	p.Send(w)
}

func (d *Deps) handleAccountCreate(sess any, r *protocol.Reader) {
	p := asPlayer(sess)
	if p == nil {
		return
	}
	r.SetChunked(true)
	name := strings.ToLower(r.GetString())
	r.NextChunk()
	password := r.GetString()
	r.NextChunk()
	realName := r.GetString()
	r.NextChunk()
	location := r.GetString()
	r.NextChunk()
	email := r.GetString()
	r.NextChunk()
	computer := r.GetString()
	r.NextChunk()
	hdid := r.GetString()

	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyAccount)
	if !validAccountName(name) || len(password) < 6 {
		w.AddShort(accountReplyNotApproved)
		w.AddBreakString("NO")
		p.Send(w)
		return
	}

	ctx, cancel := d.dbCtx()
	defer cancel()
	if taken, err := d.Accounts.Exists(ctx, name); err != nil || taken {
		w.AddShort(accountReplyExists)
		w.AddBreakString("NO")
		p.Send(w)
		return
	}

	hash, err := persist.HashPassword(name, password)
	if err != nil {
		d.Log.Error("密碼雜湊失敗", zap.Error(err))
		w.AddShort(accountReplyNotApproved)
		w.AddBreakString("NO")
		p.Send(w)
		return
	}

	row := &persist.AccountRow{
		Name:         name,
		PasswordHash: hash,
		RealName:     realName,
		Location:     location,
		Email:        email,
		Computer:     computer,
		HDID:         hdid,
		RegisterIP:   p.Session().RemoteIP(),
	}
	if _, err := d.Accounts.Create(ctx, row); err != nil {
		d.Log.Error("帳號建立失敗", zap.String("name", name), zap.Error(err))
		w.AddShort(accountReplyNotApproved)
		w.AddBreakString("NO")
		p.Send(w)
		return
	}

	d.Log.Info("帳號已建立", zap.String("name", name))
	w.AddShort(accountReplyCreated)
	w.AddBreakString("OK")
	p.Send(w)
}

// handleLogin authenticates, applies the IP throttle and the single-login
// rule, loads the character roster and moves the session to LoggedIn.
func (d *Deps) handleLogin(sess any, r *protocol.Reader) {
	p := asPlayer(sess)
	if p == nil {
		return
	}
	r.SetChunked(true)
	name := strings.ToLower(r.GetString())
	r.NextChunk()
	password := r.GetString()

	reply := func(code int) {
		w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyLogin)
		w.AddShort(code)
		p.Send(w)
	}

	if d.World.ThrottleLogin(p.Session().RemoteIP()) {
		reply(loginReplyBusy)
		return
	}
	if online, err := d.World.PlayerCount(); err != nil || online >= d.Cfg.Server.MaxPlayers {
		reply(loginReplyBusy)
		return
	}

	ctx, cancel := d.dbCtx()
	defer cancel()
	row, err := d.Accounts.Load(ctx, name)
	if err != nil || row == nil {
		reply(loginReplyWrongUserPass)
		return
	}
	if !persist.VerifyPassword(name, password, row.PasswordHash) {
		reply(loginReplyWrongUserPass)
		return
	}

	if remaining, err := d.Accounts.BanRemaining(ctx, row.ID, p.Session().RemoteIP()); err == nil && remaining > 0 {
		w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyLogin)
		w.AddShort(loginReplyBanned)
		w.AddInt(int(remaining.Minutes()) + 1)
		p.Send(w)
		return
	}

	ok, err := d.World.ReserveAccount(row.ID)
	if err != nil || !ok {
		reply(loginReplyLoggedIn)
		return
	}

	chars, err := d.Characters.ListForAccount(ctx, row.ID)
	if err != nil {
		d.Log.Error("角色清單載入失敗", zap.String("account", name), zap.Error(err))
		d.World.ReleaseAccount(row.ID)
		reply(loginReplyWrongUserPass)
		return
	}

	if err := d.Accounts.TouchLogin(ctx, row.ID, p.Session().RemoteIP()); err != nil {
		d.Log.Warn("登入時間更新失敗", zap.String("account", name), zap.Error(err))
	}

	p.Account = row.ID
	p.AccountName = name
	p.Chars = chars
	p.State = protocol.StateLoggedIn

	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyLogin)
	w.AddShort(loginReplyOK)
	d.addCharacterRoster(w, chars)
	p.Send(w)

	d.Log.Info("帳號登入", zap.String("account", name), zap.Int("characters", len(chars)))
}
