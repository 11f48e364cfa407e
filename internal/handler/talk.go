package handler

import (
	"strings"

	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/player"
	"github.com/telgard/server/internal/protocol"
)

const maxCaptchaAttempts = 3

func (d *Deps) registerTalk(reg *protocol.Registry) {
	playing(reg, protocol.FamilyTalk, protocol.ActionReport, d.handleTalkLocal)
	playing(reg, protocol.FamilyTalk, protocol.ActionTell, d.handleTalkTell)
	playing(reg, protocol.FamilyTalk, protocol.ActionMsg, d.handleTalkGlobal)
	playing(reg, protocol.FamilyTalk, protocol.ActionRequest, d.handleTalkGuild)
	playing(reg, protocol.FamilyTalk, protocol.ActionAnnounce, d.handleTalkAnnounce)
	playing(reg, protocol.FamilyPlayers, protocol.ActionAccept, d.handleFindPlayer)
	playing(reg, protocol.FamilyPlayers, protocol.ActionRequest, d.handleFindPlayer)
}

func (d *Deps) handleTalkLocal(p *player.Player, r *protocol.Reader) {
	msg := r.GetString()
	if msg == "" {
		return
	}
	if p.Captcha.Open {
		d.answerCaptcha(p, msg)
		return
	}
	if p.MutedBy != "" {
		return
	}
	p.MapHandle.Talk(p.PlayerID(), msg)
}

// answerCaptcha consumes a local chat line as the bot-check answer. The
// line never reaches the map; running out of attempts drops the connection.
func (d *Deps) answerCaptcha(p *player.Player, msg string) {
	if strings.EqualFold(msg, p.Captcha.Answer) {
		p.Captcha = player.Captcha{}
		notice := protocol.NewWriter(protocol.ActionServer, protocol.FamilyTalk)
		notice.AddString(d.Lang.CaptchaPassed)
		p.Send(notice)
		return
	}
	p.Captcha.Attempts++
	if p.Captcha.Attempts >= maxCaptchaAttempts {
		p.Log().Warn("機器人驗證失敗")
		p.Close("bot check failed")
		return
	}
	notice := protocol.NewWriter(protocol.ActionServer, protocol.FamilyTalk)
	notice.AddString(d.Lang.CaptchaFailed)
	p.Send(notice)
}

func (d *Deps) handleTalkTell(p *player.Player, r *protocol.Reader) {
	if p.MutedBy != "" {
		return
	}
	r.SetChunked(true)
	target := r.GetString()
	r.NextChunk()
	msg := r.GetString()
	if target == "" || msg == "" {
		return
	}
	d.World.Tell(p.PlayerID(), p.CharName, target, msg)
}

func (d *Deps) handleTalkGlobal(p *player.Player, r *protocol.Reader) {
	if p.MutedBy != "" {
		return
	}
	msg := r.GetString()
	if msg == "" {
		return
	}
	d.World.GlobalChat(p.PlayerID(), p.CharName, msg, p.Admin >= character.AdminGuardian)
}

func (d *Deps) handleTalkGuild(p *player.Player, r *protocol.Reader) {
	if p.MutedBy != "" || p.GuildTag == "" {
		return
	}
	msg := r.GetString()
	if msg == "" {
		return
	}
	d.World.GuildChat(p.PlayerID(), p.CharName, p.GuildTag, msg)
}

func (d *Deps) handleTalkAnnounce(p *player.Player, r *protocol.Reader) {
	if p.Admin < character.AdminGuardian {
		p.Log().Warn("非管理員嘗試全服公告")
		return
	}
	msg := r.GetString()
	if msg == "" {
		return
	}
	d.World.AdminAnnounce(p.CharName, msg)
}

func (d *Deps) handleFindPlayer(p *player.Player, r *protocol.Reader) {
	name := r.GetString()
	if name == "" {
		return
	}
	d.World.FindPlayer(p.PlayerID(), name)
}
