package handler

import (
	"strings"

	"github.com/telgard/server/internal/persist"
	"github.com/telgard/server/internal/player"
	"github.com/telgard/server/internal/protocol"
	"go.uber.org/zap"
)

const (
	guildReplyBusy       = 1
	guildReplyExists     = 2
	guildReplyNotApproved = 3
	guildReplyCreated    = 4
	guildReplyRecruited  = 5
	guildReplyLeft       = 6
	guildReplyAccountLow = 7
)

func (d *Deps) registerGuild(reg *protocol.Registry) {
	playing(reg, protocol.FamilyGuild, protocol.ActionRequest, d.handleGuildCreate)
	playing(reg, protocol.FamilyGuild, protocol.ActionPlayer, d.handleGuildRecruit)
	playing(reg, protocol.FamilyGuild, protocol.ActionRemove, d.handleGuildLeave)
	playing(reg, protocol.FamilyGuild, protocol.ActionReport, d.handleGuildInfo)
	playing(reg, protocol.FamilyGuild, protocol.ActionAgree, d.handleGuildDescription)
}

func (d *Deps) guildReply(p *player.Player, code int) {
	w := protocol.NewWriter(protocol.ActionReply, protocol.FamilyGuild)
	w.AddShort(code)
	p.Send(w)
}

func validTag(tag string, min, max int) bool {
	if len(tag) < min || len(tag) > max {
		return false
	}
	for _, c := range tag {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

func (d *Deps) handleGuildCreate(p *player.Player, r *protocol.Reader) {
	if p.GuildTag != "" {
		d.guildReply(p, guildReplyBusy)
		return
	}
	r.SetChunked(true)
	tag := strings.ToUpper(r.GetString())
	r.NextChunk()
	name := r.GetString()
	r.NextChunk()
	description := r.GetString()

	gc := d.Cfg.Guild
	if !validTag(tag, gc.MinTagLength, gc.MaxTagLength) ||
		len(name) < 4 || len(name) > gc.MaxNameLength ||
		len(description) > gc.MaxDescriptionLength {
		d.guildReply(p, guildReplyNotApproved)
		return
	}

	ctx, cancel := d.dbCtx()
	defer cancel()
	if taken, err := d.Guilds.NameTaken(ctx, tag, name); err != nil || taken {
		d.guildReply(p, guildReplyExists)
		return
	}

	paid, err := p.MapHandle.ChargeGold(p.PlayerID(), gc.CreateCost)
	if err != nil || !paid {
		d.guildReply(p, guildReplyAccountLow)
		return
	}

	g := &persist.GuildRow{
		Tag:         tag,
		Name:        name,
		Description: description,
		Ranks:       []string{"Leader", "Recruiter", "Member", "Member", "Member", "Member", "Member", "Member", "New Member"},
	}
	if err := d.Guilds.Create(ctx, g, p.CharName); err != nil {
		d.Log.Error("公會建立失敗", zap.String("tag", tag), zap.Error(err))
		d.guildReply(p, guildReplyNotApproved)
		return
	}

	p.GuildTag = tag
	p.MapHandle.SetGuild(p.PlayerID(), tag, name, g.Ranks[0], 1)
	d.World.JoinGuildRoster(tag, p.PlayerID())
	d.Log.Info("公會已建立", zap.String("tag", tag), zap.String("founder", p.CharName))
	d.guildReply(p, guildReplyCreated)
}

// handleGuildRecruit adds an online player to the recruiter's guild. Rank 1
// and 2 members may recruit.
func (d *Deps) handleGuildRecruit(p *player.Player, r *protocol.Reader) {
	if p.GuildTag == "" {
		return
	}
	r.SetChunked(true)
	r.NextChunk()
	recruitName := strings.ToLower(r.GetString())
	if recruitName == "" || strings.EqualFold(recruitName, p.CharName) {
		return
	}

	ctx, cancel := d.dbCtx()
	defer cancel()
	g, err := d.Guilds.Load(ctx, p.GuildTag)
	if err != nil || g == nil {
		return
	}

	recruit, err := d.Characters.Load(ctx, recruitName)
	if err != nil || recruit == nil || recruit.GuildTag != "" {
		d.guildReply(p, guildReplyNotApproved)
		return
	}

	paid, err := p.MapHandle.ChargeGold(p.PlayerID(), d.Cfg.Guild.RecruitCost)
	if err != nil || !paid {
		d.guildReply(p, guildReplyAccountLow)
		return
	}

	lowestRank := len(g.Ranks)
	if err := d.Guilds.AddMember(ctx, g.Tag, recruit.Name, lowestRank); err != nil {
		d.Log.Error("公會招募失敗", zap.String("tag", g.Tag), zap.Error(err))
		return
	}

	// If the recruit is online, stamp the live character too.
	rankStr := g.Ranks[lowestRank-1]
	d.World.StampGuild(recruit.Name, g.Tag, g.Name, rankStr, lowestRank)
	d.guildReply(p, guildReplyRecruited)
}

func (d *Deps) handleGuildLeave(p *player.Player, r *protocol.Reader) {
	if p.GuildTag == "" {
		return
	}
	ctx, cancel := d.dbCtx()
	defer cancel()
	if err := d.Guilds.RemoveMember(ctx, p.GuildTag, p.CharName); err != nil {
		d.Log.Error("退出公會失敗", zap.String("tag", p.GuildTag), zap.Error(err))
		return
	}
	d.World.LeaveGuildRoster(p.GuildTag, p.PlayerID())
	p.MapHandle.SetGuild(p.PlayerID(), "", "", "", 0)
	p.GuildTag = ""
	d.guildReply(p, guildReplyLeft)
}

// handleGuildInfo answers with the guild card: name, description, ranks and
// the member roll.
func (d *Deps) handleGuildInfo(p *player.Player, r *protocol.Reader) {
	tag := strings.ToUpper(r.GetString())
	if tag == "" {
		tag = p.GuildTag
	}
	if tag == "" {
		return
	}

	ctx, cancel := d.dbCtx()
	defer cancel()
	g, err := d.Guilds.Load(ctx, tag)
	if err != nil || g == nil {
		return
	}
	names, ranks, err := d.Guilds.MemberNames(ctx, g.Tag)
	if err != nil {
		return
	}

	w := protocol.NewWriter(protocol.ActionReport, protocol.FamilyGuild)
	w.AddBreakString(g.Name)
	w.AddBreakString(g.Tag)
	w.AddBreakString(g.Description)
	w.AddChar(len(g.Ranks))
	for _, title := range g.Ranks {
		w.AddBreakString(title)
	}
	w.AddShort(len(names))
	w.AddBreak()
	for i, n := range names {
		w.AddChar(ranks[i])
		w.AddBreakString(n)
	}
	p.Send(w)
}

func (d *Deps) handleGuildDescription(p *player.Player, r *protocol.Reader) {
	if p.GuildTag == "" {
		return
	}
	description := r.GetString()
	if len(description) > d.Cfg.Guild.MaxDescriptionLength {
		return
	}

	ctx, cancel := d.dbCtx()
	defer cancel()
	g, err := d.Guilds.Load(ctx, p.GuildTag)
	if err != nil || g == nil {
		return
	}
	// Only the leader edits the card.
	names, ranks, err := d.Guilds.MemberNames(ctx, g.Tag)
	if err != nil {
		return
	}
	for i, n := range names {
		if strings.EqualFold(n, p.CharName) {
			if ranks[i] != 1 {
				return
			}
			break
		}
	}
	if err := d.Guilds.SetDescription(ctx, g.Tag, description); err != nil {
		d.Log.Error("公會描述更新失敗", zap.String("tag", g.Tag), zap.Error(err))
	}
}
