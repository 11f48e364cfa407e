// Package handler wires packet (family, action) pairs to gameplay code.
// Handlers run on the owning player actor's goroutine: they may read and
// write the actor's session state freely and talk to the world and map
// actors through their posting APIs.
package handler

import (
	"context"
	"time"

	"github.com/telgard/server/internal/config"
	"github.com/telgard/server/internal/lang"
	"github.com/telgard/server/internal/persist"
	"github.com/telgard/server/internal/player"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
	"github.com/telgard/server/internal/world"
	"go.uber.org/zap"
)

const dbTimeout = 5 * time.Second

// Deps carries the shared read-only services every handler may need.
type Deps struct {
	Cfg        *config.Config
	Log        *zap.Logger
	World      *world.World
	Tables     *pub.Tables
	Maps       map[int]*pub.MapFile
	Lang       *lang.Table
	Accounts   *persist.AccountRepo
	Characters *persist.CharacterRepo
	Guilds     *persist.GuildRepo
}

func (d *Deps) dbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

// RegisterAll installs every handler into the registry and applies the
// per-pair rate limits from config.
func RegisterAll(reg *protocol.Registry, d *Deps) {
	d.registerInit(reg)
	d.registerAccount(reg)
	d.registerCharacter(reg)
	d.registerWelcome(reg)
	d.registerMovement(reg)
	d.registerTalk(reg)
	d.registerItems(reg)
	d.registerShops(reg)
	d.registerInteract(reg)
	d.registerTrade(reg)
	d.registerParty(reg)
	d.registerGuild(reg)
	d.registerWarp(reg)
	d.registerAdmin(reg)

	if d.Cfg.RateLimit.Enabled {
		reg.Limit(protocol.FamilyWalk, protocol.ActionPlayer, d.Cfg.RateLimit.WalkInterval.Duration)
		reg.Limit(protocol.FamilyAttack, protocol.ActionUse, d.Cfg.RateLimit.AttackInterval.Duration)
		reg.Limit(protocol.FamilyTalk, protocol.ActionReport, d.Cfg.RateLimit.TalkInterval.Duration)
		reg.Limit(protocol.FamilyTalk, protocol.ActionMsg, d.Cfg.RateLimit.TalkInterval.Duration)
	}
}

// asPlayer recovers the actor pointer the registry carries opaquely.
func asPlayer(sess any) *player.Player {
	p, _ := sess.(*player.Player)
	return p
}

var (
	statePlaying  = []protocol.SessionState{protocol.StatePlaying}
	stateLoggedIn = []protocol.SessionState{protocol.StateLoggedIn}
)

// playing registers a handler that requires an in-world character. The map
// handle is re-checked at dispatch time because a warp can be in flight.
func playing(reg *protocol.Registry, family protocol.Family, action protocol.Action, fn func(p *player.Player, r *protocol.Reader)) {
	reg.Register(family, action, statePlaying, func(sess any, r *protocol.Reader) {
		p := asPlayer(sess)
		if p == nil || !p.Playing() {
			return
		}
		fn(p, r)
	})
}
