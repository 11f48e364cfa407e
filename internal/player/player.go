// Package player implements the per-connection actor. Decoded packets from
// the session land in the actor inbox and are dispatched through the
// registry by (family, action) against the four-state machine
// Uninitialized → Initialized → LoggedIn → Playing. The actor also owns the
// handshake, ping liveness, the hangup timer and the staged warp session.
package player

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/config"
	"github.com/telgard/server/internal/gamemap"
	"github.com/telgard/server/internal/net"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
	"github.com/telgard/server/internal/world"
	"go.uber.org/zap"
)

// WarpSession is a staged two-phase warp, alive between Warp.Request/Agree
// and Warp.Accept.
type WarpSession struct {
	MapID     int
	Coords    pub.Coords
	Local     bool
	Animation gamemap.WarpAnimation
}

// Captcha is the bot-check challenge for deep clients.
type Captcha struct {
	Answer   string
	Attempts int
	Open     bool
}

// Player is the per-connection actor. Exported state fields are owned by
// the actor goroutine: handlers run inside the inbox and may touch them
// freely, everyone else goes through the posting methods.
type Player struct {
	sess *net.Session
	cfg  *config.Config
	reg  *protocol.Registry
	wld  *world.World
	log  *zap.Logger

	inbox chan func(*Player)
	done  chan struct{}

	// Actor-owned session state.
	State       protocol.SessionState
	Account     int
	AccountName string
	CharID      int
	CharName    string
	GuildTag    string
	Admin       character.AdminLevel
	MapHandle   *gamemap.Map
	Chars       []*character.Character // select-screen roster, valid in LoggedIn
	PendingChar *character.Character   // selected but not yet in world
	Warp        *WarpSession
	Captcha     Captcha
	Frozen      bool
	MutedBy     string
	SessionID   int // multi-packet dialog cookie (create, warp take, shop)

	// Liveness bookkeeping, advanced by Pulse.
	ticksPerSecond int
	pingTicks      int
	needPong       bool
	upcomingStart  int
	hangupTicks    int

	lastArrival map[[2]byte]time.Time
}

// New wires a session to a fresh actor and starts both.
func New(sess *net.Session, cfg *config.Config, reg *protocol.Registry, wld *world.World, log *zap.Logger) *Player {
	tps := int(time.Second / cfg.World.TickRate.Duration)
	if tps < 1 {
		tps = 1
	}
	p := &Player{
		sess:           sess,
		cfg:            cfg,
		reg:            reg,
		wld:            wld,
		log:            log.With(zap.Int("player", sess.ID())),
		inbox:          make(chan func(*Player), cfg.Network.InQueueSize),
		done:           make(chan struct{}),
		State:          protocol.StateUninitialized,
		ticksPerSecond: tps,
		lastArrival:    make(map[[2]byte]time.Time),
	}
	sess.OnPacket(p.onPacket)
	sess.OnClose(p.onClose)
	go p.run()
	return p
}

func (p *Player) run() {
	for {
		select {
		case fn := <-p.inbox:
			fn(p)
		case <-p.done:
			return
		}
	}
}

func (p *Player) post(fn func(*Player)) {
	select {
	case p.inbox <- fn:
	case <-p.done:
	}
}

// onPacket runs on the session read goroutine; the packet is handed to the
// actor for dispatch.
func (p *Player) onPacket(body []byte) {
	p.post(func(pp *Player) {
		pp.dispatch(body)
	})
}

func (p *Player) dispatch(body []byte) {
	key := [2]byte{body[0], body[1]}
	if min := p.reg.MinInterval(protocol.Family(body[1]), protocol.Action(body[0])); min > 0 && p.cfg.RateLimit.Enabled {
		now := time.Now()
		if now.Sub(p.lastArrival[key]) < min {
			return
		}
		p.lastArrival[key] = now
	}

	if err := p.reg.Dispatch(p, p.State, body); err != nil {
		p.log.Error("封包處理失敗",
			zap.String("family", protocol.Family(body[1]).String()),
			zap.String("action", protocol.Action(body[0]).String()),
			zap.Error(err),
		)
		// A packet in a state it is not allowed in is a protocol violation;
		// a panicking handler may have left actor state inconsistent. Both
		// end the connection.
		p.Close("dispatch: " + err.Error())
	}
}

// onClose runs once when the session tears down, on whatever goroutine
// noticed the close.
func (p *Player) onClose(reason string) {
	if p.wld != nil {
		p.wld.RemovePlayer(p.PlayerID())
		if p.Account != 0 {
			p.wld.ReleaseAccount(p.Account)
		}
	}
	close(p.done)
}

// --- world.PlayerHandle surface ---

func (p *Player) PlayerID() int         { return p.sess.ID() }
func (p *Player) AccountID() int        { return p.Account }
func (p *Player) CharacterName() string { return p.CharName }

func (p *Player) Send(w *protocol.Writer) { p.sess.Send(w) }
func (p *Player) SendBuf(buf []byte)      { p.sess.SendBuf(buf) }
func (p *Player) Close(reason string)     { p.sess.Close(reason) }

// StageWarp records the pending warp and prompts the client: local warps
// get the inline agree, cross-map warps must fetch the destination file.
func (p *Player) StageWarp(mapID int, coords pub.Coords, local bool, anim gamemap.WarpAnimation) {
	p.post(func(pp *Player) {
		pp.Warp = &WarpSession{MapID: mapID, Coords: coords, Local: local, Animation: anim}
		w := protocol.NewWriter(protocol.ActionRequest, protocol.FamilyWarp)
		if local {
			w = protocol.NewWriter(protocol.ActionAgree, protocol.FamilyWarp)
		}
		w.AddShort(mapID)
		w.AddChar(coords.X)
		w.AddChar(coords.Y)
		pp.sess.Send(w)
	})
}

// SetFrozen stops or releases movement and combat.
func (p *Player) SetFrozen(frozen bool) {
	p.post(func(pp *Player) {
		pp.Frozen = frozen
	})
}

// SetMuted silences chat; by is the admin who imposed it.
func (p *Player) SetMuted(by string) {
	p.post(func(pp *Player) {
		pp.MutedBy = by
	})
}

// OpenCaptcha arms a bot check. Local chat answers it; combat and pickup
// stay blocked until the check is solved.
func (p *Player) OpenCaptcha(answer string) {
	p.post(func(pp *Player) {
		pp.Captcha = Captcha{Answer: answer, Open: true}
	})
}

// Pulse is the global tick delivered to every player actor: handshake
// hangup and ping liveness run off it.
func (p *Player) Pulse() {
	p.post(func(pp *Player) {
		pp.pulse()
	})
}

func (p *Player) pulse() {
	if p.State == protocol.StateUninitialized || p.State == protocol.StateInitialized {
		p.hangupTicks++
		if p.hangupTicks >= p.cfg.Server.HangupDelay*p.ticksPerSecond {
			p.Close("handshake timeout")
		}
		return
	}

	p.pingTicks++
	if p.pingTicks < p.cfg.Server.PingRate*p.ticksPerSecond {
		return
	}
	p.pingTicks = 0

	if p.needPong {
		p.Close(fmt.Sprintf("player %d connection closed: ping timeout", p.PlayerID()))
		return
	}
	p.upcomingStart = rand.Intn(240)
	s1, s2 := protocol.ChallengeFor(p.upcomingStart)
	w := protocol.NewWriter(protocol.ActionPlayer, protocol.FamilyConnection)
	w.AddShort(int(s1))
	w.AddChar(int(s2))
	p.sess.Send(w)
	p.needPong = true
}

// --- actor-goroutine helpers for handlers ---

// Session returns the transport for handshake-level operations.
func (p *Player) Session() *net.Session { return p.sess }

// World returns the coordinator handle.
func (p *Player) World() *world.World { return p.wld }

// Log returns the actor's logger.
func (p *Player) Log() *zap.Logger { return p.log }

// Pong accepts the sequence challenge confirmation.
func (p *Player) Pong() {
	if !p.needPong {
		return
	}
	p.needPong = false
	p.sess.ConfirmSequenceStart(p.upcomingStart)
}

// Playing reports whether the actor owns a character on a map. Handlers for
// gameplay packets bail out when this is false.
func (p *Player) Playing() bool {
	return p.State == protocol.StatePlaying && p.MapHandle != nil && p.CharName != ""
}
