// Package world hosts the coordinator actor: the process-wide registries
// (online players, character names, account locks, guild rosters, parties)
// and the routing for everything that crosses map boundaries, such as warp,
// find, private and global chat, admin announces, save and shutdown.
package world

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/config"
	"github.com/telgard/server/internal/gamemap"
	"github.com/telgard/server/internal/lang"
	"github.com/telgard/server/internal/persist"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
	"go.uber.org/zap"
)

// ErrWorldDown is surfaced to waiters when the coordinator has shut down.
var ErrWorldDown = errors.New("world actor gone")

// saveTimeout bounds each character flush to SQL.
const saveTimeout = 5 * time.Second

// PlayerHandle is the coordinator's view of a player actor. Handles are
// cheap references; every method posts to the player's own inbox.
type PlayerHandle interface {
	PlayerID() int
	AccountID() int
	CharacterName() string
	Send(w *protocol.Writer)
	SendBuf(buf []byte)
	Close(reason string)
	Pulse()
	StageWarp(mapID int, coords pub.Coords, local bool, anim gamemap.WarpAnimation)
	SetFrozen(frozen bool)
	SetMuted(by string)
	OpenCaptcha(answer string)
}

// Party is one chat/exp group. Invariant: a player id appears in at most
// one party, and parties always hold at least two members.
type Party struct {
	LeaderID int
	Members  []int
}

// World is the coordinator actor.
type World struct {
	cfg   *config.Config
	log   *zap.Logger
	langT *lang.Table

	chars *persist.CharacterRepo

	cmds chan func(*World)
	done chan struct{}

	players        map[int]PlayerHandle
	charsOnline    map[string]int // lowercased name -> player id
	accountsOnline map[int]bool
	guilds         map[string][]int // tag -> online member player ids
	parties        []*Party
	maps           map[int]*gamemap.Map
	locations      map[int]int // player id -> current map id

	globalLocked  bool
	loginThrottle *cache.Cache

	saveTicks int
}

// New builds the coordinator over the loaded maps. The caller supplies map 0
// (nirvana, the warp holding pen) along with the real maps.
func New(cfg *config.Config, langT *lang.Table, maps map[int]*gamemap.Map, chars *persist.CharacterRepo, log *zap.Logger) *World {
	w := &World{
		cfg:            cfg,
		log:            log.Named("world"),
		langT:          langT,
		chars:          chars,
		cmds:           make(chan func(*World), 512),
		done:           make(chan struct{}),
		players:        make(map[int]PlayerHandle),
		charsOnline:    make(map[string]int),
		accountsOnline: make(map[int]bool),
		guilds:         make(map[string][]int),
		maps:           maps,
		locations:      make(map[int]int),
		loginThrottle:  cache.New(time.Minute, 5*time.Minute),
	}
	for _, m := range maps {
		m.SetHooks(w)
	}
	return w
}

// Run serves the coordinator inbox. Unlike map commands there is no panic
// recovery here; the coordinator is kept small enough to keep that rare.
func (w *World) Run() {
	for {
		select {
		case fn := <-w.cmds:
			fn(w)
		case <-w.done:
			return
		}
	}
}

func (w *World) post(fn func(*World)) bool {
	select {
	case w.cmds <- fn:
		return true
	case <-w.done:
		return false
	}
}

// postHook is the map-facing variant. Map actors must never wait on the
// coordinator, so a full inbox drops the command instead of blocking; the
// client retries warps on its own.
func (w *World) postHook(fn func(*World)) {
	select {
	case w.cmds <- fn:
	case <-w.done:
	default:
		w.log.Warn("協調器佇列已滿，丟棄地圖回呼")
	}
}

func request[T any](w *World, fn func(*World) T) (T, error) {
	reply := make(chan T, 1)
	if !w.post(func(ww *World) { reply <- fn(ww) }) {
		var zero T
		return zero, ErrWorldDown
	}
	select {
	case v := <-reply:
		return v, nil
	case <-w.done:
		var zero T
		return zero, ErrWorldDown
	}
}

// Map returns the map actor for id, or nil.
func (w *World) Map(id int) *gamemap.Map {
	m, _ := request(w, func(ww *World) *gamemap.Map {
		return ww.maps[id]
	})
	return m
}

// --- session registry ---

// AddPlayer registers a freshly handshaken connection.
func (w *World) AddPlayer(h PlayerHandle) {
	w.post(func(ww *World) {
		ww.players[h.PlayerID()] = h
	})
}

// PlayerCount returns how many connections are registered.
func (w *World) PlayerCount() (int, error) {
	return request(w, func(ww *World) int {
		return len(ww.players)
	})
}

// ThrottleLogin counts a login attempt from ip; true means the attempt is
// over the per-minute budget and must be rejected. The cache is its own
// synchronization domain, so this never touches the actor inbox.
func (w *World) ThrottleLogin(ip string) bool {
	if !w.cfg.RateLimit.Enabled {
		return false
	}
	n, err := w.loginThrottle.IncrementInt(ip, 1)
	if err != nil {
		w.loginThrottle.Set(ip, 1, cache.DefaultExpiration)
		return false
	}
	return n > w.cfg.RateLimit.LoginAttemptsPerMinute
}

// ReserveAccount marks an account online; false when already logged in.
func (w *World) ReserveAccount(accountID int) (bool, error) {
	return request(w, func(ww *World) bool {
		if ww.accountsOnline[accountID] {
			return false
		}
		ww.accountsOnline[accountID] = true
		return true
	})
}

// ReleaseAccount clears the online lock, used when login fails after the
// reserve or when the connection drops before entering the game.
func (w *World) ReleaseAccount(accountID int) {
	w.post(func(ww *World) {
		delete(ww.accountsOnline, accountID)
	})
}

// EnterGame moves a logged-in character into the world: registers its name,
// joins the guild roster, and inserts it into its map actor. The name must
// not already be online. Returns the hosting map, nil if entry was refused.
func (w *World) EnterGame(h PlayerHandle, c *character.Character) (*gamemap.Map, error) {
	return request(w, func(ww *World) *gamemap.Map {
		key := strings.ToLower(c.Name)
		if _, taken := ww.charsOnline[key]; taken {
			return nil
		}
		m := ww.maps[c.MapID]
		if m == nil {
			m = ww.maps[c.HomeMap]
			if m == nil {
				ww.log.Error("角色地圖不存在", zap.String("name", c.Name), zap.Int("map", c.MapID))
				return nil
			}
			c.Coords = c.HomeCoords
		}
		ww.charsOnline[key] = h.PlayerID()
		ww.locations[h.PlayerID()] = m.ID()
		if c.GuildTag != "" {
			ww.guilds[c.GuildTag] = append(ww.guilds[c.GuildTag], h.PlayerID())
		}
		m.Enter(c, gamemap.WarpAnimNone)
		return m
	})
}

// RemovePlayer tears a connection down: leaves the current map, saves the
// character, and clears every registry entry. Safe to call for connections
// that never made it past the handshake.
func (w *World) RemovePlayer(playerID int) {
	w.post(func(ww *World) {
		h, ok := ww.players[playerID]
		if !ok {
			return
		}
		delete(ww.players, playerID)
		ww.leaveParty(playerID)

		if mapID, placed := ww.locations[playerID]; placed {
			delete(ww.locations, playerID)
			if m := ww.maps[mapID]; m != nil {
				if c, err := m.Leave(playerID, gamemap.WarpAnimNone); err == nil && c != nil {
					ww.dropRegistries(c)
					ww.saveCharacter(c)
				}
			}
		}
		delete(ww.accountsOnline, h.AccountID())
	})
}

func (w *World) dropRegistries(c *character.Character) {
	delete(w.charsOnline, strings.ToLower(c.Name))
	if c.GuildTag != "" {
		members := w.guilds[c.GuildTag]
		for i, pid := range members {
			if pid == c.PlayerID() {
				w.guilds[c.GuildTag] = append(members[:i], members[i+1:]...)
				break
			}
		}
		if len(w.guilds[c.GuildTag]) == 0 {
			delete(w.guilds, c.GuildTag)
		}
	}
}

// saveCharacter hands a detached character copy to a background save so the
// coordinator never waits on SQL.
func (w *World) saveCharacter(c *character.Character) {
	if w.chars == nil {
		return
	}
	cp := c.Clone()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := w.chars.Save(ctx, cp); err != nil {
			w.log.Error("角色存檔失敗", zap.String("name", cp.Name), zap.Error(err))
		}
	}()
}

// StampGuild applies a guild membership change to a character that may be
// online: updates the roster and forwards the stamp to the owning map actor.
func (w *World) StampGuild(charName, tag, guildName, rankStr string, rank int) {
	w.post(func(ww *World) {
		pid, online := ww.charsOnline[strings.ToLower(charName)]
		if !online {
			return
		}
		m := ww.maps[ww.locations[pid]]
		if m == nil {
			return
		}
		if tag != "" {
			ww.guilds[tag] = append(ww.guilds[tag], pid)
		}
		m.SetGuild(pid, tag, guildName, rankStr, rank)
	})
}

// GuildRosterOnline returns the online player ids wearing the tag.
func (w *World) GuildRosterOnline(tag string) ([]int, error) {
	return request(w, func(ww *World) []int {
		return append([]int(nil), ww.guilds[tag]...)
	})
}

// JoinGuildRoster adds a freshly recruited member to the online roster.
func (w *World) JoinGuildRoster(tag string, playerID int) {
	w.post(func(ww *World) {
		ww.guilds[tag] = append(ww.guilds[tag], playerID)
	})
}

// LeaveGuildRoster removes a member that quit or was kicked while online.
func (w *World) LeaveGuildRoster(tag string, playerID int) {
	w.post(func(ww *World) {
		members := ww.guilds[tag]
		for i, pid := range members {
			if pid == playerID {
				ww.guilds[tag] = append(members[:i], members[i+1:]...)
				break
			}
		}
		if len(ww.guilds[tag]) == 0 {
			delete(ww.guilds, tag)
		}
	})
}

// Shutdown flushes every map's characters to SQL, tells every client the
// server is going down, gives the outbound queues a moment to drain, then
// stops the actors.
func (w *World) Shutdown() {
	mapsCopy, _ := request(w, func(ww *World) []*gamemap.Map {
		out := make([]*gamemap.Map, 0, len(ww.maps))
		for _, m := range ww.maps {
			out = append(out, m)
		}
		return out
	})
	for _, m := range mapsCopy {
		chars, err := m.SnapshotCharacters()
		if err != nil {
			continue
		}
		for _, c := range chars {
			if w.chars != nil {
				ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
				if err := w.chars.Save(ctx, c); err != nil {
					w.log.Error("關機存檔失敗", zap.String("name", c.Name), zap.Error(err))
				}
				cancel()
			}
		}
	}

	closeMsg := protocol.NewWriter(protocol.ActionClose, protocol.FamilyMessage)
	w.post(func(ww *World) {
		buf := closeMsg.Bytes()
		for _, h := range ww.players {
			h.SendBuf(buf)
		}
	})
	time.Sleep(100 * time.Millisecond)

	w.post(func(ww *World) {
		for _, m := range ww.maps {
			m.Shutdown()
		}
		for _, h := range ww.players {
			h.Close("server shutdown")
		}
	})
	close(w.done)
}
