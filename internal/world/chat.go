package world

import (
	"strings"

	"github.com/telgard/server/internal/gamemap"
	"github.com/telgard/server/internal/lang"
	"github.com/telgard/server/internal/protocol"
	"go.uber.org/zap"
)

// FindPlayer answers whether a named character is online: Players.Net242 on
// a hit, Players.Ping on a miss.
func (w *World) FindPlayer(sourceID int, name string) {
	w.post(func(ww *World) {
		src := ww.players[sourceID]
		if src == nil {
			return
		}
		_, online := ww.charsOnline[strings.ToLower(name)]
		action := protocol.ActionPing
		if online {
			action = protocol.ActionNet242
		}
		reply := protocol.NewWriter(action, protocol.FamilyPlayers)
		reply.AddString(name)
		src.Send(reply)
	})
}

// Tell routes a private message; an offline target bounces Talk.Reply with
// the not-found code back to the sender.
func (w *World) Tell(sourceID int, sourceName, targetName, message string) {
	w.post(func(ww *World) {
		src := ww.players[sourceID]
		if src == nil {
			return
		}
		pid, online := ww.charsOnline[strings.ToLower(targetName)]
		target := ww.players[pid]
		if !online || target == nil {
			reply := protocol.NewWriter(protocol.ActionReply, protocol.FamilyTalk)
			reply.AddShort(talkNotFound)
			reply.AddString(targetName)
			src.Send(reply)
			return
		}
		out := protocol.NewWriter(protocol.ActionTell, protocol.FamilyTalk)
		out.AddBreakString(sourceName)
		out.AddString(message)
		target.Send(out)
	})
}

const talkNotFound = 1

// GlobalChat fans a message to every online player. While global chat is
// locked non-admin senders get the locked notice instead.
func (w *World) GlobalChat(sourceID int, sourceName, message string, admin bool) {
	w.post(func(ww *World) {
		src := ww.players[sourceID]
		if src == nil {
			return
		}
		if ww.globalLocked && !admin {
			notice := protocol.NewWriter(protocol.ActionServer, protocol.FamilyTalk)
			notice.AddString(ww.langT.GlobalLocked)
			src.Send(notice)
			return
		}
		out := protocol.NewWriter(protocol.ActionMsg, protocol.FamilyTalk)
		out.AddBreakString(sourceName)
		out.AddString(message)
		buf := out.Bytes()
		for pid, h := range ww.players {
			if pid != sourceID {
				h.SendBuf(buf)
			}
		}
	})
}

// GuildChat fans a message to the sender's online guildmates.
func (w *World) GuildChat(sourceID int, sourceName, tag, message string) {
	w.post(func(ww *World) {
		out := protocol.NewWriter(protocol.ActionRequest, protocol.FamilyTalk)
		out.AddBreakString(sourceName)
		out.AddString(message)
		buf := out.Bytes()
		for _, pid := range ww.guilds[tag] {
			if pid == sourceID {
				continue
			}
			if h := ww.players[pid]; h != nil {
				h.SendBuf(buf)
			}
		}
	})
}

// announce sends a server line to every online player.
func (w *World) announce(message string) {
	out := protocol.NewWriter(protocol.ActionServer, protocol.FamilyTalk)
	out.AddString(message)
	buf := out.Bytes()
	for _, h := range w.players {
		h.SendBuf(buf)
	}
}

// --- admin commands ---

// AdminAnnounce broadcasts a server line to everyone online on behalf of
// an admin.
func (w *World) AdminAnnounce(adminName, message string) {
	w.post(func(ww *World) {
		ww.announce(adminName + ": " + message)
	})
}

// AdminKick disconnects the named character and announces it.
func (w *World) AdminKick(adminName, targetName string) {
	w.post(func(ww *World) {
		pid, online := ww.charsOnline[strings.ToLower(targetName)]
		target := ww.players[pid]
		if !online || target == nil {
			return
		}
		ww.announce(lang.Sub(ww.langT.AnnounceRemove, "victim", targetName, "name", adminName))
		target.Close("removed by " + adminName)
	})
}

// AdminMute silences the named character; the Talk.Spec body carries the
// admin's name as a raw string.
func (w *World) AdminMute(adminName, targetName string) {
	w.post(func(ww *World) {
		pid, online := ww.charsOnline[strings.ToLower(targetName)]
		target := ww.players[pid]
		if !online || target == nil {
			return
		}
		target.SetMuted(adminName)
		spec := protocol.NewWriter(protocol.ActionSpec, protocol.FamilyTalk)
		spec.AddString(adminName)
		target.Send(spec)
		ww.announce(lang.Sub(ww.langT.AnnounceMute, "victim", targetName, "name", adminName))
	})
}

// AdminCaptcha arms a bot check on the named character. The target must
// answer in local chat before it can fight or pick up items again.
func (w *World) AdminCaptcha(adminName, targetName, answer string) {
	w.post(func(ww *World) {
		pid, online := ww.charsOnline[strings.ToLower(targetName)]
		target := ww.players[pid]
		if !online || target == nil {
			return
		}
		target.OpenCaptcha(answer)
		notice := protocol.NewWriter(protocol.ActionServer, protocol.FamilyTalk)
		notice.AddString(ww.langT.CaptchaChallenge)
		target.Send(notice)
		ww.log.Info("發起機器人驗證",
			zap.String("admin", adminName), zap.String("target", targetName))
	})
}

// AdminFreeze stops or releases the named character's movement.
func (w *World) AdminFreeze(adminName, targetName string, freeze bool) {
	w.post(func(ww *World) {
		pid, online := ww.charsOnline[strings.ToLower(targetName)]
		target := ww.players[pid]
		if !online || target == nil {
			return
		}
		target.SetFrozen(freeze)
		template := ww.langT.AnnounceFreeze
		if !freeze {
			template = ww.langT.AnnounceUnfreeze
		}
		ww.announce(lang.Sub(template, "victim", targetName, "name", adminName))
	})
}

// AdminLockGlobal toggles the global chat lock and announces the new state.
func (w *World) AdminLockGlobal(adminName string, locked bool) {
	w.post(func(ww *World) {
		ww.globalLocked = locked
		state := "off"
		if !locked {
			state = "on"
		}
		ww.announce(lang.Sub(ww.langT.AnnounceGlobal, "name", adminName, "state", state))
	})
}

// AdminWarpTo warps the admin to the named character's position.
func (w *World) AdminWarpTo(adminID int, targetName string) {
	w.post(func(ww *World) {
		pid, online := ww.charsOnline[strings.ToLower(targetName)]
		if !online {
			return
		}
		mapID, placed := ww.locations[pid]
		m := ww.maps[mapID]
		if !placed || m == nil {
			return
		}
		// Land on the map's relog point; exact target coords would need a
		// map query and the admin can walk the last stretch.
		ww.log.Info("管理員傳送", zap.Int("admin", adminID), zap.String("target", targetName))
		go ww.RequestWarp(adminID, mapID, m.File().RelogAt, gamemap.WarpAnimAdmin)
	})
}
