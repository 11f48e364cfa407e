package handler

import (
	"math/rand"

	"github.com/telgard/server/internal/protocol"
	"go.uber.org/zap"
)

const initReplyOK = 2

// registerInit wires the cleartext handshake and the liveness pong.
func (d *Deps) registerInit(reg *protocol.Registry) {
	reg.Register(protocol.FamilyInit, protocol.ActionInit,
		[]protocol.SessionState{protocol.StateUninitialized}, d.handleInitRequest)

	reg.Register(protocol.FamilyConnection, protocol.ActionAccept,
		[]protocol.SessionState{protocol.StateInitialized, protocol.StateLoggedIn, protocol.StatePlaying},
		d.handleConnectionAccept)

	reg.Register(protocol.FamilyConnection, protocol.ActionPing,
		[]protocol.SessionState{protocol.StateLoggedIn, protocol.StatePlaying},
		func(sess any, r *protocol.Reader) {
			if p := asPlayer(sess); p != nil {
				p.Pong()
			}
		})
}

// handleInitRequest answers the opening packet: the client sends a random
// challenge plus its version, the server picks scramble multiples and a
// sequence seed and echoes everything back in the clear. The session is
// scrambled from the next packet on.
func (d *Deps) handleInitRequest(sess any, r *protocol.Reader) {
	p := asPlayer(sess)
	if p == nil {
		return
	}

	challenge := r.GetThree()
	versionMajor := r.GetChar()
	versionMinor := r.GetChar()
	versionPatch := r.GetChar()
	_ = versionPatch

	clientMul := byte(6 + rand.Intn(5))
	serverMul := byte(6 + rand.Intn(5))
	seqStart := rand.Intn(240)
	s1, s2 := protocol.ChallengeFor(seqStart)

	w := protocol.NewWriter(protocol.ActionInit, protocol.FamilyInit)
	w.AddByte(initReplyOK)
	w.AddByte(s1)
	w.AddByte(s2)
	w.AddByte(serverMul) // the client decodes with this, encodes with the other
	w.AddByte(clientMul)
	w.AddShort(p.PlayerID())
	w.AddThree(challengeResponse(challenge))
	p.Session().Send(w)

	p.Session().Initialize(clientMul, serverMul, seqStart)
	p.State = protocol.StateInitialized

	p.Log().Info("交握完成",
		zap.Int("version_major", versionMajor),
		zap.Int("version_minor", versionMinor),
	)
}

// challengeResponse is the fixed transform the client verifies to confirm
// it is talking to a real server.
func challengeResponse(challenge int) int {
	return challenge%11 + (challenge*119)%256 + 2
}

// handleConnectionAccept verifies the client's echo of the negotiated
// parameters. The multiples come back swapped; any mismatch is a forged or
// corrupted handshake.
func (d *Deps) handleConnectionAccept(sess any, r *protocol.Reader) {
	p := asPlayer(sess)
	if p == nil {
		return
	}

	echoServerMul := byte(r.GetShort())
	echoClientMul := byte(r.GetShort())
	echoID := r.GetShort()

	clientMul, serverMul := p.Session().Muls()
	if echoID != p.PlayerID() || echoServerMul != serverMul || echoClientMul != clientMul {
		p.Close("invalid handshake echo")
	}
}
