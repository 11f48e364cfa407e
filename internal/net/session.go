// Package net owns the TCP surface: the listener and the per-connection
// session with its read/write loops, framing, scramble and sequence checks.
// Decoded packet bodies are handed to the owning player actor; the session
// never interprets gameplay.
package net

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/telgard/server/internal/config"
	"github.com/telgard/server/internal/protocol"
	"go.uber.org/zap"
)

// Session is one client connection. The read loop descrambles and
// sequence-checks inbound frames and forwards the bodies; the write loop
// drains a bounded outbound queue. A full queue disconnects the client
// rather than blocking the sender.
type Session struct {
	id   int
	conn net.Conn
	cfg  *config.NetworkConfig
	log  *zap.Logger

	out    chan []byte
	closed chan struct{}

	closeOnce sync.Once

	mu          sync.Mutex
	clientMul   byte
	serverMul   byte
	initialized bool
	seq         *protocol.Sequencer

	onPacket func(body []byte)
	onClose  func(reason string)
}

func newSession(id int, conn net.Conn, cfg *config.NetworkConfig, log *zap.Logger) *Session {
	return &Session{
		id:     id,
		conn:   conn,
		cfg:    cfg,
		log:    log.With(zap.Int("session", id), zap.String("remote", conn.RemoteAddr().String())),
		out:    make(chan []byte, cfg.OutQueueSize),
		closed: make(chan struct{}),
		seq:    protocol.NewSequencer(0),
	}
}

// ID returns the session's player id.
func (s *Session) ID() int {
	return s.id
}

// RemoteIP returns the client address without the port.
func (s *Session) RemoteIP() string {
	host, _, err := net.SplitHostPort(s.conn.RemoteAddr().String())
	if err != nil {
		return s.conn.RemoteAddr().String()
	}
	return host
}

// OnPacket sets the inbound delivery callback. Must be set before Start.
func (s *Session) OnPacket(fn func(body []byte)) {
	s.onPacket = fn
}

// OnClose sets the teardown callback, invoked exactly once.
func (s *Session) OnClose(fn func(reason string)) {
	s.onClose = fn
}

// Start launches the read and write loops.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Initialize arms the scramble multiples and the sequence start after the
// handshake; every later frame in both directions is scrambled.
func (s *Session) Initialize(clientMul, serverMul byte, seqStart int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientMul = clientMul
	s.serverMul = serverMul
	s.seq.SetStart(seqStart)
	s.initialized = true
}

// Muls returns the negotiated scramble multiples.
func (s *Session) Muls() (clientMul, serverMul byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientMul, s.serverMul
}

// ConfirmSequenceStart advances the sequence base once a pong confirms the
// server-chosen upcoming value.
func (s *Session) ConfirmSequenceStart(start int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq.SetStart(start)
}

func (s *Session) readLoop() {
	for {
		body, err := protocol.ReadFrame(s.conn)
		if err != nil {
			s.Close("read: " + err.Error())
			return
		}
		body, err = s.decode(body)
		if err != nil {
			// Sequence mismatches and short bodies drop the packet only;
			// framing errors above tear the connection down.
			s.log.Warn("封包解碼失敗", zap.Error(err))
			continue
		}
		if s.onPacket != nil {
			s.onPacket(body)
		}
	}
}

// decode descrambles and strips the sequence byte. Init-family packets are
// sent in the clear with no sequence.
func (s *Session) decode(body []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		if len(body) < 2 {
			return nil, fmt.Errorf("short handshake packet: %d bytes", len(body))
		}
		return body, nil
	}

	protocol.Unscramble(body, s.clientMul)
	if len(body) < 2 {
		return nil, fmt.Errorf("short packet: %d bytes", len(body))
	}
	if protocol.Family(body[1]) == protocol.FamilyInit {
		return body, nil
	}
	if len(body) < 3 {
		return nil, fmt.Errorf("missing sequence byte")
	}
	got := protocol.DecodeNumber(body[2])
	want := s.seq.Next()
	if got != want {
		return nil, fmt.Errorf("sequence mismatch: got %d want %d", got, want)
	}
	return append(body[:2], body[3:]...), nil
}

// Send encodes and queues one packet.
func (s *Session) Send(w *protocol.Writer) {
	s.SendBuf(w.Bytes())
}

// SendBuf queues a pre-serialized body. The body is copied before scrambling
// so shared fan-out buffers stay intact.
func (s *Session) SendBuf(body []byte) {
	out := append([]byte(nil), body...)

	s.mu.Lock()
	if s.initialized {
		protocol.Scramble(out, s.serverMul)
	}
	s.mu.Unlock()

	select {
	case s.out <- out:
	case <-s.closed:
	default:
		// Outbound queue saturated: a client this far behind is gone.
		s.Close("outbound queue full")
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case body := <-s.out:
			if s.cfg.WriteTimeout.Duration > 0 {
				_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout.Duration))
			}
			if err := protocol.WriteFrame(s.conn, body); err != nil {
				s.Close("write: " + err.Error())
				return
			}
		case <-s.closed:
			return
		}
	}
}

// Close tears the connection down once, with a diagnostic reason.
func (s *Session) Close(reason string) {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
		s.log.Info("連線關閉", zap.String("reason", reason))
		if s.onClose != nil {
			s.onClose(reason)
		}
	})
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}
