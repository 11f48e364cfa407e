package protocol

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SessionState represents the connection's current protocol phase.
type SessionState int

const (
	StateUninitialized SessionState = iota // awaiting Init.Request handshake
	StateInitialized                       // handshake done, awaiting login
	StateLoggedIn                          // at character select
	StatePlaying                           // in world
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateInitialized:
		return "Initialized"
	case StateLoggedIn:
		return "LoggedIn"
	case StatePlaying:
		return "Playing"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Unrecognized(%d)", int(s))
	}
}

// HandlerFunc is the callback signature for packet handlers. The session
// pointer is passed as an opaque interface to avoid import cycles.
type HandlerFunc func(sess any, r *Reader)

type opKey struct {
	Family Family
	Action Action
}

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[SessionState]bool
	minInterval   time.Duration // 0 = unlimited
}

// Registry maps (family, action) pairs to handlers with state-based access
// control and optional per-connection rate limits.
type Registry struct {
	handlers map[opKey]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[opKey]*handlerEntry),
		log:      log,
	}
}

// Register maps a (family, action) pair to a handler, restricted to the
// given session states.
func (reg *Registry) Register(family Family, action Action, states []SessionState, fn HandlerFunc) {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[opKey{family, action}] = &handlerEntry{
		fn:            fn,
		allowedStates: allowed,
	}
}

// Limit sets a minimum inter-arrival time for a registered pair. Packets
// arriving faster are dropped silently.
func (reg *Registry) Limit(family Family, action Action, minInterval time.Duration) {
	if e, ok := reg.handlers[opKey{family, action}]; ok {
		e.minInterval = minInterval
	}
}

// MinInterval returns the configured inter-arrival floor for a pair.
func (reg *Registry) MinInterval(family Family, action Action) time.Duration {
	if e, ok := reg.handlers[opKey{family, action}]; ok {
		return e.minInterval
	}
	return 0
}

// Dispatch finds the handler for the body's (family, action), validates the
// session state, and calls the handler. Unknown pairs log and drop; a pair
// arriving in a disallowed state is a protocol violation.
func (reg *Registry) Dispatch(sess any, state SessionState, data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("truncated packet: %d bytes", len(data))
	}
	r := NewReader(data)

	entry, ok := reg.handlers[opKey{r.Family(), r.Action()}]
	if !ok {
		reg.log.Error("未註冊的封包",
			zap.String("family", r.Family().String()),
			zap.String("action", r.Action().String()),
			zap.String("state", state.String()),
		)
		return nil
	}

	if !entry.allowedStates[state] {
		return fmt.Errorf("packet %s.%s not allowed in state %s",
			r.Family(), r.Action(), state)
	}

	return reg.safeCall(entry.fn, sess, r)
}

// safeCall executes a handler with panic recovery so a single bad packet
// cannot take down the actor loop.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("處理器 panic 已恢復",
				zap.String("family", r.Family().String()),
				zap.String("action", r.Action().String()),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for %s.%s: %v", r.Family(), r.Action(), rec)
		}
	}()
	fn(sess, r)
	return nil
}
