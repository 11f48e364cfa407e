package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/telgard/server/internal/config"
	"go.uber.org/zap"
)

// Server accepts client connections and hands each one to the session
// factory as a Session with a fresh player id.
type Server struct {
	cfg *config.Config
	log *zap.Logger

	nextID    atomic.Int64
	onSession func(*Session)

	listener net.Listener
}

// NewServer builds the listener. onSession is invoked for every accepted
// connection, before the session loops start.
func NewServer(cfg *config.Config, log *zap.Logger, onSession func(*Session)) *Server {
	return &Server{
		cfg:       cfg,
		log:       log.Named("net"),
		onSession: onSession,
	}
}

// ListenAndServe blocks on the accept loop until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Network.BindAddress)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Network.BindAddress, err)
	}
	s.listener = ln
	s.log.Info("伺服器開始監聽", zap.String("addr", s.cfg.Network.BindAddress))

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("accept 失敗", zap.Error(err))
			continue
		}

		id := int(s.nextID.Add(1))
		sess := newSession(id, conn, &s.cfg.Network, s.log)
		s.onSession(sess)
		sess.Start()
	}
}
