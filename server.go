package main

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Server accepts TCP connections and hands each one to its own worker
// goroutine, which echoes everything the peer sends to the log.
// Workers are detached: the server never waits on one while accepting, and
// a failing worker affects no other connection.
type Server struct {
	cfg        Config
	logger     Logger
	interrupts *Interrupter

	// mu guards listener and orders dispatch against Shutdown.
	mu         sync.Mutex
	listener   net.Listener
	inShutdown atomic.Bool

	accepted atomic.Uint64
	active   atomic.Int64
}

func NewServer(cfg Config, logger Logger, interrupts *Interrupter) *Server {
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = defaultGracePeriod
	}
	if logger == nil {
		logger = glogLogger{}
	}
	return &Server{
		cfg:        cfg,
		logger:     logger,
		interrupts: interrupts,
	}
}

func (s *Server) ListenAndServe() error {
	if s.shuttingDown() {
		return ErrServerClosed
	}
	ln, err := listen(s.cfg.Addr(), s.cfg.Backlog)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve runs the accept loop on ln, which the server owns from now on.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.shuttingDown() {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	logf(s.logger, LevelInfo, "listening on %s", ln.Addr())
	return s.run(ln)
}

// run accepts connections until accept fails for good. Interrupted accepts
// are retried within the retry budget.
func (s *Server) run(ln net.Listener) error {
	d, _ := ln.(deadliner)
	for {
		// rwc is scoped to this iteration: the value checked is the value dispatched.
		rwc, err := retryInterrupted(s.logger, "accept", retryBudget, func() (net.Conn, error) {
			return interruptible(s.interrupts, d, "accept", ln.Accept)
		})
		if err != nil {
			if s.shuttingDown() {
				return ErrServerClosed
			}
			logf(s.logger, LevelError, "accept failed: %v", err)
			return fmt.Errorf("accept: %w", err)
		}
		if !s.dispatch(rwc) {
			return ErrServerClosed
		}
	}
}

// dispatch hands rwc to a new worker. It reports false, closing rwc, when
// the server is already shutting down.
func (s *Server) dispatch(rwc net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shuttingDown() {
		rwc.Close()
		return false
	}
	s.accepted.Add(1)
	s.active.Add(1)
	c := newConn(rwc, s.logger, s.interrupts)
	logf(s.logger, LevelDebug, "%s: accepted", c.remoteAddr)
	go func() {
		defer s.active.Add(-1)
		c.serve()
	}()
	return true
}

// Shutdown closes the listener and waits for the active workers to finish
// on their own. Workers are never cancelled; if ctx expires first its error
// is returned and the remaining workers keep running.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.inShutdown.Store(true)
	// Close the listener to stop accepting new connections.
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()

	ticker := time.NewTicker(shutdownPollInterval)
	defer ticker.Stop()
	for {
		if s.ActiveConns() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Server) shuttingDown() bool {
	return s.inShutdown.Load()
}

// Addr returns the listener's address, or nil before Serve is called.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ActiveConns returns the number of workers that have not finished yet.
func (s *Server) ActiveConns() int64 {
	return s.active.Load()
}

// Accepted returns the number of connections dispatched so far.
func (s *Server) Accepted() uint64 {
	return s.accepted.Load()
}
