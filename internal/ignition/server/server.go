// Package server wires the nine core components (C1-C9) and the
// ambient stack into a running server: listen, pre-post accepts, and
// run the worker pool's completion-drain loops. Grounded on
// pkg/shockwave/server/server.go's Config/Stats/BaseServer shape,
// adapted from that package's net/http-style handler dispatch to this
// spec's reactor + state-machine pipeline.
package server

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/yourusername/ignition/internal/ignition/cache"
	"github.com/yourusername/ignition/internal/ignition/config"
	"github.com/yourusername/ignition/internal/ignition/connpool"
	"github.com/yourusername/ignition/internal/ignition/connstate"
	"github.com/yourusername/ignition/internal/ignition/logging"
	"github.com/yourusername/ignition/internal/ignition/ratelimit"
	"github.com/yourusername/ignition/internal/ignition/reactor"
	"github.com/yourusername/ignition/internal/ignition/socket"
	"github.com/yourusername/ignition/internal/ignition/stats"
)

// Server owns the listener, the reactor, and the worker pool that
// drains it.
type Server struct {
	cfg     config.Config
	log     *logging.Logger
	Stats   *stats.Stats
	Cache   *cache.Cache
	Limiter *ratelimit.Limiter

	listener net.Listener
	reactor  *reactor.Reactor
	pool     *connpool.Pool

	wg sync.WaitGroup
}

// New constructs a Server bound to cfg but does not yet listen.
func New(cfg config.Config, log *logging.Logger) *Server {
	return &Server{
		cfg:     cfg,
		log:     log,
		Stats:   &stats.Stats{},
		Cache:   cache.New(),
		Limiter: ratelimit.New(cfg.RateLimitBuckets, cfg.PerIPLimit),
	}
}

// ListenAndServe binds the listener, pre-posts 2*workers accept slots
// per spec.md §4.7, and runs cfg.Workers completion-drain loops until
// Shutdown is called. It blocks until every worker has exited.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}
	if err := socket.TuneListener(l); err != nil {
		_ = l.Close()
		return fmt.Errorf("server: tune listener: %w", err)
	}
	s.listener = l

	s.pool = connpool.New(s.cfg.ConnPoolCapacity, s.cfg.RecvBufSize, s.cfg.SendBufSize)
	s.reactor = reactor.New(l, s.cfg.Workers*4)

	slots := 2 * s.cfg.Workers
	for i := 0; i < slots; i++ {
		s.reactor.PostAccept(i)
	}

	if s.log != nil {
		s.log.Listening(s.cfg.Addr)
	}

	for i := 0; i < s.cfg.Workers; i++ {
		m := connstate.New(s.cfg, s.pool, s.reactor, s.Limiter, s.Cache, s.Stats, s.log)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			m.Run(s.cfg.CompletionTimeout)
		}()
	}

	s.wg.Wait()
	return nil
}

// Shutdown posts enough sentinel completions to wake every worker, per
// spec.md §5, then closes the listener, and waits for workers to exit.
func (s *Server) Shutdown() {
	if s.reactor != nil {
		s.reactor.Shutdown(s.cfg.Workers)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.log != nil {
		s.log.Shutdown()
	}
	s.wg.Wait()
}

// StatsLoop logs a stats snapshot every interval until stop is closed.
// Used by cmd/ignition when --stats is set.
func (s *Server) StatsLoop(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if s.log != nil {
				s.log.Log(logging.Event{Kind: "stats", Path: string(s.Stats.Snapshot())})
			}
		}
	}
}
