// Package server accepts TCP connections and feeds each one through its own
// segmenter.
package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/bulkd/internal/domain"
	"github.com/bft-labs/bulkd/internal/ports"
	"github.com/bft-labs/bulkd/internal/segment"
)

// Server is the bulk command TCP server.
type Server struct {
	addr     string
	bulkSize atomic.Int64
	ingress  segment.Ingress
	logger   ports.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[string]net.Conn
	closing  bool
	connWG   sync.WaitGroup
	ready    chan struct{}
}

// New creates a server listening on addr that opens channels on ingress with
// bulkSize commands per static pack.
func New(addr string, bulkSize int, ingress segment.Ingress, logger ports.Logger) (*Server, error) {
	s := &Server{
		addr:    addr,
		ingress: ingress,
		logger:  logger,
		conns:   make(map[string]net.Conn),
		ready:   make(chan struct{}),
	}
	if err := s.SetBulkSize(bulkSize); err != nil {
		return nil, err
	}
	return s, nil
}

// SetBulkSize changes the bulk size used for connections accepted afterwards.
func (s *Server) SetBulkSize(n int) error {
	if n <= 0 {
		return domain.ErrInvalidCapacity
	}
	s.bulkSize.Store(int64(n))
	return nil
}

// BulkSize returns the bulk size for new connections.
func (s *Server) BulkSize() int {
	return int(s.bulkSize.Load())
}

// Ready is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the listening address, or nil before Run has started listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens and serves connections until ctx is cancelled.
// On return every connection has been closed and its segmenter flushed.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)

	s.logger.Info("listening", ports.String("addr", ln.Addr().String()), ports.Int("bulk_size", s.BulkSize()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		err := ln.Close()
		s.closeConns()
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return s.acceptLoop(gctx, ln)
	})

	err = g.Wait()
	s.connWG.Wait()
	s.logger.Info("server stopped")
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	bo := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("accept failed, retrying",
				ports.Err(err),
				ports.Duration("backoff", bo.Current()),
			)
			if werr := bo.Wait(ctx); werr != nil {
				return nil
			}
			continue
		}
		bo.Reset()

		id := uuid.New().String()
		s.track(id, conn)
		s.connWG.Add(1)
		go func() {
			defer s.connWG.Done()
			defer s.untrack(id)
			s.serve(id, conn)
		}()
	}
}

// serve runs one connection through a segmenter until the peer hangs up or
// the server closes the connection.
func (s *Server) serve(id string, conn net.Conn) {
	defer conn.Close()

	bulkSize := s.BulkSize()
	s.logger.Debug("connection accepted",
		ports.String("conn", id),
		ports.String("remote", conn.RemoteAddr().String()),
		ports.Int("bulk_size", bulkSize),
	)

	seg, err := segment.New(s.ingress, bulkSize, s.logger)
	if err != nil {
		s.logger.Error("open channels", ports.String("conn", id), ports.Err(err))
		return
	}

	if err := seg.Consume(bufio.NewReader(conn)); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Warn("connection read failed", ports.String("conn", id), ports.Err(err))
	}
	if err := seg.Close(); err != nil {
		s.logger.Error("close channels", ports.String("conn", id), ports.Err(err))
	}

	s.logger.Debug("connection closed", ports.String("conn", id))
}

func (s *Server) track(id string, conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		// accepted while shutting down; serve sees the closed conn and flushes nothing
		_ = conn.Close()
		return
	}
	s.conns[id] = conn
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

// closeConns unblocks every connection reader so its segmenter is flushed.
func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	for _, c := range s.conns {
		_ = c.Close()
	}
}
