package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/kvantum-go/internal/core/socket"
	"github.com/yndnr/kvantum-go/internal/core/tempfile"
)

const maxAcceptBackoff = time.Second

// Acceptor receives every accepted connection. *acceptor.Acceptor
// satisfies it.
type Acceptor interface {
	Accept(sc *socket.Context) error
}

// Config holds the listener configuration.
type Config struct {
	Addr string

	// AcceptRate limits accepts per second. Zero disables the limit.
	AcceptRate float64
	// AcceptBurst is the limiter bucket size (default: 1).
	AcceptBurst int

	// TempDir roots per-connection scratch directories. Empty disables
	// scratch files.
	TempDir string
}

// Server runs the accept loop.
type Server struct {
	cfg      Config
	acceptor Acceptor
	logger   *slog.Logger
	limiter  *rate.Limiter

	mu     sync.Mutex
	ln     net.Listener
	cancel context.CancelFunc

	running atomic.Bool
	wg      sync.WaitGroup

	accepted atomic.Uint64
	refused  atomic.Uint64
}

// New creates a listener server.
func New(cfg Config, acceptor Acceptor, logger *slog.Logger) (*Server, error) {
	if acceptor == nil {
		return nil, errors.New("listener: acceptor is required")
	}
	if cfg.AcceptRate < 0 {
		return nil, fmt.Errorf("listener: negative accept rate %v", cfg.AcceptRate)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		acceptor: acceptor,
		logger:   logger,
	}
	if cfg.AcceptRate > 0 {
		burst := cfg.AcceptBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRate), burst)
	}
	return s, nil
}

// Start listens on Config.Addr and runs the accept loop in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listener: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on ln in the background. It takes ownership
// of ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.TempDir != "" {
		if err := os.MkdirAll(s.cfg.TempDir, 0o700); err != nil {
			ln.Close()
			return fmt.Errorf("listener: create temp dir: %w", err)
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.ln != nil {
		s.mu.Unlock()
		cancel()
		ln.Close()
		return errors.New("listener: already serving")
	}
	s.ln = ln
	s.cancel = cancel
	s.mu.Unlock()

	s.running.Store(true)
	s.logger.Info("listener started",
		"addr", ln.Addr().String(),
		"accept_rate", s.cfg.AcceptRate)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(loopCtx, ln); err != nil {
			s.logger.Error("accept loop stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Accepted returns how many connections were handed to the acceptor.
func (s *Server) Accepted() uint64 { return s.accepted.Load() }

// Refused returns how many of those the acceptor refused.
func (s *Server) Refused() uint64 { return s.refused.Load() }

// Shutdown closes the listener and waits for the accept loop to exit.
// Connections already handed over are the acceptor's to release.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	s.mu.Lock()
	ln, cancel := s.ln, s.cancel
	s.mu.Unlock()

	cancel()
	var closeErr error
	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		closeErr = err
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("listener stopped",
		"accepted", s.accepted.Load(),
		"refused", s.refused.Load())
	return closeErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	var backoff time.Duration

	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil
			}
		}

		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff *= 2
			}
			if backoff > maxAcceptBackoff {
				backoff = maxAcceptBackoff
			}
			s.logger.Warn("accept failed, retrying",
				"error", err,
				"backoff", backoff)

			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		backoff = 0

		s.dispatch(c)
	}
}

func (s *Server) dispatch(c net.Conn) {
	id := socket.NewID()
	opts := []socket.Option{socket.WithID(id)}
	if s.cfg.TempDir != "" {
		opts = append(opts, socket.WithTempFiles(tempfile.NewManager(s.cfg.TempDir, id+"-")))
	}
	sc := socket.New(c, opts...)

	s.accepted.Add(1)
	if err := s.acceptor.Accept(sc); err != nil {
		s.refused.Add(1)
		s.logger.Debug("connection refused",
			"conn", sc.ID(),
			"remote", c.RemoteAddr().String(),
			"error", err)
	}
}
