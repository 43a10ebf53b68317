package localserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// maxRequestBytes bounds a single command line.
	maxRequestBytes = 4096

	ioTimeout = 10 * time.Second
)

// Server represents the local management server.
type Server struct {
	path    string
	handler *Handler
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	running  atomic.Bool
	wg       sync.WaitGroup
}

// New creates a new local server.
func New(socketPath string, handler *Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		path:    socketPath,
		handler: handler,
		logger:  logger,
	}
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Listen creates the socket. A stale socket file left by a previous run is
// removed; any other file at the path is an error.
func (s *Server) Listen() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("localserver: create socket dir: %w", err)
	}
	if fi, err := os.Lstat(s.path); err == nil {
		if fi.Mode().Type() != fs.ModeSocket {
			return fmt.Errorf("localserver: %s exists and is not a socket", s.path)
		}
		if err := os.Remove(s.path); err != nil {
			return fmt.Errorf("localserver: remove stale socket: %w", err)
		}
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return err
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("localserver: chmod socket: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.running.Store(true)
	return nil
}

// Serve accepts connections until Shutdown. Listen must have succeeded.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("localserver: not listening")
	}

	s.logger.Info("local management socket listening", "path", s.path)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// ListenAndServe starts the local server.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown closes the listener, removes the socket file and waits for
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	var closeErr error
	if ln != nil {
		closeErr = ln.Close()
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		closeErr = errors.Join(closeErr, err)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(ioTimeout))

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 512), maxRequestBytes)

	enc := json.NewEncoder(conn)
	for scanner.Scan() {
		resp := s.handler.Execute(scanner.Text())
		if err := enc.Encode(resp); err != nil {
			s.logger.Debug("local socket write failed", "error", err)
			return
		}
		_ = conn.SetDeadline(time.Now().Add(ioTimeout))
	}
	if err := scanner.Err(); err != nil {
		s.logger.Debug("local socket read failed", "error", err)
	}
}
