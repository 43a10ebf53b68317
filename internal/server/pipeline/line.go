package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yndnr/kvantum-go/internal/core/socket"
	"github.com/yndnr/kvantum-go/internal/server/acceptor"
	"github.com/yndnr/kvantum-go/internal/telemetry/logger"
)

// Defaults applied by New for zero fields.
const (
	DefaultIdleTimeout  = 5 * time.Minute
	DefaultWriteTimeout = 10 * time.Second
	DefaultMaxLineBytes = 64 << 10
)

// Config configures the line pipeline.
type Config struct {
	IdleTimeout  time.Duration
	WriteTimeout time.Duration
	MaxLineBytes int
	Transcript   bool
}

// fileCreator is implemented by tempfile.Manager.
type fileCreator interface {
	Create(pattern string) (*os.File, error)
}

// Line is an acceptor.Pipeline speaking the line protocol.
type Line struct {
	cfg    Config
	logger *slog.Logger

	sessions atomic.Uint64
	lines    atomic.Uint64
}

var _ acceptor.Pipeline = (*Line)(nil)

// New creates a line pipeline.
func New(cfg Config, log *slog.Logger) *Line {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = DefaultMaxLineBytes
	}
	if log == nil {
		log = slog.Default()
	}
	return &Line{cfg: cfg, logger: log}
}

// Sessions returns how many connections the pipeline has served.
func (p *Line) Sessions() uint64 { return p.sessions.Load() }

// Lines returns how many lines the pipeline has answered.
func (p *Line) Lines() uint64 { return p.lines.Load() }

// Process serves sc until the peer quits, goes idle or fails, or ctx is
// cancelled. Clean endings release sc through conns; failures are returned
// for the acceptor to release.
func (p *Line) Process(ctx context.Context, conns acceptor.Connections, sc *socket.Context) error {
	conn := sc.Conn()
	if conn == nil {
		return errors.New("pipeline: context has no transport")
	}

	p.sessions.Add(1)
	ctx = logger.WithLogger(logger.WithConnID(ctx, sc.ID()), p.logger)
	log := logger.L(ctx)

	// Cancellation unblocks any pending read or write.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	transcript := p.openTranscript(sc, log)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, min(4096, p.cfg.MaxLineBytes)), p.cfg.MaxLineBytes)
	w := bufio.NewWriter(conn)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(p.cfg.IdleTimeout)); err != nil {
			return p.fail(sc, fmt.Errorf("pipeline: set read deadline: %w", err))
		}
		// Checked after the deadline reset so a cancellation racing it is not lost.
		if ctx.Err() != nil {
			conns.Teardown(sc)
			return nil
		}

		if !scanner.Scan() {
			err := scanner.Err()
			switch {
			case err == nil:
				log.Debug("peer closed connection")
				conns.Teardown(sc)
				return nil
			case ctx.Err() != nil || sc.Released() || errors.Is(err, net.ErrClosed):
				conns.Teardown(sc)
				return nil
			case errors.Is(err, bufio.ErrTooLong):
				p.reply(conn, w, "-ERR line too long")
				return p.fail(sc, fmt.Errorf("pipeline: line exceeds %d bytes", p.cfg.MaxLineBytes))
			case isTimeout(err):
				log.Debug("connection idle timeout", "idle_timeout", p.cfg.IdleTimeout)
				conns.Teardown(sc)
				return nil
			default:
				return p.fail(sc, fmt.Errorf("pipeline: read: %w", err))
			}
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		p.lines.Add(1)
		if transcript != nil {
			if _, err := io.WriteString(transcript, line+"\n"); err != nil {
				log.Warn("transcript write failed, disabling", "error", err)
				transcript = nil
			}
		}

		resp, quit := respond(line)
		if err := p.reply(conn, w, resp); err != nil {
			if ctx.Err() != nil || sc.Released() {
				conns.Teardown(sc)
				return nil
			}
			return p.fail(sc, fmt.Errorf("pipeline: write: %w", err))
		}
		if quit {
			log.Debug("peer quit")
			conns.Teardown(sc)
			return nil
		}
	}
}

func respond(line string) (resp string, quit bool) {
	switch strings.ToUpper(strings.TrimSpace(line)) {
	case "PING":
		return "+PONG", false
	case "QUIT":
		return "+BYE", true
	default:
		return line, false
	}
}

func (p *Line) reply(conn net.Conn, w *bufio.Writer, s string) error {
	if err := conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout)); err != nil {
		return err
	}
	if _, err := w.WriteString(s + "\n"); err != nil {
		return err
	}
	return w.Flush()
}

func (p *Line) fail(sc *socket.Context, err error) error {
	sc.MarkBroken()
	return err
}

func (p *Line) openTranscript(sc *socket.Context, log *slog.Logger) io.Writer {
	if !p.cfg.Transcript {
		return nil
	}
	fc, ok := sc.TempFiles().(fileCreator)
	if !ok {
		log.Debug("transcript requested but connection has no scratch files")
		return nil
	}
	f, err := fc.Create("transcript-*.log")
	if err != nil {
		log.Warn("failed to create transcript", "error", err)
		return nil
	}
	log.Debug("transcript started", "file", f.Name())
	return f
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
