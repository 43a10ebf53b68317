package acceptor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/kvantum-go/internal/core/filter"
	"github.com/yndnr/kvantum-go/internal/core/socket"
	"github.com/yndnr/kvantum-go/internal/server/workerpool"
	"github.com/yndnr/kvantum-go/pkg/cmap"
)

// DefaultShutdownTimeout bounds how long Shutdown waits for workers.
const DefaultShutdownTimeout = 10 * time.Second

// Config holds the acceptor configuration.
type Config struct {
	// ShutdownTimeout bounds the wait for workers during Shutdown (default: 10s).
	ShutdownTimeout time.Duration
	// Debug logs every accepted connection.
	Debug bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{ShutdownTimeout: DefaultShutdownTimeout}
}

// Pool runs pipeline tasks. *workerpool.Pool satisfies it.
type Pool interface {
	Submit(task workerpool.Task) error
	ShutdownNow() int
	Wait(ctx context.Context) error
}

// Stats is a point-in-time view of the acceptor counters.
type Stats struct {
	Active               int               `json:"active" yaml:"active"`
	Accepted             uint64            `json:"accepted" yaml:"accepted"`
	Rejected             map[string]uint64 `json:"rejected" yaml:"rejected"`
	Dropped              uint64            `json:"dropped" yaml:"dropped"`
	Teardowns            uint64            `json:"teardowns" yaml:"teardowns"`
	TransportCloseErrors uint64            `json:"transport_close_errors" yaml:"transport_close_errors"`
	TempFileErrors       uint64            `json:"temp_file_errors" yaml:"temp_file_errors"`
	PipelineFailures     uint64            `json:"pipeline_failures" yaml:"pipeline_failures"`
	ShuttingDown         bool              `json:"shutting_down" yaml:"shutting_down"`
}

// ConnInfo describes one live connection.
type ConnInfo struct {
	ID         string    `json:"id" yaml:"id"`
	Remote     string    `json:"remote" yaml:"remote"`
	AcceptedAt time.Time `json:"accepted_at" yaml:"accepted_at"`
}

// Acceptor admits connections and dispatches them to a Pipeline.
type Acceptor struct {
	cfg      Config
	chain    *filter.Chain
	pool     Pool
	pipeline Pipeline
	logger   *slog.Logger

	conns *cmap.Map[*socket.Context]

	// stateMu orders Accept against the start of Shutdown.
	stateMu sync.RWMutex
	closing bool

	accepted         atomic.Uint64
	dropped          atomic.Uint64
	teardowns        atomic.Uint64
	transportErrs    atomic.Uint64
	tempFileErrs     atomic.Uint64
	pipelineFailures atomic.Uint64

	rejectMu sync.Mutex
	rejected map[string]uint64
}

// New creates an acceptor. chain may be nil (admit everything).
func New(cfg Config, chain *filter.Chain, pool Pool, pipeline Pipeline, logger *slog.Logger) (*Acceptor, error) {
	if pool == nil {
		return nil, errors.New("acceptor: pool is required")
	}
	if pipeline == nil {
		return nil, errors.New("acceptor: pipeline is required")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Acceptor{
		cfg:      cfg,
		chain:    chain,
		pool:     pool,
		pipeline: pipeline,
		logger:   logger,
		conns:    cmap.New[*socket.Context](),
		rejected: make(map[string]uint64),
	}, nil
}

// Accept runs the filter chain on sc and, if admitted, tracks it and
// schedules its pipeline. It never waits for the pipeline.
//
// Every non-nil error means sc has been torn down, except ErrReleased and
// ErrAlreadyTracked, which leave sc untouched.
func (a *Acceptor) Accept(sc *socket.Context) error {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()

	if sc.Released() {
		return ErrReleased
	}
	if a.closing {
		a.dropped.Add(1)
		a.Teardown(sc)
		return ErrShuttingDown
	}

	if ok, by := a.chain.Evaluate(sc); !ok {
		a.countRejected(by)
		a.logger.Debug("socket filter rejected connection",
			"conn", sc.ID(),
			"remote", addrString(sc),
			"filter", by)
		a.Teardown(sc)
		return &RejectedError{Filter: by, ConnID: sc.ID()}
	}

	// Tracked before dispatch so Shutdown always sees it.
	if !a.conns.SetIfAbsent(sc.ID(), sc) {
		return ErrAlreadyTracked
	}

	if a.cfg.Debug {
		a.logger.Debug("accepting connection",
			"conn", sc.ID(),
			"remote", addrString(sc))
	}

	if err := a.pool.Submit(func(ctx context.Context) {
		a.process(ctx, sc)
	}); err != nil {
		a.dropped.Add(1)
		a.logger.Warn("failed to dispatch connection",
			"conn", sc.ID(),
			"error", err)
		a.Teardown(sc)
		return fmt.Errorf("acceptor: dispatch %s: %w", sc.ID(), err)
	}

	a.accepted.Add(1)
	return nil
}

func (a *Acceptor) process(ctx context.Context, sc *socket.Context) {
	defer func() {
		if r := recover(); r != nil {
			a.pipelineFailures.Add(1)
			a.logger.Error("pipeline panicked",
				"conn", sc.ID(),
				"panic", r)
			a.Teardown(sc)
		}
	}()

	if err := a.pipeline.Process(ctx, a, sc); err != nil {
		a.pipelineFailures.Add(1)
		a.logger.Debug("pipeline failed",
			"conn", sc.ID(),
			"error", err)
		a.Teardown(sc)
	}
}

// Teardown releases sc: it closes the transport if still open, clears its
// scratch files and stops tracking it. Each step runs regardless of the
// others. Failures are logged and returned joined, as *TransportCloseError
// and *TempFileError, for observability only.
//
// Only the first call does any work; later calls return nil.
func (a *Acceptor) Teardown(sc *socket.Context) error {
	if !sc.MarkReleased() {
		return nil
	}

	var errs []error

	if !sc.Closed() {
		if err := sc.Close(); err != nil {
			a.transportErrs.Add(1)
			a.logger.Warn("failed to close connection transport",
				"conn", sc.ID(),
				"error", err)
			errs = append(errs, &TransportCloseError{ConnID: sc.ID(), Err: err})
		}
	}

	if tf := sc.TempFiles(); tf != nil {
		if err := tf.Clear(); err != nil {
			a.tempFileErrs.Add(1)
			a.logger.Warn("failed to clear connection temp files",
				"conn", sc.ID(),
				"error", err)
			errs = append(errs, &TempFileError{ConnID: sc.ID(), Err: err})
		}
	}

	if _, ok := a.conns.Pop(sc.ID()); ok {
		a.teardowns.Add(1)
	}

	return errors.Join(errs...)
}

// Shutdown stops admitting connections, tears down every live connection,
// cancels the workers and waits up to Config.ShutdownTimeout for them.
//
// Running out of time is logged and is not an error. If ctx is cancelled
// first the wait is abandoned and ctx.Err() is returned.
func (a *Acceptor) Shutdown(ctx context.Context) error {
	a.stateMu.Lock()
	already := a.closing
	a.closing = true
	a.stateMu.Unlock()

	if already {
		return nil
	}

	a.logger.Info("shutting down connection acceptor",
		"connections", a.conns.Count())

	for _, sc := range a.conns.Values() {
		a.Teardown(sc)
	}

	a.logger.Info("waiting for workers to finish",
		"timeout", a.cfg.ShutdownTimeout)

	discarded := a.pool.ShutdownNow()

	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.ShutdownTimeout)
	defer cancel()

	err := a.pool.Wait(waitCtx)
	switch {
	case err == nil:
		a.logger.Info("workers stopped", "discarded_tasks", discarded)
	case ctx.Err() != nil:
		a.logger.Warn("interrupted while waiting for workers", "error", ctx.Err())
		return ctx.Err()
	default:
		a.logger.Warn("timed out waiting for workers, continuing shutdown",
			"timeout", a.cfg.ShutdownTimeout)
	}
	return nil
}

// ShuttingDown reports whether Shutdown has begun.
func (a *Acceptor) ShuttingDown() bool {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.closing
}

// Tracked reports whether the connection with id is live.
func (a *Acceptor) Tracked(id string) bool {
	return a.conns.Has(id)
}

// Len returns the number of live connections.
func (a *Acceptor) Len() int {
	return a.conns.Count()
}

// Connections lists the live connections, oldest first.
func (a *Acceptor) Connections() []ConnInfo {
	values := a.conns.Values()
	out := make([]ConnInfo, 0, len(values))
	for _, sc := range values {
		out = append(out, ConnInfo{
			ID:         sc.ID(),
			Remote:     addrString(sc),
			AcceptedAt: sc.AcceptedAt(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AcceptedAt.Before(out[j].AcceptedAt)
	})
	return out
}

// Stats returns a snapshot of the acceptor counters.
func (a *Acceptor) Stats() Stats {
	a.rejectMu.Lock()
	rejected := make(map[string]uint64, len(a.rejected))
	for k, v := range a.rejected {
		rejected[k] = v
	}
	a.rejectMu.Unlock()

	return Stats{
		Active:               a.conns.Count(),
		Accepted:             a.accepted.Load(),
		Rejected:             rejected,
		Dropped:              a.dropped.Load(),
		Teardowns:            a.teardowns.Load(),
		TransportCloseErrors: a.transportErrs.Load(),
		TempFileErrors:       a.tempFileErrs.Load(),
		PipelineFailures:     a.pipelineFailures.Load(),
		ShuttingDown:         a.ShuttingDown(),
	}
}

func (a *Acceptor) countRejected(key string) {
	a.rejectMu.Lock()
	a.rejected[key]++
	a.rejectMu.Unlock()
}

func addrString(sc *socket.Context) string {
	if addr := sc.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
