package workerpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultSize      = 16
	DefaultQueueSize = 1024
)

var (
	// ErrPoolClosed is returned by Submit after shutdown began.
	ErrPoolClosed = errors.New("workerpool: pool closed")
	// ErrQueueFull is returned by Submit when the queue has no free slot.
	ErrQueueFull = errors.New("workerpool: queue full")
)

// Task is a unit of work. ctx is cancelled by ShutdownNow.
type Task func(ctx context.Context)

// Config holds the pool configuration.
type Config struct {
	// Size is the number of worker goroutines.
	Size int
	// QueueSize is the number of tasks that may wait for a worker.
	QueueSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Size:      DefaultSize,
		QueueSize: DefaultQueueSize,
	}
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Size      int    `json:"size" yaml:"size"`
	Busy      int64  `json:"busy" yaml:"busy"`
	Queued    int    `json:"queued" yaml:"queued"`
	Completed uint64 `json:"completed" yaml:"completed"`
	Discarded uint64 `json:"discarded" yaml:"discarded"`
	Panicked  uint64 `json:"panicked" yaml:"panicked"`
	Closed    bool   `json:"closed" yaml:"closed"`
}

// Pool is a fixed-size worker pool.
type Pool struct {
	size   int
	queue  chan Task
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	wg   sync.WaitGroup
	done chan struct{}

	busy      atomic.Int64
	completed atomic.Uint64
	discarded atomic.Uint64
	panicked  atomic.Uint64
}

// New creates a pool and starts its workers.
func New(cfg Config, logger *slog.Logger) (*Pool, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("workerpool: size must be positive, got %d", cfg.Size)
	}
	if cfg.QueueSize < 0 {
		return nil, fmt.Errorf("workerpool: queue size must not be negative, got %d", cfg.QueueSize)
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		size:   cfg.Size,
		queue:  make(chan Task, cfg.QueueSize),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	p.wg.Add(cfg.Size)
	for i := 0; i < cfg.Size; i++ {
		go p.worker()
	}
	go func() {
		p.wg.Wait()
		close(p.done)
	}()

	return p, nil
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		if p.ctx.Err() != nil {
			p.discarded.Add(1)
			continue
		}
		p.run(task)
	}
}

func (p *Pool) run(task Task) {
	p.busy.Add(1)
	defer func() {
		p.busy.Add(-1)
		if r := recover(); r != nil {
			p.panicked.Add(1)
			p.logger.Error("worker task panicked",
				"panic", r,
				"stack", string(debug.Stack()))
			return
		}
		p.completed.Add(1)
	}()
	task(p.ctx)
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("workerpool: nil task")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops intake. Queued tasks still run.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.queue)
}

// ShutdownNow stops intake, cancels running tasks and discards queued ones.
// It returns the number of queued tasks it discarded itself; workers may
// discard a few more that they had already dequeued.
func (p *Pool) ShutdownNow() int {
	p.mu.Lock()
	p.cancel()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	n := 0
	for range p.queue {
		n++
	}
	p.discarded.Add(uint64(n))
	return n
}

// Wait blocks until every worker has exited or ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AwaitTermination blocks up to timeout for every worker to exit and reports
// whether they did.
func (p *Pool) AwaitTermination(timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return p.Wait(ctx) == nil
}

// Terminated reports whether every worker has exited.
func (p *Pool) Terminated() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Size returns the fixed worker count.
func (p *Pool) Size() int {
	return p.size
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	return Stats{
		Size:      p.size,
		Busy:      p.busy.Load(),
		Queued:    len(p.queue),
		Completed: p.completed.Load(),
		Discarded: p.discarded.Load(),
		Panicked:  p.panicked.Load(),
		Closed:    closed,
	}
}
