package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrKeyNotFound is returned by KV.Get for a missing key.
	ErrKeyNotFound = errors.New("storage: key not found")
	// ErrClosed is returned after the engine has been closed.
	ErrClosed = errors.New("storage: engine closed")
)

// KV is an embedded key-value store. Implementations are safe for
// concurrent use.
type KV interface {
	// Get returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)
	Set(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	// Scan visits every key with prefix in key order until fn returns false.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error
	Close() error
}

// KVConfig configures the Badger engine.
type KVConfig struct {
	// Dir is the storage directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory.
	InMemory bool

	// GCInterval is the interval between value-log GC runs (default: 10m).
	GCInterval time.Duration

	// GCDiscardRatio is the value-log GC discard ratio (default: 0.5).
	GCDiscardRatio float64

	// SyncWrites fsyncs after each write.
	SyncWrites bool
}

// DefaultKVConfig returns the default configuration for dir.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Dir:            dir,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
		SyncWrites:     true,
	}
}
