package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/yndnr/kvantum-go/internal/infra/confloader"
)

// Backend persists one namespace of boolean settings at a time.
type Backend interface {
	// Load returns the stored values of namespace. A namespace that was
	// never saved yields an empty map.
	Load(ctx context.Context, namespace string) (map[string]bool, error)
	Save(ctx context.Context, namespace string, values map[string]bool) error
	Close() error
}

// Settings is an in-memory view of one namespace, synchronized with a
// Backend on Load and Save. It is safe for concurrent use.
type Settings struct {
	namespace string
	backend   Backend

	mu     sync.RWMutex
	values map[string]bool
}

// NewSettings creates a view of namespace backed by backend.
func NewSettings(namespace string, backend Backend) *Settings {
	return &Settings{
		namespace: namespace,
		backend:   backend,
		values:    make(map[string]bool),
	}
}

// Namespace returns the settings namespace.
func (s *Settings) Namespace() string { return s.namespace }

// Load replaces in-memory values with the stored ones. On error the
// in-memory values are left untouched.
func (s *Settings) Load(ctx context.Context) error {
	values, err := s.backend.Load(ctx, s.namespace)
	if err != nil {
		return fmt.Errorf("load %s settings: %w", s.namespace, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

// SetIfNotExists stores value unless key already has one.
func (s *Settings) SetIfNotExists(key string, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		s.values[key] = value
	}
}

// Set stores value for key.
func (s *Settings) Set(key string, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Bool returns the value of key and whether it is set.
func (s *Settings) Bool(key string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// All returns a copy of every value.
func (s *Settings) All() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Save writes every in-memory value to the backend.
func (s *Settings) Save(ctx context.Context) error {
	if err := s.backend.Save(ctx, s.namespace, s.All()); err != nil {
		return fmt.Errorf("save %s settings: %w", s.namespace, err)
	}
	return nil
}

// FileBackend stores each namespace as <dir>/<namespace>.yml.
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

// NewFileBackend creates a file backend rooted at dir.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// Path returns the file holding namespace.
func (b *FileBackend) Path(namespace string) string {
	return filepath.Join(b.dir, namespace+".yml")
}

func (b *FileBackend) Load(ctx context.Context, namespace string) (map[string]bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := b.Path(namespace)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return map[string]bool{}, nil
	}

	l := confloader.NewLoader()
	if err := l.LoadFile(path); err != nil {
		return nil, err
	}

	prefix := namespace + "."
	values := make(map[string]bool)
	for _, key := range l.Keys() {
		name, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		v, err := parseBool(l.Get(key))
		if err != nil {
			return nil, fmt.Errorf("%s: key %s: %w", path, key, err)
		}
		values[name] = v
	}
	return values, nil
}

func (b *FileBackend) Save(ctx context.Context, namespace string, values map[string]bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	l := confloader.NewLoader()
	for _, key := range sortedKeys(values) {
		if err := l.Set(namespace+"."+key, values[key]); err != nil {
			return err
		}
	}
	return l.WriteFile(b.Path(namespace))
}

func (b *FileBackend) Close() error { return nil }

// KVBackend stores settings as <namespace>/<key> entries in a KV engine.
type KVBackend struct {
	kv KV
}

// NewKVBackend wraps kv. Close closes kv.
func NewKVBackend(kv KV) *KVBackend {
	return &KVBackend{kv: kv}
}

func (b *KVBackend) Load(ctx context.Context, namespace string) (map[string]bool, error) {
	prefix := namespace + "/"
	values := make(map[string]bool)

	var parseErr error
	err := b.kv.Scan(ctx, []byte(prefix), func(key, value []byte) bool {
		v, err := strconv.ParseBool(string(value))
		if err != nil {
			parseErr = fmt.Errorf("key %s: %w", key, err)
			return false
		}
		values[strings.TrimPrefix(string(key), prefix)] = v
		return true
	})
	if err != nil {
		return nil, err
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return values, nil
}

func (b *KVBackend) Save(ctx context.Context, namespace string, values map[string]bool) error {
	var errs []error
	for _, key := range sortedKeys(values) {
		k := []byte(namespace + "/" + key)
		if err := b.kv.Set(ctx, k, []byte(strconv.FormatBool(values[key]))); err != nil {
			errs = append(errs, fmt.Errorf("key %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

func (b *KVBackend) Close() error { return b.kv.Close() }

// MemoryBackend keeps settings in memory.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string]map[string]bool
}

// NewMemoryBackend creates an empty memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]map[string]bool)}
}

func (b *MemoryBackend) Load(ctx context.Context, namespace string) (map[string]bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]bool, len(b.data[namespace]))
	for k, v := range b.data[namespace] {
		out[k] = v
	}
	return out, nil
}

func (b *MemoryBackend) Save(ctx context.Context, namespace string, values map[string]bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ns := make(map[string]bool, len(values))
	for k, v := range values {
		ns[k] = v
	}
	b.data[namespace] = ns
	return nil
}

func (b *MemoryBackend) Close() error { return nil }

// Store names a settings backend.
type Store string

const (
	StoreFile   Store = "file"
	StoreBadger Store = "badger"
	StoreMemory Store = "memory"
)

// OpenBackend opens the backend named by store. dir is the settings
// directory for StoreFile and the database directory for StoreBadger.
func OpenBackend(store Store, dir string, logger *slog.Logger) (Backend, *BadgerEngine, error) {
	switch store {
	case StoreFile:
		return NewFileBackend(dir), nil, nil
	case StoreBadger:
		engine, err := NewBadgerEngine(DefaultKVConfig(dir), logger)
		if err != nil {
			return nil, nil, err
		}
		return NewKVBackend(engine), engine, nil
	case StoreMemory:
		return NewMemoryBackend(), nil, nil
	default:
		return nil, nil, fmt.Errorf("storage: unknown settings store %q", store)
	}
}

func parseBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(t)
	default:
		return false, fmt.Errorf("not a bool: %v", v)
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
