package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrInvalidCatalog is returned when the catalog cannot form a registry.
var ErrInvalidCatalog = errors.New("filter: invalid catalog")

// Settings is the persisted key to boolean store the registry reads its
// enablement flags from.
type Settings interface {
	Load(ctx context.Context) error
	SetIfNotExists(key string, value bool)
	Bool(key string) (value bool, ok bool)
	Save(ctx context.Context) error
}

// Status describes one catalog entry after resolution.
type Status struct {
	Key            string `json:"key" yaml:"key"`
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	DefaultEnabled bool   `json:"default_enabled" yaml:"default_enabled"`
}

// Registry holds the resolved filter catalog. It is immutable once built.
type Registry struct {
	statuses []Status
	chain    *Chain
}

// NewRegistry validates entries, merges them with the persisted flags in
// settings and resolves the active chain. A nil settings store means the
// defaults are used as-is.
//
// Only an invalid catalog is an error. Settings failures are logged.
func NewRegistry(ctx context.Context, entries []Entry, settings Settings, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := validate(entries); err != nil {
		return nil, err
	}

	enabled := make(map[string]bool, len(entries))
	for _, e := range entries {
		enabled[e.Key] = e.DefaultEnabled
	}

	if settings != nil {
		if err := settings.Load(ctx); err != nil {
			// Stored values stay untouched until an operator repairs them.
			logger.Warn("socket filter settings unreadable, using defaults without persisting them",
				"namespace", Namespace,
				"error", err)
		} else {
			for _, e := range entries {
				settings.SetIfNotExists(e.Key, e.DefaultEnabled)
			}
			if err := settings.Save(ctx); err != nil {
				logger.Warn("failed to persist socket filter settings",
					"namespace", Namespace,
					"error", err)
			}
			for _, e := range entries {
				if v, ok := settings.Bool(e.Key); ok {
					enabled[e.Key] = v
				}
			}
		}
	}

	r := &Registry{statuses: make([]Status, 0, len(entries))}
	active := make([]Entry, 0, len(entries))
	for _, e := range entries {
		r.statuses = append(r.statuses, Status{
			Key:            e.Key,
			Enabled:        enabled[e.Key],
			DefaultEnabled: e.DefaultEnabled,
		})
		if enabled[e.Key] {
			active = append(active, e)
		}
	}
	r.chain = NewChain(active...)

	logger.Info("socket filters loaded",
		"active", r.chain.Keys(),
		"available", len(entries))

	return r, nil
}

func validate(entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.Key == "" {
			return fmt.Errorf("%w: entry %d has no key", ErrInvalidCatalog, i)
		}
		if e.Eval == nil {
			return fmt.Errorf("%w: filter %q has no predicate", ErrInvalidCatalog, e.Key)
		}
		if _, dup := seen[e.Key]; dup {
			return fmt.Errorf("%w: duplicate filter key %q", ErrInvalidCatalog, e.Key)
		}
		seen[e.Key] = struct{}{}
	}
	return nil
}

// Chain returns the active filter chain.
func (r *Registry) Chain() *Chain {
	return r.chain
}

// Enabled reports whether the filter with key is active.
func (r *Registry) Enabled(key string) bool {
	for _, s := range r.statuses {
		if s.Key == key {
			return s.Enabled
		}
	}
	return false
}

// Statuses returns every catalog entry with its resolved flag, in catalog order.
func (r *Registry) Statuses() []Status {
	out := make([]Status, len(r.statuses))
	copy(out, r.statuses)
	return out
}
