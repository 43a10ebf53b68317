package filter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"reflect"
	"testing"

	"github.com/yndnr/kvantum-go/internal/core/socket"
)

// fakeSettings is an in-memory Settings with injectable failures.
type fakeSettings struct {
	values  map[string]bool
	loadErr error
	saveErr error
	saved   map[string]bool
}

func newFakeSettings(values map[string]bool) *fakeSettings {
	if values == nil {
		values = make(map[string]bool)
	}
	return &fakeSettings{values: values}
}

func (s *fakeSettings) Load(context.Context) error { return s.loadErr }

func (s *fakeSettings) SetIfNotExists(key string, value bool) {
	if _, ok := s.values[key]; !ok {
		s.values[key] = value
	}
}

func (s *fakeSettings) Bool(key string) (bool, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *fakeSettings) Save(context.Context) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = make(map[string]bool, len(s.values))
	for k, v := range s.values {
		s.saved[k] = v
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func catalog(t *testing.T) []Entry {
	t.Helper()
	entries, err := DefaultCatalog([]string{"127.0.0.0/8"})
	if err != nil {
		t.Fatal(err)
	}
	return entries
}

func TestNewRegistry_DefaultsPersisted(t *testing.T) {
	settings := newFakeSettings(nil)

	r, err := NewRegistry(context.Background(), catalog(t), settings, discardLogger())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	want := map[string]bool{
		KeyIsActive:  true,
		KeyAll:       false,
		KeyAllowList: false,
		KeyLockdown:  false,
	}
	if !reflect.DeepEqual(settings.saved, want) {
		t.Errorf("saved = %v, want %v", settings.saved, want)
	}
	if got := r.Chain().Keys(); !reflect.DeepEqual(got, []string{KeyIsActive}) {
		t.Errorf("active = %v, want [isActive]", got)
	}
}

func TestNewRegistry_PersistedOverridesDefault(t *testing.T) {
	settings := newFakeSettings(map[string]bool{
		KeyIsActive: false,
		KeyLockdown: true,
	})

	r, err := NewRegistry(context.Background(), catalog(t), settings, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	if r.Enabled(KeyIsActive) {
		t.Error("isActive should be disabled by persisted value")
	}
	if !r.Enabled(KeyLockdown) {
		t.Error("lockdown should be enabled by persisted value")
	}
	if got := r.Chain().Keys(); !reflect.DeepEqual(got, []string{KeyLockdown}) {
		t.Errorf("active = %v, want [lockdown]", got)
	}
	// Existing values are not overwritten by defaults.
	if v, _ := settings.Bool(KeyIsActive); v {
		t.Error("SetIfNotExists overwrote persisted isActive")
	}
}

func TestNewRegistry_SettingsFailuresAreNonFatal(t *testing.T) {
	settings := newFakeSettings(nil)
	settings.loadErr = errors.New("store offline")
	settings.saveErr = errors.New("disk full")

	r, err := NewRegistry(context.Background(), catalog(t), settings, discardLogger())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v, want nil", err)
	}
	if got := r.Chain().Keys(); !reflect.DeepEqual(got, []string{KeyIsActive}) {
		t.Errorf("active = %v, want defaults [isActive]", got)
	}
}

func TestNewRegistry_LoadFailureSkipsSave(t *testing.T) {
	settings := newFakeSettings(map[string]bool{KeyLockdown: true})
	settings.loadErr = errors.New("lockdown: invalid bool")

	r, err := NewRegistry(context.Background(), catalog(t), settings, discardLogger())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v, want nil", err)
	}
	if settings.saved != nil {
		t.Errorf("Save() called with %v after failed load", settings.saved)
	}
	if _, ok := settings.values[KeyAll]; ok {
		t.Error("defaults written into unreadable settings")
	}
	if got := r.Chain().Keys(); !reflect.DeepEqual(got, []string{KeyIsActive}) {
		t.Errorf("active = %v, want defaults [isActive]", got)
	}
}

func TestNewRegistry_NilSettings(t *testing.T) {
	r, err := NewRegistry(context.Background(), catalog(t), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Chain().Len() != 1 {
		t.Errorf("Chain().Len() = %d, want 1", r.Chain().Len())
	}
	if len(r.Statuses()) != 4 {
		t.Errorf("len(Statuses()) = %d, want 4", len(r.Statuses()))
	}
}

func TestNewRegistry_InvalidCatalog(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty key", []Entry{{Key: "", Eval: AlwaysAdmit}}},
		{"nil predicate", []Entry{{Key: "x"}}},
		{"duplicate", []Entry{{Key: "x", Eval: AlwaysAdmit}, {Key: "x", Eval: Lockdown}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(context.Background(), tt.entries, nil, discardLogger())
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("error = %v, want ErrInvalidCatalog", err)
			}
		})
	}
}

// Two filters registered, {all: disabled, isActive: enabled}.
func TestRegistry_ActivityGatedScenario(t *testing.T) {
	entries := []Entry{
		{Key: KeyAll, Eval: AlwaysAdmit, DefaultEnabled: false},
		{Key: KeyIsActive, Eval: IsActive, DefaultEnabled: true},
	}
	r, err := NewRegistry(context.Background(), entries, newFakeSettings(nil), discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	a, b := net.Pipe()
	defer b.Close()
	sc := socket.New(a)

	if ok, _ := r.Chain().Evaluate(sc); !ok {
		t.Error("active transport should be admitted")
	}

	sc.Close()
	ok, by := r.Chain().Evaluate(sc)
	if ok || by != KeyIsActive {
		t.Errorf("Evaluate(inactive) = (%v, %q), want (false, isActive)", ok, by)
	}
}
