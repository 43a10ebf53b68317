package storage

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/yndnr/kvantum-go/internal/core/filter"
)

const testNamespace = "socketFilters"

type failingBackend struct {
	*MemoryBackend
	loadErr, saveErr error
}

func (b *failingBackend) Load(ctx context.Context, ns string) (map[string]bool, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return b.MemoryBackend.Load(ctx, ns)
}

func (b *failingBackend) Save(ctx context.Context, ns string, values map[string]bool) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	return b.MemoryBackend.Save(ctx, ns, values)
}

func TestSettings_SetIfNotExists(t *testing.T) {
	s := NewSettings(testNamespace, NewMemoryBackend())

	s.Set("isActive", false)
	s.SetIfNotExists("isActive", true)
	s.SetIfNotExists("all", false)

	if v, ok := s.Bool("isActive"); !ok || v {
		t.Errorf("Bool(isActive) = %v, %v; want false, true", v, ok)
	}
	if v, ok := s.Bool("all"); !ok || v {
		t.Errorf("Bool(all) = %v, %v; want false, true", v, ok)
	}
	if _, ok := s.Bool("missing"); ok {
		t.Error("Bool(missing) should report unset")
	}
}

func TestSettings_LoadFailureKeepsMemory(t *testing.T) {
	backend := &failingBackend{MemoryBackend: NewMemoryBackend(), loadErr: errors.New("disk gone")}
	s := NewSettings(testNamespace, backend)
	s.Set("isActive", true)

	if err := s.Load(context.Background()); err == nil {
		t.Fatal("Load() should fail")
	}
	if v, ok := s.Bool("isActive"); !ok || !v {
		t.Error("in-memory value should survive a failed load")
	}

	backend.saveErr = errors.New("read-only")
	if err := s.Save(context.Background()); err == nil {
		t.Error("Save() should fail")
	}
}

func testBackendRoundTrip(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	empty, err := backend.Load(ctx, testNamespace)
	if err != nil {
		t.Fatalf("Load() on empty backend error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Load() on empty backend = %v, want empty", empty)
	}

	s := NewSettings(testNamespace, backend)
	s.SetIfNotExists("isActive", true)
	s.SetIfNotExists("all", false)
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	other := NewSettings(testNamespace, backend)
	if err := other.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got := other.All()
	if len(got) != 2 || !got["isActive"] || got["all"] {
		t.Errorf("All() = %v, want isActive=true all=false", got)
	}

	if _, err := backend.Load(ctx, "otherNamespace"); err != nil {
		t.Errorf("Load(otherNamespace) error = %v", err)
	}
}

func TestMemoryBackend_RoundTrip(t *testing.T) {
	testBackendRoundTrip(t, NewMemoryBackend())
}

func TestFileBackend_RoundTrip(t *testing.T) {
	b := NewFileBackend(t.TempDir())
	testBackendRoundTrip(t, b)

	data, err := os.ReadFile(b.Path(testNamespace))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "socketFilters:") || !strings.Contains(string(data), "isActive: true") {
		t.Errorf("settings file = %q, want nested socketFilters section", data)
	}
}

func TestFileBackend_HandEditedFile(t *testing.T) {
	b := NewFileBackend(t.TempDir())
	content := "socketFilters:\n  isActive: false\n  lockdown: \"true\"\nunrelated:\n  key: 1\n"
	if err := os.WriteFile(b.Path(testNamespace), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := b.Load(context.Background(), testNamespace)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 || got["isActive"] || !got["lockdown"] {
		t.Errorf("Load() = %v, want isActive=false lockdown=true", got)
	}
}

func TestFileBackend_InvalidValue(t *testing.T) {
	b := NewFileBackend(t.TempDir())
	content := "socketFilters:\n  isActive: maybe\n"
	if err := os.WriteFile(b.Path(testNamespace), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := b.Load(context.Background(), testNamespace); err == nil {
		t.Error("Load() should reject a non-bool value")
	}
}

func TestFileBackend_UnreadableFileSurvivesRegistry(t *testing.T) {
	b := NewFileBackend(t.TempDir())
	content := []byte("socketFilters:\n  isActive: true\n  lockdown: yes\n")
	if err := os.WriteFile(b.Path(filter.Namespace), content, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	entries, err := filter.DefaultCatalog(nil)
	if err != nil {
		t.Fatalf("DefaultCatalog() error = %v", err)
	}
	r, err := filter.NewRegistry(context.Background(), entries, NewSettings(filter.Namespace, b), quietLogger())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	for _, k := range r.Chain().Keys() {
		if k == filter.KeyLockdown {
			t.Error("lockdown active from an unreadable file")
		}
	}

	after, err := os.ReadFile(b.Path(filter.Namespace))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(after) != string(content) {
		t.Errorf("settings file rewritten:\n%s\nwant unchanged:\n%s", after, content)
	}
}

func TestKVBackend_RoundTrip(t *testing.T) {
	e := newTestEngine(t, "")
	testBackendRoundTrip(t, NewKVBackend(e))

	v, err := e.Get(context.Background(), []byte("socketFilters/isActive"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(v) != "true" {
		t.Errorf("stored value = %q, want true", v)
	}
}

func TestKVBackend_InvalidValue(t *testing.T) {
	e := newTestEngine(t, "")
	if err := e.Set(context.Background(), []byte("socketFilters/isActive"), []byte("maybe")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := NewKVBackend(e).Load(context.Background(), testNamespace); err == nil {
		t.Error("Load() should reject a non-bool value")
	}
}

func TestOpenBackend(t *testing.T) {
	for _, store := range []Store{StoreFile, StoreMemory} {
		b, engine, err := OpenBackend(store, t.TempDir(), quietLogger())
		if err != nil {
			t.Fatalf("OpenBackend(%s) error = %v", store, err)
		}
		if engine != nil {
			t.Errorf("OpenBackend(%s) returned an engine", store)
		}
		b.Close()
	}

	b, engine, err := OpenBackend(StoreBadger, t.TempDir(), quietLogger())
	if err != nil {
		t.Fatalf("OpenBackend(badger) error = %v", err)
	}
	if engine == nil {
		t.Error("OpenBackend(badger) should return the engine")
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if _, _, err := OpenBackend("etcd", "", nil); err == nil {
		t.Error("OpenBackend(etcd) should fail")
	}
}
