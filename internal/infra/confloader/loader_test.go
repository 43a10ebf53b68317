package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Listen struct {
		Addr       string  `koanf:"addr"`
		AcceptRate float64 `koanf:"accept_rate"`
	} `koanf:"listen"`
	Debug bool `koanf:"debug"`
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/path/to/config.yaml"))
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want TEST_", l.envPrefix)
	}
	if l.filePath != "/path/to/config.yaml" {
		t.Errorf("filePath = %q", l.filePath)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeFile(t, `
listen:
  addr: "0.0.0.0:7070"
  accept_rate: 50
debug: true
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := l.GetString("listen.addr"); got != "0.0.0.0:7070" {
		t.Errorf("listen.addr = %q", got)
	}
	if got := l.GetInt("listen.accept_rate"); got != 50 {
		t.Errorf("listen.accept_rate = %d, want 50", got)
	}
	if !l.GetBool("debug") {
		t.Error("debug should be true")
	}
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v", err)
	}
}

func TestLoader_LoadEnv_SectionSeparator(t *testing.T) {
	t.Setenv("KVANTUM_LISTEN__ACCEPT_RATE", "25")
	t.Setenv("KVANTUM_DEBUG", "true")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := l.GetString("listen.accept_rate"); got != "25" {
		t.Errorf("listen.accept_rate = %q, want 25", got)
	}
	if !l.GetBool("debug") {
		t.Error("debug should be true")
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeFile(t, `
listen:
  addr: "from-file:7070"
  accept_rate: 10
`)
	t.Setenv("KVANTUM_LISTEN__ADDR", "from-env:8080")

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen.Addr != "from-env:8080" {
		t.Errorf("Addr = %q, want env override", cfg.Listen.Addr)
	}
	if cfg.Listen.AcceptRate != 10 {
		t.Errorf("AcceptRate = %v, want 10 from file", cfg.Listen.AcceptRate)
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"listen.addr": "localhost:3000"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if got := l.GetString("listen.addr"); got != "localhost:3000" {
		t.Errorf("listen.addr = %q", got)
	}
	if l.IsLoaded() {
		t.Error("IsLoaded() should be false before Load")
	}
}

func TestLoader_SetAndWriteFile(t *testing.T) {
	l := NewLoader()
	if l.Exists("socketFilters.isActive") {
		t.Fatal("key should not exist yet")
	}
	if err := l.Set("socketFilters.isActive", true); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := l.Set("socketFilters.all", false); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !l.Exists("socketFilters.isActive") {
		t.Error("key should exist after Set")
	}

	path := filepath.Join(t.TempDir(), "nested", "settings.yml")
	if err := l.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	reread := NewLoader()
	if err := reread.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !reread.GetBool("socketFilters.isActive") {
		t.Error("isActive should round-trip as true")
	}
	if !reread.Exists("socketFilters.all") || reread.GetBool("socketFilters.all") {
		t.Error("all should round-trip as false")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the settings file", len(entries))
	}
}
