package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	DefaultListenAddr  = "127.0.0.1:7070"
	DefaultAdminAddr   = "127.0.0.1:7080"
	DefaultLocalSocket = "/var/run/kvantum-server/kvantum-server.sock"

	DefaultWorkers   = 16
	DefaultQueueSize = 1024

	DefaultShutdownTimeout = 10 * time.Second
	DefaultHookTimeout     = 30 * time.Second

	DefaultFilterStore = "file"
	DefaultFilterDir   = "/var/lib/kvantum-server/settings"

	DefaultIdleTimeout  = 5 * time.Minute
	DefaultWriteTimeout = 10 * time.Second
	DefaultMaxLineBytes = 64 << 10

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Listen: ListenConfig{
				Addr: DefaultListenAddr,
			},
			Admin: AdminConfig{
				Enabled: true,
				Addr:    DefaultAdminAddr,
			},
			Local: LocalConfig{
				Enabled: true,
				Path:    DefaultLocalSocket,
			},
		},
		Workers: WorkersSection{
			Size:      DefaultWorkers,
			QueueSize: DefaultQueueSize,
		},
		Shutdown: ShutdownSection{
			Timeout:     DefaultShutdownTimeout,
			HookTimeout: DefaultHookTimeout,
		},
		Filters: FiltersSection{
			Store: DefaultFilterStore,
			Dir:   DefaultFilterDir,
		},
		Pipeline: PipelineSection{
			IdleTimeout:  DefaultIdleTimeout,
			WriteTimeout: DefaultWriteTimeout,
			MaxLineBytes: DefaultMaxLineBytes,
			TempDir:      filepath.Join(os.TempDir(), "kvantum-server"),
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
