package config

import "time"

// ServerConfig is the root configuration for kvantum-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Workers  WorkersSection  `koanf:"workers"`
	Shutdown ShutdownSection `koanf:"shutdown"`
	Filters  FiltersSection  `koanf:"filters"`
	Pipeline PipelineSection `koanf:"pipeline"`
	Log      LogSection      `koanf:"log"`

	// Debug logs every accepted connection.
	Debug bool `koanf:"debug"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Listen ListenConfig `koanf:"listen"`
	Admin  AdminConfig  `koanf:"admin"`
	Local  LocalConfig  `koanf:"local"`
}

// ListenConfig configures the connection listener.
type ListenConfig struct {
	Addr string `koanf:"addr"`

	// AcceptRate limits accepted connections per second. Zero disables
	// the limit.
	AcceptRate float64 `koanf:"accept_rate"`

	// AcceptBurst is the limiter bucket size.
	AcceptBurst int `koanf:"accept_burst"`
}

// AdminConfig configures the admin HTTP server.
type AdminConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LocalConfig configures the local management socket.
type LocalConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// WorkersSection sizes the worker pool.
type WorkersSection struct {
	Size      int `koanf:"size"`
	QueueSize int `koanf:"queue_size"`
}

// ShutdownSection bounds shutdown.
type ShutdownSection struct {
	// Timeout bounds the wait for in-flight pipelines.
	Timeout time.Duration `koanf:"timeout"`

	// HookTimeout bounds every shutdown hook together.
	HookTimeout time.Duration `koanf:"hook_timeout"`
}

// FiltersSection configures the socket filters and where their
// enablement is persisted.
type FiltersSection struct {
	// Store is file, badger or memory.
	Store string `koanf:"store"`
	Dir   string `koanf:"dir"`

	// AllowList holds the CIDRs admitted by the allowList filter.
	AllowList []string `koanf:"allow_list"`
}

// PipelineSection configures the line pipeline.
type PipelineSection struct {
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	MaxLineBytes int           `koanf:"max_line_bytes"`

	// Transcript spools every received line to a per-connection temp file.
	Transcript bool   `koanf:"transcript"`
	TempDir    string `koanf:"temp_dir"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
