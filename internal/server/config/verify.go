package config

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/yndnr/kvantum-go/internal/telemetry/logger"
)

// Verify validates the configuration and returns every problem found.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("config: nil configuration")
	}

	var errs []error
	errs = append(errs, verifyServer(&cfg.Server)...)
	errs = append(errs, verifyWorkers(&cfg.Workers)...)
	errs = append(errs, verifyShutdown(&cfg.Shutdown)...)
	errs = append(errs, verifyFilters(&cfg.Filters)...)
	errs = append(errs, verifyPipeline(&cfg.Pipeline)...)
	errs = append(errs, verifyLog(&cfg.Log)...)
	return errors.Join(errs...)
}

func verifyServer(s *ServerSection) []error {
	var errs []error
	if err := verifyAddr("server.listen.addr", s.Listen.Addr); err != nil {
		errs = append(errs, err)
	}
	if s.Listen.AcceptRate < 0 {
		errs = append(errs, errors.New("server.listen.accept_rate must not be negative"))
	}
	if s.Listen.AcceptBurst < 0 {
		errs = append(errs, errors.New("server.listen.accept_burst must not be negative"))
	}
	if s.Admin.Enabled {
		if err := verifyAddr("server.admin.addr", s.Admin.Addr); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Local.Enabled && s.Local.Path == "" {
		errs = append(errs, errors.New("server.local.path is required when the local socket is enabled"))
	}
	return errs
}

func verifyAddr(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

func verifyWorkers(w *WorkersSection) []error {
	var errs []error
	if w.Size < 1 {
		errs = append(errs, errors.New("workers.size must be at least 1"))
	}
	if w.QueueSize < 0 {
		errs = append(errs, errors.New("workers.queue_size must not be negative"))
	}
	return errs
}

func verifyShutdown(s *ShutdownSection) []error {
	var errs []error
	if s.Timeout <= 0 {
		errs = append(errs, errors.New("shutdown.timeout must be positive"))
	}
	if s.HookTimeout <= 0 {
		errs = append(errs, errors.New("shutdown.hook_timeout must be positive"))
	}
	return errs
}

func verifyFilters(f *FiltersSection) []error {
	var errs []error
	switch f.Store {
	case "file", "badger":
		if f.Dir == "" {
			errs = append(errs, fmt.Errorf("filters.dir is required for the %s store", f.Store))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("filters.store %q is not one of file, badger, memory", f.Store))
	}
	for _, cidr := range f.AllowList {
		if _, err := netip.ParsePrefix(strings.TrimSpace(cidr)); err != nil {
			errs = append(errs, fmt.Errorf("filters.allow_list: %w", err))
		}
	}
	return errs
}

func verifyPipeline(p *PipelineSection) []error {
	var errs []error
	if p.IdleTimeout < 0 || p.WriteTimeout < 0 {
		errs = append(errs, errors.New("pipeline timeouts must not be negative"))
	}
	if p.MaxLineBytes < 1 {
		errs = append(errs, errors.New("pipeline.max_line_bytes must be at least 1"))
	}
	if p.Transcript && p.TempDir == "" {
		errs = append(errs, errors.New("pipeline.temp_dir is required when transcripts are enabled"))
	}
	return errs
}

func verifyLog(l *LogSection) []error {
	var errs []error
	if _, err := logger.ParseLevel(l.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(l.Format) {
	case "", "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", l.Format))
	}
	return errs
}
