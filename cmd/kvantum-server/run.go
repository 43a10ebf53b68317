package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/kvantum-go/internal/core/filter"
	"github.com/yndnr/kvantum-go/internal/infra/buildinfo"
	"github.com/yndnr/kvantum-go/internal/infra/confloader"
	"github.com/yndnr/kvantum-go/internal/infra/shutdown"
	"github.com/yndnr/kvantum-go/internal/server/acceptor"
	"github.com/yndnr/kvantum-go/internal/server/config"
	"github.com/yndnr/kvantum-go/internal/server/httpserver"
	"github.com/yndnr/kvantum-go/internal/server/listener"
	"github.com/yndnr/kvantum-go/internal/server/localserver"
	"github.com/yndnr/kvantum-go/internal/server/pipeline"
	"github.com/yndnr/kvantum-go/internal/server/status"
	"github.com/yndnr/kvantum-go/internal/server/workerpool"
	"github.com/yndnr/kvantum-go/internal/storage"
	"github.com/yndnr/kvantum-go/internal/telemetry/logger"
	"github.com/yndnr/kvantum-go/internal/telemetry/metric"
)

func run(ctx context.Context, configFile string, overrides map[string]any) error {
	cfg, err := config.Load(configFile, overrides)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	log.Info("starting kvantum-server", append(buildinfo.LogAttrs(), "config", configFile)...)

	sh := shutdown.NewHandler(cfg.Shutdown.HookTimeout, log)
	startedAt := time.Now()

	// Hooks run in reverse registration order, so register the component
	// that must be released last first.
	backend, engine, err := storage.OpenBackend(storage.Store(cfg.Filters.Store), cfg.Filters.Dir, log)
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}
	sh.OnShutdown("settings store", func(context.Context) error {
		return backend.Close()
	})

	registry, err := initFilters(ctx, cfg, backend, log)
	if err != nil {
		backend.Close()
		return err
	}

	pool, err := workerpool.New(workerpool.Config{
		Size:      cfg.Workers.Size,
		QueueSize: cfg.Workers.QueueSize,
	}, log)
	if err != nil {
		backend.Close()
		return fmt.Errorf("init worker pool: %w", err)
	}

	line := pipeline.New(pipeline.Config{
		IdleTimeout:  cfg.Pipeline.IdleTimeout,
		WriteTimeout: cfg.Pipeline.WriteTimeout,
		MaxLineBytes: cfg.Pipeline.MaxLineBytes,
		Transcript:   cfg.Pipeline.Transcript,
	}, log)

	acc, err := acceptor.New(acceptor.Config{
		ShutdownTimeout: cfg.Shutdown.Timeout,
		Debug:           cfg.Debug,
	}, registry.Chain(), pool, line, log)
	if err != nil {
		pool.ShutdownNow()
		backend.Close()
		return fmt.Errorf("init acceptor: %w", err)
	}

	reporter := &status.Reporter{
		Acceptor:  acc,
		Pool:      pool,
		Filters:   registry,
		StartedAt: startedAt,
	}

	metrics, err := initMetrics(acc, pool, line, engine)
	if err != nil {
		pool.ShutdownNow()
		backend.Close()
		return fmt.Errorf("init metrics: %w", err)
	}

	// From here on every started component has a hook, so failures
	// unwind through the shutdown handler.
	startErr := startServers(ctx, cfg, sh, log, reporter, metrics, acc)
	if startErr == nil {
		startErr = watchConfig(configFile, sh, log)
	}
	if startErr != nil {
		log.Error("startup failed", "error", startErr)
		sh.Trigger("startup failed")
		return errors.Join(startErr, sh.Wait(context.Background()))
	}

	log.Info("server started",
		"listen", cfg.Server.Listen.Addr,
		"workers", cfg.Workers.Size,
		"filters", registry.Chain().Keys())

	if err := sh.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// initFilters resolves the socket filter chain against the persisted
// enablement flags.
func initFilters(ctx context.Context, cfg *config.ServerConfig, backend storage.Backend, log *slog.Logger) (*filter.Registry, error) {
	catalog, err := filter.DefaultCatalog(cfg.Filters.AllowList)
	if err != nil {
		return nil, fmt.Errorf("build filter catalog: %w", err)
	}

	settings := storage.NewSettings(filter.Namespace, backend)
	registry, err := filter.NewRegistry(ctx, catalog, settings, log)
	if err != nil {
		return nil, fmt.Errorf("init filter registry: %w", err)
	}

	for _, st := range registry.Statuses() {
		log.Info("socket filter", "key", st.Key, "enabled", st.Enabled)
	}
	return registry, nil
}

func initMetrics(acc *acceptor.Acceptor, pool *workerpool.Pool, line *pipeline.Line, engine *storage.BadgerEngine) (*metric.Registry, error) {
	reg := metric.NewRegistry()

	if err := reg.Register(metric.NewCollector(acc, pool)); err != nil {
		return nil, err
	}
	if err := reg.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: "pipeline",
		Name:      "sessions_total",
		Help:      "Connections handled by the line pipeline.",
	}, func() float64 { return float64(line.Sessions()) })); err != nil {
		return nil, err
	}
	if err := reg.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: "pipeline",
		Name:      "lines_total",
		Help:      "Lines received by the line pipeline.",
	}, func() float64 { return float64(line.Lines()) })); err != nil {
		return nil, err
	}
	if engine != nil {
		if err := engine.RegisterMetrics(reg.Registerer()); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// startServers starts the management surfaces, then the acceptor-facing
// listener. Hooks are registered so that shutdown stops the listener
// first, then drains the acceptor, then the management surfaces.
func startServers(ctx context.Context, cfg *config.ServerConfig, sh *shutdown.Handler, log *slog.Logger,
	reporter *status.Reporter, metrics *metric.Registry, acc *acceptor.Acceptor) error {

	if cfg.Server.Local.Enabled {
		local := localserver.New(cfg.Server.Local.Path,
			localserver.NewHandler(reporter, sh.Trigger, log), log)
		if err := local.Listen(); err != nil {
			return fmt.Errorf("local socket: %w", err)
		}
		sh.OnShutdown("local socket", local.Shutdown)
		go func() {
			if err := local.Serve(); err != nil {
				log.Error("local socket error", "error", err)
			}
		}()
	}

	if cfg.Server.Admin.Enabled {
		admin := httpserver.New(cfg.Server.Admin.Addr, httpserver.NewRouter(httpserver.RouterConfig{
			Reporter: reporter,
			Metrics:  metrics.Handler(),
			Logger:   log,
		}), log)
		if err := admin.Start(); err != nil {
			return fmt.Errorf("admin http: %w", err)
		}
		sh.OnShutdown("admin http", admin.Shutdown)
	}

	sh.OnShutdown("acceptor", acc.Shutdown)

	ln, err := listener.New(listener.Config{
		Addr:        cfg.Server.Listen.Addr,
		AcceptRate:  cfg.Server.Listen.AcceptRate,
		AcceptBurst: cfg.Server.Listen.AcceptBurst,
		TempDir:     cfg.Pipeline.TempDir,
	}, acc, log)
	if err != nil {
		return err
	}
	if err := ln.Start(ctx); err != nil {
		return err
	}
	sh.OnShutdown("listener", ln.Shutdown)
	return nil
}

// watchConfig reloads the log level when the configuration file changes.
func watchConfig(configFile string, sh *shutdown.Handler, log *slog.Logger) error {
	if configFile == "" {
		return nil
	}

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Watch(configFile); err != nil {
		w.Stop()
		return fmt.Errorf("config watcher: %w", err)
	}

	w.OnChange(func(path string) {
		cfg, err := config.Load(path, nil)
		if err != nil {
			log.Warn("ignoring invalid configuration change", "path", path, "error", err)
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("failed to apply log level", "level", cfg.Log.Level, "error", err)
			return
		}
		log.Info("configuration reloaded", "path", path, "log_level", cfg.Log.Level)
	})
	w.StartAsync()

	sh.OnShutdown("config watcher", func(context.Context) error {
		return w.Stop()
	})
	return nil
}
