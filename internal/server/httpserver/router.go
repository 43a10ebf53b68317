package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/kvantum-go/internal/server/status"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Reporter builds the /status document and answers /ready.
	Reporter *status.Reporter

	// Metrics serves /metrics. The route is omitted when nil.
	Metrics http.Handler

	Logger *slog.Logger
}

// NewRouter creates the admin mux with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = &status.Reporter{}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		code, state := http.StatusOK, "ready"
		if !reporter.Ready() {
			code, state = http.StatusServiceUnavailable, "not ready"
		}
		writeJSON(w, code, map[string]string{
			"status": state,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		withConns := r.URL.Query().Get("connections") == "true"
		writeJSON(w, http.StatusOK, reporter.Report(withConns))
	})

	mux.HandleFunc("GET /filters", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, reporter.FilterStatuses())
	})

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	return Chain(mux,
		RequestID(),
		Recover(cfg.Logger),
		AccessLog(cfg.Logger),
	)
}
