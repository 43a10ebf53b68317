package localserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yndnr/kvantum-go/internal/server/status"
	"github.com/yndnr/kvantum-go/internal/telemetry/logger"
)

// Response is the reply envelope for every command.
type Response struct {
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler handles local management commands.
type Handler struct {
	reporter *status.Reporter
	shutdown func(reason string)
	logger   *slog.Logger
}

// NewHandler creates a new Handler. shutdown is invoked by the "shutdown"
// command; when nil the command is refused.
func NewHandler(reporter *status.Reporter, shutdown func(reason string), log *slog.Logger) *Handler {
	if reporter == nil {
		reporter = &status.Reporter{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		reporter: reporter,
		shutdown: shutdown,
		logger:   log,
	}
}

// Execute executes a local management command line.
func (h *Handler) Execute(line string) Response {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return failure("empty command")
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "status":
		withConns := len(args) > 0 && args[0] == "connections"
		return success(h.reporter.Report(withConns))
	case "filters":
		return success(h.reporter.FilterStatuses())
	case "connections":
		return success(h.reporter.Report(true).Conns)
	case "loglevel":
		return h.handleLogLevel(args)
	case "shutdown":
		return h.handleShutdown()
	default:
		return failure("unknown command: " + cmd)
	}
}

func (h *Handler) handleLogLevel(args []string) Response {
	if len(args) == 0 {
		return success(map[string]string{"level": logger.GetLevel()})
	}
	if err := logger.SetLevel(args[0]); err != nil {
		return failure(err.Error())
	}
	h.logger.Info("log level changed via local socket", "level", args[0])
	return success(map[string]string{"level": logger.GetLevel()})
}

func (h *Handler) handleShutdown() Response {
	if h.shutdown == nil {
		return failure("shutdown not supported")
	}
	h.logger.Info("shutdown requested via local socket")
	h.shutdown("local socket")
	return success(map[string]string{"status": "shutting down"})
}

func success(v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return failure(fmt.Sprintf("encode reply: %v", err))
	}
	return Response{OK: true, Data: data}
}

func failure(msg string) Response {
	return Response{OK: false, Error: msg}
}
