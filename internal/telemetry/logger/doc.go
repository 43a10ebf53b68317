// Package logger builds the process-wide log/slog logger.
//
// New returns a *slog.Logger writing JSON (default) or text. All loggers
// built by New share one slog.LevelVar, so SetLevel takes effect at runtime,
// for example when the configuration file is reloaded.
//
// Connection- and request-scoped loggers travel through context.Context
// with WithLogger/FromContext; L adds the connection and request IDs found
// in the context.
package logger
