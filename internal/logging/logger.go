// Package logging configures log/slog and carries per-request and
// per-ingestion identifiers through context.
//
// The server logs to stdout; the CLI logs to stderr so that JSON written by
// `fundsheet search` stays clean on stdout.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const ingestIDKey ctxKey = iota

// Setup installs the default logger writing to stdout.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	SetupWriter(os.Stdout, level, format)
}

// SetupWriter installs the default logger writing to w.
func SetupWriter(w io.Writer, level, format string) {
	slog.SetDefault(New(w, level, format))
}

// New builds a logger without installing it.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithIngestID returns a context whose loggers carry ingest_id.
func WithIngestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ingestIDKey, id)
}

// IngestID returns the ingestion id stored by WithIngestID, if any.
func IngestID(ctx context.Context) string {
	id, _ := ctx.Value(ingestIDKey).(string)
	return id
}

// FromContext returns the default logger enriched with the chi request id
// and the ingestion id found in ctx.
//
//	logger := logging.FromContext(r.Context())
//	logger.Info("search completed", "rows", len(records))
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if id := IngestID(ctx); id != "" {
		logger = logger.With("ingest_id", id)
	}

	return logger
}

// WithFields returns a context logger with additional structured fields.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
