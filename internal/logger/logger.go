package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	globalLogger *slog.Logger
	logLevel     slog.Level
)

// Config holds logging configuration.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // json or text
}

// Init initializes the global logger from environment variables.
func Init() error {
	return InitWithConfig(Config{
		Level:  getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format: getEnvOrDefault("LOG_FORMAT", "json"),
	})
}

// InitWithConfig initializes the logger with specific configuration.
func InitWithConfig(config Config) error {
	logLevel = parseLogLevel(config.Level)

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if config.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// emit logs through the global logger, attaching trace/span IDs from the
// context when a span is active.
func emit(ctx context.Context, level slog.Level, msg string, args ...any) {
	if globalLogger == nil {
		// Not initialized (tests, ad-hoc tooling): fall back to default.
		globalLogger = slog.Default()
	}
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		args = append([]any{
			"trace_id", span.SpanContext().TraceID().String(),
			"span_id", span.SpanContext().SpanID().String(),
		}, args...)
	}
	globalLogger.Log(ctx, level, msg, args...)
}

// Debug logs a debug message.
func Debug(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelDebug, msg, args...)
}

// Info logs an info message.
func Info(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelInfo, msg, args...)
}

// Warn logs a warning message.
func Warn(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelWarn, msg, args...)
}

// Error logs an error message.
func Error(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelError, msg, args...)
}

// ErrorWithErr logs an error message with an error object, recording the
// error on the active span when present.
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	emit(ctx, slog.LevelError, msg, append([]any{"error", err}, args...)...)
}

// Signal logs a computed final signal for an event. Always logged at info
// so batch scans leave an audit trail of every decision.
func Signal(ctx context.Context, symbol, earningDate string, score float64, explanation string, fields ...any) {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		span.AddEvent("signal_computed", trace.WithAttributes(
			attribute.String("symbol", symbol),
			attribute.String("earning_date", earningDate),
			attribute.Float64("score", score),
		))
	}

	allFields := append([]any{
		"type", "SIGNAL",
		"symbol", symbol,
		"earning_date", earningDate,
		"score", score,
		"explanation", explanation,
	}, fields...)
	emit(ctx, slog.LevelInfo, "Signal computed", allFields...)
}
