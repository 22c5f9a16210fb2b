package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewZerolog builds the structured logger every simulation-core service
// constructor takes (jobsvc, ledger, worker, batchsvc, orchestrator,
// notify). Level parsing mirrors Setup's slog levels so LOG_LEVEL means
// the same thing across both loggers.
func NewZerolog(level string) zerolog.Logger {
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		l = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(l).With().Timestamp().Logger()
}

// Setup creates and configures a new logger instance.
// This is an infrastructure component that provides logging functionality.
func Setup(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: l,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// Logger creates a default logger with info level.
func Logger() *slog.Logger {
	return Setup("info")
}
