package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var (
	opLogger atomic.Pointer[slog.Logger]
	logLevel = new(slog.LevelVar)
)

func init() {
	logLevel.Set(slog.LevelInfo)
	SetOutput(os.Stderr)
}

// Op returns the operational logger used by the server, the store and the CLI.
func Op() *slog.Logger {
	return opLogger.Load()
}

// SetOutput replaces the destination of the operational logger.
func SetOutput(w io.Writer) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})
	opLogger.Store(slog.New(handler))
}

func SetLevel(level slog.Level) {
	logLevel.Set(level)
}

// SetLevelFromString accepts debug, info, warn and error in any case.
// Unknown values leave the level unchanged and return false.
func SetLevelFromString(level string) bool {
	switch strings.ToLower(level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		return false
	}
	return true
}

func Level() slog.Level { return logLevel.Level() }
