package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the process-wide log handler. Debug builds and tests
// pass true to see everything.
func InitSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
