package cli

import (
	"io"
	"log/slog"
)

// setupLogging installs the default slog logger. Engine and store debug
// logs only show with --verbose.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
