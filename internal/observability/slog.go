// Package observability provides logging initialization.
package observability

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/stolasapp/wysiwyg/internal/config"
)

// InitSlog initializes a logger with the given config, writing to stderr.
// When running in a terminal, it uses a human-readable text format; otherwise
// it uses JSON for structured logging.
func InitSlog(cfg *config.Config) *slog.Logger {
	return newLogger(os.Stderr, cfg, term.IsTerminal(int(os.Stderr.Fd())))
}

func newLogger(out io.Writer, cfg *config.Config, terminal bool) *slog.Logger {
	lvl, err := cfg.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		AddSource: cfg.DevMode,
		Level:     lvl,
	}
	var handler slog.Handler
	if terminal {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler)
}
