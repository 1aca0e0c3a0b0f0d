package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/oklog/ulid/v2"
)

const logFilePerm = 0o600

// Options configure Setup.
type Options struct {
	Level  slog.Level
	Format string    // "text" or "json"
	Stderr io.Writer // defaults to os.Stderr
	File   string    // optional JSON log file, fanned out alongside stderr
	RunID  string    // attached to every record when non-empty
}

// Setup installs the default logger. It must be called once during startup,
// before any logging occurs.
func Setup(opts Options) error {
	w := opts.Stderr
	if w == nil {
		w = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var console slog.Handler
	if opts.Format == "json" {
		console = slog.NewJSONHandler(w, handlerOpts)
	} else {
		console = slog.NewTextHandler(w, handlerOpts)
	}

	handler := console
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		handler = NewMultiHandler(console, slog.NewJSONHandler(f, handlerOpts))
	}

	logger := slog.New(handler)
	if opts.RunID != "" {
		logger = logger.With("run_id", opts.RunID)
	}
	slog.SetDefault(logger)
	return nil
}

// GenerateRunID returns a ULID for correlating one invocation's log lines.
func GenerateRunID() string {
	return ulid.Make().String()
}
