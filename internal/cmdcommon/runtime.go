package cmdcommon

import (
	"fmt"
	"io"

	"github.com/y-gotou/charenc/internal/config"
	"github.com/y-gotou/charenc/internal/logging"
)

// SetupRuntime loads the configuration and installs the logger for one
// command invocation. Flag values override the file's logging section when
// non-empty; an unparseable -log-level falls back to the configured one
// with a warning on stderr.
func SetupRuntime(configPath, logLevel, logFormat string, stderr io.Writer) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Level()
	if logLevel != "" {
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			_, _ = fmt.Fprintf(stderr, "Warning: invalid log level %q, using %q\n", logLevel, cfg.Logging.Level)
			level = cfg.Level()
		}
	}

	format := cfg.Logging.Format
	if logFormat != "" {
		format = logFormat
	}

	err = logging.Setup(logging.Options{
		Level:  level,
		Format: format,
		Stderr: stderr,
		File:   cfg.Logging.File,
		RunID:  logging.GenerateRunID(),
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
