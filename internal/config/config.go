// Package config loads the optional charenc configuration file. Values act
// as defaults below command-line flags: flag (when set) > environment >
// file > built-in default.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/y-gotou/charenc/internal/charset"
)

// EnvConfigPath names the environment variable that overrides the default
// config file location.
const EnvConfigPath = "CHARENC_CONFIG"

var (
	// ErrConfigNotFound indicates an explicitly requested config file that
	// does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidLogFormat indicates a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format (want text or json)")

	// ErrInvalidLogLevel indicates an unparseable log level.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Config holds the defaults a user can set in the TOML file.
type Config struct {
	Backup  Backup  `toml:"backup"`
	Restore Restore `toml:"restore"`
	Logging Logging `toml:"logging"`
}

// Backup configures the pre-conversion copy.
type Backup struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Restore configures the default restore behavior.
type Restore struct {
	Errors     string `toml:"errors"`
	StrictHash bool   `toml:"strict_hash"`
	KeepBackup bool   `toml:"keep_backup"`
}

// Logging configures the slog setup.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backup:  Backup{Enabled: true},
		Restore: Restore{Errors: "strict"},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Resolve returns the config file path to load: the explicit flag value,
// then $CHARENC_CONFIG, then ~/.config/charenc/config.toml.
func Resolve(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "charenc", "config.toml")
}

// Load reads the resolved config file over the defaults. A missing file is
// only an error when the path was given explicitly via flagPath.
func Load(flagPath string) (*Config, error) {
	cfg := Default()
	path := Resolve(flagPath)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if flagPath != "" {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := charset.ParsePolicy(c.Restore.Errors); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	return nil
}

// Level returns the parsed log level. Only valid after a successful Load.
func (c *Config) Level() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.Logging.Level))
	return level
}
