package app

import (
	"errors"
	"log/slog"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// FlowPath points at a .hcl declaration file or a directory of them.
	FlowPath string
	// Workflow names the top-level workflow to invoke, as "name" or
	// "name@version".
	Workflow string
	// Args supplies the top-level workflow's inputs as raw strings, converted
	// to the declared parameter types before the run.
	Args map[string]string

	LogFormat string
	LogLevel  string
	// Workers is the parallelism ceiling for one graph run. Zero means
	// unbounded.
	Workers int
	// MaxDepth bounds sub-workflow inlining. Zero means the builder default.
	MaxDepth int
	// CachePath, when set, persists cache entries in a SQLite database at
	// that path. Empty means a per-process in-memory cache.
	CachePath string
}

// slogLevel maps the configured level name onto slog's scale. Unrecognized
// names, including the empty default, fall back to Info.
func (c *Config) slogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.FlowPath == "" {
		return nil, errors.New("FlowPath is a required configuration field and cannot be empty")
	}
	if cfg.Workflow == "" {
		return nil, errors.New("Workflow is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
