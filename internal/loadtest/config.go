// Package loadtest records load-test response times to SQLite and
// summarizes them per run.
package loadtest

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the load-test configuration loaded from a TOML file.
type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	RunTracking RunTrackingConfig `toml:"run_tracking"`
}

// DatabaseConfig controls where and how samples are written.
type DatabaseConfig struct {
	File          string  `toml:"file"`
	BatchSize     int     `toml:"batch_size"`
	FlushInterval float64 `toml:"flush_interval"` // seconds
}

// RunTrackingConfig selects how run start/end markers are recorded:
// "database" writes rows to the runs table, "file" appends to a text log.
type RunTrackingConfig struct {
	Method string `toml:"method"`
	File   string `toml:"file"`
}

// FlushDuration returns the flush interval as a duration.
func (c DatabaseConfig) FlushDuration() time.Duration {
	return time.Duration(c.FlushInterval * float64(time.Second))
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			File:          "loadtest.db",
			BatchSize:     100,
			FlushInterval: 1.0,
		},
		RunTracking: RunTrackingConfig{
			Method: "database",
			File:   "run_ids.txt",
		},
	}
}

// LoadConfig reads a TOML configuration file. Unlike most defaults-driven
// config, a missing file is an error so a load test never silently writes
// to the wrong database.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s not found: %w", path, err)
	}

	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	switch cfg.RunTracking.Method {
	case "database", "file":
	default:
		return nil, fmt.Errorf("invalid run_tracking.method: %q", cfg.RunTracking.Method)
	}
	if cfg.Database.BatchSize < 1 {
		return nil, fmt.Errorf("database.batch_size must be positive, got %d", cfg.Database.BatchSize)
	}

	return cfg, nil
}
