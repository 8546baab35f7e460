// Package config resolves runtime settings for the ndedit commands.
//
// Settings load from an optional ndedit.yaml in the working directory with
// sensible defaults; the resolved artifact paths are carried in an explicit
// Paths value passed into the store and the sync controller rather than
// through package globals.
package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// BufferFileName is the expanded, human-editable buffer artifact.
	BufferFileName = "buffer.json"
	// MemoryFileName is the sidecar registry of encoded-string locations.
	MemoryFileName = "_memory.json"
)

// Paths names the three files one watch session operates on.
type Paths struct {
	// Source is the canonical flat NDJSON file.
	Source string
	// Buffer is the pretty-printed expanded array.
	Buffer string
	// Memory is the pretty-printed location registry.
	Memory string
}

// Config holds the tunable settings for the ndedit commands.
type Config struct {
	// DataDir is where the buffer and memory artifacts live.
	DataDir string `mapstructure:"data_dir"`
	// Debounce is how long the watcher coalesces rapid events on one path.
	Debounce time.Duration `mapstructure:"debounce"`
	// LogFile, when set, mirrors daemon logs to a rotating file.
	LogFile string `mapstructure:"log_file"`
	// LogMaxSizeMB caps the size of one log file before rotation.
	LogMaxSizeMB int `mapstructure:"log_max_size_mb"`
	// LogMaxBackups caps how many rotated files are kept.
	LogMaxBackups int `mapstructure:"log_max_backups"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DataDir:       "ndedit_data",
		Debounce:      100 * time.Millisecond,
		LogMaxSizeMB:  10,
		LogMaxBackups: 3,
	}
}

// Load reads ndedit.yaml from the working directory if present and merges it
// over the defaults. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("ndedit")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	def := Default()
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("debounce", def.Debounce.String())
	v.SetDefault("log_max_size_mb", def.LogMaxSizeMB)
	v.SetDefault("log_max_backups", def.LogMaxBackups)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Paths resolves the artifact paths for a given source file.
func (c *Config) Paths(source string) Paths {
	return Paths{
		Source: source,
		Buffer: filepath.Join(c.DataDir, BufferFileName),
		Memory: filepath.Join(c.DataDir, MemoryFileName),
	}
}

// NewLogger builds the daemon logger. With LogFile set, output goes to both
// stderr and a size-rotated file.
func (c *Config) NewLogger(prefix string) *log.Logger {
	var w io.Writer = os.Stderr
	if c.LogFile != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    c.LogMaxSizeMB,
			MaxBackups: c.LogMaxBackups,
		})
	}
	return log.New(w, prefix, log.LstdFlags)
}
