// Package config loads recstore settings from TOML or YAML files and
// environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds all settings for the CLI.
type Config struct {
	// Database is the journal path. Empty means no persistence.
	Database string `toml:"database" yaml:"database"`

	// Schemas lists store-definition files or directories.
	Schemas []string `toml:"schemas" yaml:"schemas"`

	Loader  LoaderConfig  `toml:"loader" yaml:"loader"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
}

// LoaderConfig holds bulk-loader settings.
type LoaderConfig struct {
	ReclaimEvery int `toml:"reclaim_every" yaml:"reclaim_every"`
	ReportEvery  int `toml:"report_every" yaml:"report_every"`
	Limit        int `toml:"limit" yaml:"limit"` // <= 0 = unlimited
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"` // "debug", "info", "warn", "error"
}

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Loader: LoaderConfig{
			ReclaimEvery: 1000,
			ReportEvery:  10000,
			Limit:        -1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file. The format follows the extension: .toml,
// or .yaml/.yml. Unknown keys are errors in both formats.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return c.loadTOML(path)
	case ".yaml", ".yml":
		return c.loadYAML(path)
	default:
		return fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
}

// loadTOML loads configuration from a TOML file.
func (c *Config) loadTOML(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

// loadYAML loads configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// applyEnv applies environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("RECSTORE_DATABASE"); v != "" {
		c.Database = v
	}
	if v := os.Getenv("RECSTORE_SCHEMAS"); v != "" {
		c.Schemas = filepath.SplitList(v)
	}
	if v := os.Getenv("RECSTORE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("RECSTORE_LOAD_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Loader.Limit = n
		}
	}
}

// Validate rejects settings the loader and logger cannot use.
func (c *Config) Validate() error {
	if c.Loader.ReclaimEvery <= 0 {
		return fmt.Errorf("config: loader.reclaim_every must be positive, got %d", c.Loader.ReclaimEvery)
	}
	if c.Loader.ReportEvery <= 0 {
		return fmt.Errorf("config: loader.report_every must be positive, got %d", c.Loader.ReportEvery)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SlogLevel returns the configured log level. Validate has already
// rejected unknown names, so this falls back to Info only for a Config
// built by hand.
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLevel(c.Logging.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel maps "debug", "info", "warn" or "error" to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}
