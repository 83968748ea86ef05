// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nargate/nargate/lib/gateway"
)

// Config is the master configuration for Nargate.
type Config struct {
	// Relay configures the chunk relay between the archive walker
	// and the response body.
	Relay RelayConfig `yaml:"relay"`

	// Log configures logging.
	Log LogConfig `yaml:"log"`
}

// RelayConfig tunes the streaming relay.
type RelayConfig struct {
	// ChunkSize is the size in bytes of each relayed chunk.
	// Default: 8192.
	ChunkSize int `yaml:"chunk_size"`

	// BufferSlots is the relay buffer capacity in chunks. Together
	// with ChunkSize it bounds how far the archive download may run
	// ahead of the client. Default: 8192.
	BufferSlots int `yaml:"buffer_slots"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, or error.
	// Default: info.
	Level string `yaml:"level"`
}

// Default returns the built-in configuration. Every field carries a
// working value, so binaries run without any config file at all.
func Default() *Config {
	return &Config{
		Relay: RelayConfig{
			ChunkSize:   gateway.DefaultChunkSize,
			BufferSlots: gateway.DefaultBufferSlots,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by the NARGATE_CONFIG
// environment variable, or returns Default when the variable is
// unset. An unreadable or invalid file named by the variable is an
// error, never silently ignored.
func Load() (*Config, error) {
	configPath := os.Getenv("NARGATE_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Fields the
// file omits keep their defaults. Environment variables do not
// override file values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Relay.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("relay.chunk_size must be positive, got %d", c.Relay.ChunkSize))
	}
	if c.Relay.BufferSlots <= 0 {
		errs = append(errs, fmt.Errorf("relay.buffer_slots must be positive, got %d", c.Relay.BufferSlots))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level. Unknown
// names map to Info; Validate is where they are rejected.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
