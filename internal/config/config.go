// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a .env file, an optional YAML file and DRIVEMIND_ env vars on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, tees logs into a rotating file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// PlayerName is the display name given to a fresh profile.
	PlayerName string `koanf:"player_name"`

	// StorageBackend selects where the profile state lives: file, sqlite or memory.
	StorageBackend string `koanf:"storage_backend"`

	// StoragePath is the state file or database path.
	StoragePath string `koanf:"storage_path"`

	// StorageKey names the persisted record.
	StorageKey string `koanf:"storage_key"`

	// CatalogPath points at a scenario YAML file; empty uses the built-in catalog.
	CatalogPath string `koanf:"catalog_path"`

	// MaxActiveRuns bounds the live-run registry.
	MaxActiveRuns int `koanf:"max_active_runs"`

	// PersistQueueSize bounds the write-behind queue.
	PersistQueueSize int `koanf:"persist_queue_size"`

	// DedupeSize bounds the committed-run guard.
	DedupeSize int `koanf:"dedupe_size"`

	// CountdownFrom is the first countdown value shown before a run starts.
	CountdownFrom int `koanf:"countdown_from"`

	// CountdownGraceMS is the pause between the countdown reaching zero and the run starting.
	CountdownGraceMS int `koanf:"countdown_grace_ms"`

	// StreamIntervalMS is how often the snapshot stream pushes.
	StreamIntervalMS int `koanf:"stream_interval_ms"`
}

// New creates a Config holding the defaults. Context is accepted first to
// satisfy the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		PlayerName:       "Driver",
		StorageBackend:   BackendFile,
		StoragePath:      "drivemind-state.json",
		StorageKey:       "drivemind-storage",
		MaxActiveRuns:    64,
		PersistQueueSize: 64,
		DedupeSize:       4096,
		CountdownFrom:    3,
		CountdownGraceMS: 500,
		StreamIntervalMS: 250,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	case strings.TrimSpace(c.StorageKey) == "":
		return fmt.Errorf("storage_key must not be empty: %w", ErrInvalidConfig)
	case c.MaxActiveRuns <= 0:
		return fmt.Errorf("max_active_runs must be positive: %w", ErrInvalidConfig)
	case c.PersistQueueSize <= 0:
		return fmt.Errorf("persist_queue_size must be positive: %w", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("dedupe_size must be positive: %w", ErrInvalidConfig)
	case c.CountdownFrom < 0:
		return fmt.Errorf("countdown_from must not be negative: %w", ErrInvalidConfig)
	case c.CountdownGraceMS < 0:
		return fmt.Errorf("countdown_grace_ms must not be negative: %w", ErrInvalidConfig)
	case c.StreamIntervalMS <= 0:
		return fmt.Errorf("stream_interval_ms must be positive: %w", ErrInvalidConfig)
	}
	switch c.StorageBackend {
	case BackendFile, BackendSQLite:
		if strings.TrimSpace(c.StoragePath) == "" {
			return fmt.Errorf("storage_path required for %s backend: %w", c.StorageBackend, ErrInvalidConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage_backend %q: %w", c.StorageBackend, ErrInvalidConfig)
	}
	return nil
}

// CountdownGrace returns CountdownGraceMS as a duration.
func (c *Config) CountdownGrace() time.Duration {
	return time.Duration(c.CountdownGraceMS) * time.Millisecond
}

// StreamInterval returns StreamIntervalMS as a duration.
func (c *Config) StreamInterval() time.Duration {
	return time.Duration(c.StreamIntervalMS) * time.Millisecond
}
