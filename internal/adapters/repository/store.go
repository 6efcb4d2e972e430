// Package repository persists the profile state: one JSON record under one
// key, in a file, an SQLite database or memory.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/drivemind/internal/domain/profile"
	"github.com/okian/drivemind/pkg/metrics"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Store provides read/write access to the persisted state.
type Store interface {
	// Load returns the stored state. found is false when nothing was stored
	// yet; a record that cannot be decoded returns ErrCorrupt.
	Load(ctx context.Context) (state profile.State, found bool, err error)

	// Save replaces the stored state. Last writer wins.
	Save(ctx context.Context, state profile.State) error

	// Backend names the storage kind for logs and metrics.
	Backend() string

	Close() error
}

// Open builds the store for backend. path is ignored by the memory backend.
func Open(ctx context.Context, backend, path string, opts ...Option) (Store, error) {
	switch backend {
	case BackendFile:
		return NewFileStore(path, opts...), nil
	case BackendSQLite:
		return NewSQLiteStore(ctx, path, opts...)
	case BackendMemory:
		return NewMemoryStore(opts...), nil
	default:
		return nil, fmt.Errorf("%q: %w", backend, ErrUnknownBackend)
	}
}

func encode(state profile.State) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

func decode(data []byte) (profile.State, error) {
	var state profile.State
	if err := json.Unmarshal(data, &state); err != nil {
		return profile.State{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	state.Normalize("")
	return state, nil
}

func observeLoad(backend string, start time.Time) {
	metrics.RecordStoreLoadLatency(backend, float64(time.Since(start).Microseconds())/1000)
}

func observeSave(backend string, start time.Time) {
	metrics.RecordStoreSaveLatency(backend, float64(time.Since(start).Microseconds())/1000)
}

func recordError(errType string) {
	metrics.RecordErrorByComponent("repository", errType)
}
