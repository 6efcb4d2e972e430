package repository

import (
	"context"
	"sync"

	"github.com/okian/drivemind/internal/domain/profile"
)

// MemoryStore keeps the state in process. It is used by tests and by the
// CLI when nothing should outlive the process.
type MemoryStore struct {
	mu     sync.RWMutex
	key    string
	data   map[string][]byte
	closed bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := newSettings(opts)
	return &MemoryStore{key: s.key, data: make(map[string][]byte)}
}

// Backend implements Store.
func (s *MemoryStore) Backend() string { return BackendMemory }

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context) (profile.State, bool, error) {
	if err := ctx.Err(); err != nil {
		return profile.State{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return profile.State{}, false, ErrClosed
	}
	raw, ok := s.data[s.key]
	if !ok {
		return profile.State{}, false, nil
	}
	state, err := decode(raw)
	if err != nil {
		return profile.State{}, false, err
	}
	return state, true, nil
}

// Save implements Store. The state is serialised so later mutation of the
// caller's copy is not visible.
func (s *MemoryStore) Save(ctx context.Context, state profile.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data[s.key] = data
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
