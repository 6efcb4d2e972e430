package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/drivemind/internal/domain/profile"
)

// FileStore keeps records in one JSON document on disk, an object mapping
// each key to its state.
type FileStore struct {
	mu   sync.Mutex
	path string
	key  string
}

// NewFileStore returns a file-backed store at path.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := newSettings(opts)
	return &FileStore{path: path, key: s.key}
}

// Backend implements Store.
func (s *FileStore) Backend() string { return BackendFile }

// Load implements Store. A missing file or key reads as not found.
func (s *FileStore) Load(ctx context.Context) (profile.State, bool, error) {
	defer observeLoad(BackendFile, time.Now())
	if err := ctx.Err(); err != nil {
		return profile.State{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDoc()
	if err != nil {
		recordError("load_failed")
		return profile.State{}, false, err
	}
	raw, ok := doc[s.key]
	if !ok {
		return profile.State{}, false, nil
	}
	state, err := decode(raw)
	if err != nil {
		recordError("corrupt")
		return profile.State{}, false, fmt.Errorf("key %q in %s: %w", s.key, s.path, err)
	}
	return state, true, nil
}

// Save implements Store. Other keys in the document are preserved.
func (s *FileStore) Save(ctx context.Context, state profile.State) error {
	defer observeSave(BackendFile, time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDoc()
	if err != nil && !errors.Is(err, ErrCorrupt) {
		recordError("save_failed")
		return err
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}
	doc[s.key] = data

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := atomicWrite(s.path, append(out, '\n')); err != nil {
		recordError("save_failed")
		return err
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// readDoc returns the decoded document, nil when the file does not exist.
func (s *FileStore) readDoc() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", s.path, ErrCorrupt, err)
	}
	return doc, nil
}

// atomicWrite replaces path with data via a temp file in the same directory.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
