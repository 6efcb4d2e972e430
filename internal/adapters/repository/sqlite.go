package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/drivemind/internal/domain/profile"

	_ "modernc.org/sqlite" // SQLite driver
)

// schema holds one JSON document per key.
const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteStore keeps records in an SQLite key/value table.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	key    string
	closed bool
}

// NewSQLiteStore opens (creating if needed) the database at path. The
// special path ":memory:" keeps the database in process.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := newSettings(opts)

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite works best with a single writer; a single connection also keeps
	// ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, key: s.key}, nil
}

// Backend implements Store.
func (s *SQLiteStore) Backend() string { return BackendSQLite }

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (profile.State, bool, error) {
	defer observeLoad(BackendSQLite, time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return profile.State{}, false, ErrClosed
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.State{}, false, nil
	}
	if err != nil {
		recordError("load_failed")
		return profile.State{}, false, fmt.Errorf("load %q: %w", s.key, err)
	}

	state, err := decode([]byte(value))
	if err != nil {
		recordError("corrupt")
		return profile.State{}, false, fmt.Errorf("key %q: %w", s.key, err)
	}
	return state, true, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, state profile.State) error {
	defer observeSave(BackendSQLite, time.Now())

	data, err := encode(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		recordError("save_failed")
		return fmt.Errorf("save %q: %w", s.key, err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
