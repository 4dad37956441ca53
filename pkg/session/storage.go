// Package session persists client state between runs
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Storage defines the interface for persisted key-value client state
type Storage interface {
	// Get returns the value stored under key, or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys; missing keys are ignored
	Delete(ctx context.Context, keys ...string) error

	// Close releases the backend
	Close() error
}

// MemoryStorage implements in-memory storage, lost on exit
type MemoryStorage struct {
	values map[string]string
	mutex  sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		values: make(map[string]string),
	}
}

func (ms *MemoryStorage) Get(ctx context.Context, key string) (string, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	v, ok := ms.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (ms *MemoryStorage) Set(ctx context.Context, key, value string) error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	ms.values[key] = value
	return nil
}

func (ms *MemoryStorage) Delete(ctx context.Context, keys ...string) error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	for _, k := range keys {
		delete(ms.values, k)
	}
	return nil
}

// Close clears all values
func (ms *MemoryStorage) Close() error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	ms.values = make(map[string]string)
	return nil
}

// SQLiteStorage keeps client state in a single-table SQLite file so a
// login survives CLI restarts.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at path. An empty path
// or ":memory:" gives a private in-memory database.
func NewSQLiteStorage(ctx context.Context, path string) (*SQLiteStorage, error) {
	dsn := path
	if dsn == "" || dsn == ":memory:" {
		dsn = ":memory:"
	} else if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	// an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS client_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM client_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, keys ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM client_state WHERE key = ?`, k); err != nil {
			return fmt.Errorf("delete %q: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
