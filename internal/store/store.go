// Package store handles SQLite persistence of named storage slots.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrSlotNotFound is returned when a slot has never been saved.
var ErrSlotNotFound = errors.New("slot not found")

// Store wraps SQLite access for slot data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS slots (
			name TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadSlot returns the payload stored under name.
func (s *Store) LoadSlot(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM slots WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// SaveSlot replaces the payload stored under name.
func (s *Store) SaveSlot(ctx context.Context, name string, payload []byte) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO slots (name, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		name,
		payload,
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteSlot removes a slot. Deleting a missing slot is not an error.
func (s *Store) DeleteSlot(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, name)
	return err
}

// UpdatedAt returns when a slot was last saved.
func (s *Store) UpdatedAt(ctx context.Context, name string) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM slots WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrSlotNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, raw)
}

// Slot is a single named slot bound to a store.
type Slot struct {
	store *Store
	name  string
}

// Slot returns a view over one named slot.
func (s *Store) Slot(name string) *Slot {
	return &Slot{store: s, name: name}
}

// Load returns the slot payload, or nil when the slot is empty.
func (sl *Slot) Load(ctx context.Context) ([]byte, error) {
	data, err := sl.store.LoadSlot(ctx, sl.name)
	if errors.Is(err, ErrSlotNotFound) {
		return nil, nil
	}
	return data, err
}

// Save writes the slot payload.
func (sl *Slot) Save(ctx context.Context, data []byte) error {
	return sl.store.SaveSlot(ctx, sl.name, data)
}
