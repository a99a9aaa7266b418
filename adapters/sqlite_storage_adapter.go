package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStorageAdapter persists values in a single-table SQLite database.
type SQLiteStorageAdapter struct {
	db *sql.DB
}

// Ensure SQLiteStorageAdapter implements KeyValueStore interface
var _ KeyValueStore = (*SQLiteStorageAdapter)(nil)

// NewSQLiteStorageAdapter opens (or creates) the database at dbPath.
func NewSQLiteStorageAdapter(dbPath string) (*SQLiteStorageAdapter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store, err := NewSQLiteStorageAdapterFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStorageAdapterFromDB uses an already opened handle and ensures the schema exists.
func NewSQLiteStorageAdapterFromDB(db *sql.DB) (*SQLiteStorageAdapter, error) {
	store := &SQLiteStorageAdapter{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStorageAdapter) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	return err
}

// GetInt reads key from the kv table.
func (s *SQLiteStorageAdapter) GetInt(ctx context.Context, key string) (int, bool, error) {
	var value int
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// SetInt upserts key in the kv table.
func (s *SQLiteStorageAdapter) SetInt(ctx context.Context, key string, value int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStorageAdapter) Close() error {
	return s.db.Close()
}
