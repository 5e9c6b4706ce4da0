// Package localstore keeps cart snapshots in a SQLite file, for deployments that run the bot
// without Postgres-backed carts.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"foodscan/cart"

	_ "modernc.org/sqlite"
)

type Store struct {
	db   *sql.DB
	path string
}

// Open creates the file and its schema if missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer at a time; sqlite serializes writes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
	PRAGMA journal_mode = WAL;
	CREATE TABLE IF NOT EXISTS carts (
		slot_key TEXT PRIMARY KEY,
		items TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`)
	if err != nil {
		return fmt.Errorf("init sqlite schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string { return s.path }

// Slot implements cart.SlotProvider.
func (s *Store) Slot(session string) cart.Slot {
	return slot{db: s.db, key: cart.SlotKey(session)}
}

// Keys lists every stored slot key.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slot_key FROM carts ORDER BY slot_key`)
	if err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

type slot struct {
	db  *sql.DB
	key string
}

func (s slot) Key() string { return s.key }

func (s slot) Load(ctx context.Context) ([]byte, error) {
	var items string
	err := s.db.QueryRowContext(ctx, `SELECT items FROM carts WHERE slot_key = ?`, s.key).Scan(&items)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart %s: %w", s.key, err)
	}
	return []byte(items), nil
}

func (s slot) Save(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO carts (slot_key, items, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(slot_key) DO UPDATE SET items = excluded.items, updated_at = CURRENT_TIMESTAMP`,
		s.key, string(data),
	)
	if err != nil {
		return fmt.Errorf("save cart %s: %w", s.key, err)
	}
	return nil
}
