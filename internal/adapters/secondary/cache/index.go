package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// SQLiteIndex persists cache entries in a single-file sqlite database
type SQLiteIndex struct {
	db *sql.DB
}

// OpenSQLiteIndex opens or creates the index at path
func OpenSQLiteIndex(ctx context.Context, path string) (*SQLiteIndex, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
	// a single connection serializes writers from concurrent slide workers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS assets (
	key TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	path TEXT NOT NULL,
	content_type TEXT NOT NULL DEFAULT '',
	size INTEGER NOT NULL DEFAULT 0,
	width INTEGER NOT NULL DEFAULT 0,
	height INTEGER NOT NULL DEFAULT 0,
	fetched_at_unix_ms INTEGER NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing index schema: %w", err)
	}

	return &SQLiteIndex{db: db}, nil
}

// Get returns the entry for key
func (i *SQLiteIndex) Get(ctx context.Context, key string) (entities.CacheEntry, bool, error) {
	row := i.db.QueryRowContext(ctx, `
SELECT key, source, path, content_type, size, width, height, fetched_at_unix_ms
FROM assets WHERE key = ?`, key)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.CacheEntry{}, false, nil
	}
	if err != nil {
		return entities.CacheEntry{}, false, err
	}
	return e, true, nil
}

// Put inserts or replaces an entry
func (i *SQLiteIndex) Put(ctx context.Context, e entities.CacheEntry) error {
	_, err := i.db.ExecContext(ctx, `
INSERT INTO assets (key, source, path, content_type, size, width, height, fetched_at_unix_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	source = excluded.source,
	path = excluded.path,
	content_type = excluded.content_type,
	size = excluded.size,
	width = excluded.width,
	height = excluded.height,
	fetched_at_unix_ms = excluded.fetched_at_unix_ms`,
		e.Key, e.Source, e.Path, e.ContentType, e.Size, e.Width, e.Height, e.FetchedAt.UnixMilli())
	return err
}

// Delete removes the entry for key
func (i *SQLiteIndex) Delete(ctx context.Context, key string) error {
	_, err := i.db.ExecContext(ctx, `DELETE FROM assets WHERE key = ?`, key)
	return err
}

// List returns all entries, oldest first
func (i *SQLiteIndex) List(ctx context.Context) ([]entities.CacheEntry, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT key, source, path, content_type, size, width, height, fetched_at_unix_ms
FROM assets ORDER BY fetched_at_unix_ms ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []entities.CacheEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database
func (i *SQLiteIndex) Close() error {
	if i == nil || i.db == nil {
		return nil
	}
	return i.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (entities.CacheEntry, error) {
	var e entities.CacheEntry
	var fetchedMs int64
	if err := s.Scan(&e.Key, &e.Source, &e.Path, &e.ContentType, &e.Size, &e.Width, &e.Height, &fetchedMs); err != nil {
		return entities.CacheEntry{}, err
	}
	e.FetchedAt = time.UnixMilli(fetchedMs)
	return e, nil
}

// MemoryIndex keeps entries in process memory; used for tests and --index=memory
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]entities.CacheEntry
}

// NewMemoryIndex creates an empty in-memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]entities.CacheEntry)}
}

// Get returns the entry for key
func (i *MemoryIndex) Get(_ context.Context, key string) (entities.CacheEntry, bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	e, ok := i.entries[key]
	return e, ok, nil
}

// Put inserts or replaces an entry
func (i *MemoryIndex) Put(_ context.Context, e entities.CacheEntry) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries[e.Key] = e
	return nil
}

// Delete removes the entry for key
func (i *MemoryIndex) Delete(_ context.Context, key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.entries, key)
	return nil
}

// List returns all entries, oldest first
func (i *MemoryIndex) List(_ context.Context) ([]entities.CacheEntry, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]entities.CacheEntry, 0, len(i.entries))
	for _, e := range i.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].FetchedAt.Before(out[b].FetchedAt) })
	return out, nil
}

// Close is a no-op
func (i *MemoryIndex) Close() error { return nil }

var (
	_ ports.CacheIndex = (*SQLiteIndex)(nil)
	_ ports.CacheIndex = (*MemoryIndex)(nil)
)
