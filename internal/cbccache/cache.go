// Package cbccache is a content-addressed cache for compiled units: keyed
// on a hash of (source, goal kind), it stores a cbc.Marshal blob so a
// server or CLI re-compiling the same source skips the parser entirely.
// Grounded on the pack's one database/sql persistence layer
// (lib/runtime/persistence.go's Persistence), adapted from a JSON-blob
// instance store to a compiled-bytecode blob store, with modernc.org/sqlite
// standing in for that file's mattn/go-sqlite3 driver so the cache needs no
// cgo.
package cbccache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/parser"
)

// ErrNotFound is returned by Get when no entry exists for a key.
var ErrNotFound = errors.New("cbccache: not found")

// Cache is a SQLite-backed store of serialized CompiledCode blobs.
type Cache struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema exists.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS compiled_units (
		key  TEXT PRIMARY KEY,
		blob BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key hashes source and goal into the cache key Get/Put address entries by.
func Key(source string, goal parser.GoalKind) string {
	h := sha256.New()
	h.Write([]byte{byte(goal)})
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached CompiledCode for key, or ErrNotFound if absent.
func (c *Cache) Get(key string) (*cbc.CompiledCode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var blob []byte
	err := c.db.QueryRow(`SELECT blob FROM compiled_units WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	return cbc.Unmarshal(blob)
}

// Put stores code under key, overwriting any existing entry.
func (c *Cache) Put(key string, code *cbc.CompiledCode) error {
	blob, err := cbc.Marshal(code)
	if err != nil {
		return fmt.Errorf("serializing cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err = c.db.Exec(`INSERT INTO compiled_units (key, blob) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET blob = excluded.blob`, key, blob)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// CompileCached compiles source as goal, reusing a cached blob when one
// exists for the same (source, goal) pair and storing a freshly compiled
// result otherwise.
func (c *Cache) CompileCached(source string, goal parser.GoalKind) (*cbc.CompiledCode, error) {
	key := Key(source, goal)

	code, err := c.Get(key)
	if err == nil {
		return code, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	code, err = parser.Compile(source, goal)
	if err != nil {
		return nil, err
	}
	if err := c.Put(key, code); err != nil {
		return nil, err
	}
	return code, nil
}
