// Package cache provides a SQLite-backed cache for model responses.
//
// Entries are keyed by a SHA-256 hash of the provider name and the
// conversation turns (roles and contents), so an unchanged group conversation
// never costs a second model call within the TTL. Expired rows are skipped on read and
// removed during cache-clear operations.
//
// The default database lives under $XDG_CACHE_HOME (or the OS-appropriate
// equivalent). All payloads stored here have already been through secret
// redaction.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339

// Cache stores model responses keyed by request identity.
type Cache struct {
	db         *sql.DB
	ttlSeconds int
	enabled    bool
	path       string
}

// Open creates or opens the cache database. If path is empty, the default
// cache location is used. A disabled cache is a no-op on every operation.
func Open(enabled bool, path string, ttlSeconds int) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if path == "" {
		dir, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "responses.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Cache{
		db:         db,
		ttlSeconds: ttlSeconds,
		enabled:    true,
		path:       path,
	}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		entry_id TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at TEXT NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("migrating cache schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get retrieves a cached response by key. Returns ("", false) on miss or
// when the entry has expired.
func (c *Cache) Get(key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	var response, createdAt string
	err := c.db.QueryRow(`SELECT response, created_at FROM responses WHERE key = ?`, HashKey(key)).
		Scan(&response, &createdAt)
	if err != nil {
		return "", false
	}

	if c.ttlSeconds > 0 {
		created, err := time.Parse(timeFormat, createdAt)
		if err != nil || time.Since(created) > time.Duration(c.ttlSeconds)*time.Second {
			_, _ = c.db.Exec(`DELETE FROM responses WHERE key = ?`, HashKey(key))
			return "", false
		}
	}
	return response, true
}

// Put stores a response, replacing any existing entry for the same key.
func (c *Cache) Put(key, response string) error {
	if !c.enabled {
		return nil
	}
	_, err := c.db.Exec(
		`INSERT INTO responses (key, entry_id, response, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET entry_id = excluded.entry_id,
		 response = excluded.response, created_at = excluded.created_at`,
		HashKey(key), ulid.Make().String(), response, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	if _, err := c.db.Exec(`DELETE FROM responses`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Stats describes the cache contents.
type Stats struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
	Expired int    `json:"expired"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Path: c.path}
	if !c.enabled {
		return stats, nil
	}
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM responses`).Scan(&stats.Entries); err != nil {
		return stats, fmt.Errorf("reading cache stats: %w", err)
	}
	if c.ttlSeconds > 0 {
		cutoff := time.Now().Add(-time.Duration(c.ttlSeconds) * time.Second).UTC().Format(timeFormat)
		if err := c.db.QueryRow(`SELECT COUNT(*) FROM responses WHERE created_at < ?`, cutoff).Scan(&stats.Expired); err != nil {
			return stats, fmt.Errorf("reading cache stats: %w", err)
		}
	}
	return stats, nil
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

func defaultCacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "code-review-agent"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "code-review-agent"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "code-review-agent", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "code-review-agent", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "code-review-agent"), nil
	}
}
