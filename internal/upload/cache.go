package upload

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/adrg/xdg"
	_ "github.com/mattn/go-sqlite3"

	"github.com/alnah/go-md2blog/internal/logger"
)

const cacheSchemaSQL = `
CREATE TABLE IF NOT EXISTS uploads (
	hash       TEXT NOT NULL,
	backend    TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (hash, backend)
);
`

// DefaultCachePath returns the cache database location under the XDG
// cache directory, creating parent directories.
func DefaultCachePath() (string, error) {
	return xdg.CacheFile("md2blog/uploads.db")
}

// Cache remembers the URL of every uploaded payload, keyed by its SHA-256
// and the backend name, so unchanged images are not uploaded twice.
type Cache struct {
	db      *sql.DB
	next    Uploader
	backend string
	log     *logger.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheLogger sets the logger reporting cache write failures.
func WithCacheLogger(l *logger.Logger) CacheOption {
	return func(c *Cache) { c.log = l }
}

// OpenCache opens (or creates) the SQLite database at dsn.
func OpenCache(dsn string, next Uploader, backend string, opts ...CacheOption) (*Cache, error) {
	db, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrCache, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrCache, err)
	}
	if _, err := db.Exec(cacheSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: schema: %v", ErrCache, err)
	}
	c := &Cache{db: db, next: next, backend: backend}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.OrDiscard(c.log)
	return c, nil
}

// Upload implements Uploader. Cache read or write failures fall through
// to the wrapped uploader.
func (c *Cache) Upload(ctx context.Context, data []byte, name string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}
	hash := digest(data)

	var url string
	err := c.db.QueryRowContext(ctx,
		`SELECT url FROM uploads WHERE hash = ? AND backend = ?`, hash, c.backend).Scan(&url)
	if err == nil {
		return url, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	// Misses and unreadable rows both fall through to the upload.
	url, err = c.next.Upload(ctx, data, name)
	if err != nil {
		return "", err
	}
	if _, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO uploads (hash, backend, name, url) VALUES (?, ?, ?, ?)`,
		hash, c.backend, name, url); err != nil {
		c.log.CacheWriteFailed(name, err)
	}
	return url, nil
}

// Len returns the number of cached uploads for this backend.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM uploads WHERE backend = ?`, c.backend).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrCache, err)
	}
	return n, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
