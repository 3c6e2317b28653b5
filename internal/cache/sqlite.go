// # internal/cache/sqlite.go
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
  key TEXT PRIMARY KEY,
  value BLOB,
  cached_at INTEGER,
  ttl INTEGER
);
`

// SQLiteTier is the persistent tier. It survives process restarts, so a
// fresh run can still return cache hits for unchanged files.
type SQLiteTier struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func OpenSQLiteTier(path string) (*SQLiteTier, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("cache path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("cache path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts when workers flush
	// concurrently.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite cache %q: %w", cleanPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &SQLiteTier{path: cleanPath, db: db}, nil
}

func (t *SQLiteTier) Name() string { return "sqlite" }

func (t *SQLiteTier) Get(ctx context.Context, key string) (*Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row := t.db.QueryRowContext(ctx,
		`SELECT value, cached_at, ttl FROM cache_entries WHERE key = ?`, key)

	var value []byte
	var cachedAt, ttlSeconds int64
	if err := row.Scan(&value, &cachedAt, &ttlSeconds); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	return &Entry{
		Value:    value,
		CachedAt: time.Unix(cachedAt, 0).UTC(),
		TTL:      time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func (t *SQLiteTier) Put(ctx context.Context, key string, entry Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := t.db.ExecContext(ctx, `
INSERT INTO cache_entries (key, value, cached_at, ttl) VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  value=excluded.value,
  cached_at=excluded.cached_at,
  ttl=excluded.ttl
`, key, entry.Value, entry.CachedAt.Unix(), int64(entry.TTL/time.Second))
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (t *SQLiteTier) Delete(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Prune drops every expired row in one pass. The manager expires lazily on
// read; this keeps the file from growing unbounded between reads.
func (t *SQLiteTier) Prune(ctx context.Context, now time.Time) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	res, err := t.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE ttl > 0 AND cached_at + ttl < ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune cache entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (t *SQLiteTier) Close() error {
	if t == nil || t.db == nil {
		return nil
	}
	return t.db.Close()
}
