// # internal/history/store.go
package history

import (
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
CREATE TABLE IF NOT EXISTS snapshots (
  project_key TEXT NOT NULL,
  schema_version INTEGER NOT NULL,
  ts_utc TEXT NOT NULL,
  commit_hash TEXT NOT NULL DEFAULT '',
  commit_ts_utc TEXT NOT NULL DEFAULT '',
  total_files INTEGER NOT NULL,
  total_functions INTEGER NOT NULL,
  total_classes INTEGER NOT NULL,
  cycle_count INTEGER NOT NULL,
  avg_complexity REAL NOT NULL,
  avg_doc_coverage REAL NOT NULL,
  top_score REAL NOT NULL,
  cache_hits INTEGER NOT NULL,
  cache_misses INTEGER NOT NULL,
  PRIMARY KEY (project_key, ts_utc, commit_hash)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_project_ts ON snapshots (project_key, ts_utc);
`

// Store keeps per-project analysis snapshots so metric trends survive
// process restarts.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveSnapshot(projectKey string, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	if snapshot.SchemaVersion == 0 {
		snapshot.SchemaVersion = SchemaVersion
	}
	if snapshot.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported snapshot schema version %d", snapshot.SchemaVersion)
	}

	commitTS := ""
	if !snapshot.CommitTimestamp.IsZero() {
		commitTS = snapshot.CommitTimestamp.UTC().Format(time.RFC3339Nano)
	}

	query := `
INSERT INTO snapshots (
  project_key, schema_version, ts_utc, commit_hash, commit_ts_utc,
  total_files, total_functions, total_classes, cycle_count,
  avg_complexity, avg_doc_coverage, top_score, cache_hits, cache_misses
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project_key, ts_utc, commit_hash) DO UPDATE SET
  schema_version=excluded.schema_version,
  commit_ts_utc=excluded.commit_ts_utc,
  total_files=excluded.total_files,
  total_functions=excluded.total_functions,
  total_classes=excluded.total_classes,
  cycle_count=excluded.cycle_count,
  avg_complexity=excluded.avg_complexity,
  avg_doc_coverage=excluded.avg_doc_coverage,
  top_score=excluded.top_score,
  cache_hits=excluded.cache_hits,
  cache_misses=excluded.cache_misses
`
	_, err := s.db.Exec(query,
		projectKey, snapshot.SchemaVersion,
		snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
		snapshot.CommitHash, commitTS,
		snapshot.TotalFiles, snapshot.TotalFunctions, snapshot.TotalClasses,
		snapshot.CycleCount, snapshot.AvgComplexity, snapshot.AvgDocCoverage,
		snapshot.TopScore, snapshot.CacheHits, snapshot.CacheMisses,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshots returns snapshots for a project since the given time,
// oldest first. A zero since loads everything.
func (s *Store) LoadSnapshots(projectKey string, since time.Time) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}

	rows, err := s.db.Query(`
SELECT schema_version, ts_utc, commit_hash, commit_ts_utc,
  total_files, total_functions, total_classes, cycle_count,
  avg_complexity, avg_doc_coverage, top_score, cache_hits, cache_misses
FROM snapshots
WHERE project_key = ? AND ts_utc >= ?
ORDER BY ts_utc ASC
`, projectKey, since.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var ts, commitTS string
		if err := rows.Scan(
			&snap.SchemaVersion, &ts, &snap.CommitHash, &commitTS,
			&snap.TotalFiles, &snap.TotalFunctions, &snap.TotalClasses,
			&snap.CycleCount, &snap.AvgComplexity, &snap.AvgDocCoverage,
			&snap.TopScore, &snap.CacheHits, &snap.CacheMisses,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			snap.Timestamp = parsed
		}
		if commitTS != "" {
			if parsed, err := time.Parse(time.RFC3339Nano, commitTS); err == nil {
				snap.CommitTimestamp = parsed
			}
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
