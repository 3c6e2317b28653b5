// # internal/history/models.go
package history

import "time"

const SchemaVersion = 1

// Snapshot is one codebase analysis condensed to trend-worthy numbers.
// Rows are append-only; a re-run at the same commit upserts.
type Snapshot struct {
	SchemaVersion   int       `json:"schema_version"`
	Timestamp       time.Time `json:"timestamp"`
	CommitHash      string    `json:"commit_hash,omitempty"`
	CommitTimestamp time.Time `json:"commit_timestamp,omitempty"`
	TotalFiles      int       `json:"total_files"`
	TotalFunctions  int       `json:"total_functions"`
	TotalClasses    int       `json:"total_classes"`
	CycleCount      int       `json:"cycle_count"`
	AvgComplexity   float64   `json:"avg_complexity"`
	AvgDocCoverage  float64   `json:"avg_doc_coverage"`
	TopScore        float64   `json:"top_score"`
	CacheHits       int       `json:"cache_hits"`
	CacheMisses     int       `json:"cache_misses"`
}
