// # internal/engine/types.go
package engine

import (
	"time"

	"didact/internal/analyzer"
	"didact/internal/graph"
	"didact/internal/parser"
	"didact/internal/patterns"
	"didact/internal/scoring"
)

// LinterIssue is an externally produced finding attached to a file analysis.
// The engine never runs linters itself; callers merge results in.
type LinterIssue struct {
	Source   string `json:"source"`
	RuleID   string `json:"rule_id,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// FileAnalysis is the frozen result of one file pipeline run. It is what the
// cache stores, keyed by content hash, so everything in it must derive from
// file content alone (FilePath is rewritten on cache hits).
type FileAnalysis struct {
	FilePath     string                     `json:"file_path"`
	Language     string                     `json:"language"`
	ContentHash  string                     `json:"content_hash"`
	Symbols      *parser.SymbolInfo         `json:"symbols,omitempty"`
	Complexity   analyzer.ComplexityMetrics `json:"complexity"`
	DocCoverage  float64                    `json:"doc_coverage"`
	Patterns     []patterns.DetectedPattern `json:"patterns,omitempty"`
	Score        scoring.TeachingValueScore `json:"score"`
	LinterIssues []LinterIssue              `json:"linter_issues,omitempty"`
	HasErrors    bool                       `json:"has_errors"`
	Errors       []string                   `json:"errors,omitempty"`
	ErrorSpans   []parser.Span              `json:"error_spans,omitempty"`
	AnalyzedAt   time.Time                  `json:"analyzed_at"`
	FromCache    bool                       `json:"cache_hit"`
}

// MergeLinterIssues appends issues, dropping exact duplicates.
func (fa *FileAnalysis) MergeLinterIssues(issues ...LinterIssue) {
	seen := make(map[LinterIssue]bool, len(fa.LinterIssues))
	for _, existing := range fa.LinterIssues {
		seen[existing] = true
	}
	for _, issue := range issues {
		if seen[issue] {
			continue
		}
		seen[issue] = true
		fa.LinterIssues = append(fa.LinterIssues, issue)
	}
}

type RankedFile struct {
	Path        string  `json:"path"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation,omitempty"`
}

type CodebaseMetrics struct {
	TotalFiles        int            `json:"total_files"`
	TotalFunctions    int            `json:"total_functions"`
	TotalClasses      int            `json:"total_classes"`
	AvgComplexity     float64        `json:"avg_complexity"`
	AvgDocCoverage    float64        `json:"avg_doc_coverage"`
	LanguageBreakdown map[string]int `json:"language_breakdown,omitempty"`
}

type CodebaseAnalysis struct {
	// RunID uniquely identifies this analysis run in logs and traces.
	RunID            string                   `json:"run_id"`
	RootPath         string                   `json:"root_path"`
	Files            map[string]*FileAnalysis `json:"files"`
	Graph            *graph.DependencyGraph   `json:"graph"`
	TopTeachingFiles []RankedFile             `json:"top_teaching_files,omitempty"`
	// GlobalPatterns aggregates every detected pattern across all files in a
	// deterministic order. Entries are not deduplicated; overlapping matches
	// from different detectors stay independent.
	GlobalPatterns []patterns.DetectedPattern `json:"global_patterns,omitempty"`
	Metrics        CodebaseMetrics            `json:"metrics"`
	Warnings       []string                   `json:"warnings,omitempty"`
	AnalyzedAt     time.Time                  `json:"analyzed_at"`
	Duration       time.Duration              `json:"duration"`
	CacheHits      int                        `json:"cache_hits"`
	CacheMisses    int                        `json:"cache_misses"`
}

// ApplyLinterIssues merges externally supplied issues into the analysis.
// Paths are matched against Files keys; unknown paths are skipped. Issues
// arriving late or not at all never block or alter the analysis itself.
func (a *CodebaseAnalysis) ApplyLinterIssues(issues map[string][]LinterIssue) {
	for path, list := range issues {
		fa, ok := a.Files[path]
		if !ok || len(list) == 0 {
			continue
		}
		fa.MergeLinterIssues(list...)
	}
}
