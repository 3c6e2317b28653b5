// # internal/engine/codebase.go
package engine

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"didact/internal/core/errors"
	"didact/internal/graph"
	"didact/internal/hash"
	"didact/internal/patterns"
	"didact/internal/shared/observability"
)

const topTeachingLimit = 10

// AnalyzeCodebase walks root, analyzes every supported file, and assembles
// the aggregate view. Runs are incremental per engine instance: files whose
// content hash matches the previous run reuse that result outright, and
// files deleted since then simply drop out.
func (e *Engine) AnalyzeCodebase(ctx context.Context, root string) (*CodebaseAnalysis, error) {
	ctx, span := observability.Tracer.Start(ctx, "engine.AnalyzeCodebase",
		trace.WithAttributes(attribute.String("codebase.root", root)))
	defer span.End()
	start := time.Now()

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(rootAbs)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeNotFound, "stat codebase root"),
			errors.CtxCodebase, rootAbs)
	}
	if !info.IsDir() {
		return nil, errors.AddContext(
			errors.New(errors.CodeValidationError, "codebase root is not a directory"),
			errors.CtxCodebase, rootAbs)
	}

	paths, err := e.discoverFiles(rootAbs)
	if err != nil {
		return nil, err
	}
	prev := e.previousSnapshot(rootAbs)

	results := make([]*FileAnalysis, len(paths))
	var mu sync.Mutex
	var warnings []string
	var cacheHits, cacheMisses int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Analysis.Workers)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			observability.WorkersInFlight.Inc()
			defer observability.WorkersInFlight.Dec()

			content, err := os.ReadFile(p)
			if err != nil {
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("read %s: %v", p, err))
				mu.Unlock()
				return nil
			}
			if int64(len(content)) > e.cfg.Analysis.MaxFileSize {
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("skip %s: exceeds max_file_size (%d bytes)", p, e.cfg.Analysis.MaxFileSize))
				mu.Unlock()
				return nil
			}

			if fa, ok := prev[p]; ok && fa.ContentHash == hash.Content(content) {
				results[i] = fa
				mu.Lock()
				cacheHits++
				mu.Unlock()
				return nil
			}

			fa, err := e.analyzeContent(gctx, p, content)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("analyze %s: %v", p, err))
				mu.Unlock()
				if errors.IsCode(err, errors.CodeTimeout) {
					// Abandoned files stay visible in the result. The
					// empty content hash forces a retry next run.
					results[i] = &FileAnalysis{
						FilePath:   p,
						HasErrors:  true,
						Errors:     []string{err.Error()},
						AnalyzedAt: time.Now().UTC(),
					}
				}
				return nil
			}
			results[i] = fa
			mu.Lock()
			if fa.FromCache {
				cacheHits++
			} else {
				cacheMisses++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	analysis := &CodebaseAnalysis{
		RunID:       uuid.NewString(),
		RootPath:    rootAbs,
		Files:       make(map[string]*FileAnalysis, len(results)),
		Warnings:    warnings,
		AnalyzedAt:  time.Now().UTC(),
		CacheHits:   cacheHits,
		CacheMisses: cacheMisses,
	}

	inputs := make([]graph.FileInput, 0, len(results))
	for _, fa := range results {
		if fa == nil {
			continue
		}
		analysis.Files[fa.FilePath] = fa
		input := graph.FileInput{Path: fa.FilePath, Language: fa.Language}
		if fa.Symbols != nil {
			input.Imports = fa.Symbols.Imports
			input.Exports = fa.Symbols.Exports
		}
		inputs = append(inputs, input)
	}

	// Edge resolution depends on the complete file set, so the graph is
	// rebuilt from scratch even on incremental runs.
	buildStart := time.Now()
	analysis.Graph = graph.Build(rootAbs, inputs)
	observability.AnalysisDuration.WithLabelValues("graph_build").Observe(time.Since(buildStart).Seconds())
	observability.GraphNodes.Set(float64(len(analysis.Graph.Nodes)))
	observability.GraphEdges.Set(float64(len(analysis.Graph.Edges)))
	observability.GraphCycles.Set(float64(len(analysis.Graph.CircularDependencies)))

	analysis.Metrics = computeMetrics(analysis.Files)
	analysis.GlobalPatterns = collectGlobalPatterns(analysis.Files)
	analysis.TopTeachingFiles = rankTeachingFiles(analysis.Files)

	e.storeSnapshot(rootAbs, analysis.Files)

	analysis.Duration = time.Since(start)
	observability.AnalysisDuration.WithLabelValues("codebase").Observe(analysis.Duration.Seconds())
	slog.Info("codebase analysis complete",
		"run_id", analysis.RunID,
		"files", analysis.Metrics.TotalFiles,
		"cycles", len(analysis.Graph.CircularDependencies),
		"cache_hits", cacheHits,
		"duration", analysis.Duration)
	return analysis, nil
}

func (e *Engine) discoverFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && e.cfg.DirExcluded(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if e.cfg.FileExcluded(name) {
			return nil
		}
		if !e.parser.IsSupportedPath(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func computeMetrics(files map[string]*FileAnalysis) CodebaseMetrics {
	m := CodebaseMetrics{
		TotalFiles:        len(files),
		LanguageBreakdown: make(map[string]int),
	}
	var complexitySum float64
	var complexityFiles int
	var coverageSum float64

	for _, fa := range files {
		if fa.Language != "" {
			m.LanguageBreakdown[fa.Language]++
		}
		if fa.Symbols != nil {
			m.TotalFunctions += fa.Symbols.FunctionCount()
			m.TotalClasses += len(fa.Symbols.Classes)
		}
		if fa.Complexity.TotalFunctions > 0 {
			complexitySum += fa.Complexity.AvgComplexity
			complexityFiles++
		}
		coverageSum += fa.DocCoverage
	}
	if complexityFiles > 0 {
		m.AvgComplexity = complexitySum / float64(complexityFiles)
	}
	if len(files) > 0 {
		m.AvgDocCoverage = coverageSum / float64(len(files))
	}
	return m
}

// collectGlobalPatterns flattens per-file patterns into one ordered list.
// Duplicate detections from independent detectors are kept as-is.
func collectGlobalPatterns(files map[string]*FileAnalysis) []patterns.DetectedPattern {
	var all []patterns.DetectedPattern
	for _, fa := range files {
		all = append(all, fa.Patterns...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].FilePath != all[j].FilePath {
			return all[i].FilePath < all[j].FilePath
		}
		if all[i].PatternType != all[j].PatternType {
			return all[i].PatternType < all[j].PatternType
		}
		return firstLine(all[i]) < firstLine(all[j])
	})
	return all
}

func firstLine(p patterns.DetectedPattern) int {
	if len(p.LineNumbers) == 0 {
		return 0
	}
	return p.LineNumbers[0]
}

// rankTeachingFiles orders by score descending with path as the tie break,
// so identical inputs always rank identically.
func rankTeachingFiles(files map[string]*FileAnalysis) []RankedFile {
	ranked := make([]RankedFile, 0, len(files))
	for _, fa := range files {
		ranked = append(ranked, RankedFile{
			Path:        fa.FilePath,
			Score:       fa.Score.TotalScore,
			Explanation: fa.Score.Explanation,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Path < ranked[j].Path
	})
	if len(ranked) > topTeachingLimit {
		ranked = ranked[:topTeachingLimit]
	}
	return ranked
}
