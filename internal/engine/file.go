// # internal/engine/file.go
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"didact/internal/analyzer"
	"didact/internal/core/errors"
	"didact/internal/hash"
	"didact/internal/parser"
	"didact/internal/patterns"
	"didact/internal/scoring"
	"didact/internal/shared/observability"
)

const cacheKeyPrefix = "analysis:v1:"

// AnalyzeFile runs the full pipeline for a single file. An unreadable file
// or an unsupported language is a hard error; degraded stages (syntax
// errors, extractor faults) come back as a partial analysis with HasErrors
// set.
func (e *Engine) AnalyzeFile(ctx context.Context, path string) (*FileAnalysis, error) {
	ctx, span := observability.Tracer.Start(ctx, "engine.AnalyzeFile")
	defer span.End()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeNotFound, "read source file"),
			errors.CtxPath, path)
	}
	if int64(len(content)) > e.cfg.Analysis.MaxFileSize {
		return nil, errors.AddContext(
			errors.New(errors.CodeValidationError,
				fmt.Sprintf("file exceeds max_file_size (%d bytes)", e.cfg.Analysis.MaxFileSize)),
			errors.CtxPath, path)
	}
	return e.analyzeContent(ctx, path, content)
}

func (e *Engine) analyzeContent(ctx context.Context, path string, content []byte) (*FileAnalysis, error) {
	key := cacheKeyPrefix + hash.Content(content)

	if e.cache != nil {
		if blob, ok := e.cache.Get(ctx, key); ok {
			var fa FileAnalysis
			if err := json.Unmarshal(blob, &fa); err == nil {
				// Same content can live at a different path.
				fa.FilePath = path
				fa.FromCache = true
				observability.FilesAnalyzedTotal.WithLabelValues("cached").Inc()
				return &fa, nil
			}
			slog.Warn("dropping corrupt cache entry", "key", key)
			e.cache.Delete(ctx, key)
		}
	}

	// The pipeline runs in its own goroutine so a grammar stuck on
	// pathological input is abandoned at the deadline instead of wedging a
	// worker.
	type outcome struct {
		fa  *FileAnalysis
		err error
	}
	done := make(chan outcome, 1)
	pipelineCtx, cancel := context.WithTimeout(ctx, e.cfg.Analysis.FileTimeout)
	defer cancel()

	go func() {
		fa, err := e.runPipeline(pipelineCtx, path, content)
		done <- outcome{fa, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			observability.FilesAnalyzedTotal.WithLabelValues("error").Inc()
			return nil, out.err
		}
		if e.cache != nil && out.fa != nil {
			// Cancellation after this point must not leave tiers
			// disagreeing about the key.
			putCtx := context.WithoutCancel(ctx)
			if blob, err := json.Marshal(out.fa); err == nil {
				e.cache.Put(putCtx, key, blob)
			}
		}
		observability.FilesAnalyzedTotal.WithLabelValues("ok").Inc()
		return out.fa, nil
	case <-pipelineCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		observability.FilesAnalyzedTotal.WithLabelValues("timeout").Inc()
		return nil, errors.AddContext(
			errors.Wrap(pipelineCtx.Err(), errors.CodeTimeout, "file analysis timed out"),
			errors.CtxPath, path)
	}
}

func (e *Engine) runPipeline(ctx context.Context, path string, content []byte) (*FileAnalysis, error) {
	parseStart := time.Now()
	result, err := e.parser.ParseFile(path, content)
	if err != nil {
		if errors.IsCode(err, errors.CodeUnsupportedLanguage) {
			return nil, err
		}
		// Parser crash: record a failed analysis instead of sinking the
		// batch this file belongs to.
		slog.Warn("parser fault", "path", path, "error", err)
		return &FileAnalysis{
			FilePath:    path,
			ContentHash: hash.Content(content),
			Symbols:     &parser.SymbolInfo{},
			HasErrors:   true,
			Errors:      []string{err.Error()},
			AnalyzedAt:  time.Now().UTC(),
		}, nil
	}
	defer result.Close()
	observability.ParsingDuration.WithLabelValues(result.Language).Observe(time.Since(parseStart).Seconds())

	symbols, exErr := e.parser.ExtractSymbols(result)
	if exErr != nil {
		slog.Warn("symbol extraction degraded", "path", path, "error", exErr)
	}
	if symbols == nil {
		symbols = &parser.SymbolInfo{}
	}

	fa := &FileAnalysis{
		FilePath:    path,
		Language:    result.Language,
		ContentHash: hash.Content(content),
		Symbols:     symbols,
		HasErrors:   result.HasErrors || exErr != nil,
		ErrorSpans:  result.ErrorSpans,
		AnalyzedAt:  time.Now().UTC(),
	}
	if exErr != nil {
		fa.Errors = append(fa.Errors, exErr.Error())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Both goroutines only read the symbol model, so measurement and
	// detection overlap; the measured complexities are written back once
	// both are done.
	var wg sync.WaitGroup
	var detected []patterns.DetectedPattern
	var complexities []int
	wg.Add(2)
	go func() {
		defer wg.Done()
		complexities, fa.Complexity = analyzer.Measure(symbols, content, result.Language)
		fa.DocCoverage = analyzer.DocumentationCoverage(symbols)
	}()
	go func() {
		defer wg.Done()
		detected = e.detectors.DetectAll(symbols, content, path)
	}()
	wg.Wait()
	analyzer.Apply(symbols, complexities)
	fa.Patterns = detected

	fa.Score = scoring.Score(symbols, fa.Complexity, fa.DocCoverage, detected)
	return fa, nil
}
