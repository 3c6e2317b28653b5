// # internal/engine/engine_test.go
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"didact/internal/cache"
	"didact/internal/config"
	"didact/internal/core/errors"
)

func newTestEngine(t *testing.T, withCache bool) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Analysis.Workers = 4

	var manager *cache.Manager
	if withCache {
		mem, err := cache.NewMemoryTier(1 << 20)
		if err != nil {
			t.Fatal(err)
		}
		sqlite, err := cache.OpenSQLiteTier(filepath.Join(t.TempDir(), "cache.db"))
		if err != nil {
			t.Fatal(err)
		}
		manager = cache.NewManager(time.Hour, mem, sqlite)
	}

	e, err := New(cfg, manager)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func writeCodebase(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

const documentedModule = `import b
import c


def process(items):
    """Process items by combining both helpers."""
    out = []
    for item in items:
        if item:
            out.append(b.VALUE + c.VALUE)
    return out
`

func TestAnalyzeCodebase(t *testing.T) {
	root := writeCodebase(t, map[string]string{
		"a.py": documentedModule,
		"b.py": "VALUE = 1\n",
		"c.py": "VALUE = 2\n",
	})
	e := newTestEngine(t, true)

	analysis, err := e.AnalyzeCodebase(context.Background(), root)
	if err != nil {
		t.Fatalf("analyze codebase: %v", err)
	}

	if analysis.Metrics.TotalFiles != 3 {
		t.Errorf("total files = %d, want 3", analysis.Metrics.TotalFiles)
	}
	if analysis.Metrics.TotalFunctions != 1 {
		t.Errorf("total functions = %d, want 1", analysis.Metrics.TotalFunctions)
	}
	if analysis.Metrics.LanguageBreakdown["python"] != 3 {
		t.Errorf("unexpected language breakdown %v", analysis.Metrics.LanguageBreakdown)
	}
	if len(analysis.Graph.CircularDependencies) != 0 {
		t.Errorf("unexpected cycles %v", analysis.Graph.CircularDependencies)
	}
	if len(analysis.Graph.Edges) != 2 {
		t.Errorf("expected 2 edges, got %v", analysis.Graph.Edges)
	}

	if len(analysis.TopTeachingFiles) != 3 {
		t.Fatalf("expected 3 ranked files, got %d", len(analysis.TopTeachingFiles))
	}
	if got := analysis.TopTeachingFiles[0].Path; filepath.Base(got) != "a.py" {
		t.Errorf("expected a.py ranked first, got %s", got)
	}

	perFile := 0
	for _, fa := range analysis.Files {
		perFile += len(fa.Patterns)
	}
	if len(analysis.GlobalPatterns) != perFile {
		t.Errorf("global patterns = %d, want %d (sum of per-file patterns)", len(analysis.GlobalPatterns), perFile)
	}
	for i := 1; i < len(analysis.GlobalPatterns); i++ {
		if analysis.GlobalPatterns[i-1].FilePath > analysis.GlobalPatterns[i].FilePath {
			t.Errorf("global patterns not ordered by file: %s after %s",
				analysis.GlobalPatterns[i].FilePath, analysis.GlobalPatterns[i-1].FilePath)
		}
	}
}

func TestSecondRunHitsCache(t *testing.T) {
	root := writeCodebase(t, map[string]string{
		"a.py": documentedModule,
		"b.py": "VALUE = 1\n",
		"c.py": "VALUE = 2\n",
	})
	e := newTestEngine(t, true)
	ctx := context.Background()

	first, err := e.AnalyzeCodebase(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheMisses != 3 {
		t.Errorf("first run misses = %d, want 3", first.CacheMisses)
	}

	second, err := e.AnalyzeCodebase(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	if second.CacheHits != 3 || second.CacheMisses != 0 {
		t.Errorf("second run hits/misses = %d/%d, want 3/0", second.CacheHits, second.CacheMisses)
	}
}

func TestIncrementalReanalyzesOnlyChangedFiles(t *testing.T) {
	root := writeCodebase(t, map[string]string{
		"a.py": documentedModule,
		"b.py": "VALUE = 1\n",
		"c.py": "VALUE = 2\n",
	})
	e := newTestEngine(t, false)
	ctx := context.Background()

	if _, err := e.AnalyzeCodebase(ctx, root); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(root, "b.py"), []byte("VALUE = 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := e.AnalyzeCodebase(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	// Without a cache only the snapshot diff can produce hits.
	if second.CacheHits != 2 || second.CacheMisses != 1 {
		t.Errorf("hits/misses = %d/%d, want 2/1", second.CacheHits, second.CacheMisses)
	}
}

func TestDeletedFileDropsOut(t *testing.T) {
	root := writeCodebase(t, map[string]string{
		"a.py": documentedModule,
		"b.py": "VALUE = 1\n",
		"c.py": "VALUE = 2\n",
	})
	e := newTestEngine(t, false)
	ctx := context.Background()

	if _, err := e.AnalyzeCodebase(ctx, root); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(root, "c.py")); err != nil {
		t.Fatal(err)
	}

	second, err := e.AnalyzeCodebase(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	if second.Metrics.TotalFiles != 2 {
		t.Errorf("total files = %d, want 2", second.Metrics.TotalFiles)
	}
	for path := range second.Files {
		if filepath.Base(path) == "c.py" {
			t.Error("deleted file still present in analysis")
		}
	}
}

func TestAnalysisDeterministic(t *testing.T) {
	root := writeCodebase(t, map[string]string{
		"a.py": documentedModule,
		"b.py": "VALUE = 1\n",
		"c.py": "VALUE = 2\n",
	})
	ctx := context.Background()

	run := func() *CodebaseAnalysis {
		e := newTestEngine(t, false)
		analysis, err := e.AnalyzeCodebase(ctx, root)
		if err != nil {
			t.Fatal(err)
		}
		return analysis
	}
	a, b := run(), run()

	if len(a.TopTeachingFiles) != len(b.TopTeachingFiles) {
		t.Fatalf("ranking lengths differ: %d vs %d", len(a.TopTeachingFiles), len(b.TopTeachingFiles))
	}
	for i := range a.TopTeachingFiles {
		if a.TopTeachingFiles[i] != b.TopTeachingFiles[i] {
			t.Errorf("ranking differs at %d: %+v vs %+v", i, a.TopTeachingFiles[i], b.TopTeachingFiles[i])
		}
	}
	for path, fa := range a.Files {
		if fb, ok := b.Files[path]; !ok || fa.Score != fb.Score {
			t.Errorf("score differs for %s", path)
		}
	}
}

func TestAnalyzeFile(t *testing.T) {
	root := writeCodebase(t, map[string]string{"mod.py": documentedModule})
	e := newTestEngine(t, true)

	fa, err := e.AnalyzeFile(context.Background(), filepath.Join(root, "mod.py"))
	if err != nil {
		t.Fatalf("analyze file: %v", err)
	}
	if fa.Language != "python" {
		t.Errorf("language = %q", fa.Language)
	}
	if fa.Symbols == nil || len(fa.Symbols.Functions) != 1 {
		t.Fatalf("expected 1 function, got %+v", fa.Symbols)
	}
	if fa.DocCoverage != 1 {
		t.Errorf("doc coverage = %f, want 1", fa.DocCoverage)
	}
	if fa.Score.TotalScore <= 0 || fa.Score.TotalScore > 1 {
		t.Errorf("score out of range: %f", fa.Score.TotalScore)
	}
	if fa.FromCache {
		t.Error("first analysis must not come from cache")
	}

	again, err := e.AnalyzeFile(context.Background(), filepath.Join(root, "mod.py"))
	if err != nil {
		t.Fatal(err)
	}
	if !again.FromCache {
		t.Error("second analysis should come from cache")
	}
	if again.Score != fa.Score {
		t.Errorf("cached score differs: %+v vs %+v", again.Score, fa.Score)
	}
}

func TestAnalyzeFileUnsupportedLanguage(t *testing.T) {
	root := writeCodebase(t, map[string]string{"notes.txt": "hello\n"})
	e := newTestEngine(t, false)

	_, err := e.AnalyzeFile(context.Background(), filepath.Join(root, "notes.txt"))
	if !errors.IsCode(err, errors.CodeUnsupportedLanguage) {
		t.Errorf("expected unsupported language error, got %v", err)
	}
}

func TestAnalyzeFileMissing(t *testing.T) {
	e := newTestEngine(t, false)
	_, err := e.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "gone.py"))
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestBrokenFileYieldsPartialAnalysis(t *testing.T) {
	root := writeCodebase(t, map[string]string{
		"broken.py": "def broken(:\n    pass\n\ndef fine():\n    return 1\n",
	})
	e := newTestEngine(t, false)

	fa, err := e.AnalyzeFile(context.Background(), filepath.Join(root, "broken.py"))
	if err != nil {
		t.Fatalf("broken syntax should degrade, not fail: %v", err)
	}
	if !fa.HasErrors {
		t.Error("expected HasErrors on broken file")
	}
}

func TestExcludedDirsSkipped(t *testing.T) {
	root := writeCodebase(t, map[string]string{
		"a.py":                  "VALUE = 1\n",
		"node_modules/dep.js":   "module.exports = 1;\n",
		"__pycache__/cached.py": "VALUE = 2\n",
	})
	e := newTestEngine(t, false)

	analysis, err := e.AnalyzeCodebase(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if analysis.Metrics.TotalFiles != 1 {
		t.Errorf("total files = %d, want 1 (excludes skipped)", analysis.Metrics.TotalFiles)
	}
}

func TestMergeLinterIssues(t *testing.T) {
	fa := &FileAnalysis{}
	issue := LinterIssue{Source: "ruff", RuleID: "E501", Message: "line too long", Line: 3}
	fa.MergeLinterIssues(issue)
	fa.MergeLinterIssues(issue, LinterIssue{Source: "ruff", RuleID: "F401", Message: "unused import", Line: 1})

	if len(fa.LinterIssues) != 2 {
		t.Errorf("expected 2 deduplicated issues, got %d", len(fa.LinterIssues))
	}
}

func TestApplyLinterIssues(t *testing.T) {
	analysis := &CodebaseAnalysis{
		Files: map[string]*FileAnalysis{
			"a.py": {FilePath: "a.py"},
		},
	}
	analysis.ApplyLinterIssues(map[string][]LinterIssue{
		"a.py":       {{Source: "ruff", RuleID: "E501", Message: "line too long", Line: 3}},
		"missing.py": {{Source: "ruff", RuleID: "F401", Message: "unused import", Line: 1}},
	})

	if len(analysis.Files["a.py"].LinterIssues) != 1 {
		t.Errorf("expected 1 issue on a.py, got %d", len(analysis.Files["a.py"].LinterIssues))
	}
	if len(analysis.Files) != 1 {
		t.Errorf("unknown paths must not create entries, got %d files", len(analysis.Files))
	}
}

// Complexity measurement and pattern detection overlap inside the pipeline;
// a file with many functions gives both sides plenty of model to read while
// the measured values wait to be written back.
func TestConcurrentStagesAnnotateAllFunctions(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&b, "def fn_%d(x):\n    \"\"\"Doc.\"\"\"\n    if x:\n        return x\n    return 0\n\n", i)
	}
	root := writeCodebase(t, map[string]string{"many.py": b.String()})
	e := newTestEngine(t, false)

	fa, err := e.AnalyzeFile(context.Background(), filepath.Join(root, "many.py"))
	if err != nil {
		t.Fatal(err)
	}
	if fa.Complexity.TotalFunctions != 200 {
		t.Fatalf("expected 200 functions, got %d", fa.Complexity.TotalFunctions)
	}
	for _, fn := range fa.Symbols.AllFunctions() {
		if fn.Complexity < 1 {
			t.Fatalf("function %s left unannotated", fn.Name)
		}
	}
}

func TestFileTimeoutRecordedAndRetried(t *testing.T) {
	root := writeCodebase(t, map[string]string{"a.py": documentedModule})
	e := newTestEngine(t, false)
	e.cfg.Analysis.FileTimeout = time.Nanosecond

	first, err := e.AnalyzeCodebase(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Files) != 1 {
		t.Fatalf("timed out file must stay in the result, got %d files", len(first.Files))
	}
	var fa *FileAnalysis
	for _, f := range first.Files {
		fa = f
	}
	if !fa.HasErrors {
		t.Error("expected HasErrors on a timed out file")
	}
	if len(fa.Errors) == 0 || !strings.Contains(fa.Errors[0], "timed out") {
		t.Errorf("expected a timeout message, got %v", fa.Errors)
	}
	if fa.ContentHash != "" {
		t.Errorf("placeholder must not carry a content hash, got %q", fa.ContentHash)
	}

	e.cfg.Analysis.FileTimeout = 30 * time.Second
	second, err := e.AnalyzeCodebase(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range second.Files {
		if f.HasErrors {
			t.Errorf("expected retry to analyze cleanly, got %v", f.Errors)
		}
	}
	if second.CacheMisses != 1 {
		t.Errorf("retry should re-run the pipeline, misses = %d", second.CacheMisses)
	}
}

func TestOversizeFileSkippedWithWarning(t *testing.T) {
	root := writeCodebase(t, map[string]string{
		"big.py":   strings.Repeat("# filler\n", 64),
		"small.py": "VALUE = 1\n",
	})
	e := newTestEngine(t, false)
	e.cfg.Analysis.MaxFileSize = 64

	analysis, err := e.AnalyzeCodebase(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if analysis.Metrics.TotalFiles != 1 {
		t.Errorf("expected only the small file, got %d", analysis.Metrics.TotalFiles)
	}
	found := false
	for _, w := range analysis.Warnings {
		if strings.Contains(w, "big.py") && strings.Contains(w, "max_file_size") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a skip warning for big.py, got %v", analysis.Warnings)
	}
}

func TestCacheHitSerialized(t *testing.T) {
	root := writeCodebase(t, map[string]string{"a.py": documentedModule})
	e := newTestEngine(t, true)
	ctx := context.Background()
	path := filepath.Join(root, "a.py")

	if _, err := e.AnalyzeFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	fa, err := e.AnalyzeFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if !fa.FromCache {
		t.Fatal("expected second read to hit the cache")
	}

	blob, err := json.Marshal(fa)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(blob), `"cache_hit":true`) {
		t.Errorf("cache_hit must serialize, got %s", blob)
	}
}
