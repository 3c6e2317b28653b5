// # cmd/didact/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"didact/internal/cache"
	"didact/internal/config"
	"didact/internal/engine"
	"didact/internal/history"
	"didact/internal/output"
	"didact/internal/shared/observability"
	"didact/internal/watch"
)

var (
	configPath = flag.String("config", "./didact.toml", "Path to config file")
	once       = flag.Bool("once", false, "Run single analysis and exit")
	watchMode  = flag.Bool("watch", false, "Re-analyze on file changes")
	jsonOut    = flag.Bool("json", false, "Print the full analysis as JSON")
	filePath   = flag.String("file", "", "Analyze a single file instead of a codebase")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("didact v%s\n", VERSION)
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.OTLPEndpoint != "" {
		shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(shutdownCtx)
			}()
		}
	}

	eng, err := engine.New(cfg, buildCache(cfg))
	if err != nil {
		slog.Error("failed to initialize engine", "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	if cfg.Observability.MetricsAddr != "" {
		srv := observability.NewServer(cfg.Observability.MetricsAddr, eng)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(stopCtx)
		}()
	}

	if *filePath != "" {
		analysis, err := eng.AnalyzeFile(ctx, *filePath)
		if err != nil {
			slog.Error("file analysis failed", "path", *filePath, "error", err)
			os.Exit(1)
		}
		printJSON(analysis)
		return
	}

	root := "."
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}

	var historyStore *history.Store
	if cfg.History.Path != "" {
		historyStore, err = history.Open(cfg.History.Path)
		if err != nil {
			slog.Warn("history disabled", "path", cfg.History.Path, "error", err)
		} else {
			defer historyStore.Close()
		}
	}

	analysis, err := eng.AnalyzeCodebase(ctx, root)
	if err != nil {
		slog.Error("codebase analysis failed", "root", root, "error", err)
		os.Exit(1)
	}
	if *jsonOut {
		printJSON(analysis)
	} else {
		printSummary(analysis)
	}
	postProcess(cfg, historyStore, analysis)

	if *once || !*watchMode {
		return
	}

	watcher, err := watch.NewWatcher(
		cfg.Watch.Debounce,
		cfg.Exclude.Dirs,
		cfg.Exclude.Files,
		eng.Supports,
		func(changed []string) {
			slog.Info("changes detected", "files", len(changed))
			updated, err := eng.AnalyzeCodebase(ctx, root)
			if err != nil {
				slog.Error("re-analysis failed", "error", err)
				return
			}
			printSummary(updated)
			postProcess(cfg, historyStore, updated)
		},
	)
	if err != nil {
		slog.Error("failed to initialize watcher", "error", err)
		os.Exit(1)
	}
	defer watcher.Close()

	if err := watcher.Watch([]string{analysis.RootPath}); err != nil {
		slog.Error("failed to watch codebase", "error", err)
		os.Exit(1)
	}
	slog.Info("watching for changes", "root", analysis.RootPath)

	<-ctx.Done()
}

// buildCache assembles the tier stack from config. A broken tier downgrades
// with a warning; analysis never depends on the cache being healthy.
func buildCache(cfg *config.Config) *cache.Manager {
	if !cfg.Cache.Enabled {
		return nil
	}

	var tiers []cache.Tier
	mem, err := cache.NewMemoryTier(cfg.Cache.MemoryMaxBytes)
	if err != nil {
		slog.Warn("memory cache tier disabled", "error", err)
	} else {
		tiers = append(tiers, mem)
	}

	sqlite, err := cache.OpenSQLiteTier(cfg.Cache.Path)
	if err != nil {
		slog.Warn("sqlite cache tier disabled", "path", cfg.Cache.Path, "error", err)
	} else {
		tiers = append(tiers, sqlite)
	}

	if cfg.Cache.Remote.URL != "" {
		remote, err := cache.NewRemoteTier(
			cfg.Cache.Remote.URL,
			cfg.Cache.Remote.RequestsPerSecond,
			cfg.Cache.Remote.Timeout,
		)
		if err != nil {
			slog.Warn("remote cache tier disabled", "url", cfg.Cache.Remote.URL, "error", err)
		} else {
			tiers = append(tiers, remote)
		}
	}

	if len(tiers) == 0 {
		return nil
	}
	return cache.NewManager(cfg.Cache.TTL, tiers...)
}

// postProcess writes configured graph renderings and records a history
// snapshot. Failures here are warnings; the analysis itself already
// succeeded.
func postProcess(cfg *config.Config, store *history.Store, a *engine.CodebaseAnalysis) {
	writeRendering := func(path, kind string, generate func() (string, error)) {
		if path == "" {
			return
		}
		content, err := generate()
		if err != nil {
			slog.Warn("rendering failed", "format", kind, "error", err)
			return
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			slog.Warn("failed to write rendering", "format", kind, "path", path, "error", err)
		}
	}

	scores := make(map[string]float64, len(a.Files))
	for path, fa := range a.Files {
		scores[path] = fa.Score.TotalScore
	}
	writeRendering(cfg.Output.DOT, "dot", func() (string, error) {
		return output.NewDOTGenerator(a.Graph, scores).Generate()
	})
	writeRendering(cfg.Output.Mermaid, "mermaid", func() (string, error) {
		return output.NewMermaidGenerator(a.Graph).Generate()
	})
	writeRendering(cfg.Output.TSV, "tsv", func() (string, error) {
		return output.NewTSVGenerator(a.Graph).Generate()
	})

	if store == nil {
		return
	}
	commitHash, commitTime := history.ResolveGitMetadata(a.RootPath)
	topScore := 0.0
	if len(a.TopTeachingFiles) > 0 {
		topScore = a.TopTeachingFiles[0].Score
	}
	snap := history.Snapshot{
		Timestamp:       a.AnalyzedAt,
		CommitHash:      commitHash,
		CommitTimestamp: commitTime,
		TotalFiles:      a.Metrics.TotalFiles,
		TotalFunctions:  a.Metrics.TotalFunctions,
		TotalClasses:    a.Metrics.TotalClasses,
		CycleCount:      len(a.Graph.CircularDependencies),
		AvgComplexity:   a.Metrics.AvgComplexity,
		AvgDocCoverage:  a.Metrics.AvgDocCoverage,
		TopScore:        topScore,
		CacheHits:       a.CacheHits,
		CacheMisses:     a.CacheMisses,
	}
	if err := store.SaveSnapshot(cfg.History.ProjectKey, snap); err != nil {
		slog.Warn("failed to record history snapshot", "error", err)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("failed to encode output", "error", err)
	}
}

func printSummary(a *engine.CodebaseAnalysis) {
	fmt.Printf("Analyzed %d files in %s (%d cache hits, %d misses)\n",
		a.Metrics.TotalFiles, a.Duration.Round(time.Millisecond), a.CacheHits, a.CacheMisses)
	fmt.Printf("  functions: %d  classes: %d  avg complexity: %.1f  avg doc coverage: %.0f%%\n",
		a.Metrics.TotalFunctions, a.Metrics.TotalClasses,
		a.Metrics.AvgComplexity, a.Metrics.AvgDocCoverage*100)

	if len(a.Metrics.LanguageBreakdown) > 0 {
		langs := make([]string, 0, len(a.Metrics.LanguageBreakdown))
		for l := range a.Metrics.LanguageBreakdown {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		fmt.Print("  languages:")
		for _, l := range langs {
			fmt.Printf(" %s=%d", l, a.Metrics.LanguageBreakdown[l])
		}
		fmt.Println()
	}

	if n := len(a.Graph.CircularDependencies); n > 0 {
		fmt.Printf("\n%d circular dependencies:\n", n)
		for _, cycle := range a.Graph.CircularDependencies {
			fmt.Printf("  %v\n", cycle.Files)
		}
	}

	if len(a.TopTeachingFiles) > 0 {
		fmt.Println("\nTop teaching files:")
		for i, f := range a.TopTeachingFiles {
			fmt.Printf("  %2d. %.2f  %s\n", i+1, f.Score, f.Path)
			if f.Explanation != "" {
				fmt.Printf("        %s\n", f.Explanation)
			}
		}
	}

	for _, w := range a.Warnings {
		slog.Warn(w)
	}
}
