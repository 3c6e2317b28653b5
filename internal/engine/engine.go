// # internal/engine/engine.go
package engine

import (
	"context"
	"sync"
	"time"

	"didact/internal/cache"
	"didact/internal/config"
	"didact/internal/parser"
	"didact/internal/patterns"
	"didact/internal/shared/observability"
)

// Engine orchestrates the per-file pipeline and codebase-level analysis.
// It is safe for concurrent use; per-run state lives on the stack of each
// Analyze call.
type Engine struct {
	cfg       *config.Config
	parser    *parser.Parser
	detectors *patterns.Registry
	cache     *cache.Manager // nil when caching is disabled

	mu sync.Mutex
	// previous holds the last completed analysis per codebase root so an
	// unchanged file skips the whole pipeline on the next run.
	previous map[string]map[string]*FileAnalysis
}

func New(cfg *config.Config, cacheManager *cache.Manager) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	overrides := make(map[string]parser.LanguageOverride, len(cfg.Languages))
	for name, lang := range cfg.Languages {
		overrides[name] = parser.LanguageOverride{
			Enabled:    lang.Enabled,
			Extensions: lang.Extensions,
			Filenames:  lang.Filenames,
		}
	}
	registry, err := parser.BuildLanguageRegistry(overrides)
	if err != nil {
		return nil, err
	}
	loader, err := parser.NewGrammarLoaderWithRegistry(registry)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		parser:    parser.NewParser(loader),
		detectors: patterns.DefaultRegistry(),
		cache:     cacheManager,
		previous:  make(map[string]map[string]*FileAnalysis),
	}, nil
}

// Detectors exposes the registry so callers can add custom detectors before
// the first analysis.
func (e *Engine) Detectors() *patterns.Registry {
	return e.detectors
}

// Supports reports whether a path maps to a registered language.
func (e *Engine) Supports(path string) bool {
	return e.parser.IsSupportedPath(path)
}

func (e *Engine) Close() error {
	if e.cache != nil {
		return e.cache.Close()
	}
	return nil
}

// Check implements the observability health contract.
func (e *Engine) Check(ctx context.Context) observability.HealthStatus {
	components := map[string]string{
		"parser": "up",
		"cache":  "disabled",
	}
	if e.cache != nil {
		components["cache"] = "up"
	}
	return observability.HealthStatus{
		Status:     "up",
		Components: components,
		CheckedAt:  time.Now().UTC(),
	}
}

func (e *Engine) previousSnapshot(root string) map[string]*FileAnalysis {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.previous[root]
}

func (e *Engine) storeSnapshot(root string, files map[string]*FileAnalysis) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.previous[root] = files
}
