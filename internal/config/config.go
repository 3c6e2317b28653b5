// # internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

type Config struct {
	Version       int                 `toml:"version"`
	Analysis      Analysis            `toml:"analysis"`
	Languages     map[string]Language `toml:"languages"`
	Exclude       Exclude             `toml:"exclude"`
	Cache         Cache               `toml:"cache"`
	Watch         Watch               `toml:"watch"`
	History       History             `toml:"history"`
	Output        Output              `toml:"output"`
	Observability Observability       `toml:"observability"`
}

type Analysis struct {
	// Workers bounds concurrent file analyses.
	Workers int `toml:"workers"`
	// FileTimeout is the per-file budget; a file that exceeds it is
	// reported as failed without sinking the codebase run.
	FileTimeout time.Duration `toml:"file_timeout"`
	// MaxFileSize skips files larger than this many bytes.
	MaxFileSize int64 `toml:"max_file_size"`
}

type Language struct {
	Enabled    *bool    `toml:"enabled"`
	Extensions []string `toml:"extensions"`
	Filenames  []string `toml:"filenames"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Cache struct {
	Enabled        bool          `toml:"enabled"`
	MemoryMaxBytes int64         `toml:"memory_max_bytes"`
	Path           string        `toml:"path"`
	TTL            time.Duration `toml:"ttl"`
	Remote         RemoteCache   `toml:"remote"`
}

type RemoteCache struct {
	URL               string        `toml:"url"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	Timeout           time.Duration `toml:"timeout"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type History struct {
	// Path enables snapshot recording when set.
	Path       string `toml:"path"`
	ProjectKey string `toml:"project_key"`
}

type Output struct {
	DOT     string `toml:"dot"`
	Mermaid string `toml:"mermaid"`
	TSV     string `toml:"tsv"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// Load reads the TOML file at path and fills in defaults. A missing file is
// not an error: the zero config plus defaults is a working setup.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default is Load without a file.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if cfg.Analysis.Workers <= 0 {
		cfg.Analysis.Workers = 10
	}
	if cfg.Analysis.FileTimeout <= 0 {
		cfg.Analysis.FileTimeout = 30 * time.Second
	}
	if cfg.Analysis.MaxFileSize <= 0 {
		cfg.Analysis.MaxFileSize = 2 << 20
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{
			".git", "node_modules", "vendor", "dist", "build",
			"__pycache__", ".venv", "target",
		}
	}

	if cfg.Cache.MemoryMaxBytes <= 0 {
		cfg.Cache.MemoryMaxBytes = 64 << 20
	}
	if strings.TrimSpace(cfg.Cache.Path) == "" {
		cfg.Cache.Path = "data/cache/analysis.db"
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 7 * 24 * time.Hour
	}
	if cfg.Cache.Remote.RequestsPerSecond <= 0 {
		cfg.Cache.Remote.RequestsPerSecond = 50
	}
	if cfg.Cache.Remote.Timeout <= 0 {
		cfg.Cache.Remote.Timeout = 5 * time.Second
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

func validate(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d", cfg.Version)
	}
	if cfg.Analysis.Workers > 256 {
		return fmt.Errorf("analysis.workers %d exceeds the 256 ceiling", cfg.Analysis.Workers)
	}
	for _, pattern := range cfg.Exclude.Files {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid exclude.files pattern %q: %w", pattern, err)
		}
	}
	for name, lang := range cfg.Languages {
		for _, ext := range lang.Extensions {
			if !strings.HasPrefix(ext, ".") {
				return fmt.Errorf("language %q extension %q must start with a dot", name, ext)
			}
		}
	}
	return nil
}

// FileExcluded reports whether a base filename matches any exclude.files
// glob. Patterns were validated at load time, so compile errors are skipped.
func (c *Config) FileExcluded(name string) bool {
	for _, pattern := range c.Exclude.Files {
		g, err := glob.Compile(pattern)
		if err != nil {
			continue
		}
		if g.Match(name) {
			return true
		}
	}
	return false
}

// DirExcluded matches a directory base name against exclude.dirs.
func (c *Config) DirExcluded(name string) bool {
	for _, d := range c.Exclude.Dirs {
		if d == name {
			return true
		}
	}
	return false
}
