// # internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.Analysis.Workers != 10 {
		t.Errorf("default workers = %d, want 10", cfg.Analysis.Workers)
	}
	if cfg.Analysis.FileTimeout != 30*time.Second {
		t.Errorf("default file timeout = %v", cfg.Analysis.FileTimeout)
	}
	if cfg.Cache.TTL != 7*24*time.Hour {
		t.Errorf("default cache ttl = %v", cfg.Cache.TTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "didact.toml")
	content := `
version = 1

[analysis]
workers = 4
file_timeout = "10s"

[cache]
enabled = true
path = "/tmp/cache.db"
ttl = "1h"

[cache.remote]
url = "http://cache.internal:8080"

[exclude]
dirs = ["generated"]
files = ["*.min.js"]

[languages.python]
extensions = [".py", ".pyi"]

[watch]
debounce = "250ms"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Analysis.Workers != 4 {
		t.Errorf("workers = %d, want 4", cfg.Analysis.Workers)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("ttl = %v, want 1h", cfg.Cache.TTL)
	}
	if cfg.Cache.Remote.URL != "http://cache.internal:8080" {
		t.Errorf("remote url = %q", cfg.Cache.Remote.URL)
	}
	if !cfg.DirExcluded("generated") {
		t.Error("generated should be excluded")
	}
	if !cfg.FileExcluded("app.min.js") {
		t.Error("*.min.js should match app.min.js")
	}
	if cfg.FileExcluded("app.js") {
		t.Error("app.js should not be excluded")
	}
	if got := cfg.Languages["python"].Extensions; len(got) != 2 {
		t.Errorf("python extensions = %v", got)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Watch.Debounce)
	}
}

func TestValidateRejectsBadPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "didact.toml")
	if err := os.WriteFile(path, []byte("[exclude]\nfiles = [\"[\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected invalid glob pattern to fail validation")
	}
}

func TestValidateRejectsBadVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "didact.toml")
	if err := os.WriteFile(path, []byte("version = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected unsupported version to fail validation")
	}
}
