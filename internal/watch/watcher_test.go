// # internal/watch/watcher_test.go
package watch

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, onChange func([]string)) *Watcher {
	t.Helper()
	supported := func(path string) bool {
		return strings.HasSuffix(path, ".py") || strings.HasSuffix(path, ".go")
	}
	w, err := NewWatcher(20*time.Millisecond, []string{"node_modules"}, []string{"*.min.js"}, supported, onChange)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestDebounceBatchesChanges(t *testing.T) {
	batches := make(chan []string, 1)
	w := newTestWatcher(t, func(paths []string) { batches <- paths })

	w.scheduleChange("/src/a.py")
	w.scheduleChange("/src/b.py")
	w.scheduleChange("/src/a.py")

	select {
	case batch := <-batches:
		if len(batch) != 2 {
			t.Errorf("expected 2 unique paths in batch, got %v", batch)
		}
	case <-time.After(time.Second):
		t.Fatal("debounced batch never flushed")
	}
}

func TestRapidChangesResetDebounce(t *testing.T) {
	batches := make(chan []string, 4)
	w := newTestWatcher(t, func(paths []string) { batches <- paths })

	// Changes arriving inside the window coalesce into one callback.
	for i := 0; i < 5; i++ {
		w.scheduleChange("/src/a.py")
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-batches:
	case <-time.After(time.Second):
		t.Fatal("expected one flush")
	}
	select {
	case extra := <-batches:
		t.Errorf("expected a single flush, got extra batch %v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestShouldExcludeFile(t *testing.T) {
	w := newTestWatcher(t, func([]string) {})

	dir := t.TempDir()
	if w.shouldExcludeFile(filepath.Join(dir, "app.min.js")) != true {
		t.Error("minified bundle should be excluded by glob")
	}
	// A path that no longer exists must pass through so deletions get
	// re-analyzed.
	if w.shouldExcludeFile(filepath.Join(dir, "gone.py")) {
		t.Error("missing file should not be excluded")
	}
}
