package hash

import (
	"os"
	"path/filepath"
	"testing"
)

func TestContentStable(t *testing.T) {
	a := Content([]byte("def main():\n    pass\n"))
	b := Content([]byte("def main():\n    pass\n"))
	if a != b {
		t.Errorf("Expected identical digests, got %s and %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("Expected 16 hex chars, got %d", len(a))
	}

	c := Content([]byte("def main():\n    pass \n"))
	if a == c {
		t.Error("Expected different digest after content change")
	}
}

func TestFileMatchesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.py")
	data := []byte("import os\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != Content(data) {
		t.Errorf("File digest %s does not match Content digest %s", got, Content(data))
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "absent.go")); err == nil {
		t.Error("Expected error for missing file")
	}
}
