// # internal/history/store_test.go
package history

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoadSnapshots(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		snap := Snapshot{
			Timestamp:      base.Add(time.Duration(i) * time.Hour),
			TotalFiles:     10 + i,
			TotalFunctions: 40 + i,
			CycleCount:     i,
			AvgComplexity:  3.5,
			AvgDocCoverage: 0.6,
			TopScore:       0.8,
		}
		if err := store.SaveSnapshot("proj", snap); err != nil {
			t.Fatalf("save snapshot %d: %v", i, err)
		}
	}

	loaded, err := store.LoadSnapshots("proj", time.Time{})
	if err != nil {
		t.Fatalf("load snapshots: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(loaded))
	}
	if loaded[0].TotalFiles != 10 || loaded[2].TotalFiles != 12 {
		t.Errorf("snapshots not ordered oldest first: %+v", loaded)
	}

	recent, err := store.LoadSnapshots("proj", base.Add(90*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 {
		t.Errorf("expected 1 snapshot since cutoff, got %d", len(recent))
	}
}

func TestSaveSnapshotUpsertsSameRevision(t *testing.T) {
	store := newTestStore(t)
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	snap := Snapshot{Timestamp: ts, CommitHash: "abc123", TotalFiles: 5}
	if err := store.SaveSnapshot("proj", snap); err != nil {
		t.Fatal(err)
	}
	snap.TotalFiles = 6
	if err := store.SaveSnapshot("proj", snap); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadSnapshots("proj", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected upsert to keep one row, got %d", len(loaded))
	}
	if loaded[0].TotalFiles != 6 {
		t.Errorf("expected updated row, got %+v", loaded[0])
	}
}

func TestProjectsIsolated(t *testing.T) {
	store := newTestStore(t)
	ts := time.Now().UTC()

	if err := store.SaveSnapshot("a", Snapshot{Timestamp: ts, TotalFiles: 1}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSnapshot("b", Snapshot{Timestamp: ts, TotalFiles: 2}); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadSnapshots("a", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 || loaded[0].TotalFiles != 1 {
		t.Errorf("project isolation broken: %+v", loaded)
	}
}

func TestRejectsUnknownSchemaVersion(t *testing.T) {
	store := newTestStore(t)
	err := store.SaveSnapshot("proj", Snapshot{SchemaVersion: 99})
	if err == nil {
		t.Error("expected unknown schema version to be rejected")
	}
}
