package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireCreatesLockedDirectory(t *testing.T) {
	base := t.TempDir()

	ws, err := Acquire(base, "job-1234")
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	defer ws.Release()

	info, err := os.Stat(ws.Root())
	if err != nil || !info.IsDir() {
		t.Fatalf("workspace root missing: %v", err)
	}
	if _, err := os.Stat(ws.Path(".lock")); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}

	// A second acquire of the same job must be refused.
	if _, err := Acquire(base, "job-1234"); err == nil {
		t.Fatal("expected second acquire to fail while lock is held")
	}
}

func TestReleaseRemovesWorkspace(t *testing.T) {
	base := t.TempDir()

	ws, err := Acquire(base, "job-1234")
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	dir, err := ws.SegmentsDir()
	if err != nil {
		t.Fatalf("SegmentsDir returned error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "seg-0000.wav"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write segment: %v", err)
	}

	if err := ws.Release(); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	if _, err := os.Stat(ws.Root()); !os.IsNotExist(err) {
		t.Fatal("expected workspace to be removed")
	}

	// Released job keys can be reacquired.
	ws2, err := Acquire(base, "job-1234")
	if err != nil {
		t.Fatalf("reacquire returned error: %v", err)
	}
	_ = ws2.Release()
}

func TestAcquireValidatesInputs(t *testing.T) {
	if _, err := Acquire("", "job"); err == nil {
		t.Fatal("expected error for empty base dir")
	}
	if _, err := Acquire(t.TempDir(), "  "); err == nil {
		t.Fatal("expected error for empty job key")
	}
}

func TestCleanStaleRemovesOldDirectories(t *testing.T) {
	base := t.TempDir()

	stale := filepath.Join(base, "job-old")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	fresh := filepath.Join(base, "job-new")
	if err := os.MkdirAll(fresh, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	result := CleanStale(base, 24*time.Hour, nil)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected cleanup errors: %v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != stale {
		t.Fatalf("removed = %v, want [%s]", result.Removed, stale)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh workspace should survive: %v", err)
	}
}

func TestCleanStaleEmptyBase(t *testing.T) {
	result := CleanStale("", time.Hour, nil)
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
