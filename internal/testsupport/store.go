package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"dubforge/internal/queue"
)

// MustOpenStore opens a queue.Store on a temp database and registers cleanup.
func MustOpenStore(t testing.TB) *queue.Store {
	t.Helper()

	store, err := queue.Open(filepath.Join(t.TempDir(), "dubforge.db"))
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a job row for tests using the provided store.
func NewJob(t testing.TB, store *queue.Store, jobKey, videoPath, documentPath string) *queue.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), jobKey, videoPath, documentPath, "eng", "ben")
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}
