// Package workspace manages per-job scratch directories. Every job gets an
// isolated directory guarded by a file lock, and release removes the whole
// tree so no intermediate audio survives a run.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// Workspace is a locked scratch directory for one job.
type Workspace struct {
	root string
	lock *flock.Flock
}

// Acquire creates (or reuses) the directory for jobKey under baseDir and
// takes its lock. A held lock means another process is working the same job.
func Acquire(baseDir, jobKey string) (*Workspace, error) {
	baseDir = strings.TrimSpace(baseDir)
	jobKey = strings.TrimSpace(jobKey)
	if baseDir == "" || jobKey == "" {
		return nil, errors.New("workspace: base directory and job key required")
	}
	root := filepath.Join(baseDir, jobKey)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	lock := flock.New(filepath.Join(root, ".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock workspace: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("workspace %s is locked by another process", root)
	}
	return &Workspace{root: root, lock: lock}, nil
}

// Root returns the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// Path joins name onto the workspace root.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.root, name)
}

// SegmentsDir returns the directory holding per-segment clips, creating it
// on first use.
func (w *Workspace) SegmentsDir() (string, error) {
	dir := filepath.Join(w.root, "segments")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create segments directory: %w", err)
	}
	return dir, nil
}

// Release unlocks and deletes the workspace. Safe to call on every exit
// path; the first error from unlock or removal is reported but removal is
// always attempted.
func (w *Workspace) Release() error {
	if w == nil {
		return nil
	}
	var unlockErr error
	if w.lock != nil {
		unlockErr = w.lock.Unlock()
	}
	removeErr := os.RemoveAll(w.root)
	if unlockErr != nil {
		return fmt.Errorf("unlock workspace: %w", unlockErr)
	}
	if removeErr != nil {
		return fmt.Errorf("remove workspace: %w", removeErr)
	}
	return nil
}
