package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubforge/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := CheckDirectoryAccess("Workspace", dir)
	if !result.Passed {
		t.Fatalf("expected pass for %s: %s", dir, result.Detail)
	}

	result = CheckDirectoryAccess("Workspace", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatal("expected failure for missing directory")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result = CheckDirectoryAccess("Workspace", file)
	if result.Passed {
		t.Fatal("expected failure for non-directory")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()

	result := CheckFreeSpace("Free space", dir, 1)
	if !result.Passed {
		t.Fatalf("expected pass for tiny requirement: %s", result.Detail)
	}

	result = CheckFreeSpace("Free space", dir, 1<<62)
	if result.Passed {
		t.Fatal("expected failure for absurd requirement")
	}

	result = CheckFreeSpace("Free space", filepath.Join(dir, "missing"), 1)
	if result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckToolsReportsMissingBinaries(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.FFmpeg = "definitely-not-a-real-binary"
	cfg.Tools.TTS = ""

	statuses := CheckTools(&cfg)
	byName := map[string]bool{}
	for _, status := range statuses {
		byName[status.Name] = status.Available
	}
	if byName["FFmpeg"] {
		t.Fatal("expected FFmpeg to be unavailable")
	}
	if byName["TTS"] {
		t.Fatal("expected TTS to be unavailable")
	}
}

func TestRunAllAndPassed(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkspaceDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Tools.FFmpeg = "definitely-not-a-real-binary"

	results := RunAll(&cfg)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if Passed(results) {
		t.Fatal("expected at least one failing check")
	}

	var names []string
	for _, result := range results {
		names = append(names, result.Name)
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"Workspace directory", "Output directory", "Workspace free space", "FFmpeg"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing check %q in %s", want, joined)
		}
	}
}
