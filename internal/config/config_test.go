package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubforge/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	// Defaults use ~ paths that normalize during Load; validate a loaded copy.
	loaded, _, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load with missing file failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing config file")
	}
	if loaded.Tools.FFmpeg != cfg.Tools.FFmpeg {
		t.Fatalf("defaults not applied: %q", loaded.Tools.FFmpeg)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
workspace_dir = "` + filepath.Join(dir, "work") + `"
output_dir = "` + filepath.Join(dir, "out") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[tools]
ffmpeg = "  /usr/bin/ffmpeg "

[dubbing]
source_language = "ENG"
target_language = "Ben"
workers = 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution exists=%v path=%q", exists, resolved)
	}
	if cfg.Tools.FFmpeg != "/usr/bin/ffmpeg" {
		t.Fatalf("ffmpeg not trimmed: %q", cfg.Tools.FFmpeg)
	}
	if cfg.Dubbing.SourceLanguage != "eng" || cfg.Dubbing.TargetLanguage != "ben" {
		t.Fatalf("languages not lowercased: %+v", cfg.Dubbing)
	}
	if cfg.Dubbing.Workers != 4 {
		t.Fatalf("workers = %d, want 4", cfg.Dubbing.Workers)
	}
	if cfg.Dubbing.SampleRate != 44100 {
		t.Fatalf("sample rate default not applied: %d", cfg.Dubbing.SampleRate)
	}
}

func TestValidateRejectsSameLanguagePair(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[dubbing]
source_language = "eng"
target_language = "eng"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation failure for identical language pair")
	} else if !strings.Contains(err.Error(), "target_language") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkspaceDir = filepath.Join(dir, "work")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, sub := range []string{"work", "out", "logs"} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err != nil || !info.IsDir() {
			t.Fatalf("directory %s missing: %v", sub, err)
		}
	}
}

func TestSampleConfigMentionsEverySection(t *testing.T) {
	sample := config.SampleConfig()
	for _, section := range []string{"[paths]", "[tools]", "[dubbing]", "[logging]", "[voices.male]", "[voices.female]"} {
		if !strings.Contains(sample, section) {
			t.Errorf("sample config missing section %s", section)
		}
	}
}
