// Package testsupport provides shared fixtures for package tests: configs
// seeded with temp directories, queue stores with registered cleanup, and
// small audio files.
package testsupport

import (
	"path/filepath"
	"testing"

	"dubforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithSampleRate overrides the dub canvas sample rate on the test config.
func WithSampleRate(rate int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Dubbing.SampleRate = rate
	}
}

// WithWorkers overrides the segment pool size on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Dubbing.Workers = workers
	}
}
