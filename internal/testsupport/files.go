package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"dubforge/internal/audio"
)

// WriteTone writes a constant-amplitude mono WAV file for tests.
func WriteTone(t testing.TB, path string, frames, sampleRate, value int) audio.Clip {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data := make([]int, frames)
	for i := range data {
		data[i] = value
	}
	clip, err := audio.WriteFile(path, &audio.Buffer{Data: data, SampleRate: sampleRate, Channels: 1})
	if err != nil {
		t.Fatalf("write tone %s: %v", path, err)
	}
	return clip
}
