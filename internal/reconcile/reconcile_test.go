package reconcile

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"dubforge/internal/audio"
	"dubforge/internal/services"
)

type fakeStretcher struct {
	calls []stretchCall
	err   error
}

type stretchCall struct {
	input  string
	output string
	speed  float64
}

func (f *fakeStretcher) TimeStretch(_ context.Context, input, output string, speed float64) error {
	f.calls = append(f.calls, stretchCall{input: input, output: output, speed: speed})
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(output, []byte("stretched"), 0o644)
}

func rawClip(t *testing.T, duration float64) audio.Clip {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seg-0001.wav")
	if err := os.WriteFile(path, []byte("raw"), 0o644); err != nil {
		t.Fatalf("write raw clip: %v", err)
	}
	return audio.Clip{Path: path, SampleRate: 22050, Channels: 1, Duration: duration}
}

func TestComputeSpeed(t *testing.T) {
	cases := []struct {
		name        string
		duration    float64
		window      float64
		wantSpeed   float64
		wantClamped bool
	}{
		{"long clip clamps high", 3.9, 2.0, 1.3, true},
		{"short clip clamps low", 1.0, 2.0, 0.8, true},
		{"mild overrun", 2.1, 2.0, 1.05, false},
		{"exact fit", 2.0, 2.0, 1.0, false},
		{"boundary high", 2.6, 2.0, 1.3, false},
		{"boundary low", 1.6, 2.0, 0.8, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			speed, clamped := ComputeSpeed(tc.duration, tc.window)
			if math.Abs(speed-tc.wantSpeed) > 1e-9 {
				t.Fatalf("speed = %v, want %v", speed, tc.wantSpeed)
			}
			if clamped != tc.wantClamped {
				t.Fatalf("clamped = %v, want %v", clamped, tc.wantClamped)
			}
		})
	}
}

func TestReconcileStretchesLongClip(t *testing.T) {
	stretcher := &fakeStretcher{}
	reconciler := New(stretcher)
	clip := rawClip(t, 3.9)

	result, err := reconciler.Reconcile(context.Background(), clip, 2.0, 0)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if result.Speed != 1.3 {
		t.Fatalf("speed = %v, want 1.3", result.Speed)
	}
	if math.Abs(result.FinalDuration-3.0) > 1e-9 {
		t.Fatalf("final duration = %v, want 3.0", result.FinalDuration)
	}
	if result.Warning == "" {
		t.Fatal("expected a clamp warning")
	}
	if len(stretcher.calls) != 1 || stretcher.calls[0].speed != 1.3 {
		t.Fatalf("unexpected stretch calls: %+v", stretcher.calls)
	}
	if _, err := os.Stat(result.FinalPath); err != nil {
		t.Fatalf("final clip missing: %v", err)
	}
}

func TestReconcileSlowsShortClip(t *testing.T) {
	reconciler := New(&fakeStretcher{})
	clip := rawClip(t, 1.0)

	result, err := reconciler.Reconcile(context.Background(), clip, 2.0, 0)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if result.Speed != 0.8 {
		t.Fatalf("speed = %v, want 0.8", result.Speed)
	}
	if math.Abs(result.FinalDuration-1.25) > 1e-9 {
		t.Fatalf("final duration = %v, want 1.25", result.FinalDuration)
	}
	if result.Warning == "" {
		t.Fatal("expected a clamp warning")
	}
}

func TestReconcileMildCorrectionHasNoWarning(t *testing.T) {
	reconciler := New(&fakeStretcher{})
	clip := rawClip(t, 2.1)

	result, err := reconciler.Reconcile(context.Background(), clip, 2.0, 0)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if result.Speed != 1.05 {
		t.Fatalf("speed = %v, want 1.05", result.Speed)
	}
	if math.Abs(result.FinalDuration-2.0) > 1e-9 {
		t.Fatalf("final duration = %v, want 2.0", result.FinalDuration)
	}
	if result.Warning != "" {
		t.Fatalf("unexpected warning: %q", result.Warning)
	}
}

func TestReconcileExactFitCopiesClip(t *testing.T) {
	stretcher := &fakeStretcher{}
	reconciler := New(stretcher)
	clip := rawClip(t, 2.0)

	result, err := reconciler.Reconcile(context.Background(), clip, 2.0, 0)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if len(stretcher.calls) != 0 {
		t.Fatalf("expected no stretch call, got %+v", stretcher.calls)
	}
	if _, err := os.Stat(result.FinalPath); err != nil {
		t.Fatalf("final clip missing: %v", err)
	}
	if result.Speed != 1.0 {
		t.Fatalf("speed = %v, want 1.0", result.Speed)
	}
}

func TestReconcileFinalPathSuffix(t *testing.T) {
	reconciler := New(&fakeStretcher{})
	clip := rawClip(t, 2.1)

	result, err := reconciler.Reconcile(context.Background(), clip, 2.0, 0)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if filepath.Base(result.FinalPath) != "seg-0001-final.wav" {
		t.Fatalf("final path = %q", result.FinalPath)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	stretcher := &fakeStretcher{}
	reconciler := New(stretcher)
	clip := rawClip(t, 3.9)

	first, err := reconciler.Reconcile(context.Background(), clip, 2.0, 0)
	if err != nil {
		t.Fatalf("first Reconcile returned error: %v", err)
	}
	second, err := reconciler.Reconcile(context.Background(), clip, 2.0, 0)
	if err != nil {
		t.Fatalf("second Reconcile returned error: %v", err)
	}

	if second.Speed != first.Speed {
		t.Fatalf("speed changed across runs: %v then %v", first.Speed, second.Speed)
	}
	if second.FinalDuration != first.FinalDuration {
		t.Fatalf("final duration changed across runs: %v then %v", first.FinalDuration, second.FinalDuration)
	}
	if second.FinalPath != first.FinalPath {
		t.Fatalf("final path changed across runs: %q then %q", first.FinalPath, second.FinalPath)
	}
	if second.Warning != first.Warning {
		t.Fatalf("warning changed across runs: %q then %q", first.Warning, second.Warning)
	}
	// Both runs stretch from the same unchanged raw clip at the same factor.
	if len(stretcher.calls) != 2 || stretcher.calls[0] != stretcher.calls[1] {
		t.Fatalf("stretch calls diverged: %+v", stretcher.calls)
	}
}

func TestReconcileStretchFailure(t *testing.T) {
	reconciler := New(&fakeStretcher{err: errors.New("boom")})
	clip := rawClip(t, 3.9)

	_, err := reconciler.Reconcile(context.Background(), clip, 2.0, 0)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestReconcileRejectsInvalidInputs(t *testing.T) {
	reconciler := New(&fakeStretcher{})

	if _, err := reconciler.Reconcile(context.Background(), audio.Clip{Path: "x.wav"}, 2.0, 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty clip, got %v", err)
	}
	clip := rawClip(t, 1.0)
	if _, err := reconciler.Reconcile(context.Background(), clip, 0, 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for zero window, got %v", err)
	}
}
