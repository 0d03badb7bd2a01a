// Package reconcile fits synthesized speech into the timing windows the
// diarization document allots to each segment. Clips that run long are sped
// up, clips that run short are slowed down, and the speed factor is clamped
// so voices stay natural even when the translation length diverges badly
// from the original.
package reconcile

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"dubforge/internal/audio"
	"dubforge/internal/fileutil"
	"dubforge/internal/services"
)

// Speed factor bounds. Outside this range stretched speech stops sounding
// like the speaker.
const (
	MinSpeed = 0.8
	MaxSpeed = 1.3
)

// speedEpsilon is the factor distance from 1.0 below which stretching is
// skipped and the raw clip is used as-is.
const speedEpsilon = 1e-4

// TimeStretcher retimes an audio file by a speed factor while preserving
// pitch.
type TimeStretcher interface {
	TimeStretch(ctx context.Context, inputPath, outputPath string, speed float64) error
}

// Result records the timing decision for one segment.
type Result struct {
	Speed         float64
	FinalDuration float64
	FinalPath     string
	Warning       string
}

// ComputeSpeed returns the clamped speed factor for a clip of the given
// duration against the segment window, plus whether clamping occurred.
func ComputeSpeed(clipDuration, window float64) (speed float64, clamped bool) {
	if window <= 0 || clipDuration <= 0 {
		return 1.0, false
	}
	raw := clipDuration / window
	switch {
	case raw < MinSpeed:
		return MinSpeed, true
	case raw > MaxSpeed:
		return MaxSpeed, true
	default:
		return raw, false
	}
}

// Reconciler applies timing corrections to synthesized clips.
type Reconciler struct {
	stretcher TimeStretcher
}

// New constructs a reconciler around the given stretch backend.
func New(stretcher TimeStretcher) *Reconciler {
	return &Reconciler{stretcher: stretcher}
}

// Reconcile fits the raw clip into the [start, end) window of its segment.
// The corrected clip is written next to the raw one with a "-final" suffix;
// when no stretch is needed the raw clip is copied so the final path always
// exists. The returned warning is non-empty when the clamp forced the clip
// to overflow or underfill its window.
func (r *Reconciler) Reconcile(ctx context.Context, clip audio.Clip, window float64, nextStart float64) (Result, error) {
	if clip.Duration <= 0 {
		return Result{}, services.Wrap(services.ErrValidation, "assembling", "reconcile",
			fmt.Sprintf("clip %s has no duration", clip.Path), nil)
	}
	if window <= 0 {
		return Result{}, services.Wrap(services.ErrValidation, "assembling", "reconcile",
			fmt.Sprintf("segment window %v is not positive", window), nil)
	}

	speed, clamped := ComputeSpeed(clip.Duration, window)
	finalPath := finalClipPath(clip.Path)
	finalDuration := clip.Duration / speed

	if math.Abs(speed-1.0) < speedEpsilon {
		if err := fileutil.CopyFile(clip.Path, finalPath); err != nil {
			return Result{}, services.Wrap(services.ErrSynthesis, "assembling", "reconcile", "copy unmodified clip", err)
		}
	} else {
		if err := r.stretcher.TimeStretch(ctx, clip.Path, finalPath, speed); err != nil {
			return Result{}, services.Wrap(services.ErrExternalTool, "assembling", "reconcile",
				fmt.Sprintf("time stretch by %.4f", speed), err)
		}
	}

	result := Result{
		Speed:         round4(speed),
		FinalDuration: finalDuration,
		FinalPath:     finalPath,
	}
	if clamped {
		result.Warning = clampWarning(clip.Duration, window, speed, finalDuration, nextStart)
	}
	return result, nil
}

func clampWarning(clipDuration, window, speed, finalDuration, nextStart float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "speed factor clamped to %.2f: synthesized %.3fs against a %.3fs window", speed, clipDuration, window)
	overflow := finalDuration - window
	if overflow > 0 {
		fmt.Fprintf(&sb, "; clip overflows window by %.3fs", overflow)
		if nextStart > 0 {
			sb.WriteString(" into the following segment")
		}
	}
	return sb.String()
}

func finalClipPath(rawPath string) string {
	ext := filepath.Ext(rawPath)
	return strings.TrimSuffix(rawPath, ext) + "-final" + ext
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
