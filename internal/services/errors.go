package services

import (
	"errors"
	"fmt"
	"strings"

	"dubforge/internal/queue"
)

var (
	// ErrInput marks a missing or corrupt source artifact (video file,
	// diarization document). Fatal before any processing begins.
	ErrInput = errors.New("input error")
	// ErrSynthesis marks a per-segment TTS failure. Recoverable: the
	// segment is skipped and the dub track carries silence in its window.
	ErrSynthesis = errors.New("synthesis error")
	// ErrExternalTool marks a non-zero exit or unusable output from an
	// external process (ffmpeg, ffprobe, demucs). Fatal for the job.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks bad stage input that an operator must fix.
	ErrValidation = errors.New("validation error")
	// ErrTimeout marks an external invocation that exceeded its deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later status classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a stage error to the queue status the pipeline should
// persist after the stage fails.
func FailureStatus(err error) queue.Status {
	switch {
	case errors.Is(err, ErrInput), errors.Is(err, ErrValidation):
		return queue.StatusReview
	default:
		return queue.StatusFailed
	}
}

// Recoverable reports whether a segment-level error should skip the segment
// rather than abort the job.
func Recoverable(err error) bool {
	return errors.Is(err, ErrSynthesis)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
