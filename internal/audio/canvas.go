package audio

import (
	"fmt"
	"math"
)

// Canvas is a silent PCM buffer spanning the full video duration. It is
// mutated only by additive overlay during assembly and never resized, so
// the assembled dub track always matches the source video length exactly.
type Canvas struct {
	buf *Buffer
}

// NewCanvas allocates a silent canvas of the given duration, sample-accurate
// (frame count rounded to nearest).
func NewCanvas(duration float64, sampleRate, channels int) (*Canvas, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("canvas duration %.3f must be positive", duration)
	}
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("canvas needs positive sample rate and channels, got %d/%d", sampleRate, channels)
	}
	frames := int(math.Round(duration * float64(sampleRate)))
	return &Canvas{
		buf: &Buffer{
			Data:       make([]int, frames*channels),
			SampleRate: sampleRate,
			Channels:   channels,
		},
	}, nil
}

// Overlay mixes src additively into the canvas starting at offset seconds.
// Overlapping audio sums sample-by-sample; the clip guard clamps sums to the
// 16-bit range. Audio extending past the end of the canvas is dropped, since
// the canvas never grows.
func (c *Canvas) Overlay(src *Buffer, offset float64) error {
	if src == nil {
		return nil
	}
	if src.SampleRate != c.buf.SampleRate {
		return fmt.Errorf("overlay sample rate %d does not match canvas %d", src.SampleRate, c.buf.SampleRate)
	}
	if src.Channels != c.buf.Channels {
		return fmt.Errorf("overlay channels %d do not match canvas %d", src.Channels, c.buf.Channels)
	}
	if offset < 0 {
		return fmt.Errorf("overlay offset %.3f must not be negative", offset)
	}

	startFrame := int(math.Round(offset * float64(c.buf.SampleRate)))
	start := startFrame * c.buf.Channels
	for i, sample := range src.Data {
		pos := start + i
		if pos >= len(c.buf.Data) {
			break
		}
		c.buf.Data[pos] = clampSample(c.buf.Data[pos] + sample)
	}
	return nil
}

// Buffer exposes the underlying PCM data for encoding or mixing.
func (c *Canvas) Buffer() *Buffer {
	return c.buf
}

// Duration returns the canvas length in seconds.
func (c *Canvas) Duration() float64 {
	return c.buf.Duration()
}

func clampSample(v int) int {
	if v > maxSample {
		return maxSample
	}
	if v < minSample {
		return minSample
	}
	return v
}
