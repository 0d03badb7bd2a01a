// Package assemble lays reconciled speech clips onto a silent canvas the
// exact length of the source video, producing the dubbed vocal track.
package assemble

import (
	"fmt"

	"dubforge/internal/audio"
	"dubforge/internal/diarization"
	"dubforge/internal/services"
)

// BuildDubTrack places every reconciled segment clip at its start offset on
// a silent canvas of the given duration. Skipped segments contribute
// silence. Overlapping clips mix additively; the canvas never grows beyond
// the video duration.
func BuildDubTrack(videoDuration float64, sampleRate, channels int, segments []diarization.Segment) (*audio.Canvas, error) {
	canvas, err := audio.NewCanvas(videoDuration, sampleRate, channels)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "assembling", "build_dub_track", "create canvas", err)
	}

	for _, segment := range segments {
		if segment.Skipped {
			continue
		}
		if segment.FinalAudioPath == "" {
			return nil, services.Wrap(services.ErrValidation, "assembling", "build_dub_track",
				fmt.Sprintf("segment %d has no reconciled audio", segment.Index), nil)
		}
		clip, err := audio.ReadFile(segment.FinalAudioPath)
		if err != nil {
			return nil, services.Wrap(services.ErrInput, "assembling", "build_dub_track",
				fmt.Sprintf("read segment %d clip", segment.Index), err)
		}
		if clip.SampleRate != sampleRate || clip.Channels != channels {
			return nil, services.Wrap(services.ErrValidation, "assembling", "build_dub_track",
				fmt.Sprintf("segment %d clip layout %d Hz / %d ch does not match canvas %d Hz / %d ch",
					segment.Index, clip.SampleRate, clip.Channels, sampleRate, channels), nil)
		}
		if err := canvas.Overlay(clip, segment.Start); err != nil {
			return nil, services.Wrap(services.ErrValidation, "assembling", "build_dub_track",
				fmt.Sprintf("place segment %d", segment.Index), err)
		}
	}
	return canvas, nil
}
