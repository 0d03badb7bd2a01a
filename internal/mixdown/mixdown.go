// Package mixdown combines the assembled dub vocal track with the separated
// background bed into the final audio track handed to the muxer.
package mixdown

import (
	"dubforge/internal/audio"
	"dubforge/internal/services"
)

// Mixer writes the combined dub audio track.
type Mixer struct{}

// New constructs a mixer.
func New() *Mixer {
	return &Mixer{}
}

// Mix sums the dub vocals with the background stem and writes the result to
// outputPath. An empty backgroundPath produces a vocals-only track, used when
// source separation is unavailable. The output always has the vocal track's
// exact length.
func (m *Mixer) Mix(vocals *audio.Buffer, backgroundPath, outputPath string) (audio.Clip, error) {
	if vocals == nil {
		return audio.Clip{}, services.Wrap(services.ErrValidation, "mixing", "mix", "vocal track required", nil)
	}

	var background *audio.Buffer
	if backgroundPath != "" {
		var err error
		background, err = audio.ReadFile(backgroundPath)
		if err != nil {
			return audio.Clip{}, services.Wrap(services.ErrInput, "mixing", "mix", "read background stem", err)
		}
	}

	combined, err := audio.Mix(vocals, background)
	if err != nil {
		return audio.Clip{}, services.Wrap(services.ErrValidation, "mixing", "mix", "combine tracks", err)
	}
	clip, err := audio.WriteFile(outputPath, combined)
	if err != nil {
		return audio.Clip{}, services.Wrap(services.ErrSynthesis, "mixing", "mix", "write mixed track", err)
	}
	return clip, nil
}
