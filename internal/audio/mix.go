package audio

import "fmt"

// Mix combines the dub vocal track with the background bed. Both tracks are
// kept at their original level (dub vocals at unity gain, background
// untouched); sums are clamped by the clip guard. The result has the dub
// track's exact length: a longer background is truncated and a shorter one
// leaves the tail as vocals only.
func Mix(vocals, background *Buffer) (*Buffer, error) {
	if vocals == nil {
		return nil, fmt.Errorf("mix: vocals buffer required")
	}
	if background == nil {
		return vocals.Clone(), nil
	}
	if background.SampleRate != vocals.SampleRate {
		return nil, fmt.Errorf("mix: background sample rate %d does not match vocals %d", background.SampleRate, vocals.SampleRate)
	}
	if background.Channels != vocals.Channels {
		return nil, fmt.Errorf("mix: background channels %d do not match vocals %d", background.Channels, vocals.Channels)
	}

	out := vocals.Clone()
	limit := len(out.Data)
	if len(background.Data) < limit {
		limit = len(background.Data)
	}
	for i := 0; i < limit; i++ {
		out.Data[i] = clampSample(out.Data[i] + background.Data[i])
	}
	return out, nil
}
