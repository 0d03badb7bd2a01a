package audio

import (
	"errors"
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth = 16
	// maxSample is the largest magnitude a 16-bit sample can carry; sums
	// beyond it are clamped by the canvas clip guard.
	maxSample = 1<<(bitDepth-1) - 1
	minSample = -(1 << (bitDepth - 1))
)

// Buffer holds interleaved 16-bit PCM samples in memory.
type Buffer struct {
	Data       []int
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames (samples per channel).
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Clone returns an independent copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	data := make([]int, len(b.Data))
	copy(data, b.Data)
	return &Buffer{Data: data, SampleRate: b.SampleRate, Channels: b.Channels}
}

// ReadFile decodes a PCM WAV file into memory.
func ReadFile(path string) (*Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav %s: %w", path, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("decode wav %s: not a valid RIFF/WAVE file", path)
	}
	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", path, err)
	}
	if pcm.Format == nil {
		return nil, fmt.Errorf("decode wav %s: missing format chunk", path)
	}
	return &Buffer{
		Data:       pcm.Data,
		SampleRate: pcm.Format.SampleRate,
		Channels:   pcm.Format.NumChannels,
	}, nil
}

// WriteFile encodes the buffer as a 16-bit PCM WAV file and returns the Clip
// describing the new artifact.
func WriteFile(path string, buf *Buffer) (Clip, error) {
	if buf == nil || buf.SampleRate <= 0 || buf.Channels <= 0 {
		return Clip{}, errors.New("write wav: invalid buffer")
	}
	file, err := os.Create(path)
	if err != nil {
		return Clip{}, fmt.Errorf("create wav %s: %w", path, err)
	}
	defer file.Close()

	encoder := wav.NewEncoder(file, buf.SampleRate, bitDepth, buf.Channels, 1)
	pcm := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: buf.Channels, SampleRate: buf.SampleRate},
		Data:           buf.Data,
		SourceBitDepth: bitDepth,
	}
	if err := encoder.Write(pcm); err != nil {
		return Clip{}, fmt.Errorf("encode wav %s: %w", path, err)
	}
	if err := encoder.Close(); err != nil {
		return Clip{}, fmt.Errorf("finalize wav %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return Clip{}, fmt.Errorf("close wav %s: %w", path, err)
	}
	return Clip{
		Path:       path,
		SampleRate: buf.SampleRate,
		Channels:   buf.Channels,
		Duration:   buf.Duration(),
	}, nil
}

// Probe reads only enough of a WAV file to describe it as a Clip.
func Probe(path string) (Clip, error) {
	buf, err := ReadFile(path)
	if err != nil {
		return Clip{}, err
	}
	return Clip{
		Path:       path,
		SampleRate: buf.SampleRate,
		Channels:   buf.Channels,
		Duration:   buf.Duration(),
	}, nil
}
