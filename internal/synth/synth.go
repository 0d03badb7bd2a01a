// Package synth produces per-segment speech audio from translated text using
// an external text-to-speech binary. Voice selection follows the speaker
// gender recorded in the diarization document.
package synth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"dubforge/internal/audio"
	"dubforge/internal/config"
	"dubforge/internal/diarization"
	"dubforge/internal/services"
)

// Synthesizer renders translated text into a WAV clip on disk.
type Synthesizer interface {
	Synthesize(ctx context.Context, segment diarization.Segment, outputPath string) (audio.Clip, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
}

// Option configures the synthesizer.
type Option func(*CommandSynthesizer)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(s *CommandSynthesizer) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// CommandSynthesizer shells out to a TTS binary per segment.
type CommandSynthesizer struct {
	binary  string
	voices  config.Voices
	timeout time.Duration
	exec    Executor
}

// New constructs a synthesizer around the configured TTS binary and voice
// profiles.
func New(binary string, voices config.Voices, timeoutSeconds int, opts ...Option) (*CommandSynthesizer, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("tts binary required")
	}
	synth := &CommandSynthesizer{
		binary:  binary,
		voices:  voices,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(synth)
	}
	return synth, nil
}

// Synthesize renders the segment's translated text to outputPath and probes
// the result. Empty translated text fails the segment, never the job.
func (s *CommandSynthesizer) Synthesize(ctx context.Context, segment diarization.Segment, outputPath string) (audio.Clip, error) {
	text := strings.TrimSpace(segment.TranslatedText)
	if text == "" {
		return audio.Clip{}, services.Wrap(services.ErrSynthesis, "synthesizing", "synthesize",
			fmt.Sprintf("segment %d has no translated text", segment.Index), nil)
	}
	voice, err := s.voiceFor(segment.Gender)
	if err != nil {
		return audio.Clip{}, services.Wrap(services.ErrValidation, "synthesizing", "synthesize", err.Error(), nil)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return audio.Clip{}, services.Wrap(services.ErrSynthesis, "synthesizing", "synthesize", "create segment directory", err)
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := []string{"--voice", voice.ID, "--text", text, "--out", outputPath}
	if err := s.exec.Run(runCtx, s.binary, args); err != nil {
		_ = os.Remove(outputPath)
		return audio.Clip{}, services.Wrap(services.ErrSynthesis, "synthesizing", "synthesize",
			fmt.Sprintf("tts failed for segment %d", segment.Index), err)
	}

	clip, err := audio.Probe(outputPath)
	if err != nil {
		return audio.Clip{}, services.Wrap(services.ErrSynthesis, "synthesizing", "synthesize",
			fmt.Sprintf("tts produced unreadable audio for segment %d", segment.Index), err)
	}
	if clip.Duration <= 0 {
		return audio.Clip{}, services.Wrap(services.ErrSynthesis, "synthesizing", "synthesize",
			fmt.Sprintf("tts produced empty audio for segment %d", segment.Index), nil)
	}
	return clip, nil
}

func (s *CommandSynthesizer) voiceFor(gender diarization.Gender) (config.Voice, error) {
	switch gender {
	case diarization.GenderMale:
		return s.voices.Male, nil
	case diarization.GenderFemale:
		return s.voices.Female, nil
	default:
		return config.Voice{}, fmt.Errorf("no voice profile for gender %q", gender)
	}
}

// SegmentFileName reports the canonical on-disk name for a segment's raw
// synthesized clip.
func SegmentFileName(index int) string {
	return fmt.Sprintf("seg-%04d.wav", index)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(output))
		if trimmed != "" {
			return fmt.Errorf("%w: %s", err, trimmed)
		}
		return err
	}
	return nil
}
