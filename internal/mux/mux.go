// Package mux assembles the final dubbed container: source video, the dub
// track as the default audio, the original soundtrack as an alternate, and
// subtitle tracks in both languages. The finished file is verified with
// ffprobe before it is accepted.
package mux

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"dubforge/internal/language"
	"dubforge/internal/media/ffprobe"
	"dubforge/internal/services"
	ffmpegsvc "dubforge/internal/services/ffmpeg"
)

// setupPercent is reserved for input preparation before encode progress
// starts flowing.
const setupPercent = 5.0

// defaultFrameTolerance bounds the duration check when the output carries no
// usable frame rate.
const defaultFrameTolerance = 0.05

// Runner executes a composed ffmpeg invocation.
type Runner interface {
	Run(ctx context.Context, args []string, onLine func(string)) error
}

// Prober inspects the muxed output.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Request describes one mux invocation.
type Request struct {
	VideoOnlyPath      string
	DubbedAudioPath    string
	OriginalAudioPath  string
	TargetSubtitlePath string
	SourceSubtitlePath string

	SourceLanguage string
	TargetLanguage string

	// SourceDuration is the original video length in seconds, used for
	// progress scaling and the output duration check.
	SourceDuration float64

	OutputPath string
}

// Progress reports mux completion in percent with a short message.
type Progress func(percent float64, message string)

// Muxer drives ffmpeg and verifies its output.
type Muxer struct {
	runner Runner
	prober Prober
}

// New constructs a muxer.
func New(runner Runner, prober Prober) *Muxer {
	return &Muxer{runner: runner, prober: prober}
}

// Mux builds the dubbed container described by the request. The output file
// is removed when verification fails so a broken container is never handed
// on.
func (m *Muxer) Mux(ctx context.Context, req Request, progress Progress) error {
	if err := req.validate(); err != nil {
		return services.Wrap(services.ErrValidation, "muxing", "mux", "invalid request", err)
	}
	targetLang, err := language.ToISO3(req.TargetLanguage)
	if err != nil {
		return services.Wrap(services.ErrValidation, "muxing", "mux", "target language", err)
	}
	sourceLang, err := language.ToISO3(req.SourceLanguage)
	if err != nil {
		return services.Wrap(services.ErrValidation, "muxing", "mux", "source language", err)
	}

	report(progress, setupPercent, "starting mux")

	args := composeArgs(req, targetLang, sourceLang)
	onLine := func(line string) {
		processed, ok := ffmpegsvc.ParseProgress(line)
		if !ok || req.SourceDuration <= 0 {
			return
		}
		fraction := processed.Seconds() / req.SourceDuration
		if fraction > 1 {
			fraction = 1
		}
		percent := setupPercent + fraction*(100-setupPercent)
		report(progress, percent, "encoding")
	}
	if err := m.runner.Run(ctx, args, onLine); err != nil {
		_ = os.Remove(req.OutputPath)
		return services.Wrap(services.ErrExternalTool, "muxing", "mux", "ffmpeg mux", err)
	}

	if err := m.verify(ctx, req, targetLang, sourceLang); err != nil {
		_ = os.Remove(req.OutputPath)
		return err
	}
	report(progress, 100, "mux complete")
	return nil
}

func composeArgs(req Request, targetLang, sourceLang string) []string {
	return []string{
		"-y",
		"-i", req.VideoOnlyPath,
		"-i", req.DubbedAudioPath,
		"-i", req.OriginalAudioPath,
		"-i", req.TargetSubtitlePath,
		"-i", req.SourceSubtitlePath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-map", "2:a:0",
		"-map", "3:s:0",
		"-map", "4:s:0",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-c:s", "mov_text",
		"-metadata:s:a:0", "language=" + targetLang,
		"-metadata:s:a:1", "language=" + sourceLang,
		"-disposition:a:0", "default",
		"-disposition:a:1", "0",
		"-metadata:s:s:0", "language=" + targetLang,
		"-metadata:s:s:1", "language=" + sourceLang,
		"-disposition:s:0", "default",
		"-disposition:s:1", "0",
		"-progress", "pipe:1",
		"-loglevel", "error",
		req.OutputPath,
	}
}

// verify confirms the finished container carries the promised stream layout
// and a duration within one frame of the source.
func (m *Muxer) verify(ctx context.Context, req Request, targetLang, sourceLang string) error {
	result, err := m.prober.Inspect(ctx, req.OutputPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "muxing", "verify", "probe muxed output", err)
	}

	audio := result.StreamsOfType("audio")
	if len(audio) != 2 {
		return verifyFailure(fmt.Sprintf("expected 2 audio streams, found %d", len(audio)))
	}
	if lang := audio[0].Language(); lang != targetLang {
		return verifyFailure(fmt.Sprintf("dub audio tagged %q, want %q", lang, targetLang))
	}
	if !audio[0].IsDefault() {
		return verifyFailure("dub audio stream is not the default track")
	}
	if lang := audio[1].Language(); lang != sourceLang {
		return verifyFailure(fmt.Sprintf("original audio tagged %q, want %q", lang, sourceLang))
	}

	subs := result.StreamsOfType("subtitle")
	if len(subs) != 2 {
		return verifyFailure(fmt.Sprintf("expected 2 subtitle streams, found %d", len(subs)))
	}
	if lang := subs[0].Language(); lang != targetLang {
		return verifyFailure(fmt.Sprintf("first subtitle tagged %q, want %q", lang, targetLang))
	}
	if lang := subs[1].Language(); lang != sourceLang {
		return verifyFailure(fmt.Sprintf("second subtitle tagged %q, want %q", lang, sourceLang))
	}

	if req.SourceDuration > 0 {
		tolerance := result.VideoFrameDuration()
		if tolerance <= 0 {
			tolerance = defaultFrameTolerance
		}
		delta := math.Abs(result.DurationSeconds() - req.SourceDuration)
		if delta > tolerance {
			return verifyFailure(fmt.Sprintf("output duration off by %.4fs, tolerance %.4fs", delta, tolerance))
		}
	}
	return nil
}

func verifyFailure(message string) error {
	return services.Wrap(services.ErrValidation, "muxing", "verify", message, nil)
}

func (req Request) validate() error {
	for name, value := range map[string]string{
		"video input":      req.VideoOnlyPath,
		"dubbed audio":     req.DubbedAudioPath,
		"original audio":   req.OriginalAudioPath,
		"target subtitles": req.TargetSubtitlePath,
		"source subtitles": req.SourceSubtitlePath,
		"output path":      req.OutputPath,
		"source language":  req.SourceLanguage,
		"target language":  req.TargetLanguage,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s required", name)
		}
	}
	return nil
}

func report(progress Progress, percent float64, message string) {
	if progress != nil {
		progress(percent, message)
	}
}
