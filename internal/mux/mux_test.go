package mux

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubforge/internal/media/ffprobe"
	"dubforge/internal/services"
)

type fakeRunner struct {
	args  []string
	lines []string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, args []string, onLine func(string)) error {
	f.args = args
	if f.err != nil {
		return f.err
	}
	// The real binary creates the output file.
	out := args[len(args)-1]
	if err := os.WriteFile(out, []byte("container"), 0o644); err != nil {
		return err
	}
	for _, line := range f.lines {
		onLine(line)
	}
	return nil
}

type fakeProber struct {
	result ffprobe.Result
	err    error
}

func (f *fakeProber) Inspect(context.Context, string) (ffprobe.Result, error) {
	return f.result, f.err
}

func goodProbeResult(t *testing.T, duration string) ffprobe.Result {
	t.Helper()
	payload := `{
	  "streams": [
	    {"index": 0, "codec_type": "video", "r_frame_rate": "25/1"},
	    {"index": 1, "codec_type": "audio", "tags": {"language": "ben"}, "disposition": {"default": 1}},
	    {"index": 2, "codec_type": "audio", "tags": {"language": "eng"}, "disposition": {"default": 0}},
	    {"index": 3, "codec_type": "subtitle", "tags": {"language": "ben"}},
	    {"index": 4, "codec_type": "subtitle", "tags": {"language": "eng"}}
	  ],
	  "format": {"duration": "` + duration + `"}
	}`
	var result ffprobe.Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		t.Fatalf("build probe result: %v", err)
	}
	return result
}

func testRequest(t *testing.T) Request {
	dir := t.TempDir()
	return Request{
		VideoOnlyPath:      filepath.Join(dir, "video.mp4"),
		DubbedAudioPath:    filepath.Join(dir, "dubbed.wav"),
		OriginalAudioPath:  filepath.Join(dir, "orig.m4a"),
		TargetSubtitlePath: filepath.Join(dir, "ben.srt"),
		SourceSubtitlePath: filepath.Join(dir, "eng.srt"),
		SourceLanguage:     "eng",
		TargetLanguage:     "ben",
		SourceDuration:     120.0,
		OutputPath:         filepath.Join(dir, "out.mp4"),
	}
}

func TestMuxComposesExpectedCommand(t *testing.T) {
	runner := &fakeRunner{}
	prober := &fakeProber{result: goodProbeResult(t, "120.0")}
	req := testRequest(t)

	if err := New(runner, prober).Mux(context.Background(), req, nil); err != nil {
		t.Fatalf("Mux returned error: %v", err)
	}

	joined := strings.Join(runner.args, " ")
	for _, want := range []string{
		"-map 0:v:0", "-map 1:a:0", "-map 2:a:0", "-map 3:s:0", "-map 4:s:0",
		"-c:v libx264", "-c:a aac", "-c:s mov_text",
		"-metadata:s:a:0 language=ben", "-metadata:s:a:1 language=eng",
		"-disposition:a:0 default", "-disposition:a:1 0",
		"-metadata:s:s:0 language=ben", "-metadata:s:s:1 language=eng",
		"-disposition:s:0 default", "-disposition:s:1 0",
		"-progress pipe:1",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("mux command missing %q:\n%s", want, joined)
		}
	}
	// The dub subtitle track is the default but never forced onto players.
	if strings.Contains(joined, "forced") {
		t.Fatalf("mux command must not force subtitles:\n%s", joined)
	}
	if runner.args[len(runner.args)-1] != req.OutputPath {
		t.Fatalf("expected output path last, got %q", runner.args[len(runner.args)-1])
	}
}

func TestMuxReportsProgress(t *testing.T) {
	runner := &fakeRunner{lines: []string{
		"frame=100",
		"out_time=00:00:30.000000",
		"out_time=00:01:00.000000",
	}}
	prober := &fakeProber{result: goodProbeResult(t, "120.0")}

	var percents []float64
	progress := func(percent float64, _ string) {
		percents = append(percents, percent)
	}
	if err := New(runner, prober).Mux(context.Background(), testRequest(t), progress); err != nil {
		t.Fatalf("Mux returned error: %v", err)
	}

	if len(percents) < 4 {
		t.Fatalf("expected setup, encode, and completion updates, got %v", percents)
	}
	if percents[0] != 5.0 {
		t.Fatalf("first update should be setup at 5%%, got %v", percents[0])
	}
	// 30s of 120s: 5 + 0.25*95 = 28.75
	if diff := percents[1] - 28.75; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("encode progress = %v, want 28.75", percents[1])
	}
	if percents[len(percents)-1] != 100 {
		t.Fatalf("final update should be 100, got %v", percents[len(percents)-1])
	}
}

func TestMuxVerifyRejectsMissingStreams(t *testing.T) {
	runner := &fakeRunner{}
	var bad ffprobe.Result
	if err := json.Unmarshal([]byte(`{"streams": [{"index": 0, "codec_type": "video"}], "format": {"duration": "120.0"}}`), &bad); err != nil {
		t.Fatalf("build probe result: %v", err)
	}
	prober := &fakeProber{result: bad}
	req := testRequest(t)

	err := New(runner, prober).Mux(context.Background(), req, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, statErr := os.Stat(req.OutputPath); !os.IsNotExist(statErr) {
		t.Fatal("expected rejected output to be removed")
	}
}

func TestMuxVerifyRejectsDurationDrift(t *testing.T) {
	runner := &fakeRunner{}
	prober := &fakeProber{result: goodProbeResult(t, "118.0")}

	err := New(runner, prober).Mux(context.Background(), testRequest(t), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for duration drift, got %v", err)
	}
}

func TestMuxDurationWithinOneFrame(t *testing.T) {
	runner := &fakeRunner{}
	// 25 fps gives a 40 ms tolerance; 120.03 is inside it.
	prober := &fakeProber{result: goodProbeResult(t, "120.03")}

	if err := New(runner, prober).Mux(context.Background(), testRequest(t), nil); err != nil {
		t.Fatalf("Mux returned error: %v", err)
	}
}

func TestMuxRunnerFailureRemovesOutput(t *testing.T) {
	runner := &fakeRunner{err: errors.New("encoder blew up")}
	prober := &fakeProber{result: goodProbeResult(t, "120.0")}
	req := testRequest(t)

	err := New(runner, prober).Mux(context.Background(), req, nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestMuxValidatesRequest(t *testing.T) {
	req := testRequest(t)
	req.DubbedAudioPath = ""
	err := New(&fakeRunner{}, &fakeProber{}).Mux(context.Background(), req, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
