package ffprobe

import (
	"context"
	"math"
	"testing"
)

type fakeExecutor struct {
	output []byte
	err    error

	binary string
	args   []string
}

func (f *fakeExecutor) Output(_ context.Context, binary string, args []string) ([]byte, error) {
	f.binary = binary
	f.args = args
	return f.output, f.err
}

const sampleOutput = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "r_frame_rate": "30000/1001"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "channels": 2,
     "tags": {"language": "ben"}, "disposition": {"default": 1}},
    {"index": 2, "codec_name": "aac", "codec_type": "audio", "channels": 2,
     "tags": {"language": "eng"}, "disposition": {"default": 0}},
    {"index": 3, "codec_name": "mov_text", "codec_type": "subtitle", "tags": {"language": "eng"}},
    {"index": 4, "codec_name": "mov_text", "codec_type": "subtitle", "tags": {"language": "ben"}}
  ],
  "format": {"filename": "out.mp4", "nb_streams": 5, "duration": "123.456", "format_name": "mov,mp4"}
}`

func TestInspectParsesStreams(t *testing.T) {
	exec := &fakeExecutor{output: []byte(sampleOutput)}
	client := New("ffprobe", WithExecutor(exec))

	result, err := client.Inspect(context.Background(), "out.mp4")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if exec.binary != "ffprobe" {
		t.Fatalf("expected ffprobe binary, got %q", exec.binary)
	}
	if got := exec.args[len(exec.args)-1]; got != "out.mp4" {
		t.Fatalf("expected path as final argument, got %q", got)
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.SubtitleStreamCount() != 2 {
		t.Fatalf("expected 2 subtitle streams, got %d", result.SubtitleStreamCount())
	}
	if got := result.DurationSeconds(); got != 123.456 {
		t.Fatalf("expected duration 123.456, got %v", got)
	}
}

func TestInspectEmptyPath(t *testing.T) {
	client := New("ffprobe", WithExecutor(&fakeExecutor{}))
	if _, err := client.Inspect(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStreamLanguageAndDisposition(t *testing.T) {
	exec := &fakeExecutor{output: []byte(sampleOutput)}
	client := New("", WithExecutor(exec))

	result, err := client.Inspect(context.Background(), "out.mp4")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	audio := result.StreamsOfType("audio")
	if len(audio) != 2 {
		t.Fatalf("expected 2 audio streams, got %d", len(audio))
	}
	if audio[0].Language() != "ben" || !audio[0].IsDefault() {
		t.Fatalf("expected default ben stream, got language=%q default=%v", audio[0].Language(), audio[0].IsDefault())
	}
	if audio[1].Language() != "eng" || audio[1].IsDefault() {
		t.Fatalf("expected non-default eng stream, got language=%q default=%v", audio[1].Language(), audio[1].IsDefault())
	}
}

func TestVideoFrameDuration(t *testing.T) {
	exec := &fakeExecutor{output: []byte(sampleOutput)}
	client := New("ffprobe", WithExecutor(exec))

	result, err := client.Inspect(context.Background(), "out.mp4")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	want := 1001.0 / 30000.0
	if got := result.VideoFrameDuration(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected frame duration %v, got %v", want, got)
	}
}

func TestVideoFrameDurationMissing(t *testing.T) {
	exec := &fakeExecutor{output: []byte(`{"streams": [], "format": {}}`)}
	client := New("ffprobe", WithExecutor(exec))

	result, err := client.Inspect(context.Background(), "audio.wav")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if got := result.VideoFrameDuration(); got != 0 {
		t.Fatalf("expected 0 frame duration, got %v", got)
	}
}
