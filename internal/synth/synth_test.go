package synth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dubforge/internal/audio"
	"dubforge/internal/config"
	"dubforge/internal/diarization"
	"dubforge/internal/services"
)

type fakeExecutor struct {
	binary string
	args   []string
	err    error
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string) error {
	f.binary = binary
	f.args = args
	if f.err != nil {
		return f.err
	}
	// Emulate the TTS binary writing its output file.
	out := outputArg(args)
	buf := &audio.Buffer{Data: make([]int, 22050), SampleRate: 22050, Channels: 1}
	_, err := audio.WriteFile(out, buf)
	return err
}

func outputArg(args []string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "--out" {
			return args[i+1]
		}
	}
	return ""
}

func testVoices() config.Voices {
	return config.Voices{
		Male:   config.Voice{ID: "vits-male", Language: "ben"},
		Female: config.Voice{ID: "vits-female", Language: "ben"},
	}
}

func testSegment(gender diarization.Gender) diarization.Segment {
	return diarization.Segment{
		Index:          3,
		Start:          1.0,
		End:            2.5,
		Speaker:        "SPEAKER_00",
		Gender:         gender,
		Text:           "hello there",
		TranslatedText: "ওহে",
	}
}

func TestSynthesizeWritesClip(t *testing.T) {
	exec := &fakeExecutor{}
	synth, err := New("tts", testVoices(), 120, WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	out := filepath.Join(t.TempDir(), "segments", "seg-0003.wav")
	clip, err := synth.Synthesize(context.Background(), testSegment(diarization.GenderFemale), out)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if clip.Path != out {
		t.Fatalf("clip path = %q, want %q", clip.Path, out)
	}
	if clip.Duration <= 0 {
		t.Fatalf("expected positive duration, got %v", clip.Duration)
	}
	if exec.args[1] != "vits-female" {
		t.Fatalf("expected female voice, got args %v", exec.args)
	}
}

func TestSynthesizeSelectsMaleVoice(t *testing.T) {
	exec := &fakeExecutor{}
	synth, err := New("tts", testVoices(), 120, WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	out := filepath.Join(t.TempDir(), "seg-0003.wav")
	if _, err := synth.Synthesize(context.Background(), testSegment(diarization.GenderMale), out); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if exec.args[1] != "vits-male" {
		t.Fatalf("expected male voice, got args %v", exec.args)
	}
}

func TestSynthesizeEmptyTextFailsSegmentOnly(t *testing.T) {
	synth, err := New("tts", testVoices(), 120, WithExecutor(&fakeExecutor{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	segment := testSegment(diarization.GenderMale)
	segment.TranslatedText = "   "
	_, err = synth.Synthesize(context.Background(), segment, filepath.Join(t.TempDir(), "seg.wav"))
	if !errors.Is(err, services.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
	if !services.Recoverable(err) {
		t.Fatalf("empty text must cost the segment, not the job: %v", err)
	}
}

func TestSynthesizeToolFailure(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exit status 1")}
	synth, err := New("tts", testVoices(), 120, WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, err = synth.Synthesize(context.Background(), testSegment(diarization.GenderMale), filepath.Join(t.TempDir(), "seg.wav"))
	if !errors.Is(err, services.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}

func TestSegmentFileName(t *testing.T) {
	if got := SegmentFileName(7); got != "seg-0007.wav" {
		t.Fatalf("SegmentFileName(7) = %q", got)
	}
}
