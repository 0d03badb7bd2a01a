package subtitles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubforge/internal/diarization"
)

func sampleSegments() []diarization.Segment {
	return []diarization.Segment{
		{Index: 0, Start: 0.5, End: 2.0, Text: "hello there", TranslatedText: "ওহে"},
		{Index: 1, Start: 3.25, End: 5.75, Text: "how are you", TranslatedText: "কেমন আছেন"},
		{Index: 2, Start: 6.0, End: 7.0, Text: "", TranslatedText: ""},
	}
}

func TestFromSegmentsSourceTrack(t *testing.T) {
	cues := FromSegments(sampleSegments(), TrackSource)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].Text != "hello there" {
		t.Fatalf("unexpected cue text %q", cues[0].Text)
	}
}

func TestFromSegmentsTranslatedTrack(t *testing.T) {
	cues := FromSegments(sampleSegments(), TrackTranslated)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[1].Text != "কেমন আছেন" {
		t.Fatalf("unexpected cue text %q", cues[1].Text)
	}
}

func TestWriteFileRendersSRT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	cues := FromSegments(sampleSegments(), TrackSource)
	if err := WriteFile(path, cues); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "00:00:00,500 --> 00:00:02,000") {
		t.Fatalf("missing first cue timing in:\n%s", content)
	}
	if !strings.Contains(content, "00:00:03,250 --> 00:00:05,750") {
		t.Fatalf("missing second cue timing in:\n%s", content)
	}

	count, err := CountCues(path)
	if err != nil {
		t.Fatalf("CountCues returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 cues, got %d", count)
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{3723.042, "01:02:03,042"},
		{-1, "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.seconds); got != tc.want {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestParseTimestampRoundTrip(t *testing.T) {
	for _, seconds := range []float64{0, 0.001, 1.5, 59.999, 3723.042} {
		parsed, err := ParseTimestamp(FormatTimestamp(seconds))
		if err != nil {
			t.Fatalf("ParseTimestamp returned error for %v: %v", seconds, err)
		}
		if parsed != seconds {
			t.Fatalf("round trip %v -> %v", seconds, parsed)
		}
	}
	if _, err := ParseTimestamp("garbage"); err == nil {
		t.Fatal("expected error for invalid timestamp")
	}
}

func TestBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	if err := WriteFile(path, FromSegments(sampleSegments(), TrackSource)); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	first, last, err := Bounds(path)
	if err != nil {
		t.Fatalf("Bounds returned error: %v", err)
	}
	if first != 0.5 || last != 5.75 {
		t.Fatalf("bounds = (%v, %v), want (0.5, 5.75)", first, last)
	}
}

func TestCountCuesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.srt")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	count, err := CountCues(path)
	if err != nil {
		t.Fatalf("CountCues returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 cues, got %d", count)
	}
}
