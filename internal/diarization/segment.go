package diarization

import (
	"fmt"
	"strings"
)

// Gender selects the synthesis voice for a speaker.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender normalizes a gender label from the document.
func ParseGender(value string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "male":
		return GenderMale, nil
	case "female":
		return GenderFemale, nil
	default:
		return "", fmt.Errorf("unknown gender %q", value)
	}
}

// Segment is one diarized speaker turn. Index is stable across the whole
// pipeline and is the sole merge key; fields only accumulate as stages
// complete, they are never removed.
type Segment struct {
	Index          int      `json:"index"`
	Start          float64  `json:"start"`
	End            float64  `json:"end"`
	Speaker        string   `json:"speaker"`
	Gender         Gender   `json:"gender"`
	Text           string   `json:"text"`
	TranslatedText string   `json:"translated_text"`
	AudioPath      string   `json:"audio_path,omitempty"`
	Speed          *float64 `json:"speed,omitempty"`
	FinalDuration  *float64 `json:"final_duration,omitempty"`
	FinalAudioPath string   `json:"final_audio_path,omitempty"`
	Warning        string   `json:"warning,omitempty"`
	Skipped        bool     `json:"skipped,omitempty"`
}

// Window returns the original-language speech duration in seconds.
func (s Segment) Window() float64 {
	return s.End - s.Start
}

// Reconciled reports whether the timing reconciler already processed the
// segment.
func (s Segment) Reconciled() bool {
	return s.Speed != nil && s.FinalDuration != nil && s.FinalAudioPath != ""
}

func (s Segment) validate() error {
	if s.Index < 0 {
		return fmt.Errorf("segment %d: negative index", s.Index)
	}
	if s.Start < 0 {
		return fmt.Errorf("segment %d: negative start %.3f", s.Index, s.Start)
	}
	if s.End <= s.Start {
		return fmt.Errorf("segment %d: end %.3f not after start %.3f", s.Index, s.End, s.Start)
	}
	if strings.TrimSpace(s.Speaker) == "" {
		return fmt.Errorf("segment %d: missing speaker", s.Index)
	}
	if _, err := ParseGender(string(s.Gender)); err != nil {
		return fmt.Errorf("segment %d: %w", s.Index, err)
	}
	return nil
}
