package diarization

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"dubforge/internal/fileutil"
	"dubforge/internal/services"
)

// Load reads the diarization document and returns its segments ordered by
// start time. Missing files and schema violations are input errors: the
// pipeline must abort before any processing begins.
func Load(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrInput, "diarization", "load", fmt.Sprintf("document %s does not exist", path), err)
		}
		return nil, services.Wrap(services.ErrInput, "diarization", "load", "read document", err)
	}

	var segments []Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, services.Wrap(services.ErrInput, "diarization", "load", "document is not a segment array", err)
	}
	ordered := make([]Segment, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start < ordered[j].Start
	})
	if err := Validate(ordered); err != nil {
		return nil, services.Wrap(services.ErrInput, "diarization", "load", "invalid document schema", err)
	}
	return ordered, nil
}

// Save serializes the full ordered segment list atomically, preserving index
// order. Write-temp-then-rename keeps concurrent readers from ever seeing a
// partial document.
func Save(path string, segments []Segment) error {
	if err := Validate(segments); err != nil {
		return fmt.Errorf("refusing to save invalid document: %w", err)
	}
	data, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("save document %s: %w", path, err)
	}
	return nil
}

// Validate checks the structural invariants every stage relies on: valid
// per-segment fields and strictly increasing indices. Strictly increasing
// implies unique, so one comparison covers both.
func Validate(segments []Segment) error {
	for i, segment := range segments {
		if err := segment.validate(); err != nil {
			return err
		}
		if i > 0 && segment.Index <= segments[i-1].Index {
			return fmt.Errorf("segment index %d does not increase after %d", segment.Index, segments[i-1].Index)
		}
	}
	return nil
}

// Merge applies per-segment results back onto the ordered segment list in a
// single pass. The callback receives each segment keyed by its index, the
// sole merge key; it mutates the copy in place.
func Merge(segments []Segment, apply func(index int, segment *Segment)) []Segment {
	merged := make([]Segment, len(segments))
	copy(merged, segments)
	for i := range merged {
		apply(merged[i].Index, &merged[i])
	}
	return merged
}
