// Package language normalizes user-supplied language codes onto the forms
// the rest of the pipeline needs: ISO 639-2 tags for container metadata and
// English display names for console output.
package language

import (
	"fmt"
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ToISO3 maps a language code or BCP 47 tag onto the three-letter ISO 639-2
// form ffmpeg expects in stream metadata.
func ToISO3(value string) (string, error) {
	tag, err := parse(value)
	if err != nil {
		return "", err
	}
	base, _ := tag.Base()
	if iso3 := base.ISO3(); iso3 != "" {
		return iso3, nil
	}
	return base.String(), nil
}

// Normalize canonicalizes a language code to its base subtag for storage,
// so "en-US" and "eng" both persist as "en".
func Normalize(value string) (string, error) {
	tag, err := parse(value)
	if err != nil {
		return "", err
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// DisplayName returns the English name for a language code. Unparseable
// input is returned trimmed so tables never show an empty cell.
func DisplayName(value string) string {
	tag, err := parse(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.TrimSpace(value)
}

func parse(value string) (xlang.Tag, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return xlang.Und, fmt.Errorf("language code required")
	}
	tag, err := xlang.Parse(trimmed)
	if err != nil {
		return xlang.Und, fmt.Errorf("parse language %q: %w", trimmed, err)
	}
	return tag, nil
}
