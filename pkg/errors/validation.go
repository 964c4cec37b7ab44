package errors

import (
	"strings"
	"unicode"
)

// ValidateMeasureNumber validates a section-start measure number.
// Measure numbers are 1-based; zero and negatives are rejected.
func ValidateMeasureNumber(n int) error {
	if n < 1 {
		return New(ErrCodeInvalidMeasure, "measure number must be >= 1, got %d", n)
	}
	return nil
}

// ValidateFragmentPath validates a fragment file path for safety and
// plausibility before it is handed to the decoder.
//
// The validation rules are intentionally conservative:
//   - No empty paths
//   - No control characters or null bytes
//   - Maximum length of 500 characters
func ValidateFragmentPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "fragment path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "fragment path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "fragment path contains invalid characters")
		}
	}

	return nil
}

// ValidateFifths validates a key signature fifths count. MusicXML allows
// -7 (7 flats) through 7 (7 sharps).
func ValidateFifths(fifths int) error {
	if fifths < -7 || fifths > 7 {
		return New(ErrCodeInvalidInput, "key signature fifths must be in [-7, 7], got %d", fifths)
	}
	return nil
}

// ValidateOutputFormat validates an engrave output format.
func ValidateOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case "pdf", "midi", "musicxml":
		return nil
	}
	return New(ErrCodeInvalidFormat, "invalid format: %q (must be one of: pdf, midi, musicxml)", format)
}
