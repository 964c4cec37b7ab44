// Package lyrics applies a syllable sheet to a score's vocal line.
//
// OMR engines rarely recover lyrics from a scan, so the pipeline takes
// them from a YAML sheet instead: an ordered list of syllables, one per
// sung note, with "-" continuing a word across notes exactly as hymnals
// print it ("riv", "-", "er"). Syllables are applied to the first part
// only, which is the vocal line in the scores this tool exists for.
package lyrics

import (
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/musicxml"
)

// Sheet is a parsed lyric sheet.
type Sheet struct {
	Title     string   `yaml:"title,omitempty"`
	Syllables []string `yaml:"syllables"`
}

// LoadSheet reads a YAML lyric sheet from path.
func LoadSheet(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "lyric sheet %s", path)
		}
		return nil, err
	}
	var sheet Sheet
	if err := yaml.Unmarshal(data, &sheet); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse lyric sheet %s", path)
	}
	if len(sheet.Syllables) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "lyric sheet %s has no syllables", path)
	}
	return &sheet, nil
}

// Apply writes the sheet's syllables onto the first part's pitched,
// non-chord notes in order, stopping at whichever runs out first. Returns
// the number of notes that received a syllable.
func Apply(s *musicxml.Score, sheet *Sheet, logger *log.Logger) int {
	if logger == nil {
		logger = log.Default()
	}
	parts := s.Parts()
	if len(parts) == 0 {
		return 0
	}

	applied := 0
	i := 0
	for _, m := range parts[0].Measures() {
		for _, note := range m.Notes() {
			if i >= len(sheet.Syllables) {
				break
			}
			if _, pitched := note.Pitch(); !pitched || note.IsChordMember() {
				continue
			}

			syl, syllabic := nextSyllable(sheet.Syllables, &i)
			if syl == "" {
				continue
			}
			note.SetLyric(syl, syllabic)
			applied++
		}
	}

	if i < len(sheet.Syllables) {
		logger.Warn("score has fewer sung notes than syllables",
			"applied", applied, "syllables", len(sheet.Syllables))
	}
	return applied
}

// nextSyllable consumes the syllable at *i and classifies it by looking
// at its hyphen neighbors: "riv" followed by "-" begins a word, a
// syllable between hyphens is a middle, one preceded by "-" ends it.
func nextSyllable(syls []string, i *int) (text, syllabic string) {
	// Skip the hyphen markers themselves; they only carry position.
	before := *i > 0 && syls[*i-1] == "-"
	for *i < len(syls) && syls[*i] == "-" {
		before = true
		*i++
	}
	if *i >= len(syls) {
		return "", ""
	}
	text = syls[*i]
	*i++
	after := *i < len(syls) && syls[*i] == "-"

	switch {
	case before && after:
		return text, "middle"
	case before:
		return text, "end"
	case after:
		return text, "begin"
	default:
		return text, "single"
	}
}
