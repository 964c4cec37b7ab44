// Package transpose shifts the trailing section of a score by a directed
// interval.
//
// The section is selected by the measure's stored number attribute, not
// its position: every measure whose number is at or beyond the threshold
// is transposed, in every part. When upstream numbering is non-contiguous
// the selection follows the literal numbers, which is the contract the
// rest of the pipeline depends on. Measures below the threshold, and
// everything that carries no pitch (rests, directions, lyrics, barlines),
// come back untouched.
package transpose

import (
	"github.com/charmbracelet/log"

	"github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/musicxml"
	"github.com/scorelift/scorelift/pkg/score"
)

// PartStats reports what changed within a single part.
type PartStats struct {
	PartID    string
	Measures  int    // measures at or beyond the threshold
	Notes     int    // pitched notes shifted, chord members included
	Keys      int    // key signatures rewritten
	KeyChange string // last key rewrite, e.g. "F# major (6 sharps) -> F major (1 flat)"
}

// Stats reports what a Section call changed.
type Stats struct {
	Measures int // measure instances transposed, summed across parts
	Notes    int
	Keys     int
	PerPart  []PartStats
}

// Section transposes every measure with number >= from by iv, mutating
// the score in place. A threshold beyond the last measure is a no-op
// success, not an error: the stats simply report zero measures.
func Section(s *musicxml.Score, from int, iv score.Interval, logger *log.Logger) (Stats, error) {
	if err := errors.ValidateMeasureNumber(from); err != nil {
		return Stats{}, err
	}
	if logger == nil {
		logger = log.Default()
	}

	// A unison writes nothing: SetPitch drops <accidental> display
	// elements as a side effect, so skipping the writes is what keeps a
	// zero-interval call bit-identical. The stats still count what the
	// section contains.
	unison := iv.IsUnison()

	var stats Stats
	for _, part := range s.Parts() {
		ps := PartStats{PartID: part.ID()}
		for _, m := range part.Measures() {
			num, ok := m.Number()
			if !ok || num < from {
				continue
			}
			ps.Measures++

			for _, note := range m.Notes() {
				p, pitched := note.Pitch()
				if !pitched {
					continue
				}
				if !unison {
					note.SetPitch(p.Transpose(iv))
				}
				ps.Notes++
			}

			if fifths, present := m.KeyFifths(); present {
				ps.Keys++
				if !unison {
					next := score.TransposeFifths(fifths, iv)
					m.SetKeyFifths(next)
					ps.KeyChange = score.KeyName(fifths) + " -> " + score.KeyName(next)
				}
			}
		}

		logger.Debug("transposed part",
			"part", ps.PartID,
			"measures", ps.Measures,
			"notes", ps.Notes,
			"keys", ps.Keys)

		stats.Measures += ps.Measures
		stats.Notes += ps.Notes
		stats.Keys += ps.Keys
		stats.PerPart = append(stats.PerPart, ps)
	}

	return stats, nil
}
