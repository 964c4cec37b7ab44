// Package combine merges per-page MusicXML fragments into one continuous
// score.
//
// The first fragment is the base: its parts fix the combined score's part
// count and order. Every later fragment contributes its measures to the
// base part at the same index. This is a structural concatenation, not a
// musical merge: measure numbers, time signatures and key signatures pass
// through exactly as the OMR engine produced them, so upstream numbering
// gaps propagate rather than being papered over.
//
// Part-count mismatches between pages are tolerated: extra parts on a
// later page are dropped and missing parts leave the base part short.
// Both cases are reported as warnings so a mis-detected voice does not
// vanish silently.
package combine

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/musicxml"
)

// Result is the outcome of combining a fragment sequence.
type Result struct {
	Score     *musicxml.Score
	Fragments int      // fragments consumed, base included
	Measures  int      // measures appended onto the base
	Warnings  []string // part-count mismatches, in fragment order
}

// Files parses and combines the fragments at the given paths. Paths are
// sorted lexically, matching the page_NN naming the rasterizer produces.
// The fragment files themselves are never modified.
//
// Returns an EMPTY_INPUT error when no paths are supplied and a
// PARSE_ERROR naming the offending file when any fragment fails to
// decode; a corrupt page halts the pipeline instead of leaving a silent
// gap in the score.
func Files(paths []string, logger *log.Logger) (*Result, error) {
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "no fragments to combine")
	}
	if logger == nil {
		logger = log.Default()
	}
	for _, p := range paths {
		if err := errors.ValidateFragmentPath(p); err != nil {
			return nil, err
		}
	}

	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	base, err := musicxml.DecodeFile(sorted[0])
	if err != nil {
		return nil, err
	}
	result := &Result{Score: base, Fragments: 1}
	baseParts := base.Parts()
	logger.Debug("loaded base fragment", "path", sorted[0], "parts", len(baseParts))

	for _, path := range sorted[1:] {
		frag, err := musicxml.DecodeFile(path)
		if err != nil {
			return nil, err
		}
		fragParts := frag.Parts()

		for i, part := range fragParts {
			if i >= len(baseParts) {
				w := fmt.Sprintf("%s: dropping extra part %s (base has %d parts)", path, part.ID(), len(baseParts))
				result.Warnings = append(result.Warnings, w)
				logger.Warn("dropping extra part", "fragment", path, "part", part.ID())
				continue
			}
			for _, m := range part.Measures() {
				baseParts[i].Append(m)
				result.Measures++
			}
		}
		if len(fragParts) < len(baseParts) {
			w := fmt.Sprintf("%s: only %d of %d parts present; missing parts stay short", path, len(fragParts), len(baseParts))
			result.Warnings = append(result.Warnings, w)
			logger.Warn("fragment has fewer parts than base", "fragment", path, "parts", len(fragParts), "base_parts", len(baseParts))
		}

		result.Fragments++
		logger.Debug("appended fragment", "path", path, "parts", len(fragParts))
	}

	return result, nil
}
