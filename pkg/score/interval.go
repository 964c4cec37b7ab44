package score

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scorelift/scorelift/pkg/errors"
)

// Interval is a directed pitch displacement, resolved to a diatonic step
// delta and a chromatic semitone delta. The zero value is a perfect unison
// and transposes to itself.
type Interval struct {
	Steps     int // directed letter steps, e.g. -1 for "-m2"
	Semitones int // directed semitones, e.g. -1 for "-m2"

	name string // as parsed, for diagnostics
}

// Unison is the no-op interval.
var Unison = Interval{name: "P1"}

// perfectBase maps simple degree offsets (0-based) of perfect intervals to
// their semitone width; imperfect degrees hold -1.
var perfectBase = [7]int{0, -1, -1, 5, 7, -1, -1}

// majorBase maps simple degree offsets of imperfect intervals to the major
// width; perfect degrees hold -1.
var majorBase = [7]int{-1, 2, 4, -1, -1, 9, 11}

// ParseInterval resolves quality+number notation such as "-m2", "M3",
// "P5", "A4" or "d7" into an Interval. A leading "-" means downward; "+"
// is accepted and means upward. Returns an INVALID_INTERVAL error for
// anything that does not name a resolvable displacement (e.g. "P3").
func ParseInterval(s string) (Interval, error) {
	orig := s
	sign := 1
	switch {
	case strings.HasPrefix(s, "-"):
		sign = -1
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if len(s) < 2 {
		return Interval{}, errors.New(errors.ErrCodeInvalidInterval, "invalid interval %q", orig)
	}

	quality := s[0]
	number, err := strconv.Atoi(s[1:])
	if err != nil || number < 1 {
		return Interval{}, errors.New(errors.ErrCodeInvalidInterval, "invalid interval number in %q", orig)
	}

	degree := (number - 1) % 7
	octaves := (number - 1) / 7

	var semis int
	switch {
	case perfectBase[degree] >= 0:
		semis = perfectBase[degree]
		switch quality {
		case 'P':
		case 'A':
			semis++
		case 'd':
			semis--
		default:
			return Interval{}, errors.New(errors.ErrCodeInvalidInterval,
				"interval %q: degree %d takes P, A or d, not %q", orig, number, string(quality))
		}
	default:
		semis = majorBase[degree]
		switch quality {
		case 'M':
		case 'm':
			semis--
		case 'A':
			semis++
		case 'd':
			semis -= 2
		default:
			return Interval{}, errors.New(errors.ErrCodeInvalidInterval,
				"interval %q: degree %d takes M, m, A or d, not %q", orig, number, string(quality))
		}
	}

	return Interval{
		Steps:     sign * (number - 1),
		Semitones: sign * (semis + 12*octaves),
		name:      orig,
	}, nil
}

// MustParseInterval is ParseInterval for known-good literals; it panics on
// error and is intended for defaults and tests.
func MustParseInterval(s string) Interval {
	iv, err := ParseInterval(s)
	if err != nil {
		panic(err)
	}
	return iv
}

// Inverse returns the interval in the opposite direction. Transposing by
// iv then iv.Inverse() restores the original pitch and spelling.
func (iv Interval) Inverse() Interval {
	inv := Interval{Steps: -iv.Steps, Semitones: -iv.Semitones}
	switch {
	case strings.HasPrefix(iv.name, "-"):
		inv.name = iv.name[1:]
	case iv.name != "":
		inv.name = "-" + iv.name
	}
	return inv
}

// IsUnison reports whether the interval displaces nothing.
func (iv Interval) IsUnison() bool {
	return iv.Steps == 0 && iv.Semitones == 0
}

// String returns the parsed notation when available, otherwise the raw
// step/semitone deltas.
func (iv Interval) String() string {
	if iv.name != "" {
		return iv.name
	}
	return fmt.Sprintf("steps %+d semitones %+d", iv.Steps, iv.Semitones)
}
