package score

import (
	"fmt"
	"strings"

	"github.com/scorelift/scorelift/pkg/errors"
)

// steps lists the note letters in ascending order within an octave.
const steps = "CDEFGAB"

// stepSemitones maps a letter index (C=0..B=6) to its semitone offset
// above C.
var stepSemitones = [7]int{0, 2, 4, 5, 7, 9, 11}

// stepFifths maps a letter index to its position on the circle of fifths
// relative to C (F=-1, C=0, G=1, ...).
var stepFifths = [7]int{0, 2, 4, -1, 1, 3, 5}

// Pitch is a spelled pitch: a letter step, a signed accidental alteration
// (+1 sharp, -1 flat, ±2 double), and an octave in scientific pitch
// notation (C4 = middle C).
type Pitch struct {
	Step   byte // 'C'..'B'
	Alter  int
	Octave int
}

// NewPitch builds a pitch, validating the step letter.
func NewPitch(step byte, alter, octave int) (Pitch, error) {
	if stepIndex(step) < 0 {
		return Pitch{}, errors.New(errors.ErrCodeInvalidPitch, "invalid pitch step %q", string(step))
	}
	return Pitch{Step: step, Alter: alter, Octave: octave}, nil
}

// MIDI returns the MIDI note number (C4 = 60). Spelling is lost; E#4 and
// F4 both map to 65.
func (p Pitch) MIDI() int {
	return stepSemitones[stepIndex(p.Step)] + p.Alter + 12*(p.Octave+1)
}

// String renders the pitch in scientific notation, e.g. "F#4" or "Bb2".
func (p Pitch) String() string {
	var b strings.Builder
	b.WriteByte(p.Step)
	switch {
	case p.Alter > 0:
		b.WriteString(strings.Repeat("#", p.Alter))
	case p.Alter < 0:
		b.WriteString(strings.Repeat("b", -p.Alter))
	}
	fmt.Fprintf(&b, "%d", p.Octave)
	return b.String()
}

// Transpose shifts the pitch by the interval, preserving spelling: the
// letter moves by the interval's diatonic steps and the accidental absorbs
// the chromatic remainder. Spellings beyond double accidentals are
// simplified to the nearest enharmonic letter.
func (p Pitch) Transpose(iv Interval) Pitch {
	idx := stepIndex(p.Step) + iv.Steps
	octave := p.Octave + floorDiv(idx, 7)
	idx = mod(idx, 7)
	target := p.MIDI() + iv.Semitones

	q := Pitch{Step: steps[idx], Octave: octave}
	q.Alter = target - q.MIDI()
	if q.Alter > 2 || q.Alter < -2 {
		return spell(target, idx, octave)
	}
	return q
}

// spell finds a spelling of the MIDI value target with at most a double
// accidental, starting the letter search at idx and moving toward the
// target.
func spell(target, idx, octave int) Pitch {
	for range [4]struct{}{} {
		p := Pitch{Step: steps[idx], Octave: octave}
		alter := target - p.MIDI()
		if alter >= -2 && alter <= 2 {
			p.Alter = alter
			return p
		}
		if alter > 0 {
			idx++
		} else {
			idx--
		}
		octave += floorDiv(idx, 7)
		idx = mod(idx, 7)
	}
	// Unreachable: four letter moves always bracket the target.
	return Pitch{Step: 'C', Alter: target - 12*(octave+1), Octave: octave}
}

func stepIndex(step byte) int {
	return strings.IndexByte(steps, step)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
