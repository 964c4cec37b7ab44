package score

import "fmt"

// TransposeFifths shifts a key signature (signed fifths count) by the
// interval. The signature's major-key tonic is moved by the interval and
// the fifths count recomputed from its new spelling. Counts outside the
// engravable [-7, 7] range are simplified enharmonically, so six sharps
// down a minor second becomes one flat (F major), not eleven sharps.
func TransposeFifths(fifths int, iv Interval) int {
	tonic := tonicOf(fifths)
	moved := tonic.Transpose(iv)
	out := stepFifths[stepIndex(moved.Step)] + 7*moved.Alter
	for out > 7 {
		out -= 12
	}
	for out < -7 {
		out += 12
	}
	return out
}

// tonicOf returns the major-key tonic pitch for a fifths count. The octave
// is arbitrary; only spelling matters.
func tonicOf(fifths int) Pitch {
	idx := mod(fifths*4, 7)
	alter := floorDiv(fifths+1, 7)
	return Pitch{Step: steps[idx], Alter: alter, Octave: 4}
}

// KeyName renders a fifths count as its major key, e.g. -4 -> "Ab major
// (4 flats)".
func KeyName(fifths int) string {
	tonic := tonicOf(fifths)
	name := string(tonic.Step)
	switch {
	case tonic.Alter > 0:
		name += "#"
	case tonic.Alter < 0:
		name += "b"
	}
	switch {
	case fifths > 0:
		return fmt.Sprintf("%s major (%s)", name, count(fifths, "sharp"))
	case fifths < 0:
		return fmt.Sprintf("%s major (%s)", name, count(-fifths, "flat"))
	default:
		return "C major"
	}
}

func count(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
