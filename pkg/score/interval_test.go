package score

import "testing"

func TestParseInterval(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		steps     int
		semitones int
	}{
		{"down minor second", "-m2", -1, -1},
		{"up minor second", "m2", 1, 1},
		{"explicit up", "+M3", 2, 4},
		{"major second", "M2", 1, 2},
		{"minor third", "m3", 2, 3},
		{"perfect fourth", "P4", 3, 5},
		{"perfect fifth", "P5", 4, 7},
		{"down perfect fifth", "-P5", -4, -7},
		{"augmented fourth", "A4", 3, 6},
		{"diminished fifth", "d5", 4, 6},
		{"augmented unison", "A1", 0, 1},
		{"octave", "P8", 7, 12},
		{"down octave", "-P8", -7, -12},
		{"ninth", "M9", 8, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, err := ParseInterval(tt.in)
			if err != nil {
				t.Fatalf("ParseInterval(%q) error: %v", tt.in, err)
			}
			if iv.Steps != tt.steps || iv.Semitones != tt.semitones {
				t.Errorf("ParseInterval(%q) = steps %d semitones %d, want %d/%d",
					tt.in, iv.Steps, iv.Semitones, tt.steps, tt.semitones)
			}
			if iv.String() != tt.in {
				t.Errorf("String() = %q, want %q", iv.String(), tt.in)
			}
		})
	}
}

func TestParseIntervalInvalid(t *testing.T) {
	inputs := []string{
		"",
		"-",
		"m",
		"2",
		"P3", // third is imperfect, no perfect quality
		"M5", // fifth is perfect, no major quality
		"x2",
		"m0",
		"M-2",
		"minor second",
	}

	for _, in := range inputs {
		if _, err := ParseInterval(in); err == nil {
			t.Errorf("ParseInterval(%q) should fail", in)
		}
	}
}

func TestIntervalInverse(t *testing.T) {
	iv := MustParseInterval("-m2")
	inv := iv.Inverse()
	if inv.Steps != 1 || inv.Semitones != 1 {
		t.Errorf("Inverse() = steps %d semitones %d, want 1/1", inv.Steps, inv.Semitones)
	}
	if inv.String() != "m2" {
		t.Errorf("Inverse().String() = %q, want %q", inv.String(), "m2")
	}
	if up := MustParseInterval("P5").Inverse(); up.String() != "-P5" {
		t.Errorf("P5 inverse = %q, want -P5", up.String())
	}
}

func TestIntervalUnison(t *testing.T) {
	if !Unison.IsUnison() {
		t.Error("Unison should report IsUnison")
	}
	if iv := MustParseInterval("P1"); !iv.IsUnison() {
		t.Error("P1 should be a unison")
	}
	if iv := MustParseInterval("A1"); iv.IsUnison() {
		t.Error("A1 displaces a semitone, not a unison")
	}
}
