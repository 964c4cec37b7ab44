package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scorelift/scorelift/pkg/musicxml"
	"github.com/scorelift/scorelift/pkg/score"
)

const threeMeasureScore = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="3.1">
  <part-list>
    <score-part id="P1"><part-name>Voice</part-name></score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <note><pitch><step>C</step><octave>4</octave></pitch><duration>1</duration></note>
    </measure>
    <measure number="2">
      <note><pitch><step>F</step><alter>1</alter><octave>4</octave></pitch><duration>1</duration></note>
    </measure>
    <measure number="3">
      <note><pitch><step>G</step><octave>4</octave></pitch><duration>1</duration></note>
    </measure>
  </part>
</score-partwise>
`

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// what was printed.
func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	fnErr := fn()
	w.Close()
	os.Stdout = old
	data, readErr := io.ReadAll(r)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if fnErr != nil {
		t.Fatalf("command error: %v", fnErr)
	}
	return string(data)
}

func TestTransposeCommandStats(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "score.musicxml")
	if err := os.WriteFile(input, []byte(threeMeasureScore), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "fixed.musicxml")

	cmd := newTransposeCmd()
	cmd.SetArgs([]string{input, "--start-measure", "2", "--interval", "-m2", "-o", output})
	out := captureStdout(t, cmd.Execute)

	// The stats line reports the score's size, not the transposed count
	// twice.
	if !strings.Contains(out, "1 parts") || !strings.Contains(out, "3 measures") {
		t.Errorf("stats line = %q, want 1 parts and 3 measures", out)
	}
	if !strings.Contains(out, "2 transposed") {
		t.Errorf("stats line = %q, want 2 transposed", out)
	}

	s, err := musicxml.DecodeFile(output)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	measures := s.Parts()[0].Measures()
	first, _ := measures[0].Notes()[0].Pitch()
	if (first != score.Pitch{Step: 'C', Alter: 0, Octave: 4}) {
		t.Errorf("measure 1 pitch = %s, want C4 untouched", first)
	}
	second, _ := measures[1].Notes()[0].Pitch()
	if (second != score.Pitch{Step: 'E', Alter: 1, Octave: 4}) {
		t.Errorf("measure 2 pitch = %s, want E#4", second)
	}
}
