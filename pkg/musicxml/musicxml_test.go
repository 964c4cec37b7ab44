package musicxml

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scorelift/scorelift/pkg/score"
)

const sampleScore = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 3.1 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">
<score-partwise version="3.1">
  <part-list>
    <score-part id="P1">
      <part-name>Voice</part-name>
    </score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <attributes>
        <divisions>1</divisions>
        <key>
          <fifths>2</fifths>
        </key>
      </attributes>
      <note>
        <pitch>
          <step>F</step>
          <alter>1</alter>
          <octave>4</octave>
        </pitch>
        <duration>1</duration>
        <accidental>sharp</accidental>
      </note>
      <note>
        <rest/>
        <duration>1</duration>
      </note>
    </measure>
    <measure number="2">
      <note>
        <pitch>
          <step>C</step>
          <octave>5</octave>
        </pitch>
        <duration>2</duration>
      </note>
    </measure>
  </part>
</score-partwise>
`

func decodeSample(t *testing.T) *Score {
	t.Helper()
	s, err := Decode(strings.NewReader(sampleScore))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return s
}

func TestDecodeViews(t *testing.T) {
	s := decodeSample(t)

	parts := s.Parts()
	if len(parts) != 1 {
		t.Fatalf("Parts() = %d, want 1", len(parts))
	}
	if parts[0].ID() != "P1" {
		t.Errorf("ID() = %q, want P1", parts[0].ID())
	}
	if name := s.PartName("P1"); name != "Voice" {
		t.Errorf("PartName(P1) = %q, want Voice", name)
	}
	if name := s.PartName("P9"); name != "P9" {
		t.Errorf("PartName(P9) = %q, want the ID back", name)
	}

	measures := parts[0].Measures()
	if len(measures) != 2 {
		t.Fatalf("Measures() = %d, want 2", len(measures))
	}
	if n, ok := measures[0].Number(); !ok || n != 1 {
		t.Errorf("Number() = %d/%v, want 1/true", n, ok)
	}
	if fifths, ok := measures[0].KeyFifths(); !ok || fifths != 2 {
		t.Errorf("KeyFifths() = %d/%v, want 2/true", fifths, ok)
	}
	if _, ok := measures[1].KeyFifths(); ok {
		t.Error("measure 2 should declare no key signature")
	}

	notes := measures[0].Notes()
	if len(notes) != 2 {
		t.Fatalf("Notes() = %d, want 2", len(notes))
	}
	if notes[0].IsRest() {
		t.Error("first note is pitched, not a rest")
	}
	if !notes[1].IsRest() {
		t.Error("second note is a rest")
	}
	p, ok := notes[0].Pitch()
	if !ok {
		t.Fatal("Pitch() should succeed for a pitched note")
	}
	want := score.Pitch{Step: 'F', Alter: 1, Octave: 4}
	if p != want {
		t.Errorf("Pitch() = %s, want %s", p, want)
	}
	if _, ok := notes[1].Pitch(); ok {
		t.Error("Pitch() should fail for a rest")
	}
}

func TestDecodeRejectsWrongRoot(t *testing.T) {
	_, err := Decode(strings.NewReader(`<score-timewise version="3.1"></score-timewise>`))
	if err == nil {
		t.Fatal("Decode should reject non-partwise documents")
	}
}

func TestMeasureNumberNonNumeric(t *testing.T) {
	s := decodeSample(t)
	m := s.Parts()[0].Measures()[0]
	m.node.SetAttr("number", "X1")
	if _, ok := m.Number(); ok {
		t.Error("pickup measure numbers should report ok=false")
	}
}

func TestSetPitch(t *testing.T) {
	s := decodeSample(t)
	notes := s.Parts()[0].Measures()[0].Notes()

	// F#4 -> E#4: alter stays, accidental display is dropped.
	notes[0].SetPitch(score.Pitch{Step: 'E', Alter: 1, Octave: 4})
	p, _ := notes[0].Pitch()
	if (p != score.Pitch{Step: 'E', Alter: 1, Octave: 4}) {
		t.Errorf("Pitch() = %s after SetPitch", p)
	}
	if notes[0].node.Child("accidental") != nil {
		t.Error("SetPitch should drop the stale accidental element")
	}

	// Natural result removes the alter element entirely.
	notes[0].SetPitch(score.Pitch{Step: 'E', Octave: 4})
	if notes[0].node.Child("pitch").Child("alter") != nil {
		t.Error("alter element should be removed for natural pitches")
	}

	// Plain note gains an alter element, in step/alter/octave order.
	second := s.Parts()[0].Measures()[1].Notes()[0]
	second.SetPitch(score.Pitch{Step: 'B', Alter: -1, Octave: 4})
	pn := second.node.Child("pitch")
	order := make([]string, len(pn.Children))
	for i, c := range pn.Children {
		order[i] = c.Name
	}
	if len(order) != 3 || order[0] != "step" || order[1] != "alter" || order[2] != "octave" {
		t.Errorf("pitch children = %v, want [step alter octave]", order)
	}
}

func TestSetKeyFifths(t *testing.T) {
	s := decodeSample(t)
	m := s.Parts()[0].Measures()[0]
	m.SetKeyFifths(-3)
	if fifths, _ := m.KeyFifths(); fifths != -3 {
		t.Errorf("KeyFifths() = %d after SetKeyFifths(-3)", fifths)
	}
	// A measure without a key signature is left alone.
	s.Parts()[0].Measures()[1].SetKeyFifths(5)
	if _, ok := s.Parts()[0].Measures()[1].KeyFifths(); ok {
		t.Error("SetKeyFifths must not invent a key signature")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	s := decodeSample(t)

	var first bytes.Buffer
	if err := s.Encode(&first); err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	again, err := Decode(bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatalf("re-Decode error: %v", err)
	}
	var second bytes.Buffer
	if err := again.Encode(&second); err != nil {
		t.Fatalf("re-Encode error: %v", err)
	}
	if first.String() != second.String() {
		t.Error("encode/decode/encode should be a fixed point")
	}

	out := first.String()
	if !strings.Contains(out, "<!DOCTYPE score-partwise") {
		t.Error("encoded output should carry the MusicXML doctype")
	}
	if !strings.Contains(out, `<measure number="2">`) {
		t.Error("encoded output should preserve measure attributes")
	}
	if !strings.Contains(out, "<rest/>") {
		t.Error("empty elements should encode self-closed")
	}
}

func TestDecodeFileMXL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "score.mxl")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	meta, _ := zw.Create("META-INF/container.xml")
	_, _ = meta.Write([]byte(`<container/>`))
	entry, _ := zw.Create("score.xml")
	_, _ = entry.Write([]byte(sampleScore))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	s, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile(.mxl) error: %v", err)
	}
	if len(s.Parts()) != 1 {
		t.Errorf("Parts() = %d, want 1", len(s.Parts()))
	}
}

func TestDecodeFileMissing(t *testing.T) {
	if _, err := DecodeFile(filepath.Join(t.TempDir(), "absent.musicxml")); err == nil {
		t.Fatal("DecodeFile should fail for a missing file")
	}
}
