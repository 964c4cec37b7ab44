package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/scorelift/scorelift/pkg/musicxml"
	"github.com/scorelift/scorelift/pkg/runs"
	"github.com/scorelift/scorelift/pkg/score"
)

// fakeRasterizer pretends the input PDF has two pages.
type fakeRasterizer struct{}

func (fakeRasterizer) Pages(ctx context.Context, pdfPath, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var pages []string
	for i := 1; i <= 2; i++ {
		path := filepath.Join(dir, fmt.Sprintf("page_%02d.png", i))
		if err := os.WriteFile(path, []byte{byte(i)}, 0o644); err != nil {
			return nil, err
		}
		pages = append(pages, path)
	}
	return pages, nil
}

// fakeOMR fabricates a one-measure fragment per page; page N carries
// measure N with an F#4.
type fakeOMR struct{}

func (fakeOMR) Name() string { return "fake" }

func (fakeOMR) Recognize(ctx context.Context, imagePath, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	var page int
	fmt.Sscanf(filepath.Base(imagePath), "page_%d.png", &page)
	doc := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="3.1">
  <part-list>
    <score-part id="P1"><part-name>Voice</part-name></score-part>
  </part-list>
  <part id="P1">
    <measure number="%d">
      <note><pitch><step>F</step><alter>1</alter><octave>4</octave></pitch><duration>1</duration></note>
    </measure>
  </part>
</score-partwise>
`, page)
	frag := filepath.Join(dir, "score.musicxml")
	if err := os.WriteFile(frag, []byte(doc), 0o644); err != nil {
		return "", err
	}
	return frag, nil
}

// fakeEngraver writes a placeholder instead of shelling out.
type fakeEngraver struct{}

func (fakeEngraver) Render(ctx context.Context, scorePath, outPath string) error {
	return os.WriteFile(outPath, []byte("%PDF-1.4 fake"), 0o644)
}

func TestRunnerExecute(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "hymn.pdf")
	if err := os.WriteFile(input, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := runs.NewFileStore(filepath.Join(dir, "runs"))
	if err != nil {
		t.Fatal(err)
	}

	runner := NewRunner(nil, store, log.NewWithOptions(io.Discard, log.Options{}))
	runner.Rasterizer = fakeRasterizer{}
	runner.Engine = fakeOMR{}
	runner.Engraver = fakeEngraver{}

	opts := Options{
		Input:        input,
		OutputDir:    filepath.Join(dir, "out"),
		StartMeasure: 2,
		Interval:     "-m2",
		StaggerMS:    1, // effectively no stagger
		Formats:      []string{"pdf", "musicxml"},
	}
	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	rec := result.Record
	if rec.Pages != 2 {
		t.Errorf("Pages = %d, want 2", rec.Pages)
	}
	if rec.Parts != 1 {
		t.Errorf("Parts = %d, want 1", rec.Parts)
	}
	if rec.Measures != 1 {
		t.Errorf("Measures appended = %d, want 1", rec.Measures)
	}
	if rec.Transposed != 1 {
		t.Errorf("Transposed = %d, want 1", rec.Transposed)
	}
	if len(rec.Stages) == 0 {
		t.Error("record should carry stage timings")
	}

	// Both artifacts exist on disk.
	for _, format := range []string{"pdf", "musicxml"} {
		path, ok := result.Artifacts[format]
		if !ok {
			t.Fatalf("missing %s artifact", format)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s artifact missing: %v", format, err)
		}
	}

	// Measure 1 keeps F#4; measure 2 was transposed down to E#4.
	s, err := musicxml.DecodeFile(result.Artifacts["musicxml"])
	if err != nil {
		t.Fatalf("decode combined score: %v", err)
	}
	measures := s.Parts()[0].Measures()
	if len(measures) != 2 {
		t.Fatalf("combined measures = %d, want 2", len(measures))
	}
	first, _ := measures[0].Notes()[0].Pitch()
	if (first != score.Pitch{Step: 'F', Alter: 1, Octave: 4}) {
		t.Errorf("measure 1 pitch = %s, want F#4", first)
	}
	second, _ := measures[1].Notes()[0].Pitch()
	if (second != score.Pitch{Step: 'E', Alter: 1, Octave: 4}) {
		t.Errorf("measure 2 pitch = %s, want E#4", second)
	}

	// The run record was persisted.
	stored, err := store.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("stored record: %v", err)
	}
	if stored.Error != "" {
		t.Errorf("stored record error = %q", stored.Error)
	}
}

func TestRunnerExecuteSkipCover(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "hymn.pdf")
	if err := os.WriteFile(input, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := NewRunner(nil, nil, log.NewWithOptions(io.Discard, log.Options{}))
	runner.Rasterizer = fakeRasterizer{}
	runner.Engine = fakeOMR{}
	runner.Engraver = fakeEngraver{}

	opts := Options{
		Input:     input,
		OutputDir: filepath.Join(dir, "out"),
		SkipCover: true,
		StaggerMS: 1,
		Formats:   []string{"musicxml"},
	}
	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.Record.Pages != 1 {
		t.Errorf("Pages = %d, want 1 after skipping the cover", result.Record.Pages)
	}
}

func TestRunnerExecuteInvalidOptions(t *testing.T) {
	runner := NewRunner(nil, nil, log.NewWithOptions(io.Discard, log.Options{}))
	if _, err := runner.Execute(context.Background(), Options{}); err == nil {
		t.Fatal("Execute without input should fail")
	}
}
