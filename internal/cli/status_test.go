package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWorkdirReport(t *testing.T) {
	workdir := t.TempDir()
	imagesDir := filepath.Join(workdir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"page_01.png", "page_02.png", "page_03.png"} {
		if err := os.WriteFile(filepath.Join(imagesDir, name), []byte{1}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for _, page := range []string{"page_01", "page_02"} {
		pageDir := filepath.Join(workdir, "pages", page)
		if err := os.MkdirAll(pageDir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(pageDir, "score.musicxml"), []byte("<score-partwise/>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	report, err := workdirReport(workdir)
	if err != nil {
		t.Fatalf("workdirReport error: %v", err)
	}
	if report.Expected != 3 || report.Done != 2 {
		t.Errorf("report = %d/%d, want 2/3", report.Done, report.Expected)
	}
	if report.Complete {
		t.Error("report should not be complete")
	}
}

func TestWorkdirReportEmpty(t *testing.T) {
	report, err := workdirReport(t.TempDir())
	if err != nil {
		t.Fatalf("workdirReport error: %v", err)
	}
	if report.Expected != 0 || report.Done != 0 {
		t.Errorf("report = %d/%d, want 0/0", report.Done, report.Expected)
	}
}
