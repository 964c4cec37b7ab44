package runs

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRecordLifecycle(t *testing.T) {
	rec := New("hymn.pdf")
	if rec.ID == "" {
		t.Error("New should assign an ID")
	}
	if rec.StartedAt.IsZero() {
		t.Error("New should stamp the start time")
	}
	if rec.Duration() != 0 {
		t.Error("Duration before Finish should be zero")
	}

	rec.AddStage("rasterize", 120*time.Millisecond)
	rec.AddStage("recognize", 3*time.Minute)
	if len(rec.Stages) != 2 || rec.Stages[1].Stage != "recognize" {
		t.Errorf("Stages = %+v", rec.Stages)
	}

	rec.Finish(nil)
	if rec.Error != "" {
		t.Errorf("Error = %q after clean finish", rec.Error)
	}
	if rec.Duration() < 0 {
		t.Error("Duration should be non-negative")
	}

	failed := New("other.pdf")
	failed.Finish(errors.New("engine exploded"))
	if failed.Error != "engine exploded" {
		t.Errorf("Error = %q", failed.Error)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	defer store.Close()

	rec := New("hymn.pdf")
	rec.StartMeasure = 20
	rec.Interval = "-m2"
	rec.Pages = 7
	rec.Finish(nil)

	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Input != "hymn.pdf" || got.StartMeasure != 20 || got.Interval != "-m2" || got.Pages != 7 {
		t.Errorf("Get = %+v", got)
	}

	// Put replaces
	rec.Pages = 8
	if err := store.Put(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if got, _ := store.Get(ctx, rec.ID); got.Pages != 8 {
		t.Errorf("Pages after replace = %d, want 8", got.Pages)
	}
}

func TestFileStoreGetMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestFileStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	older := New("first.pdf")
	older.StartedAt = time.Now().UTC().Add(-time.Hour)
	newer := New("second.pdf")
	for _, rec := range []*Record{older, newer} {
		if err := store.Put(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	records, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("List = %d records, want 2", len(records))
	}
	if records[0].Input != "second.pdf" || records[1].Input != "first.pdf" {
		t.Errorf("List order = %s, %s", records[0].Input, records[1].Input)
	}

	limited, err := store.List(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].Input != "second.pdf" {
		t.Errorf("List(1) = %+v", limited)
	}
}
