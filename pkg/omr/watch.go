package omr

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch reports fragment files as the engine writes them under dir,
// calling fn with each new fragment path. Page subdirectories created
// while watching are picked up automatically. Watch blocks until the
// context is cancelled.
func Watch(ctx context.Context, dir string, fn func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	// Page directories that already exist need watching too; the engine
	// may already be mid-run when the watch starts.
	existing, err := filepath.Glob(filepath.Join(dir, "page_*"))
	if err != nil {
		return err
	}
	for _, d := range existing {
		_ = w.Add(d)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Base(event.Name)
			switch {
			case strings.HasPrefix(name, "page_") && filepath.Ext(name) == "":
				// New page directory: watch it for fragments.
				_ = w.Add(event.Name)
			case isFragment(name):
				fn(event.Name)
			}
		case _, ok := <-w.Errors:
			if !ok {
				return nil
			}
			// Watch errors are transient on the filesystems we care
			// about; the poll in the status command covers any gap.
		}
	}
}

func isFragment(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".musicxml" || ext == ".xml"
}
