// Package omr drives the external optical-music-recognition engine over a
// set of page images.
//
// The engine is an opaque collaborator with a file-based interface: it is
// given one page image and an output directory, and some time later a
// MusicXML fragment appears in that directory. This package wraps the
// invocation (engine.go), schedules pages through a bounded worker pool
// with a launch stagger (pool.go), and locates the fragments the engine
// leaves behind (fragments.go, watch.go).
package omr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/observability"
)

// DefaultTimeout bounds a single page recognition. A dense piano page at
// 300 dpi runs several minutes on CPU.
const DefaultTimeout = 10 * time.Minute

// Engine recognizes one page image into a MusicXML fragment.
type Engine interface {
	// Name identifies the engine for cache keys and diagnostics.
	Name() string

	// Recognize processes the image into dir and returns the path of the
	// fragment it produced.
	Recognize(ctx context.Context, imagePath, dir string) (string, error)
}

// Oemer invokes the oemer binary, one process per page.
type Oemer struct {
	Binary  string        // defaults to "oemer"
	Timeout time.Duration // defaults to DefaultTimeout
	Logger  *log.Logger
}

// NewOemer creates an Oemer engine with defaults applied.
func NewOemer(logger *log.Logger) *Oemer {
	if logger == nil {
		logger = log.Default()
	}
	return &Oemer{Binary: "oemer", Timeout: DefaultTimeout, Logger: logger}
}

// Name implements Engine.
func (o *Oemer) Name() string {
	if o.Binary != "" {
		return o.Binary
	}
	return "oemer"
}

// Recognize implements Engine.
func (o *Oemer) Recognize(ctx context.Context, imagePath, dir string) (string, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "page image %s", imagePath)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	timeout := o.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{imagePath, "-o", dir}
	cmd := exec.CommandContext(ctx, o.Name(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	o.Logger.Debug("recognizing page", "image", imagePath, "out", dir)
	observability.Process().OnExec(ctx, o.Name(), args)
	start := time.Now()
	err := cmd.Run()
	observability.Process().OnExit(ctx, o.Name(), time.Since(start), err)

	if err != nil {
		if execErr, ok := err.(*exec.Error); ok && execErr.Err == exec.ErrNotFound {
			return "", errors.Wrap(errors.ErrCodeEngineNotFound, err, "%s not installed", o.Name())
		}
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "recognize %s after %s", imagePath, timeout)
		}
		return "", errors.Wrap(errors.ErrCodeEngineFailed, err, "recognize %s", imagePath)
	}

	frag, err := FragmentIn(dir)
	if err != nil {
		return "", err
	}
	return frag, nil
}
