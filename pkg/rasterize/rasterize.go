// Package rasterize turns a PDF into per-page images through an external
// rasterizer. The conversion itself is never reimplemented; this package
// only shells out, names the results, and reports what it produced.
package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/observability"
)

// DefaultDPI matches what the OMR engine was trained on.
const DefaultDPI = 300

// Rasterizer converts a PDF into page images.
type Rasterizer interface {
	// Pages renders every page of the PDF into dir and returns the image
	// paths in page order, named page_NN.png.
	Pages(ctx context.Context, pdfPath, dir string) ([]string, error)
}

// Poppler rasterizes through the pdftoppm binary from poppler-utils.
type Poppler struct {
	Binary string // defaults to "pdftoppm"
	DPI    int    // defaults to DefaultDPI
	Logger *log.Logger
}

// NewPoppler creates a Poppler rasterizer with defaults applied.
func NewPoppler(logger *log.Logger) *Poppler {
	if logger == nil {
		logger = log.Default()
	}
	return &Poppler{Binary: "pdftoppm", DPI: DefaultDPI, Logger: logger}
}

// Pages implements Rasterizer.
func (p *Poppler) Pages(ctx context.Context, pdfPath, dir string) ([]string, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "input %s", pdfPath)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	binary := p.Binary
	if binary == "" {
		binary = "pdftoppm"
	}
	dpi := p.DPI
	if dpi == 0 {
		dpi = DefaultDPI
	}

	args := []string{"-png", "-r", fmt.Sprint(dpi), pdfPath, filepath.Join(dir, "page")}
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.Logger.Debug("rasterizing", "binary", binary, "dpi", dpi, "input", pdfPath)
	observability.Process().OnExec(ctx, binary, args)
	start := time.Now()
	err := cmd.Run()
	observability.Process().OnExit(ctx, binary, time.Since(start), err)

	if err != nil {
		if execErr, ok := err.(*exec.Error); ok && execErr.Err == exec.ErrNotFound {
			return nil, errors.Wrap(errors.ErrCodeEngineNotFound, err, "%s not installed", binary)
		}
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "rasterize %s", pdfPath)
		}
		return nil, errors.Wrap(errors.ErrCodeEngineFailed, err, "rasterize %s: %s", pdfPath, firstLine(stderr.String()))
	}

	return renamePages(dir)
}

// renamePages normalizes pdftoppm's page-N.png output to the zero-padded
// page_NN.png names the rest of the pipeline sorts on.
func renamePages(dir string) ([]string, error) {
	raw, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New(errors.ErrCodeEngineFailed, "rasterizer produced no pages in %s", dir)
	}

	// pdftoppm pads to the page-count width, so lexical order is page
	// order within a single run.
	sort.Strings(raw)

	paths := make([]string, 0, len(raw))
	for i, old := range raw {
		renamed := filepath.Join(dir, fmt.Sprintf("page_%02d.png", i+1))
		if err := os.Rename(old, renamed); err != nil {
			return nil, err
		}
		paths = append(paths, renamed)
	}
	return paths, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
