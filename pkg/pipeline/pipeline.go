// Package pipeline provides the core key-change-removal pipeline.
//
// This package implements the complete rasterize → recognize → combine →
// transpose → engrave flow so the CLI and the HTTP API share one
// behavior.
//
// # Architecture
//
// The pipeline consists of five stages:
//
//  1. Rasterize: PDF to page images (external rasterizer)
//  2. Recognize: page images to MusicXML fragments (external OMR engine,
//     bounded worker pool, cached by image content)
//  3. Combine: fragments to one continuous score
//  4. Transpose: shift the section at and beyond the threshold measure
//  5. Engrave: score to PDF and/or MIDI (external notation engine)
//
// Stages 3 and 4 are the in-process core; everything else shells out.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, store, logger)
//	opts := pipeline.Options{
//	    Input:     "hymn.pdf",
//	    OutputDir: "out",
//	}
//	result, err := runner.Execute(ctx, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/omr"
	"github.com/scorelift/scorelift/pkg/rasterize"
	"github.com/scorelift/scorelift/pkg/runs"
	"github.com/scorelift/scorelift/pkg/score"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultStartMeasure is where the key change sits in the scores this
	// tool was built for.
	DefaultStartMeasure = 20

	// DefaultInterval undoes the upward semitone modulation.
	DefaultInterval = "-m2"

	// DefaultFormat is the engrave output format.
	DefaultFormat = "pdf"

	// DefaultSkipCover drops page 1 before recognition; hymn scans open
	// with a cover page that has no staves.
	DefaultSkipCover = true
)

// Stage names used in timings, hooks and run records.
const (
	StageRasterize = "rasterize"
	StageRecognize = "recognize"
	StageCombine   = "combine"
	StageTranspose = "transpose"
	StageLyrics    = "lyrics"
	StageEngrave   = "engrave"
)

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Input/output
	Input     string `json:"input"`
	OutputDir string `json:"output_dir"`

	// Transposition
	StartMeasure int    `json:"start_measure,omitempty"`
	Interval     string `json:"interval,omitempty"`

	// Recognition
	DPI       int  `json:"dpi,omitempty"`
	SkipCover bool `json:"skip_cover"`
	Jobs      int  `json:"jobs,omitempty"`
	StaggerMS int  `json:"stagger_ms,omitempty"`
	Refresh   bool `json:"refresh,omitempty"` // bypass the OMR cache

	// Supplemental stages
	LyricSheet string   `json:"lyric_sheet,omitempty"`
	Formats    []string `json:"formats,omitempty"`

	// External binaries (empty means the collaborator's default)
	OemerBinary     string `json:"oemer_binary,omitempty"`
	MuseScoreBinary string `json:"musescore_binary,omitempty"`
	PdftoppmBinary  string `json:"pdftoppm_binary,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Record is the persisted run record, timings and warnings included.
	Record *runs.Record

	// Jobs is the per-page recognition outcome.
	Jobs []omr.Job

	// Artifacts maps format to output path.
	Artifacts map[string]string
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "input PDF is required")
	}
	if o.OutputDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "output directory is required")
	}

	if o.StartMeasure == 0 {
		o.StartMeasure = DefaultStartMeasure
	}
	if err := errors.ValidateMeasureNumber(o.StartMeasure); err != nil {
		return err
	}

	if o.Interval == "" {
		o.Interval = DefaultInterval
	}
	if _, err := score.ParseInterval(o.Interval); err != nil {
		return err
	}

	if o.DPI == 0 {
		o.DPI = rasterize.DefaultDPI
	}
	if o.Jobs == 0 {
		o.Jobs = omr.DefaultWorkers
	}
	if o.StaggerMS == 0 {
		o.StaggerMS = int(omr.DefaultStagger / time.Millisecond)
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	for _, f := range o.Formats {
		if err := errors.ValidateOutputFormat(f); err != nil {
			return err
		}
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// MustInterval returns the parsed interval; Options must have been
// validated first.
func (o *Options) MustInterval() score.Interval {
	return score.MustParseInterval(o.Interval)
}

// Stagger returns the engine launch stagger as a duration.
func (o *Options) Stagger() time.Duration {
	return time.Duration(o.StaggerMS) * time.Millisecond
}
