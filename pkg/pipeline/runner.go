package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scorelift/scorelift/pkg/cache"
	"github.com/scorelift/scorelift/pkg/combine"
	"github.com/scorelift/scorelift/pkg/engrave"
	"github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/lyrics"
	"github.com/scorelift/scorelift/pkg/midi"
	"github.com/scorelift/scorelift/pkg/musicxml"
	"github.com/scorelift/scorelift/pkg/observability"
	"github.com/scorelift/scorelift/pkg/omr"
	"github.com/scorelift/scorelift/pkg/rasterize"
	"github.com/scorelift/scorelift/pkg/runs"
	"github.com/scorelift/scorelift/pkg/transpose"
)

// Runner executes the pipeline. The external collaborators are fields so
// tests can substitute fakes; zero fields get the standard binaries.
//
// The Runner is stateless between Execute calls - multiple goroutines can
// safely share one Runner with different options.
type Runner struct {
	Rasterizer rasterize.Rasterizer
	Engine     omr.Engine
	Engraver   engrave.Engraver
	Cache      cache.Cache
	Store      runs.Store // nil disables run records
	Logger     *log.Logger
	OnJob      func(omr.Job) // optional per-page progress callback
}

// NewRunner creates a runner with the given cache and run store.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, store runs.Store, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Store:  store,
		Logger: logger,
	}
}

// Execute runs the complete pipeline and persists a run record.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}

	rec := runs.New(opts.Input)
	rec.OutputDir = opts.OutputDir
	rec.StartMeasure = opts.StartMeasure
	rec.Interval = opts.Interval
	result := &Result{Record: rec, Artifacts: map[string]string{}}

	err := r.execute(ctx, opts, logger, rec, result)
	rec.Finish(err)
	if r.Store != nil {
		if putErr := r.Store.Put(ctx, rec); putErr != nil {
			logger.Warn("could not persist run record", "err", putErr)
		}
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

func (r *Runner) execute(ctx context.Context, opts Options, logger *log.Logger, rec *runs.Record, result *Result) error {
	imagesDir := filepath.Join(opts.OutputDir, "images")
	pagesDir := filepath.Join(opts.OutputDir, "pages")

	// Stage 1: Rasterize
	images, err := timed(ctx, rec, StageRasterize, opts.Input, func() ([]string, error) {
		return r.rasterizer(opts).Pages(ctx, opts.Input, imagesDir)
	})
	if err != nil {
		return err
	}
	logger.Info("rasterized input", "pages", len(images))

	if opts.SkipCover && len(images) > 1 {
		images = images[1:]
		logger.Debug("skipping cover page")
	}
	rec.Pages = len(images)

	// Stage 2: Recognize
	pool := omr.NewPool(r.engine(opts), r.Cache, logger)
	pool.Workers = opts.Jobs
	pool.Stagger = opts.Stagger()
	pool.OnUpdate = r.OnJob
	if opts.Refresh {
		pool.Cache = cache.NewNullCache()
	}

	jobs, err := timed(ctx, rec, StageRecognize, "", func() ([]omr.Job, error) {
		return pool.Run(ctx, images, pagesDir)
	})
	result.Jobs = jobs
	if err != nil {
		return err
	}
	fragments := make([]string, 0, len(jobs))
	for _, j := range jobs {
		if j.State == omr.JobCached {
			rec.CachedPages++
		}
		fragments = append(fragments, j.Fragment)
	}
	logger.Info("recognized pages", "pages", len(jobs), "cached", rec.CachedPages)

	// Stage 3: Combine
	combined, err := timed(ctx, rec, StageCombine, "", func() (*combine.Result, error) {
		return combine.Files(fragments, logger)
	})
	if err != nil {
		return err
	}
	rec.Warnings = append(rec.Warnings, combined.Warnings...)
	rec.Parts = len(combined.Score.Parts())
	rec.Measures = combined.Measures
	logger.Info("combined fragments", "fragments", combined.Fragments, "measures", combined.Measures)

	// Stage 4: Transpose
	stats, err := timed(ctx, rec, StageTranspose, "", func() (transpose.Stats, error) {
		return transpose.Section(combined.Score, opts.StartMeasure, opts.MustInterval(), logger)
	})
	if err != nil {
		return err
	}
	rec.Transposed = stats.Measures
	logger.Info("transposed section",
		"from_measure", opts.StartMeasure,
		"interval", opts.Interval,
		"measures", stats.Measures,
		"notes", stats.Notes,
		"keys", stats.Keys)

	// Stage 5 (optional): Lyrics
	if opts.LyricSheet != "" {
		if _, err := timed(ctx, rec, StageLyrics, opts.LyricSheet, func() (int, error) {
			sheet, err := lyrics.LoadSheet(opts.LyricSheet)
			if err != nil {
				return 0, err
			}
			return lyrics.Apply(combined.Score, sheet, logger), nil
		}); err != nil {
			return err
		}
	}

	scorePath := filepath.Join(opts.OutputDir, "score.musicxml")
	if err := combined.Score.EncodeFile(scorePath); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", scorePath)
	}
	result.Artifacts["musicxml"] = scorePath
	rec.Artifacts = append(rec.Artifacts, scorePath)

	// Stage 6: Engrave
	_, err = timed(ctx, rec, StageEngrave, "", func() (struct{}, error) {
		return struct{}{}, r.engraveFormats(ctx, opts, combined.Score, scorePath, result, rec)
	})
	return err
}

// engraveFormats produces each requested output format next to the score.
func (r *Runner) engraveFormats(ctx context.Context, opts Options, s *musicxml.Score, scorePath string, result *Result, rec *runs.Record) error {
	base := scorePath[:len(scorePath)-len(filepath.Ext(scorePath))]
	for _, format := range opts.Formats {
		switch format {
		case "musicxml":
			// Already written.
		case "midi":
			out := base + ".mid"
			if err := midi.ExportFile(s, out); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "export MIDI")
			}
			result.Artifacts[format] = out
			rec.Artifacts = append(rec.Artifacts, out)
		case "pdf":
			out := base + ".pdf"
			if err := r.engraver(opts).Render(ctx, scorePath, out); err != nil {
				return err
			}
			result.Artifacts[format] = out
			rec.Artifacts = append(rec.Artifacts, out)
		}
	}
	return nil
}

// timed runs one stage, recording its duration and firing stage hooks.
func timed[T any](ctx context.Context, rec *runs.Record, stage, detail string, fn func() (T, error)) (T, error) {
	observability.Stage().OnStageStart(ctx, stage, detail)
	start := time.Now()
	out, err := fn()
	elapsed := time.Since(start)
	rec.AddStage(stage, elapsed)
	observability.Stage().OnStageComplete(ctx, stage, detail, elapsed, err)
	return out, err
}

func (r *Runner) rasterizer(opts Options) rasterize.Rasterizer {
	if r.Rasterizer != nil {
		return r.Rasterizer
	}
	p := rasterize.NewPoppler(r.Logger)
	if opts.PdftoppmBinary != "" {
		p.Binary = opts.PdftoppmBinary
	}
	p.DPI = opts.DPI
	return p
}

func (r *Runner) engine(opts Options) omr.Engine {
	if r.Engine != nil {
		return r.Engine
	}
	e := omr.NewOemer(r.Logger)
	if opts.OemerBinary != "" {
		e.Binary = opts.OemerBinary
	}
	return e
}

func (r *Runner) engraver(opts Options) engrave.Engraver {
	if r.Engraver != nil {
		return r.Engraver
	}
	m := engrave.NewMuseScore(r.Logger)
	if opts.MuseScoreBinary != "" {
		m.Binary = opts.MuseScoreBinary
	}
	return m
}

// Close releases resources held by the runner (cache and run store).
func (r *Runner) Close() error {
	var first error
	if r.Cache != nil {
		first = r.Cache.Close()
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
