package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/omr"
	"github.com/scorelift/scorelift/pkg/pipeline"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	out        string // output directory
	config     string // config file path (scorelift.toml if empty)
	start      int    // first transposed measure
	interval   string // transposition interval
	dpi        int
	jobs       int
	staggerMS  int
	skipCover  bool
	refresh    bool // bypass the recognition cache
	noCache    bool
	formats    string // comma-separated output formats
	lyricSheet string
	plain      bool // disable the live job table
	oemer      string
	musescore  string
	pdftoppm   string
}

// newRunCmd creates the run command, the full PDF-to-PDF pipeline.
func newRunCmd() *cobra.Command {
	opts := runOpts{skipCover: pipeline.DefaultSkipCover}

	cmd := &cobra.Command{
		Use:   "run <score.pdf>",
		Short: "Run the full pipeline: rasterize, recognize, combine, transpose, engrave",
		Long: `Run the complete pipeline on a scanned score.

The PDF is rasterized to page images, each page is recognized to MusicXML,
the fragments are combined into one continuous score, every measure at or
beyond the start measure is transposed by the interval, and the result is
engraved to the requested formats.

Examples:
  scorelift run hymn.pdf -o out
  scorelift run hymn.pdf -o out --start-measure 28 --interval -M2
  scorelift run hymn.pdf -o out --formats pdf,midi --lyrics verse2.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output directory (default: <input>.scorelift)")
	cmd.Flags().StringVar(&opts.config, "config", "", "config file (default: scorelift.toml if present)")
	cmd.Flags().IntVarP(&opts.start, "start-measure", "m", 0, "first measure to transpose")
	cmd.Flags().StringVarP(&opts.interval, "interval", "i", "", `transposition interval, e.g. "-m2"`)
	cmd.Flags().IntVar(&opts.dpi, "dpi", 0, "rasterization resolution")
	cmd.Flags().IntVar(&opts.jobs, "jobs", 0, "concurrent recognition jobs")
	cmd.Flags().IntVar(&opts.staggerMS, "stagger-ms", 0, "delay between engine launches")
	cmd.Flags().BoolVar(&opts.skipCover, "skip-cover", opts.skipCover, "skip the first page before recognition")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-recognize pages even when cached")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the recognition cache")
	cmd.Flags().StringVarP(&opts.formats, "formats", "f", "", "output formats, comma-separated (pdf, midi, musicxml)")
	cmd.Flags().StringVar(&opts.lyricSheet, "lyrics", "", "YAML lyric sheet to apply before engraving")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "log progress instead of the live job table")
	cmd.Flags().StringVar(&opts.oemer, "oemer", "", "oemer binary")
	cmd.Flags().StringVar(&opts.musescore, "musescore", "", "musescore binary")
	cmd.Flags().StringVar(&opts.pdftoppm, "pdftoppm", "", "pdftoppm binary")

	return cmd
}

func runPipeline(cmd *cobra.Command, input string, opts *runOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := pipeline.LoadConfig(opts.config)
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + ".scorelift"
	}

	popts := pipeline.Options{
		Input:           input,
		OutputDir:       out,
		StartMeasure:    opts.start,
		Interval:        opts.interval,
		DPI:             opts.dpi,
		SkipCover:       opts.skipCover,
		Jobs:            opts.jobs,
		StaggerMS:       opts.staggerMS,
		Refresh:         opts.refresh,
		LyricSheet:      opts.lyricSheet,
		Formats:         parseFormats(opts.formats),
		OemerBinary:     opts.oemer,
		MuseScoreBinary: opts.musescore,
		PdftoppmBinary:  opts.pdftoppm,
		Logger:          logger,
	}
	cfg.ApplyTo(&popts)

	store, err := newRunStore(ctx, cfg)
	if err != nil {
		logger.Warn("run store unavailable, records disabled", "err", err)
	}
	runner := pipeline.NewRunner(newCache(ctx, cfg, opts.noCache), store, logger)
	defer runner.Close()

	var result *pipeline.Result
	if opts.plain || !stdoutIsTerminal() {
		runner.OnJob = func(j omr.Job) {
			logger.Debug("page update", "page", j.Page, "state", j.State)
		}
		result, err = runner.Execute(ctx, popts)
	} else {
		result, err = runWithJobTable(cmd, runner, popts)
	}

	if result != nil && result.Record != nil {
		for _, w := range result.Record.Warnings {
			printWarning("%s", w)
		}
	}
	if err != nil {
		printError("%s", errors.UserMessage(err))
		return err
	}

	rec := result.Record
	printSuccess("Transposed %s from measure %d by %s", filepath.Base(input), rec.StartMeasure, rec.Interval)
	printScoreStats(rec.Parts, rec.Measures, rec.Transposed)
	printPageStats(rec.Pages, rec.CachedPages)
	for _, format := range []string{"pdf", "midi", "musicxml"} {
		if path, ok := result.Artifacts[format]; ok {
			printFile(path)
		}
	}
	printNewline()
	printNextStep("Inspect the run", fmt.Sprintf("scorelift runs show %s", rec.ID))
	return nil
}

// runWithJobTable executes the pipeline behind a live bubbletea job table.
// The pipeline runs in its own goroutine; quitting the table does not
// cancel it, the command simply falls back to waiting.
func runWithJobTable(cmd *cobra.Command, runner *pipeline.Runner, popts pipeline.Options) (*pipeline.Result, error) {
	p := tea.NewProgram(NewJobTableModel(), tea.WithOutput(os.Stderr))
	runner.OnJob = func(j omr.Job) {
		p.Send(jobMsg(j))
	}

	done := make(chan struct{})
	var result *pipeline.Result
	var runErr error
	go func() {
		defer close(done)
		result, runErr = runner.Execute(cmd.Context(), popts)
		p.Send(jobsDoneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		// Terminal trouble; the pipeline is still running, wait it out.
		loggerFromContext(cmd.Context()).Debug("job table unavailable", "err", err)
	}
	<-done
	return result, runErr
}

// stdoutIsTerminal reports whether stdout is attached to a terminal.
func stdoutIsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
