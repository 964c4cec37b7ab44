package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/musicxml"
	"github.com/scorelift/scorelift/pkg/pipeline"
	"github.com/scorelift/scorelift/pkg/score"
	"github.com/scorelift/scorelift/pkg/transpose"
)

// newTransposeCmd creates the transpose command, the in-place section shift.
func newTransposeCmd() *cobra.Command {
	var (
		start    int
		interval string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "transpose <score.musicxml>",
		Short: "Transpose every measure at or beyond the start measure",
		Long: `Transpose every measure whose number is at or beyond the start measure.

Notes and key signatures in the section are shifted by the interval;
measures before the start measure are left untouched. Interval names
follow quality-number form: "-m2" is down a minor second, "M2" up a
major second, "P5" up a perfect fifth.

Examples:
  scorelift transpose score.musicxml --start-measure 20 --interval=-m2 -o fixed.musicxml
  scorelift transpose score.mxl -o fixed.musicxml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)

			if err := errors.ValidateMeasureNumber(start); err != nil {
				return err
			}
			iv, err := score.ParseInterval(interval)
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}

			s, err := musicxml.DecodeFile(args[0])
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}

			stats, err := transpose.Section(s, start, iv, logger)
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}

			if output == "" {
				return s.Encode(os.Stdout)
			}
			if err := s.EncodeFile(output); err != nil {
				return err
			}
			printSuccess("Transposed from measure %d by %s", start, iv)
			printScoreStats(len(s.Parts()), measureCount(s), stats.Measures)
			printDetail("%d notes, %d key signatures", stats.Notes, stats.Keys)
			printFile(output)
			prog.done("transpose finished")
			return nil
		},
	}

	cmd.Flags().IntVarP(&start, "start-measure", "m", pipeline.DefaultStartMeasure, "first measure to transpose")
	cmd.Flags().StringVarP(&interval, "interval", "i", pipeline.DefaultInterval, `transposition interval, e.g. "-m2"`)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

// measureCount returns the score's measure count, read off the first part.
func measureCount(s *musicxml.Score) int {
	parts := s.Parts()
	if len(parts) == 0 {
		return 0
	}
	return len(parts[0].Measures())
}
