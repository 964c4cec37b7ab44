package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/scorelift/scorelift/pkg/combine"
	"github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/omr"
)

// newCombineCmd creates the combine command, fragments to one score.
func newCombineCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "combine <dir | fragment...>",
		Short: "Combine per-page MusicXML fragments into one continuous score",
		Long: `Combine per-page MusicXML fragments into one continuous score.

With a single directory argument, fragments are collected from its page
subdirectories in page order. With file arguments, the files are combined
in sorted order. The first fragment's parts carry the combined score's
part list; extra parts on later pages are dropped with a warning.

Examples:
  scorelift combine out/pages -o score.musicxml
  scorelift combine page_01.musicxml page_02.musicxml -o score.musicxml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			prog := newProgress(logger)

			paths, err := fragmentArgs(args)
			if err != nil {
				return err
			}

			result, err := combine.Files(paths, logger)
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}
			for _, w := range result.Warnings {
				printWarning("%s", w)
			}

			if output == "" {
				if err := result.Score.Encode(os.Stdout); err != nil {
					return err
				}
			} else {
				if err := result.Score.EncodeFile(output); err != nil {
					return err
				}
				printSuccess("Combined %d fragments", result.Fragments)
				printScoreStats(len(result.Score.Parts()), result.Measures, 0)
				printFile(output)
			}
			prog.done("combine finished")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

// fragmentArgs resolves command arguments to fragment paths. A single
// directory argument means "collect fragments from this work directory".
func fragmentArgs(args []string) ([]string, error) {
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err == nil && info.IsDir() {
			return omr.FindFragments(args[0])
		}
	}
	for _, p := range args {
		if err := errors.ValidateFragmentPath(p); err != nil {
			return nil, err
		}
	}
	return args, nil
}
