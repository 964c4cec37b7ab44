package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/lyrics"
	"github.com/scorelift/scorelift/pkg/musicxml"
)

// newLyricsCmd creates the lyrics command, applying a YAML lyric sheet.
func newLyricsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "lyrics <score.musicxml> <sheet.yaml>",
		Short: "Attach a lyric sheet to the melody line",
		Long: `Attach a lyric sheet to the melody line of a score.

The sheet is a YAML file with a syllable list; hyphens mark syllable
boundaries within a word ("glo-ry" becomes two syllables with begin/end
markers). Syllables are assigned to the first part's pitched notes in
order.

Example:
  scorelift lyrics score.musicxml verse2.yaml -o sung.musicxml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			s, err := musicxml.DecodeFile(args[0])
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}
			sheet, err := lyrics.LoadSheet(args[1])
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}

			applied := lyrics.Apply(s, sheet, logger)

			if output == "" {
				return s.Encode(os.Stdout)
			}
			if err := s.EncodeFile(output); err != nil {
				return err
			}
			printSuccess("Applied %d syllables", applied)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}
