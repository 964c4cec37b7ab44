package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scorelift/scorelift/pkg/engrave"
	"github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/midi"
	"github.com/scorelift/scorelift/pkg/musicxml"
	"github.com/scorelift/scorelift/pkg/pipeline"
)

// newEngraveCmd creates the engrave command, score to PDF and/or MIDI.
func newEngraveCmd() *cobra.Command {
	var (
		formats   string
		output    string
		musescore string
	)

	cmd := &cobra.Command{
		Use:   "engrave <score.musicxml>",
		Short: "Engrave a MusicXML score to PDF and/or MIDI",
		Long: `Engrave a MusicXML score to the requested output formats.

PDF output shells out to MuseScore; MIDI is written directly. Output
files are placed next to the input unless --output names a different
base path.

Examples:
  scorelift engrave score.musicxml
  scorelift engrave score.musicxml -f pdf,midi -o out/final`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			wanted := parseFormats(formats)
			if len(wanted) == 0 {
				wanted = []string{pipeline.DefaultFormat}
			}
			for _, f := range wanted {
				if err := errors.ValidateOutputFormat(f); err != nil {
					printError("%s", errors.UserMessage(err))
					return err
				}
			}

			scorePath := args[0]
			base := output
			if base == "" {
				base = strings.TrimSuffix(scorePath, filepath.Ext(scorePath))
			}

			for _, format := range wanted {
				switch format {
				case "musicxml":
					// Input already is MusicXML.
				case "midi":
					s, err := musicxml.DecodeFile(scorePath)
					if err != nil {
						printError("%s", errors.UserMessage(err))
						return err
					}
					out := base + ".mid"
					if err := midi.ExportFile(s, out); err != nil {
						printError("%s", errors.UserMessage(err))
						return err
					}
					printFile(out)
				case "pdf":
					out := base + ".pdf"
					m := engrave.NewMuseScore(logger)
					if musescore != "" {
						m.Binary = musescore
					}
					spin := newSpinner(ctx, fmt.Sprintf("Engraving %s", filepath.Base(out)))
					spin.Start()
					err := m.Render(ctx, scorePath, out)
					spin.Stop()
					if err != nil {
						printError("%s", errors.UserMessage(err))
						return err
					}
					printFile(out)
				}
			}
			printSuccess("Engraved %s", filepath.Base(scorePath))
			return nil
		},
	}

	cmd.Flags().StringVarP(&formats, "formats", "f", pipeline.DefaultFormat, "output formats, comma-separated (pdf, midi)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: next to input)")
	cmd.Flags().StringVar(&musescore, "musescore", "", "musescore binary")
	return cmd
}
