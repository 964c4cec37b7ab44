package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scorelift/scorelift/pkg/omr"
	progresspkg "github.com/scorelift/scorelift/pkg/progress"
)

// newStatusCmd creates the status command, recognition progress for a
// work directory.
func newStatusCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status <workdir>",
		Short: "Show recognition progress for a pipeline work directory",
		Long: `Show recognition progress for a pipeline work directory.

Compares the rasterized page images against the MusicXML fragments
recognized so far. With --watch, the command keeps running and reports
every new fragment as it appears, which is useful while a long
recognition run is in flight.

Examples:
  scorelift status out
  scorelift status out --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workdir := args[0]

			report, err := workdirReport(workdir)
			if err != nil {
				return err
			}
			printInfo("%s", report)
			if report.Complete {
				printSuccess("Recognition complete")
				return nil
			}

			if !watch {
				if report.Stalled {
					printWarning("No recognition running; resume with: scorelift run")
				}
				return nil
			}

			pagesDir := filepath.Join(workdir, "pages")
			return omr.Watch(ctx, pagesDir, func(path string) {
				report, err := workdirReport(workdir)
				if err != nil {
					return
				}
				printInfo("%s (%s)", report, filepath.Base(path))
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep watching for new fragments")
	return cmd
}

// workdirReport derives a progress report from a work directory's
// images/ and pages/ subdirectories.
func workdirReport(workdir string) (progresspkg.Report, error) {
	images, err := filepath.Glob(filepath.Join(workdir, "images", "page_*.png"))
	if err != nil {
		return progresspkg.Report{}, err
	}
	fragments, err := omr.FindFragments(filepath.Join(workdir, "pages"))
	if err != nil {
		return progresspkg.Report{}, err
	}
	return progresspkg.Compute(progresspkg.Snapshot{
		ExpectedPages: len(images),
		Fragments:     fragments,
	}), nil
}
