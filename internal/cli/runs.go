package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/scorelift/scorelift/pkg/pipeline"
	"github.com/scorelift/scorelift/pkg/runs"
)

// newRunsCmd creates the runs command for inspecting past pipeline runs.
func newRunsCmd() *cobra.Command {
	var config string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect past pipeline runs",
	}
	cmd.PersistentFlags().StringVar(&config, "config", "", "config file (default: scorelift.toml if present)")

	cmd.AddCommand(newRunsListCmd(&config))
	cmd.AddCommand(newRunsShowCmd(&config))
	return cmd
}

// openRunStore opens the configured run store for a runs subcommand.
func openRunStore(cmd *cobra.Command, config string) (runs.Store, error) {
	cfg, err := pipeline.LoadConfig(config)
	if err != nil {
		return nil, err
	}
	store, err := newRunStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("run records are disabled in the configuration")
	}
	return store, nil
}

func newRunsListCmd(config *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openRunStore(cmd, *config)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				printInfo("No runs recorded yet")
				return nil
			}

			for _, rec := range records {
				status := styleIconSuccess.Render(iconSuccess)
				if rec.Error != "" {
					status = styleIconError.Render(iconError)
				}
				fmt.Printf("%s %s  %s  %s\n",
					status,
					rec.ID,
					StyleValue.Render(filepath.Base(rec.Input)),
					StyleDim.Render(runSummary(rec)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list")
	return cmd
}

func newRunsShowCmd(config *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openRunStore(cmd, *config)
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
}

// runSummary renders a one-line description of a run's outcome.
func runSummary(rec *runs.Record) string {
	s := fmt.Sprintf("%d pages, %d measures, %s ago",
		rec.Pages, rec.Measures, time.Since(rec.StartedAt).Round(time.Minute))
	if rec.Transposed > 0 {
		s = fmt.Sprintf("%d pages, %d/%d measures transposed, %s ago",
			rec.Pages, rec.Transposed, rec.Measures, time.Since(rec.StartedAt).Round(time.Minute))
	}
	return s
}
