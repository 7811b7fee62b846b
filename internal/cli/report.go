// Package cli provides the command-line interface for rocketgate.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nmfs-opensci/rocketgate/internal/ctxutil"
	"github.com/nmfs-opensci/rocketgate/internal/domain"
	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
	"github.com/nmfs-opensci/rocketgate/internal/manifest"
	"github.com/nmfs-opensci/rocketgate/internal/pipeline"
)

// AddReportCommand adds the report command to the root command.
func AddReportCommand(root *cobra.Command) {
	root.AddCommand(newReportCmd())
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Show the validation report for a pipeline run",
		Long: `Show the package validation report recorded on a pipeline run. Without
a run id the most recent run is used.

Bypassed runs and runs that failed before verification carry no report.

Examples:
  rocketgate report
  rocketgate report a2f1c7d0-1b9e-4c31-9f62-0c8f4a5d6e7b
  rocketgate report --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) > 0 {
				runID = args[0]
			}
			return runReport(cmd.Context(), cmd, os.Stdout, runID)
		},
	}

	return cmd
}

func runReport(ctx context.Context, cmd *cobra.Command, w io.Writer, runID string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	outputFormat := cmd.Flag("output").Value.String()

	store, err := openStore()
	if err != nil {
		return err
	}

	run, err := resolveRun(ctx, store, runID)
	if err != nil {
		return err
	}

	if run.Verify == nil || run.Verify.Report == nil {
		return rocketerrors.Wrapf(rocketerrors.ErrRunNotFound,
			"run %s has no validation report", run.ID)
	}

	return writeResult(w, outputFormat, run.Verify.Report, func(w io.Writer) error {
		return manifest.WriteReportText(w, *run.Verify.Report)
	})
}

// openStore opens the run store under the rocketgate home directory.
func openStore() (*pipeline.FileStore, error) {
	home, err := rocketgateHome()
	if err != nil {
		return nil, err
	}
	return pipeline.NewFileStore(home)
}

// resolveRun loads the run by id, or the most recent run when id is empty.
func resolveRun(ctx context.Context, store *pipeline.FileStore, runID string) (*domain.PipelineRun, error) {
	if runID != "" {
		return store.Get(ctx, runID)
	}

	runs, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, rocketerrors.Wrap(rocketerrors.ErrRunNotFound, "no pipeline runs recorded")
	}
	return runs[0], nil
}
