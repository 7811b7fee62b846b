// Package cli provides the command-line interface for rocketgate.
package cli

import (
	"context"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nmfs-opensci/rocketgate/internal/ctxutil"
	"github.com/nmfs-opensci/rocketgate/internal/domain"
	"github.com/nmfs-opensci/rocketgate/internal/pipeline"
)

// AddStatusCommand adds the status command to the root command.
func AddStatusCommand(root *cobra.Command) {
	root.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List recent pipeline runs",
		Long: `List recorded pipeline runs, newest first, with their current state,
artifact, and release outcome.

Examples:
  rocketgate status
  rocketgate status --limit 5
  rocketgate status --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, os.Stdout, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of runs to show (0 for all)")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, w io.Writer, limit int) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	outputFormat := cmd.Flag("output").Value.String()

	store, err := openStore()
	if err != nil {
		return err
	}

	runs, err := store.List(ctx)
	if err != nil {
		return err
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	return writeResult(w, outputFormat, runs, func(w io.Writer) error {
		return writeRunTable(w, runs)
	})
}

// writeRunTable renders runs as an aligned table.
func writeRunTable(w io.Writer, runs []*domain.PipelineRun) error {
	if len(runs) == 0 {
		return printf(w, "No pipeline runs recorded.\n")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := printf(tw, "RUN\tSTATUS\tARTIFACT\tRELEASE\tCREATED\tAGE\n"); err != nil {
		return err
	}
	for _, run := range runs {
		release := "-"
		switch {
		case run.ReleaseCreated:
			release = "created"
		case run.VerifyBypassed && run.Published:
			release = "bypassed"
		case pipeline.IsFailureStatus(run.Status):
			release = "blocked"
		}
		if err := printf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID, run.Status, valueOrDash(run.ArtifactID), release,
			run.CreatedAt.Format(time.RFC3339), RelativeTime(run.CreatedAt)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
