// Package cli provides the command-line interface for rocketgate.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nmfs-opensci/rocketgate/internal/config"
	"github.com/nmfs-opensci/rocketgate/internal/ctxutil"
	"github.com/nmfs-opensci/rocketgate/internal/domain"
	"github.com/nmfs-opensci/rocketgate/internal/pipeline"
)

// AddRunCommand adds the run command to the root command.
func AddRunCommand(root *cobra.Command) {
	root.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	var bypassVerify bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the full release pipeline",
		Long: `Execute the full release pipeline: build the artifact, verify it
(test suite and package validation in parallel), publish it, and create
the release record with pinned manifests.

With --bypass-verify the artifact is published without verification. The
bypass is recorded on the run and no release record is created.

Examples:
  rocketgate run
  rocketgate run --bypass-verify
  rocketgate run --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd.Context(), cmd, os.Stdout, bypassVerify)
		},
	}

	cmd.Flags().BoolVar(&bypassVerify, "bypass-verify", false, "publish without verification (records the bypass, skips the release record)")

	return cmd
}

func runPipeline(ctx context.Context, cmd *cobra.Command, w io.Writer, bypassVerify bool) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	logger := GetLogger()
	ctx = logger.WithContext(ctx)
	outputFormat := cmd.Flag("output").Value.String()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	controller, err := buildController(cfg, liveWriter(cmd))
	if err != nil {
		return err
	}

	run, runErr := controller.Run(ctx, bypassVerify)

	if writeErr := writeResult(w, outputFormat, run, func(w io.Writer) error {
		return writeRunSummary(w, run)
	}); writeErr != nil && runErr == nil {
		return writeErr
	}

	return runErr
}

// liveWriter returns the stream long-running stage commands write to while
// they run. Only verbose runs stream; the captured output still lands in
// the run record either way.
func liveWriter(cmd *cobra.Command) io.Writer {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil || !verbose {
		return nil
	}
	return os.Stderr
}

// buildController wires the pipeline collaborators from configuration.
func buildController(cfg *config.Config, liveOut io.Writer) (*pipeline.Controller, error) {
	home, err := rocketgateHome()
	if err != nil {
		return nil, err
	}
	store, err := pipeline.NewFileStoreWithReleaseDir(home, cfg.Release.Dir)
	if err != nil {
		return nil, err
	}

	runner := &pipeline.DefaultCommandRunner{}

	builder := pipeline.NewCommandBuilder(runner, cfg.Build)
	var tester pipeline.Tester
	if cfg.Test.Command != "" {
		commandTester := pipeline.NewCommandTester(runner, cfg.Test)
		if liveOut != nil {
			commandTester = commandTester.WithLiveOutput(liveOut)
		}
		tester = commandTester
	}
	if liveOut != nil {
		builder = builder.WithLiveOutput(liveOut)
	}

	return pipeline.NewController(
		builder,
		tester,
		pipeline.NewSnapshotValidator(runner, cfg.Domains),
		pipeline.NewCommandPublisher(runner, cfg.Publish),
		store,
		store,
	), nil
}

// writeRunSummary renders the human-readable run outcome.
func writeRunSummary(w io.Writer, run *domain.PipelineRun) error {
	if run == nil {
		return nil
	}

	if err := printf(w, "Run:      %s\nStatus:   %s\n", run.ID, run.Status); err != nil {
		return err
	}
	if run.ArtifactID != "" {
		if err := printf(w, "Artifact: %s\n", run.ArtifactID); err != nil {
			return err
		}
	}
	if run.VerifyBypassed {
		if err := printf(w, "Verification bypassed: no release record created\n"); err != nil {
			return err
		}
	}
	if err := printf(w, "Published: %t\nRelease:   %t\n", run.Published, run.ReleaseCreated); err != nil {
		return err
	}

	if run.Verify != nil && run.Verify.Report != nil && !run.Verify.Report.AllPassed {
		if err := printf(w, "\nMissing packages: %v\n", run.Verify.Report.MissingNames()); err != nil {
			return err
		}
	}
	return nil
}
