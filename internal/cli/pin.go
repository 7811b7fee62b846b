// Package cli provides the command-line interface for rocketgate.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nmfs-opensci/rocketgate/internal/config"
	"github.com/nmfs-opensci/rocketgate/internal/ctxutil"
	"github.com/nmfs-opensci/rocketgate/internal/domain"
	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
	"github.com/nmfs-opensci/rocketgate/internal/pipeline"
)

// AddPinCommand adds the pin command to the root command.
func AddPinCommand(root *cobra.Command) {
	root.AddCommand(newPinCmd())
}

func newPinCmd() *cobra.Command {
	var (
		artifactID string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "pin",
		Short: "Emit pinned manifests from a built artifact",
		Long: `Capture the installed-package snapshot of every configured domain from
the artifact and emit one pinned manifest per domain. Each manifest is
re-executable by its package manager and pins only the packages that are
both declared and installed.

With --out the manifests are written into the given directory under
their conventional file names; otherwise they are printed to stdout.

Examples:
  rocketgate pin --artifact ghcr.io/org/image:tag
  rocketgate pin --artifact ghcr.io/org/image:tag --out ./pins`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPin(cmd.Context(), cmd, os.Stdout, artifactID, outDir)
		},
	}

	cmd.Flags().StringVarP(&artifactID, "artifact", "a", "", "artifact to snapshot (required)")
	cmd.Flags().StringVar(&outDir, "out", "", "directory to write manifests into (default: stdout)")
	_ = cmd.MarkFlagRequired("artifact")

	return cmd
}

func runPin(ctx context.Context, cmd *cobra.Command, w io.Writer, artifactID, outDir string) error {
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

	validator := pipeline.NewSnapshotValidator(&pipeline.DefaultCommandRunner{}, cfg.Domains)
	report, manifests, err := validator.Validate(ctx, artifactID)
	if err != nil {
		return err
	}

	if !report.AllPassed {
		logger.Warn().
			Strs("missing", report.MissingNames()).
			Msg("manifests pin the present set only; some declared packages are missing")
	}

	if outDir != "" {
		return writeManifestFiles(outDir, manifests, w)
	}

	return writeResult(w, outputFormat, manifests, func(w io.Writer) error {
		for _, m := range manifests {
			if err := printf(w, "%s", m.Content); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeManifestFiles writes each manifest under its conventional file name.
func writeManifestFiles(dir string, manifests []domain.PinnedManifest, w io.Writer) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return rocketerrors.Wrapf(err, "create %s", dir)
	}

	for _, m := range manifests {
		path := filepath.Join(dir, m.Filename)
		if err := os.WriteFile(path, []byte(m.Content), 0o600); err != nil {
			return rocketerrors.Wrapf(err, "write %s", path)
		}
		if err := printf(w, "wrote %s\n", path); err != nil {
			return err
		}
	}
	return nil
}
