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
	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
	"github.com/nmfs-opensci/rocketgate/internal/manifest"
	"github.com/nmfs-opensci/rocketgate/internal/pipeline"
)

// AddValidateCommand adds the validate command to the root command.
func AddValidateCommand(root *cobra.Command) {
	root.AddCommand(newValidateCmd())
}

func newValidateCmd() *cobra.Command {
	var artifactID string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Reconcile declared dependencies against installed packages",
		Long: `Reconcile the declared dependencies of every configured domain against
an installed-package listing and print the validation report.

With --artifact the listing is captured live from the artifact with each
domain's snapshot command. Without it, each domain's pinned manifest
file is parsed instead, re-checking a previously emitted pin set.

The command exits non-zero when any domain is missing packages.

Examples:
  rocketgate validate --artifact ghcr.io/org/image:tag
  rocketgate validate
  rocketgate validate --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, os.Stdout, artifactID)
		},
	}

	cmd.Flags().StringVarP(&artifactID, "artifact", "a", "", "artifact to snapshot (omit to check pinned manifest files)")

	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, w io.Writer, artifactID string) error {
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

	var report *domain.ValidationReport
	if artifactID != "" {
		validator := pipeline.NewSnapshotValidator(&pipeline.DefaultCommandRunner{}, cfg.Domains)
		report, _, err = validator.Validate(ctx, artifactID)
	} else {
		report, err = validatePinnedFiles(cfg.Domains)
	}
	if err != nil {
		return err
	}

	if err := writeResult(w, outputFormat, report, func(w io.Writer) error {
		return manifest.WriteReportText(w, *report)
	}); err != nil {
		return err
	}

	if !report.AllPassed {
		return rocketerrors.Wrapf(rocketerrors.ErrPackageValidationFailed,
			"missing packages: %v", report.MissingNames())
	}
	return nil
}

// validatePinnedFiles reconciles each domain's declared sources against the
// pins recorded in its pinned manifest file.
func validatePinnedFiles(domains []config.DomainConfig) (*domain.ValidationReport, error) {
	results := make([]domain.ReconciliationResult, 0, len(domains))

	for i := range domains {
		d := &domains[i]
		eco := domain.Ecosystem(d.Ecosystem)

		sources, err := manifest.LoadSources(eco, d.Name, d.Sources)
		if err != nil {
			return nil, rocketerrors.Wrapf(err, "domain %q", d.Name)
		}

		f, err := os.Open(d.PinnedFile)
		if err != nil {
			return nil, rocketerrors.Wrapf(rocketerrors.ErrManifestParse,
				"domain %q: open %s: %v", d.Name, d.PinnedFile, err)
		}
		records, err := manifest.ParseManifest(f)
		_ = f.Close()
		if err != nil {
			return nil, rocketerrors.Wrapf(err, "domain %q: %s", d.Name, d.PinnedFile)
		}

		domainResults := manifest.Reconcile(sources, manifest.PinnedNames(records))
		results = append(results, domainResults[0])
	}

	report := manifest.BuildReport(results)
	return &report, nil
}
