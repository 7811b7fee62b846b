package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nmfs-opensci/rocketgate/internal/config"
	"github.com/nmfs-opensci/rocketgate/internal/domain"
	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
	"github.com/nmfs-opensci/rocketgate/internal/manifest"
)

// SnapshotValidator implements Validator. For each configured domain it
// loads the declared-dependency sources, captures the installed-package
// snapshot from the artifact, reconciles the two, and renders the pinned
// manifest from the present set.
type SnapshotValidator struct {
	runner  CommandRunner
	domains []config.DomainConfig
}

// NewSnapshotValidator creates a validator over the configured domains.
func NewSnapshotValidator(runner CommandRunner, domains []config.DomainConfig) *SnapshotValidator {
	return &SnapshotValidator{runner: runner, domains: domains}
}

// Validate reconciles every domain and returns the aggregated report with
// one pinned manifest per domain. The report's verdict is a data outcome;
// the returned error is reserved for infrastructure failures (unreadable
// sources, snapshot capture failures).
func (v *SnapshotValidator) Validate(ctx context.Context, artifactID string) (*domain.ValidationReport, []domain.PinnedManifest, error) {
	log := zerolog.Ctx(ctx)

	results := make([]domain.ReconciliationResult, 0, len(v.domains))
	manifests := make([]domain.PinnedManifest, 0, len(v.domains))

	for i := range v.domains {
		d := &v.domains[i]

		result, pinned, err := v.validateDomain(ctx, d, artifactID)
		if err != nil {
			return nil, nil, err
		}

		log.Info().
			Str("domain", d.Name).
			Int("declared", result.Declared).
			Int("present", len(result.Present)).
			Int("missing", len(result.Missing)).
			Msg("domain reconciled")

		results = append(results, result)
		manifests = append(manifests, pinned)
	}

	report := manifest.BuildReport(results)
	return &report, manifests, nil
}

// validateDomain reconciles one domain and renders its pinned manifest.
func (v *SnapshotValidator) validateDomain(ctx context.Context, d *config.DomainConfig, artifactID string) (domain.ReconciliationResult, domain.PinnedManifest, error) {
	eco := domain.Ecosystem(d.Ecosystem)

	sources, err := manifest.LoadSources(eco, d.Name, d.Sources)
	if err != nil {
		return domain.ReconciliationResult{}, domain.PinnedManifest{},
			rocketerrors.Wrapf(err, "domain %q", d.Name)
	}

	installed, err := v.captureSnapshot(ctx, d, artifactID)
	if err != nil {
		return domain.ReconciliationResult{}, domain.PinnedManifest{}, err
	}

	results := manifest.Reconcile(sources, installed)
	// One domain in, one result out: every source above carries d.Name.
	result := results[0]

	content, err := manifest.RenderManifest(manifest.ManifestSpec{
		Domain:      d.Name,
		Ecosystem:   eco,
		RegistryURL: d.Registry,
		Records:     manifest.EmitPins(result),
	})
	if err != nil {
		return domain.ReconciliationResult{}, domain.PinnedManifest{}, err
	}

	pinned := domain.PinnedManifest{
		Domain:    d.Name,
		Ecosystem: eco,
		Filename:  d.PinnedFile,
		Content:   content,
	}
	return result, pinned, nil
}

// captureSnapshot runs the domain's snapshot command against the artifact
// and parses its stdout.
func (v *SnapshotValidator) captureSnapshot(ctx context.Context, d *config.DomainConfig, artifactID string) ([]domain.InstalledPackage, error) {
	log := zerolog.Ctx(ctx)

	cmdCtx, cancel := withTimeout(ctx, d.SnapshotTimeout)
	defer cancel()

	start := time.Now()
	env := []string{ArtifactEnvVar + "=" + artifactID}
	stdout, stderr, exitCode, err := v.runner.Run(cmdCtx, "", d.SnapshotCommand, env)
	if err != nil || exitCode != 0 {
		log.Error().
			Str("domain", d.Name).
			Int("exit_code", exitCode).
			Dur("duration_ms", time.Since(start)).
			Str("stderr", stderr).
			Msg("snapshot command failed")
		return nil, rocketerrors.Wrapf(rocketerrors.ErrSnapshotUnavailable,
			"domain %q: exit code %d", d.Name, exitCode)
	}

	installed, err := manifest.ParseSnapshot(domain.Ecosystem(d.Ecosystem), []byte(stdout), manifest.RSnapshotOptions{
		RegistryURL:         d.Registry,
		DisallowedLibPrefix: d.DisallowedLibPrefix,
	})
	if err != nil {
		return nil, rocketerrors.Wrapf(err, "domain %q", d.Name)
	}
	return installed, nil
}

var _ Validator = (*SnapshotValidator)(nil)
