package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmfs-opensci/rocketgate/internal/config"
	"github.com/nmfs-opensci/rocketgate/internal/constants"
	"github.com/nmfs-opensci/rocketgate/internal/domain"
	"github.com/nmfs-opensci/rocketgate/internal/errors"
	"github.com/nmfs-opensci/rocketgate/internal/pipeline"
)

// outputCmd builds a minimal command carrying the output flag the run
// functions read.
func outputCmd(format string) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("output", format, "")
	return cmd
}

// seedRun persists a run into the store under the test home directory.
func seedRun(t *testing.T, home string, run *domain.PipelineRun) {
	t.Helper()
	store, err := pipeline.NewFileStore(home)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), run))
}

func verifiedRun(id string, createdAt time.Time) *domain.PipelineRun {
	return &domain.PipelineRun{
		ID:         id,
		Status:     constants.RunStatusReleased,
		ArtifactID: "ghcr.io/org/image:tag",
		Verify: &domain.VerifyResult{
			Tests: &domain.TestOutcome{Passed: true},
			Report: &domain.ValidationReport{
				Results: []domain.ReconciliationResult{
					{
						Domain:    "python",
						Ecosystem: domain.EcosystemConda,
						Declared:  1,
						Present: []domain.PresentPackage{
							{
								Name:      "numpy",
								Installed: domain.InstalledPackage{Name: "numpy", Version: "1.26.4"},
								Sources:   []string{"env.yml"},
							},
						},
						Status: constants.ReconciliationComplete,
					},
				},
				AllPassed: true,
			},
		},
		Published:      true,
		ReleaseCreated: true,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func TestRunStatus_ListsRunsNewestFirst(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ROCKETGATE_HOME", home)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seedRun(t, home, verifiedRun("run-older", base))
	seedRun(t, home, verifiedRun("run-newer", base.Add(time.Hour)))

	var buf bytes.Buffer
	require.NoError(t, runStatus(context.Background(), outputCmd(OutputText), &buf, 10))

	out := buf.String()
	assert.Contains(t, out, "run-newer")
	assert.Contains(t, out, "run-older")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("run-newer")), bytes.Index(buf.Bytes(), []byte("run-older")))
	assert.Contains(t, out, "released")
	assert.Contains(t, out, "created")
}

func TestRunStatus_FailedRunShowsBlockedRelease(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ROCKETGATE_HOME", home)

	run := verifiedRun("run-failed", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	run.Status = constants.RunStatusVerifyFailed
	run.Published = false
	run.ReleaseCreated = false
	seedRun(t, home, run)

	var buf bytes.Buffer
	require.NoError(t, runStatus(context.Background(), outputCmd(OutputText), &buf, 10))

	assert.Contains(t, buf.String(), "verify_failed")
	assert.Contains(t, buf.String(), "blocked")
}

func TestRunStatus_RespectsLimit(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ROCKETGATE_HOME", home)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seedRun(t, home, verifiedRun("run-older", base))
	seedRun(t, home, verifiedRun("run-newer", base.Add(time.Hour)))

	var buf bytes.Buffer
	require.NoError(t, runStatus(context.Background(), outputCmd(OutputText), &buf, 1))

	assert.Contains(t, buf.String(), "run-newer")
	assert.NotContains(t, buf.String(), "run-older")
}

func TestRunStatus_EmptyStore(t *testing.T) {
	t.Setenv("ROCKETGATE_HOME", t.TempDir())

	var buf bytes.Buffer
	require.NoError(t, runStatus(context.Background(), outputCmd(OutputText), &buf, 10))

	assert.Contains(t, buf.String(), "No pipeline runs recorded.")
}

func TestRunStatus_JSONOutput(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ROCKETGATE_HOME", home)
	seedRun(t, home, verifiedRun("run-json", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)))

	var buf bytes.Buffer
	require.NoError(t, runStatus(context.Background(), outputCmd(OutputJSON), &buf, 10))

	assert.Contains(t, buf.String(), `"id": "run-json"`)
	assert.Contains(t, buf.String(), `"status": "released"`)
}

func TestRunReport_LatestRun(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ROCKETGATE_HOME", home)
	seedRun(t, home, verifiedRun("run-with-report", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)))

	var buf bytes.Buffer
	require.NoError(t, runReport(context.Background(), outputCmd(OutputText), &buf, ""))

	assert.Contains(t, buf.String(), "Package Validation Report")
	assert.Contains(t, buf.String(), "OVERALL: SUCCESS")
}

func TestRunReport_ByID(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ROCKETGATE_HOME", home)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seedRun(t, home, verifiedRun("run-a", base))
	seedRun(t, home, verifiedRun("run-b", base.Add(time.Hour)))

	var buf bytes.Buffer
	require.NoError(t, runReport(context.Background(), outputCmd(OutputText), &buf, "run-a"))

	assert.Contains(t, buf.String(), "OVERALL: SUCCESS")
}

func TestRunReport_NoRuns(t *testing.T) {
	t.Setenv("ROCKETGATE_HOME", t.TempDir())

	var buf bytes.Buffer
	err := runReport(context.Background(), outputCmd(OutputText), &buf, "")
	require.ErrorIs(t, err, errors.ErrRunNotFound)
}

func TestRunReport_RunWithoutReport(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ROCKETGATE_HOME", home)

	run := verifiedRun("run-bypassed", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	run.Verify = nil
	run.VerifyBypassed = true
	seedRun(t, home, run)

	var buf bytes.Buffer
	err := runReport(context.Background(), outputCmd(OutputText), &buf, "run-bypassed")
	require.ErrorIs(t, err, errors.ErrRunNotFound)
	assert.Contains(t, err.Error(), "no validation report")
}

func TestValidatePinnedFiles(t *testing.T) {
	dir := t.TempDir()

	sourcePath := filepath.Join(dir, "env.yml")
	require.NoError(t, os.WriteFile(sourcePath, []byte("dependencies:\n  - numpy\n  - pandas\n"), 0o600))

	pinnedPath := filepath.Join(dir, "packages-python-pinned.yaml")
	require.NoError(t, os.WriteFile(pinnedPath, []byte("# -- env.yml --\nnumpy=1.26.4\npandas=2.2.2\n"), 0o600))

	domains := []config.DomainConfig{
		{
			Name:       "python",
			Ecosystem:  string(domain.EcosystemConda),
			Sources:    []string{sourcePath},
			PinnedFile: pinnedPath,
		},
	}

	report, err := validatePinnedFiles(domains)
	require.NoError(t, err)
	assert.True(t, report.AllPassed)

	// Drop a pin and the same declared set must come up short.
	require.NoError(t, os.WriteFile(pinnedPath, []byte("# -- env.yml --\nnumpy=1.26.4\n"), 0o600))

	report, err = validatePinnedFiles(domains)
	require.NoError(t, err)
	assert.False(t, report.AllPassed)
	assert.Equal(t, []string{"pandas"}, report.MissingNames())
}

func TestValidatePinnedFiles_MissingManifest(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "env.yml")
	require.NoError(t, os.WriteFile(sourcePath, []byte("dependencies:\n  - numpy\n"), 0o600))

	domains := []config.DomainConfig{
		{
			Name:       "python",
			Ecosystem:  string(domain.EcosystemConda),
			Sources:    []string{sourcePath},
			PinnedFile: filepath.Join(dir, "does-not-exist.yaml"),
		},
	}

	_, err := validatePinnedFiles(domains)
	require.ErrorIs(t, err, errors.ErrManifestParse)
}

func TestWriteManifestFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pins")
	manifests := []domain.PinnedManifest{
		{
			Domain:    "python",
			Ecosystem: domain.EcosystemConda,
			Filename:  "packages-python-pinned.yaml",
			Content:   "numpy=1.26.4\n",
		},
		{
			Domain:    "r",
			Ecosystem: domain.EcosystemCRAN,
			Filename:  "packages-r-pinned.R",
			Content:   `remotes::install_version("sf", version = "1.0-16", upgrade = "never")` + "\n",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeManifestFiles(dir, manifests, &buf))

	conda, err := os.ReadFile(filepath.Join(dir, "packages-python-pinned.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "numpy=1.26.4\n", string(conda))

	cran, err := os.ReadFile(filepath.Join(dir, "packages-r-pinned.R"))
	require.NoError(t, err)
	assert.Contains(t, string(cran), "install_version")

	assert.Contains(t, buf.String(), "wrote")
}

func TestWriteRunSummary(t *testing.T) {
	run := verifiedRun("run-summary", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	require.NoError(t, writeRunSummary(&buf, run))

	out := buf.String()
	assert.Contains(t, out, "run-summary")
	assert.Contains(t, out, "released")
	assert.Contains(t, out, "ghcr.io/org/image:tag")
	assert.Contains(t, out, "Published: true")
	assert.Contains(t, out, "Release:   true")
	assert.NotContains(t, out, "bypassed")
}

func TestWriteRunSummary_MissingPackages(t *testing.T) {
	run := verifiedRun("run-gated", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	run.Status = constants.RunStatusVerifyFailed
	run.Verify.Report = &domain.ValidationReport{
		Results: []domain.ReconciliationResult{
			{
				Domain:    "python",
				Ecosystem: domain.EcosystemConda,
				Declared:  1,
				Missing:   []domain.MissingPackage{{Name: "ghost", Sources: []string{"env.yml"}}},
				Status:    constants.ReconciliationIncomplete,
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeRunSummary(&buf, run))

	assert.Contains(t, buf.String(), "Missing packages")
	assert.Contains(t, buf.String(), "ghost")
}

func TestResolveRun_PrefersExplicitID(t *testing.T) {
	home := t.TempDir()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seedRun(t, home, verifiedRun("run-a", base))
	seedRun(t, home, verifiedRun("run-b", base.Add(time.Hour)))

	store, err := pipeline.NewFileStore(home)
	require.NoError(t, err)

	run, err := resolveRun(context.Background(), store, "run-a")
	require.NoError(t, err)
	assert.Equal(t, "run-a", run.ID)

	run, err = resolveRun(context.Background(), store, "")
	require.NoError(t, err)
	assert.Equal(t, "run-b", run.ID)
}
