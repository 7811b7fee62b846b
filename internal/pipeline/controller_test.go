package pipeline_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmfs-opensci/rocketgate/internal/constants"
	"github.com/nmfs-opensci/rocketgate/internal/domain"
	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
	"github.com/nmfs-opensci/rocketgate/internal/pipeline"
	"github.com/nmfs-opensci/rocketgate/internal/testutil"
)

// spyBuilder implements pipeline.Builder.
type spyBuilder struct {
	calls      atomic.Int32
	artifactID string
	err        error
}

func (b *spyBuilder) Build(_ context.Context) (string, error) {
	b.calls.Add(1)
	return b.artifactID, b.err
}

// spyTester implements pipeline.Tester.
type spyTester struct {
	calls   atomic.Int32
	outcome *domain.TestOutcome
	err     error
}

func (t *spyTester) Test(_ context.Context, _ string) (*domain.TestOutcome, error) {
	t.calls.Add(1)
	return t.outcome, t.err
}

// spyValidator implements pipeline.Validator.
type spyValidator struct {
	calls     atomic.Int32
	report    *domain.ValidationReport
	manifests []domain.PinnedManifest
	err       error
}

func (v *spyValidator) Validate(_ context.Context, _ string) (*domain.ValidationReport, []domain.PinnedManifest, error) {
	v.calls.Add(1)
	return v.report, v.manifests, v.err
}

// spyPublisher implements pipeline.Publisher.
type spyPublisher struct {
	calls atomic.Int32
	err   error
}

func (p *spyPublisher) Publish(_ context.Context, _ string) error {
	p.calls.Add(1)
	return p.err
}

// spyReleaser implements pipeline.Releaser.
type spyReleaser struct {
	calls  atomic.Int32
	record *domain.ReleaseRecord
	err    error
}

func (r *spyReleaser) CreateRelease(_ context.Context, record *domain.ReleaseRecord) error {
	r.calls.Add(1)
	r.record = record
	return r.err
}

// fixture bundles the spies behind a wired controller.
type fixture struct {
	builder   *spyBuilder
	tester    *spyTester
	validator *spyValidator
	publisher *spyPublisher
	releaser  *spyReleaser
}

func passingFixture() *fixture {
	return &fixture{
		builder: &spyBuilder{artifactID: "ghcr.io/nmfs-opensci/py-rocket:test"},
		tester:  &spyTester{outcome: &domain.TestOutcome{Passed: true}},
		validator: &spyValidator{
			report: &domain.ValidationReport{AllPassed: true},
			manifests: []domain.PinnedManifest{
				{Domain: "python", Ecosystem: domain.EcosystemConda, Filename: "packages-python-pinned.yaml", Content: "numpy=1.26.4\n"},
			},
		},
		publisher: &spyPublisher{},
		releaser:  &spyReleaser{},
	}
}

func (f *fixture) controller() *pipeline.Controller {
	return pipeline.NewController(f.builder, f.tester, f.validator, f.publisher, f.releaser, nil)
}

func TestControllerRun(t *testing.T) {
	t.Parallel()

	t.Run("gated run releases with full audit trail", func(t *testing.T) {
		t.Parallel()

		f := passingFixture()
		run, err := f.controller().Run(context.Background(), false)
		require.NoError(t, err)

		assert.Equal(t, constants.RunStatusReleased, run.Status)
		assert.Equal(t, "ghcr.io/nmfs-opensci/py-rocket:test", run.ArtifactID)
		assert.True(t, run.Published)
		assert.True(t, run.ReleaseCreated)
		assert.False(t, run.VerifyBypassed)
		require.NotNil(t, run.Verify)
		assert.True(t, run.Verify.Passed())
		require.NotNil(t, run.CompletedAt)

		// pending -> building -> verifying -> publishing -> release_pending -> released
		require.Len(t, run.Transitions, 5)
		assert.Equal(t, constants.RunStatusVerifying, run.Transitions[1].ToStatus)

		assert.Equal(t, int32(1), f.publisher.calls.Load())
		require.Equal(t, int32(1), f.releaser.calls.Load())
		assert.Equal(t, run.ID, f.releaser.record.RunID)
		assert.Len(t, f.releaser.record.Manifests, 1)
		assert.True(t, f.releaser.record.Report.AllPassed)
	})

	t.Run("build failure stops everything downstream", func(t *testing.T) {
		t.Parallel()

		f := passingFixture()
		f.builder.err = testutil.ErrMockBuildBroken

		run, err := f.controller().Run(context.Background(), false)
		require.Error(t, err)
		assert.ErrorIs(t, err, testutil.ErrMockBuildBroken)

		assert.Equal(t, constants.RunStatusBuildFailed, run.Status)
		assert.Zero(t, f.tester.calls.Load())
		assert.Zero(t, f.validator.calls.Load())
		assert.Zero(t, f.publisher.calls.Load())
		assert.Zero(t, f.releaser.calls.Load())
	})

	t.Run("failed tests gate the publish", func(t *testing.T) {
		t.Parallel()

		f := passingFixture()
		f.tester.outcome = &domain.TestOutcome{Passed: false, Log: "3 notebooks failed"}

		run, err := f.controller().Run(context.Background(), false)
		require.Error(t, err)
		assert.ErrorIs(t, err, rocketerrors.ErrVerifyFailed)

		assert.Equal(t, constants.RunStatusVerifyFailed, run.Status)
		assert.False(t, run.Published)
		assert.Zero(t, f.publisher.calls.Load(), "publish must never run after a failed verification")
		assert.Zero(t, f.releaser.calls.Load())

		// Both stages still ran to completion: the report is attached.
		require.NotNil(t, run.Verify)
		assert.NotNil(t, run.Verify.Tests)
		assert.NotNil(t, run.Verify.Report)
	})

	t.Run("failed package validation gates the publish", func(t *testing.T) {
		t.Parallel()

		f := passingFixture()
		f.validator.report = &domain.ValidationReport{
			AllPassed: false,
			Results: []domain.ReconciliationResult{{
				Domain:  "python",
				Status:  constants.ReconciliationIncomplete,
				Missing: []domain.MissingPackage{{Name: "gdal", Sources: []string{"env.yml"}}},
			}},
		}

		run, err := f.controller().Run(context.Background(), false)
		require.ErrorIs(t, err, rocketerrors.ErrVerifyFailed)
		assert.Equal(t, constants.RunStatusVerifyFailed, run.Status)
		assert.Zero(t, f.publisher.calls.Load())
		assert.Equal(t, int32(1), f.tester.calls.Load(), "test stage still runs when validation fails")
	})

	t.Run("snapshot failure fails verification even with passing tests", func(t *testing.T) {
		t.Parallel()

		f := passingFixture()
		f.validator.report = nil
		f.validator.err = rocketerrors.Wrap(rocketerrors.ErrSnapshotUnavailable, "domain \"python\"")

		run, err := f.controller().Run(context.Background(), false)
		require.ErrorIs(t, err, rocketerrors.ErrVerifyFailed)
		assert.ErrorIs(t, err, rocketerrors.ErrSnapshotUnavailable)
		assert.Equal(t, constants.RunStatusVerifyFailed, run.Status)
		assert.Zero(t, f.publisher.calls.Load())
	})

	t.Run("bypass skips verification and the release record", func(t *testing.T) {
		t.Parallel()

		f := passingFixture()
		run, err := f.controller().Run(context.Background(), true)
		require.NoError(t, err)

		assert.Equal(t, constants.RunStatusReleased, run.Status)
		assert.True(t, run.VerifyBypassed)
		assert.True(t, run.Published)
		assert.False(t, run.ReleaseCreated)
		assert.Nil(t, run.Verify)

		assert.Zero(t, f.tester.calls.Load(), "bypassed run must not run tests")
		assert.Zero(t, f.validator.calls.Load(), "bypassed run must not validate packages")
		assert.Equal(t, int32(1), f.publisher.calls.Load())
		assert.Zero(t, f.releaser.calls.Load(), "bypassed run must not create a release record")

		// pending -> building -> publishing -> released
		require.Len(t, run.Transitions, 3)
		assert.Equal(t, constants.RunStatusPublishing, run.Transitions[1].ToStatus)
	})

	t.Run("publish failure is terminal", func(t *testing.T) {
		t.Parallel()

		f := passingFixture()
		f.publisher.err = rocketerrors.ErrPublishFailed

		run, err := f.controller().Run(context.Background(), false)
		require.ErrorIs(t, err, rocketerrors.ErrPublishFailed)
		assert.Equal(t, constants.RunStatusPublishFailed, run.Status)
		assert.False(t, run.Published)
		assert.Zero(t, f.releaser.calls.Load())
	})

	t.Run("release failure leaves a published run pending", func(t *testing.T) {
		t.Parallel()

		f := passingFixture()
		f.releaser.err = testutil.ErrMockRelease

		run, err := f.controller().Run(context.Background(), false)
		require.ErrorIs(t, err, rocketerrors.ErrReleaseCreationFailed)

		assert.Equal(t, constants.RunStatusReleasePending, run.Status)
		assert.True(t, run.Published, "publish outcome survives a release failure")
		assert.False(t, run.ReleaseCreated)
		assert.Nil(t, run.CompletedAt, "release pending is not terminal")
	})

	t.Run("nil tester skips the test stage with a passing outcome", func(t *testing.T) {
		t.Parallel()

		f := passingFixture()
		f.tester = nil
		c := pipeline.NewController(f.builder, nil, f.validator, f.publisher, f.releaser, nil)

		run, err := c.Run(context.Background(), false)
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusReleased, run.Status)
		require.NotNil(t, run.Verify.Tests)
		assert.True(t, run.Verify.Tests.Passed)
	})

	t.Run("run state is persisted after every transition", func(t *testing.T) {
		t.Parallel()

		f := passingFixture()
		store, err := pipeline.NewFileStore(t.TempDir())
		require.NoError(t, err)
		c := pipeline.NewController(f.builder, f.tester, f.validator, f.publisher, f.releaser, store)

		run, err := c.Run(context.Background(), false)
		require.NoError(t, err)

		saved, err := store.Get(context.Background(), run.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusReleased, saved.Status)
		assert.Len(t, saved.Transitions, 5)
		assert.Equal(t, constants.RunSchemaVersion, saved.SchemaVersion)
	})
}
