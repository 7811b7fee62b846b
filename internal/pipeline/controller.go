package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nmfs-opensci/rocketgate/internal/constants"
	"github.com/nmfs-opensci/rocketgate/internal/domain"
	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
)

// Controller drives a single run through the release state machine:
// Build, Verify (tests and package validation in parallel), Publish,
// Release. Publish is gated on verification unless the operator explicitly
// bypasses it, and bypassed runs never produce a release record.
//
// The controller mutates the run strictly in sequence; the only internal
// concurrency is the verify join, whose stages write to disjoint fields.
type Controller struct {
	builder   Builder
	tester    Tester
	validator Validator
	publisher Publisher
	releaser  Releaser
	store     RunStore
}

// NewController wires the pipeline collaborators. tester may be nil when no
// test command is configured; the test half of verify is then skipped with
// a passing outcome. store may be nil to skip run persistence.
func NewController(builder Builder, tester Tester, validator Validator, publisher Publisher, releaser Releaser, store RunStore) *Controller {
	return &Controller{
		builder:   builder,
		tester:    tester,
		validator: validator,
		publisher: publisher,
		releaser:  releaser,
		store:     store,
	}
}

// NewRun creates a fresh pending run.
func NewRun() *domain.PipelineRun {
	now := time.Now().UTC()
	return &domain.PipelineRun{
		ID:            uuid.NewString(),
		Status:        constants.RunStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		SchemaVersion: constants.RunSchemaVersion,
	}
}

// Run executes the full pipeline. The returned run always reflects the
// final state, including on error; callers inspect run.Status for the
// failure stage and the error for the cause.
//
// With bypassVerify set the run goes Building -> Publishing directly, the
// bypass is recorded on the run, and no release record is created.
func (c *Controller) Run(ctx context.Context, bypassVerify bool) (*domain.PipelineRun, error) {
	log := zerolog.Ctx(ctx)
	run := NewRun()
	log.Info().Str("run_id", run.ID).Bool("bypass_verify", bypassVerify).Msg("starting pipeline run")

	if err := c.build(ctx, run); err != nil {
		return run, err
	}

	if bypassVerify {
		run.VerifyBypassed = true
		if err := c.transition(ctx, run, constants.RunStatusPublishing, "verification bypassed by operator"); err != nil {
			return run, err
		}
		log.Warn().Str("run_id", run.ID).Msg("verification bypassed; artifact will be published unverified")
	} else {
		if err := c.verify(ctx, run); err != nil {
			return run, err
		}
	}

	if err := c.publish(ctx, run); err != nil {
		return run, err
	}

	if run.VerifyBypassed {
		// Bypassed runs terminate at published: without verification
		// evidence there is nothing to assemble a release record from.
		if err := c.transition(ctx, run, constants.RunStatusReleased, "published without release record (bypass)"); err != nil {
			return run, err
		}
		log.Info().Str("run_id", run.ID).Msg("bypassed run published")
		return run, nil
	}

	if err := c.release(ctx, run); err != nil {
		return run, err
	}

	log.Info().Str("run_id", run.ID).Str("artifact_id", run.ArtifactID).Msg("pipeline run released")
	return run, nil
}

// build runs the build stage and records the artifact identifier.
func (c *Controller) build(ctx context.Context, run *domain.PipelineRun) error {
	if err := c.transition(ctx, run, constants.RunStatusBuilding, ""); err != nil {
		return err
	}

	artifactID, err := c.builder.Build(ctx)
	if err != nil {
		if terr := c.transition(ctx, run, constants.RunStatusBuildFailed, err.Error()); terr != nil {
			return terr
		}
		return err
	}

	run.ArtifactID = artifactID
	return c.persist(ctx, run)
}

// verify runs the two verification stages in parallel and joins their
// outcomes. Both stages always run to completion so the report can name
// every failure; the goroutines store their results and return nil to keep
// one stage's failure from canceling the other.
func (c *Controller) verify(ctx context.Context, run *domain.PipelineRun) error {
	if err := c.transition(ctx, run, constants.RunStatusVerifying, ""); err != nil {
		return err
	}

	var g errgroup.Group
	var mu sync.Mutex

	var tests *domain.TestOutcome
	var testErr error
	var report *domain.ValidationReport
	var manifests []domain.PinnedManifest
	var valErr error

	g.Go(func() error {
		outcome, err := c.runTests(ctx, run.ArtifactID)
		mu.Lock()
		tests, testErr = outcome, err
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		r, m, err := c.validator.Validate(ctx, run.ArtifactID)
		mu.Lock()
		report, manifests, valErr = r, m, err
		mu.Unlock()
		return nil
	})

	// Always nil: the goroutines store their errors for the join below.
	_ = g.Wait()

	run.Verify = &domain.VerifyResult{Tests: tests, Report: report}
	run.Manifests = manifests

	if testErr != nil || valErr != nil || !run.Verify.Passed() {
		cause := stderrors.Join(testErr, valErr)
		reason := "verification failed"
		if cause != nil {
			reason = cause.Error()
		}
		if terr := c.transition(ctx, run, constants.RunStatusVerifyFailed, reason); terr != nil {
			return terr
		}
		if cause != nil {
			return fmt.Errorf("%w: %w", rocketerrors.ErrVerifyFailed, cause)
		}
		return rocketerrors.Wrap(rocketerrors.ErrVerifyFailed, verifyFailureDetail(run.Verify))
	}

	return c.transition(ctx, run, constants.RunStatusPublishing, "")
}

// runTests dispatches to the tester, skipping with a passing outcome when
// no tester is configured.
func (c *Controller) runTests(ctx context.Context, artifactID string) (*domain.TestOutcome, error) {
	if c.tester == nil {
		zerolog.Ctx(ctx).Warn().Msg("no test command configured; skipping test stage")
		return &domain.TestOutcome{Passed: true, Log: "test stage not configured; skipped"}, nil
	}
	return c.tester.Test(ctx, artifactID)
}

// publish runs the publish stage.
func (c *Controller) publish(ctx context.Context, run *domain.PipelineRun) error {
	if err := c.publisher.Publish(ctx, run.ArtifactID); err != nil {
		if terr := c.transition(ctx, run, constants.RunStatusPublishFailed, err.Error()); terr != nil {
			return terr
		}
		return err
	}

	run.Published = true
	return c.persist(ctx, run)
}

// release assembles and persists the release record for a gated run.
// A release failure leaves the run in ReleasePending with the artifact
// already published: the record can be re-created without re-publishing.
func (c *Controller) release(ctx context.Context, run *domain.PipelineRun) error {
	if err := c.transition(ctx, run, constants.RunStatusReleasePending, ""); err != nil {
		return err
	}

	record := &domain.ReleaseRecord{
		RunID:      run.ID,
		ArtifactID: run.ArtifactID,
		Manifests:  run.Manifests,
		CreatedAt:  time.Now().UTC(),
	}
	if run.Verify != nil && run.Verify.Report != nil {
		record.Report = *run.Verify.Report
	}

	if err := c.releaser.CreateRelease(ctx, record); err != nil {
		// No failure transition: the publish already happened and the run
		// stays release-pending for a retry.
		if perr := c.persist(ctx, run); perr != nil {
			return perr
		}
		return rocketerrors.Wrap(rocketerrors.ErrReleaseCreationFailed, err.Error())
	}

	run.ReleaseCreated = true
	return c.transition(ctx, run, constants.RunStatusReleased, "")
}

// transition applies a state change and persists the run.
func (c *Controller) transition(ctx context.Context, run *domain.PipelineRun, to constants.RunStatus, reason string) error {
	if err := Transition(ctx, run, to, reason); err != nil {
		return err
	}
	return c.persist(ctx, run)
}

// persist saves the run if a store is configured.
func (c *Controller) persist(ctx context.Context, run *domain.PipelineRun) error {
	if c.store == nil {
		return nil
	}
	return c.store.Save(ctx, run)
}

// verifyFailureDetail summarizes which verification stage failed.
func verifyFailureDetail(v *domain.VerifyResult) string {
	switch {
	case v.Tests != nil && !v.Tests.Passed && v.Report != nil && !v.Report.AllPassed:
		return "tests failed and package validation failed"
	case v.Tests != nil && !v.Tests.Passed:
		return "tests failed"
	case v.Report != nil && !v.Report.AllPassed:
		return "package validation failed"
	default:
		return "verification incomplete"
	}
}
