package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmfs-opensci/rocketgate/internal/errors"
)

// TestSentinelErrors_AreDistinct verifies every sentinel is a distinct error
// value so errors.Is() cannot confuse categories.
func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		errors.ErrBuildFailed,
		errors.ErrSnapshotUnavailable,
		errors.ErrTestExecutionFailed,
		errors.ErrPackageValidationFailed,
		errors.ErrVerifyFailed,
		errors.ErrPublishFailed,
		errors.ErrReleaseCreationFailed,
		errors.ErrInvalidTransition,
		errors.ErrConfigNil,
		errors.ErrInvalidOutputFormat,
		errors.ErrInvalidEcosystem,
		errors.ErrSourceNotFound,
		errors.ErrSourceParse,
		errors.ErrSnapshotParse,
		errors.ErrManifestParse,
		errors.ErrCommandFailed,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.NotErrorIs(t, a, b, "sentinel %v must not match %v", a, b)
		}
	}
}

// TestSentinelErrors_MatchThroughWrapping verifies errors.Is() works through
// fmt.Errorf %w chains.
func TestSentinelErrors_MatchThroughWrapping(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("stage publish: %w", errors.ErrPublishFailed)
	assert.ErrorIs(t, wrapped, errors.ErrPublishFailed)

	doubleWrapped := fmt.Errorf("run failed: %w", wrapped)
	assert.ErrorIs(t, doubleWrapped, errors.ErrPublishFailed)
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("returns nil for nil error", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, errors.Wrap(nil, "context"))
	})

	t.Run("adds context and preserves chain", func(t *testing.T) {
		t.Parallel()
		err := errors.Wrap(errors.ErrSnapshotUnavailable, "capturing conda snapshot")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrSnapshotUnavailable)
		assert.Equal(t, "capturing conda snapshot: package snapshot unavailable", err.Error())
	})
}

func TestWrapf(t *testing.T) {
	t.Parallel()

	t.Run("returns nil for nil error", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, errors.Wrapf(nil, "source %s", "env-test.yml"))
	})

	t.Run("formats context and preserves chain", func(t *testing.T) {
		t.Parallel()
		err := errors.Wrapf(errors.ErrSourceParse, "source %s", "env-test.yml")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrSourceParse)
		assert.Equal(t, "source env-test.yml: dependency source parse error", err.Error())
	})

	t.Run("joined errors remain individually checkable", func(t *testing.T) {
		t.Parallel()
		joined := stderrors.Join(errors.ErrTestExecutionFailed, errors.ErrPackageValidationFailed)
		err := errors.Wrap(joined, "verify stage")
		assert.ErrorIs(t, err, errors.ErrTestExecutionFailed)
		assert.ErrorIs(t, err, errors.ErrPackageValidationFailed)
	})
}
