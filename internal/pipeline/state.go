// Package pipeline drives the gated release lifecycle for rocketgate.
//
// This file implements the run state machine, which enforces valid state
// transitions and maintains an audit trail of all status changes.
//
// Import rules:
//   - CAN import: internal/constants, internal/domain, internal/errors, std lib
//   - MUST NOT import: internal/cli
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/nmfs-opensci/rocketgate/internal/constants"
	"github.com/nmfs-opensci/rocketgate/internal/domain"
	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
)

// ValidTransitions defines all allowed state transitions in the run lifecycle.
// Format: from_status -> []to_statuses
//
// The state machine follows this flow:
//
//	Pending → Building
//	Building → Verifying, Publishing (bypass), BuildFailed
//	Verifying → Publishing, VerifyFailed
//	Publishing → ReleasePending, Released (bypass), PublishFailed
//	ReleasePending → Released
//
// Publishing is reachable only from Verifying or, on an explicit bypass,
// directly from Building. There is no edge into Publishing from a failed
// state: a failed verification can never be published.
//
//nolint:gochecknoglobals // Exported for testing and read-only lookup table
var ValidTransitions = map[constants.RunStatus][]constants.RunStatus{
	constants.RunStatusPending: {constants.RunStatusBuilding},
	constants.RunStatusBuilding: {
		constants.RunStatusVerifying,
		constants.RunStatusPublishing, // bypass path only
		constants.RunStatusBuildFailed,
	},
	constants.RunStatusVerifying: {constants.RunStatusPublishing, constants.RunStatusVerifyFailed},
	constants.RunStatusPublishing: {
		constants.RunStatusReleasePending,
		constants.RunStatusReleased, // bypass path only
		constants.RunStatusPublishFailed,
	},
	constants.RunStatusReleasePending: {constants.RunStatusReleased},
}

// terminalStatuses defines states where no further transitions are allowed.
// Terminal states are those NOT present as keys in ValidTransitions.
// MAINTENANCE: When adding new statuses, update both ValidTransitions and this map.
//
//nolint:gochecknoglobals // Read-only lookup table for terminal state checks
var terminalStatuses = map[constants.RunStatus]bool{
	constants.RunStatusReleased:      true,
	constants.RunStatusBuildFailed:   true,
	constants.RunStatusVerifyFailed:  true,
	constants.RunStatusPublishFailed: true,
}

// failureStatuses defines terminal states that indicate a failed run.
//
//nolint:gochecknoglobals // Read-only lookup table for failure state checks
var failureStatuses = map[constants.RunStatus]bool{
	constants.RunStatusBuildFailed:   true,
	constants.RunStatusVerifyFailed:  true,
	constants.RunStatusPublishFailed: true,
}

// IsValidTransition checks if a transition from one status to another is allowed.
// Returns false for transitions from terminal states or to the same state.
func IsValidTransition(from, to constants.RunStatus) bool {
	// Same status is not a valid transition
	if from == to {
		return false
	}

	validTargets, exists := ValidTransitions[from]
	if !exists {
		return false // Terminal state or unknown state
	}
	for _, target := range validTargets {
		if target == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus returns true for states where no further transitions are allowed.
// Terminal states: Released, BuildFailed, VerifyFailed, PublishFailed
func IsTerminalStatus(status constants.RunStatus) bool {
	return terminalStatuses[status]
}

// IsFailureStatus returns true for terminal states that indicate a failed run.
func IsFailureStatus(status constants.RunStatus) bool {
	return failureStatuses[status]
}

// GetValidTargetStatuses returns all valid target statuses for a given status.
// Returns nil for terminal states or unknown statuses.
func GetValidTargetStatuses(from constants.RunStatus) []constants.RunStatus {
	targets, exists := ValidTransitions[from]
	if !exists {
		return nil
	}
	// Return a copy to prevent modification of the original slice
	result := make([]constants.RunStatus, len(targets))
	copy(result, targets)
	return result
}

// Transition validates and applies a state transition to the run.
// It records the transition in the run's history and updates timestamps.
// The caller is responsible for persisting the updated run.
//
// Returns an error if:
//   - ctx is canceled
//   - run is nil
//   - The transition is invalid (returns wrapped ErrInvalidTransition)
func Transition(ctx context.Context, run *domain.PipelineRun, to constants.RunStatus, reason string) error {
	// Check for cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if run == nil {
		return fmt.Errorf("%w: run is nil", rocketerrors.ErrInvalidTransition)
	}

	from := run.Status

	if !IsValidTransition(from, to) {
		if targets := GetValidTargetStatuses(from); len(targets) > 0 {
			return fmt.Errorf("%w: cannot transition from %s to %s (valid targets: %v)",
				rocketerrors.ErrInvalidTransition, from, to, targets)
		}
		return fmt.Errorf("%w: cannot transition from terminal state %s",
			rocketerrors.ErrInvalidTransition, from)
	}

	now := time.Now().UTC()

	run.Transitions = append(run.Transitions, domain.Transition{
		FromStatus: from,
		ToStatus:   to,
		Timestamp:  now,
		Reason:     reason,
	})

	run.Status = to
	run.UpdatedAt = now

	if IsTerminalStatus(to) {
		run.CompletedAt = &now
	}

	return nil
}
