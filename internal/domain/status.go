package domain

import "github.com/nmfs-opensci/rocketgate/internal/constants"

// Re-export RunStatus and ReconciliationStatus from constants.
// This allows consumers to import domain types and status types together.
//
// Example usage:
//
//	import "github.com/nmfs-opensci/rocketgate/internal/domain"
//
//	run := domain.PipelineRun{
//	    Status: domain.RunStatusPending,
//	}
type (
	// RunStatus represents the state of a run in the release state machine.
	RunStatus = constants.RunStatus

	// ReconciliationStatus represents the outcome of reconciling one domain.
	ReconciliationStatus = constants.ReconciliationStatus
)

// Re-export RunStatus constants for convenience.
// These mirror the values in internal/constants/status.go.
const (
	// RunStatusPending indicates a run has been created but not yet started.
	RunStatusPending = constants.RunStatusPending

	// RunStatusBuilding indicates the container artifact is being built.
	RunStatusBuilding = constants.RunStatusBuilding

	// RunStatusVerifying indicates the verification stages are running.
	RunStatusVerifying = constants.RunStatusVerifying

	// RunStatusPublishing indicates the artifact is being published.
	RunStatusPublishing = constants.RunStatusPublishing

	// RunStatusReleasePending indicates the release record is being assembled.
	RunStatusReleasePending = constants.RunStatusReleasePending

	// RunStatusReleased indicates the run finished successfully.
	RunStatusReleased = constants.RunStatusReleased

	// RunStatusBuildFailed indicates the artifact could not be produced.
	RunStatusBuildFailed = constants.RunStatusBuildFailed

	// RunStatusVerifyFailed indicates at least one verification stage failed.
	RunStatusVerifyFailed = constants.RunStatusVerifyFailed

	// RunStatusPublishFailed indicates the publish step failed.
	RunStatusPublishFailed = constants.RunStatusPublishFailed
)

// Re-export ReconciliationStatus constants for convenience.
const (
	// ReconciliationComplete indicates every declared package was found.
	ReconciliationComplete = constants.ReconciliationComplete

	// ReconciliationIncomplete indicates one or more declared packages are missing.
	ReconciliationIncomplete = constants.ReconciliationIncomplete
)
