package constants

// RunStatus represents the state of a pipeline run in the rocketgate state machine.
// Status values use snake_case for JSON serialization compatibility.
type RunStatus string

// Run status constants define the valid states a pipeline run can be in.
// These follow the gated release state machine:
//
//	Pending → Building
//	Building → Verifying, Publishing (bypass), BuildFailed
//	Verifying → Publishing, VerifyFailed
//	Publishing → ReleasePending, Released (bypass), PublishFailed
//	ReleasePending → Released
const (
	// RunStatusPending indicates a run has been created but not yet started.
	RunStatusPending RunStatus = "pending"

	// RunStatusBuilding indicates the container artifact is being built.
	RunStatusBuilding RunStatus = "building"

	// RunStatusVerifying indicates the verification stages (notebook tests
	// and package validation) are running against the built artifact.
	RunStatusVerifying RunStatus = "verifying"

	// RunStatusPublishing indicates the artifact is being pushed to the registry.
	RunStatusPublishing RunStatus = "publishing"

	// RunStatusReleasePending indicates the artifact was published and the
	// release record (pinned manifests + validation report) is being assembled.
	RunStatusReleasePending RunStatus = "release_pending"

	// RunStatusReleased indicates the run finished. For gated runs a release
	// record exists; for bypassed runs no record is created because there is
	// no validation evidence to attach.
	RunStatusReleased RunStatus = "released"

	// RunStatusBuildFailed indicates the artifact could not be produced.
	RunStatusBuildFailed RunStatus = "build_failed"

	// RunStatusVerifyFailed indicates at least one verification stage failed.
	// The artifact is never published from this state.
	RunStatusVerifyFailed RunStatus = "verify_failed"

	// RunStatusPublishFailed indicates the publish step failed after
	// verification succeeded. No release record is produced.
	RunStatusPublishFailed RunStatus = "publish_failed"
)

// String returns the string representation of the RunStatus.
// This implements fmt.Stringer for convenient logging and debugging.
func (s RunStatus) String() string {
	return string(s)
}

// ReconciliationStatus represents the outcome of reconciling one dependency
// domain against the installed-package snapshot.
type ReconciliationStatus string

// Reconciliation status constants.
const (
	// ReconciliationComplete indicates every declared package was found in
	// the snapshot. A domain with zero declared packages is vacuously complete.
	ReconciliationComplete ReconciliationStatus = "complete"

	// ReconciliationIncomplete indicates one or more declared packages were
	// not found in the snapshot.
	ReconciliationIncomplete ReconciliationStatus = "incomplete"
)

// String returns the string representation of the ReconciliationStatus.
func (s ReconciliationStatus) String() string {
	return string(s)
}
