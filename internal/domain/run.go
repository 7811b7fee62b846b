package domain

import (
	"time"

	"github.com/nmfs-opensci/rocketgate/internal/constants"
)

// PipelineRun represents a single invocation of the gated release pipeline.
// It is created at build start and mutated only by the pipeline controller,
// strictly in sequence. Terminal once a failure state is reached or the
// release is created.
//
// Example JSON representation:
//
//	{
//	    "id": "a2f1c7d0-...",
//	    "status": "released",
//	    "artifact_id": "ghcr.io/nmfs-opensci/py-rocket:2026.08",
//	    "verify_bypassed": false,
//	    "published": true,
//	    "release_created": true,
//	    "transitions": [...],
//	    "schema_version": 1
//	}
type PipelineRun struct {
	// ID is the unique identifier for the run (UUID).
	ID string `json:"id"`

	// Status is the current state in the release state machine.
	Status constants.RunStatus `json:"status"`

	// ArtifactID is the handle of the built artifact (e.g., an image
	// reference). Held for the run's full lifetime; the artifact store's
	// retention contract is an external guarantee.
	ArtifactID string `json:"artifact_id,omitempty"`

	// VerifyBypassed records whether the operator skipped verification.
	// Bypassed runs never produce a release record.
	VerifyBypassed bool `json:"verify_bypassed"`

	// Verify holds the verification evidence for gated runs that reached
	// the verify stage. Nil for bypassed runs and runs that failed earlier.
	Verify *VerifyResult `json:"verify,omitempty"`

	// Manifests holds the pinned manifests emitted during verification,
	// carried forward to release record assembly. Nil for bypassed runs
	// and runs that failed before verification.
	Manifests []PinnedManifest `json:"manifests,omitempty"`

	// Published records whether the publish step succeeded.
	Published bool `json:"published"`

	// ReleaseCreated records whether the release record was assembled.
	ReleaseCreated bool `json:"release_created"`

	// CreatedAt is when the run was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the run was last modified.
	UpdatedAt time.Time `json:"updated_at"`

	// CompletedAt is when the run reached a terminal state (nil if still running).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Transitions is the audit trail of all state changes.
	Transitions []Transition `json:"transitions"`

	// SchemaVersion indicates the version of the PipelineRun struct schema.
	SchemaVersion int `json:"schema_version"`
}

// Transition records a single state change in a run's audit trail.
type Transition struct {
	// FromStatus is the state before the transition.
	FromStatus constants.RunStatus `json:"from_status"`

	// ToStatus is the state after the transition.
	ToStatus constants.RunStatus `json:"to_status"`

	// Timestamp is when the transition occurred (UTC).
	Timestamp time.Time `json:"timestamp"`

	// Reason is an optional explanation for the transition.
	Reason string `json:"reason,omitempty"`
}

// VerifyResult bundles the outcomes of the independent verification stages.
// Both stages run against the same immutable artifact; the controller joins
// them before deciding the verify outcome.
type VerifyResult struct {
	// Tests is the outcome of the external test execution stage.
	// Nil when the stage could not report a definite outcome.
	Tests *TestOutcome `json:"tests,omitempty"`

	// Report is the package validation report.
	// Nil when the snapshot could not be captured.
	Report *ValidationReport `json:"report,omitempty"`
}

// Passed reports whether every verification stage succeeded.
func (v *VerifyResult) Passed() bool {
	if v == nil || v.Tests == nil || v.Report == nil {
		return false
	}
	return v.Tests.Passed && v.Report.AllPassed
}

// TestOutcome is the result reported by the external test execution stage.
type TestOutcome struct {
	// Passed is the stage's definite pass/fail verdict.
	Passed bool `json:"passed"`

	// Log is the captured test output, attached for diagnosis.
	Log string `json:"log,omitempty"`

	// DurationMs is how long the stage ran, in milliseconds.
	DurationMs int64 `json:"duration_ms"`
}

// PinnedManifest is one emitted pinned-dependency document for a domain,
// re-executable by that domain's package manager without modification.
type PinnedManifest struct {
	// Domain is the dependency domain the manifest covers.
	Domain string `json:"domain"`

	// Ecosystem is the package manager the manifest targets.
	Ecosystem Ecosystem `json:"ecosystem"`

	// Filename is the conventional file name for the manifest
	// (e.g., "packages-r-pinned.R").
	Filename string `json:"filename"`

	// Content is the full manifest document.
	Content string `json:"content"`
}

// ReleaseRecord is the provenance record assembled for a published, gated
// run: pinned manifests plus the validation report plus the artifact handle.
type ReleaseRecord struct {
	// RunID is the pipeline run that produced this release.
	RunID string `json:"run_id"`

	// ArtifactID is the published artifact handle.
	ArtifactID string `json:"artifact_id"`

	// Manifests are the pinned-dependency documents, one per domain.
	Manifests []PinnedManifest `json:"manifests"`

	// Report is the validation report attached as release evidence.
	Report ValidationReport `json:"report"`

	// CreatedAt is when the record was assembled (UTC).
	CreatedAt time.Time `json:"created_at"`
}
