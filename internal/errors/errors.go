// Package errors provides centralized error handling for rocketgate.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrBuildFailed indicates the container artifact could not be produced.
	// Fatal for the run; no further stages execute.
	ErrBuildFailed = errors.New("artifact build failed")

	// ErrSnapshotUnavailable indicates the installed-package listing could
	// not be obtained from the built artifact. Package validation cannot
	// proceed without it, so it contributes to a verify failure.
	ErrSnapshotUnavailable = errors.New("package snapshot unavailable")

	// ErrTestExecutionFailed indicates the external notebook test stage
	// reported failure. Contributes to a verify failure.
	ErrTestExecutionFailed = errors.New("test execution failed")

	// ErrPackageValidationFailed indicates one or more dependency domains
	// have declared packages missing from the snapshot. The error context
	// always carries the itemized missing-package list.
	ErrPackageValidationFailed = errors.New("package validation failed")

	// ErrVerifyFailed indicates at least one verification stage failed.
	// Publishing is never attempted from this state.
	ErrVerifyFailed = errors.New("verification failed")

	// ErrPublishFailed indicates the publish step failed after successful
	// verification. The artifact is considered unpublished.
	ErrPublishFailed = errors.New("publish failed")

	// ErrReleaseCreationFailed indicates the publish succeeded but the
	// release record could not be assembled. The artifact IS published;
	// callers must surface this partial success distinctly.
	ErrReleaseCreationFailed = errors.New("release record creation failed")

	// ErrInvalidTransition indicates an attempt to make an invalid state transition.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrRunNil indicates a nil pipeline run was passed to a state transition.
	ErrRunNil = errors.New("pipeline run is nil")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidDomain indicates an invalid dependency domain configuration value.
	ErrConfigInvalidDomain = errors.New("invalid domain configuration")

	// ErrConfigInvalidStage indicates an invalid pipeline stage configuration value.
	ErrConfigInvalidStage = errors.New("invalid stage configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrInvalidEcosystem indicates an unknown package ecosystem was specified.
	ErrInvalidEcosystem = errors.New("invalid ecosystem")

	// ErrSourceNotFound indicates a declared-dependency source file does not exist.
	ErrSourceNotFound = errors.New("dependency source not found")

	// ErrSourceParse indicates a declared-dependency source file could not be parsed.
	ErrSourceParse = errors.New("dependency source parse error")

	// ErrSnapshotParse indicates an installed-package snapshot could not be parsed.
	ErrSnapshotParse = errors.New("snapshot parse error")

	// ErrManifestParse indicates a pinned manifest could not be parsed.
	ErrManifestParse = errors.New("pinned manifest parse error")

	// ErrCommandFailed indicates that an external command execution failed.
	ErrCommandFailed = errors.New("command failed")

	// ErrCommandNotConfigured indicates a required stage command is missing
	// from the configuration.
	ErrCommandNotConfigured = errors.New("command not configured")

	// ErrRunNotFound indicates no persisted pipeline run was found.
	ErrRunNotFound = errors.New("pipeline run not found")

	// ErrLockTimedOut indicates a store lock could not be acquired in time,
	// usually because another rocketgate process holds it.
	ErrLockTimedOut = errors.New("store lock timed out")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrValueOutOfRange indicates that a value is outside the allowed range.
	ErrValueOutOfRange = errors.New("value out of range")
)
