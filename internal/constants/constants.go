// Package constants provides centralized constant values used throughout rocketgate.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names and paths used by rocketgate for organizing data.
const (
	// RocketgateHome is the hidden directory name where rocketgate stores all its data.
	// This directory is created in the user's home directory.
	RocketgateHome = ".rocketgate"

	// ReleasesDir is the directory name where release records are stored.
	ReleasesDir = "releases"

	// RunsDir is the directory name where pipeline run state is stored.
	RunsDir = "runs"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// RunFileName is the name of the JSON file that stores pipeline run state.
	RunFileName = "run.json"

	// ReleaseRecordFileName is the name of the JSON file that stores the
	// release record for a published run.
	ReleaseRecordFileName = "release.json"

	// LockFileName is the name of the per-directory lock file guarding
	// concurrent store writes.
	LockFileName = ".lock"

	// ValidationReportFileName is the name of the human-readable validation
	// report attached to a release.
	ValidationReportFileName = "validation-report.txt"
)

// Logging configuration.
const (
	// CLILogFileName is the name of the rotating CLI log file.
	CLILogFileName = "rocketgate.log"

	// LogMaxSizeMB is the maximum size of a log file before rotation, in megabytes.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files to retain.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum age of rotated log files, in days.
	LogMaxAgeDays = 30

	// LogCompress enables gzip compression of rotated log files.
	LogCompress = true
)

// Timeout defaults for external pipeline stages. Each stage owns its own
// cancellation; the controller never times out a stage on its own.
const (
	// DefaultBuildTimeout is the default maximum duration for the artifact build.
	DefaultBuildTimeout = 90 * time.Minute

	// DefaultTestTimeout is the default maximum duration for the notebook test stage.
	DefaultTestTimeout = 45 * time.Minute

	// DefaultPublishTimeout is the default maximum duration for the publish stage.
	DefaultPublishTimeout = 20 * time.Minute

	// DefaultSnapshotTimeout is the default maximum duration for capturing an
	// installed-package snapshot from the built artifact.
	DefaultSnapshotTimeout = 10 * time.Minute
)

// Package metadata markers.
const (
	// PriorityBundled marks installed packages that ship with the base
	// environment (R "Priority: base"). Bundled entries are removed from a
	// snapshot before reconciliation: they are assumed always present and
	// are never pinned.
	PriorityBundled = "base"

	// CommitRefLength is the length of the abbreviated commit reference used
	// in source-control pin directives.
	CommitRefLength = 7
)

// Schema version constants for data migration support.
const (
	// RunSchemaVersion is the current version of the pipeline run JSON schema.
	RunSchemaVersion = 1
)
