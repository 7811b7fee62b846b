// Package config provides configuration management for rocketgate with
// layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (ROCKETGATE_* prefix)
//  3. Project config (.rocketgate/config.yaml)
//  4. Global config (~/.rocketgate/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Config is the root configuration structure for rocketgate.
type Config struct {
	// Build contains settings for the artifact build stage.
	Build BuildConfig `yaml:"build" mapstructure:"build"`

	// Test contains settings for the image test-suite stage.
	Test TestConfig `yaml:"test" mapstructure:"test"`

	// Publish contains settings for pushing the artifact to its registry.
	Publish PublishConfig `yaml:"publish" mapstructure:"publish"`

	// Release contains settings for release record creation.
	Release ReleaseConfig `yaml:"release" mapstructure:"release"`

	// Domains lists the dependency domains validated during the verify
	// stage. Order here is report order.
	Domains []DomainConfig `yaml:"domains" mapstructure:"domains"`
}

// BuildConfig contains settings for the build stage.
type BuildConfig struct {
	// Command is the shell command that builds the artifact. Its stdout
	// must end with the artifact identifier on the last line.
	Command string `yaml:"command" mapstructure:"command"`

	// WorkDir is the directory the build command runs in.
	// Default: current directory
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`

	// Timeout is the maximum duration for the build command.
	// Default: 90 minutes
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// TestConfig contains settings for the test-suite half of the verify stage.
type TestConfig struct {
	// Command is the shell command that runs the image test suite against
	// the built artifact. The artifact identifier is exported to it as
	// ROCKETGATE_ARTIFACT.
	Command string `yaml:"command" mapstructure:"command"`

	// WorkDir is the directory the test command runs in.
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`

	// Timeout is the maximum duration for the test command.
	// Default: 45 minutes
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// PublishConfig contains settings for the publish stage.
type PublishConfig struct {
	// Command is the shell command that pushes the artifact.
	Command string `yaml:"command" mapstructure:"command"`

	// WorkDir is the directory the publish command runs in.
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`

	// Timeout is the maximum duration for the publish command.
	// Default: 20 minutes
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ReleaseConfig contains settings for release record creation.
type ReleaseConfig struct {
	// Dir is the directory release records and pinned manifests are
	// written to. Default: ~/.rocketgate/releases
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// DomainConfig describes one dependency domain (e.g. python/conda,
// r/cran) validated during verify.
type DomainConfig struct {
	// Name identifies the domain in reports and manifests.
	Name string `yaml:"name" mapstructure:"name"`

	// Ecosystem selects the parser and pin syntax ("conda" or "cran").
	Ecosystem string `yaml:"ecosystem" mapstructure:"ecosystem"`

	// Registry is the package repository pins resolve against.
	Registry string `yaml:"registry" mapstructure:"registry"`

	// Sources are glob patterns for the declared-dependency files.
	Sources []string `yaml:"sources" mapstructure:"sources"`

	// SnapshotCommand is the shell command that prints the installed
	// package inventory as JSON on stdout. It runs inside or against the
	// built artifact; the artifact identifier is exported to it as
	// ROCKETGATE_ARTIFACT.
	SnapshotCommand string `yaml:"snapshot_command" mapstructure:"snapshot_command"`

	// SnapshotTimeout is the maximum duration for the snapshot command.
	// Default: 10 minutes
	SnapshotTimeout time.Duration `yaml:"snapshot_timeout" mapstructure:"snapshot_timeout"`

	// PinnedFile is the filename of the emitted pinned manifest.
	// Default: derived from the ecosystem.
	PinnedFile string `yaml:"pinned_file" mapstructure:"pinned_file"`

	// DisallowedLibPrefix drops snapshot entries installed under this
	// library path prefix (r domains only; bundled library trees are
	// never pinned).
	DisallowedLibPrefix string `yaml:"disallowed_lib_prefix" mapstructure:"disallowed_lib_prefix"`
}
