package config

import (
	"fmt"

	"github.com/nmfs-opensci/rocketgate/internal/errors"
)

// validEcosystems are the ecosystems a domain may declare.
//
//nolint:gochecknoglobals // Read-only lookup table
var validEcosystems = map[string]bool{
	"conda": true,
	"cran":  true,
}

// Validate checks a Config for structural problems. It returns a wrapped
// sentinel error naming the first offending field.
//
// Stage commands other than build may be empty: a missing test command
// skips the test half of verify, and a missing publish command fails fast
// at execution time with ErrCommandNotConfigured. The build command is
// required because nothing downstream works without it.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateStages(cfg); err != nil {
		return err
	}

	for i := range cfg.Domains {
		if err := validateDomain(&cfg.Domains[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateStages checks the per-stage settings.
func validateStages(cfg *Config) error {
	if cfg.Build.Command == "" {
		return fmt.Errorf("%w: build.command is required", errors.ErrConfigInvalidStage)
	}
	if cfg.Build.Timeout < 0 {
		return fmt.Errorf("%w: build.timeout must not be negative", errors.ErrValueOutOfRange)
	}
	if cfg.Test.Timeout < 0 {
		return fmt.Errorf("%w: test.timeout must not be negative", errors.ErrValueOutOfRange)
	}
	if cfg.Publish.Timeout < 0 {
		return fmt.Errorf("%w: publish.timeout must not be negative", errors.ErrValueOutOfRange)
	}
	return nil
}

// validateDomain checks a single domain entry.
func validateDomain(d *DomainConfig) error {
	if d.Name == "" {
		return fmt.Errorf("%w: domain name is required", errors.ErrConfigInvalidDomain)
	}
	if !validEcosystems[d.Ecosystem] {
		return fmt.Errorf("%w: domain %q has unknown ecosystem %q",
			errors.ErrConfigInvalidDomain, d.Name, d.Ecosystem)
	}
	if len(d.Sources) == 0 {
		return fmt.Errorf("%w: domain %q has no sources", errors.ErrConfigInvalidDomain, d.Name)
	}
	if d.SnapshotCommand == "" {
		return fmt.Errorf("%w: domain %q has no snapshot_command", errors.ErrConfigInvalidDomain, d.Name)
	}
	if d.SnapshotTimeout < 0 {
		return fmt.Errorf("%w: domain %q snapshot_timeout must not be negative",
			errors.ErrValueOutOfRange, d.Name)
	}
	return nil
}
