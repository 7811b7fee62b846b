// Package testutil provides testing utilities for rocketgate.
//
// This package contains mock errors and test helpers used across test files.
// It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors for testing purposes.
// These errors are used to simulate various failure scenarios in tests.
var (
	// ErrMockBuildBroken simulates a failed artifact build (used in tests).
	ErrMockBuildBroken = errors.New("docker build exploded")

	// ErrMockTestRunner simulates a test runner that could not start (used in tests).
	ErrMockTestRunner = errors.New("test runner unavailable")

	// ErrMockSnapshot simulates an unreachable package environment (used in tests).
	ErrMockSnapshot = errors.New("cannot query package environment")

	// ErrMockRegistry simulates a registry push failure (used in tests).
	ErrMockRegistry = errors.New("registry rejected push")

	// ErrMockRelease simulates a release record write failure (used in tests).
	ErrMockRelease = errors.New("release store unavailable")
)
