package config

import (
	"github.com/nmfs-opensci/rocketgate/internal/constants"
)

// DefaultConfig returns a Config populated with built-in defaults.
// These values match the defaults registered on the Viper instance in load.go.
func DefaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			Timeout: constants.DefaultBuildTimeout,
		},
		Test: TestConfig{
			Timeout: constants.DefaultTestTimeout,
		},
		Publish: PublishConfig{
			Timeout: constants.DefaultPublishTimeout,
		},
		Release: ReleaseConfig{},
	}
}

// DefaultPinnedFile returns the conventional pinned-manifest filename for
// an ecosystem. Used when a domain does not set pinned_file explicitly.
func DefaultPinnedFile(ecosystem string) string {
	switch ecosystem {
	case "conda":
		return "packages-python-pinned.yaml"
	case "cran":
		return "packages-r-pinned.R"
	default:
		return "packages-pinned.txt"
	}
}
