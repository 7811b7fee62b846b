package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/nmfs-opensci/rocketgate/internal/constants"
	"github.com/nmfs-opensci/rocketgate/internal/errors"
)

// newViperInstance creates a new Viper instance with standard rocketgate
// configuration: environment variable prefix (ROCKETGATE_), key replacer,
// and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ROCKETGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file
// not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	applyDomainDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (ROCKETGATE_* prefix)
//  2. Project config (.rocketgate/config.yaml)
//  3. Global config (~/.rocketgate/config.yaml)
//  4. Built-in defaults
//
// The function returns an error only for actual configuration problems,
// not for missing config files (which are expected in many scenarios).
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	// Global config first (lower precedence)
	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	// Project config merges over global
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Dur("build.timeout", cfg.Build.Timeout).
		Dur("test.timeout", cfg.Test.Timeout).
		Int("domains", len(cfg.Domains)).
		Msg("configuration loaded and unmarshaled")

	return cfg, nil
}

// loadGlobalConfig attempts to load ~/.rocketgate/config.yaml.
// Returns nil if the file doesn't exist or home dir cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, ok := getGlobalConfigPathIfExists()
	if !ok {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// getGlobalConfigPathIfExists returns the global config path if it exists.
func getGlobalConfigPathIfExists() (string, bool) {
	globalDir, err := GlobalConfigDir()
	if err != nil {
		return "", false
	}

	globalConfigPath := filepath.Join(globalDir, "config.yaml")
	if _, err := os.Stat(globalConfigPath); err != nil {
		return "", false
	}

	return globalConfigPath, true
}

// loadProjectConfig attempts to load .rocketgate/config.yaml.
// Returns nil if the file doesn't exist.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied, allowing partial overrides.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}

	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
//
// projectConfigPath is the path to project-level config (higher priority).
// globalConfigPath is the path to global config (lower priority).
// Either path can be empty to skip that level.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// setDefaults configures all default values on the Viper instance.
// These defaults match the values from DefaultConfig().
// IMPORTANT: Keys must match the YAML tag names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	// Build defaults
	v.SetDefault("build.command", "")
	v.SetDefault("build.work_dir", "")
	v.SetDefault("build.timeout", constants.DefaultBuildTimeout.String())

	// Test defaults
	v.SetDefault("test.command", "")
	v.SetDefault("test.work_dir", "")
	v.SetDefault("test.timeout", constants.DefaultTestTimeout.String())

	// Publish defaults
	v.SetDefault("publish.command", "")
	v.SetDefault("publish.work_dir", "")
	v.SetDefault("publish.timeout", constants.DefaultPublishTimeout.String())

	// Release defaults
	v.SetDefault("release.dir", "")

	// Domain defaults
	v.SetDefault("domains", []map[string]any{})
}

// applyDomainDefaults fills per-domain fields viper defaults cannot reach
// (slice elements have no default keys).
func applyDomainDefaults(cfg *Config) {
	for i := range cfg.Domains {
		d := &cfg.Domains[i]
		if d.SnapshotTimeout == 0 {
			d.SnapshotTimeout = constants.DefaultSnapshotTimeout
		}
		if d.PinnedFile == "" {
			d.PinnedFile = DefaultPinnedFile(d.Ecosystem)
		}
	}
}

// applyOverrides merges non-zero override values into the config.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Build.Command != "" {
		cfg.Build.Command = overrides.Build.Command
	}
	if overrides.Build.WorkDir != "" {
		cfg.Build.WorkDir = overrides.Build.WorkDir
	}
	if overrides.Build.Timeout != 0 {
		cfg.Build.Timeout = overrides.Build.Timeout
	}

	if overrides.Test.Command != "" {
		cfg.Test.Command = overrides.Test.Command
	}
	if overrides.Test.WorkDir != "" {
		cfg.Test.WorkDir = overrides.Test.WorkDir
	}
	if overrides.Test.Timeout != 0 {
		cfg.Test.Timeout = overrides.Test.Timeout
	}

	if overrides.Publish.Command != "" {
		cfg.Publish.Command = overrides.Publish.Command
	}
	if overrides.Publish.WorkDir != "" {
		cfg.Publish.WorkDir = overrides.Publish.WorkDir
	}
	if overrides.Publish.Timeout != 0 {
		cfg.Publish.Timeout = overrides.Publish.Timeout
	}

	if overrides.Release.Dir != "" {
		cfg.Release.Dir = overrides.Release.Dir
	}

	// Domains replace wholesale: merging entries by position would
	// silently mis-pair overrides with the wrong domain.
	if len(overrides.Domains) > 0 {
		cfg.Domains = overrides.Domains
		applyDomainDefaults(cfg)
	}
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
