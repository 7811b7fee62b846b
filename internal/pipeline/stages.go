package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nmfs-opensci/rocketgate/internal/config"
	"github.com/nmfs-opensci/rocketgate/internal/domain"
	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
)

// Builder produces the immutable artifact the rest of the pipeline operates on.
type Builder interface {
	// Build builds the artifact and returns its identifier.
	Build(ctx context.Context) (string, error)
}

// Tester runs the image test suite against a built artifact.
type Tester interface {
	// Test returns a definite pass/fail outcome, or an error when no
	// definite outcome could be obtained (timeout, runner failure).
	Test(ctx context.Context, artifactID string) (*domain.TestOutcome, error)
}

// Validator reconciles declared dependencies against the artifact's
// installed packages and emits the pinned manifests.
type Validator interface {
	// Validate returns the validation report and the pinned manifests for
	// every configured domain. An error means the snapshot could not be
	// captured, which is an infrastructure failure, not a validation verdict.
	Validate(ctx context.Context, artifactID string) (*domain.ValidationReport, []domain.PinnedManifest, error)
}

// Publisher pushes a verified artifact to its registry.
type Publisher interface {
	Publish(ctx context.Context, artifactID string) error
}

// Releaser assembles the durable release record for a published run.
type Releaser interface {
	CreateRelease(ctx context.Context, record *domain.ReleaseRecord) error
}

// runStageCommand dispatches to live streaming when the runner supports it
// and a live writer is attached; otherwise it runs with captured output only.
func runStageCommand(ctx context.Context, runner CommandRunner, workDir, command string, env []string, liveOut io.Writer) (stdout, stderr string, exitCode int, err error) {
	if lr, ok := runner.(LiveOutputRunner); ok && liveOut != nil {
		return lr.RunWithLiveOutput(ctx, workDir, command, env, liveOut)
	}
	return runner.Run(ctx, workDir, command, env)
}

// CommandBuilder implements Builder by running the configured build command.
// The last non-empty stdout line is taken as the artifact identifier.
type CommandBuilder struct {
	runner  CommandRunner
	cfg     config.BuildConfig
	liveOut io.Writer
}

// NewCommandBuilder creates a builder backed by the configured shell command.
func NewCommandBuilder(runner CommandRunner, cfg config.BuildConfig) *CommandBuilder {
	return &CommandBuilder{runner: runner, cfg: cfg}
}

// WithLiveOutput streams build command output to w as it is produced.
// Builds are the longest-running stage; streaming keeps them observable.
func (b *CommandBuilder) WithLiveOutput(w io.Writer) *CommandBuilder {
	b.liveOut = w
	return b
}

// Build runs the build command and extracts the artifact identifier.
func (b *CommandBuilder) Build(ctx context.Context) (string, error) {
	log := zerolog.Ctx(ctx)
	if b.cfg.Command == "" {
		return "", fmt.Errorf("%w: build command", rocketerrors.ErrCommandNotConfigured)
	}

	cmdCtx, cancel := withTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	start := time.Now()
	log.Info().Str("command", b.cfg.Command).Str("work_dir", b.cfg.WorkDir).Msg("building artifact")

	stdout, stderr, exitCode, err := runStageCommand(cmdCtx, b.runner, b.cfg.WorkDir, b.cfg.Command, nil, b.liveOut)
	if err != nil && !isExitError(err) {
		log.Error().Err(err).Dur("duration_ms", time.Since(start)).Msg("build command could not run")
		return "", fmt.Errorf("%w: %w: %v", rocketerrors.ErrBuildFailed, rocketerrors.ErrCommandFailed, err)
	}
	if err != nil || exitCode != 0 {
		log.Error().
			Int("exit_code", exitCode).
			Dur("duration_ms", time.Since(start)).
			Str("stderr", stderr).
			Msg("build command failed")
		return "", rocketerrors.Wrapf(rocketerrors.ErrBuildFailed, "exit code %d", exitCode)
	}

	artifactID := lastLine(stdout)
	if artifactID == "" {
		return "", rocketerrors.Wrap(rocketerrors.ErrBuildFailed, "build command produced no artifact identifier")
	}

	log.Info().
		Str("artifact_id", artifactID).
		Dur("duration_ms", time.Since(start)).
		Msg("artifact built")
	return artifactID, nil
}

// CommandTester implements Tester by running the configured test command
// with the artifact identifier exported in the environment.
type CommandTester struct {
	runner  CommandRunner
	cfg     config.TestConfig
	liveOut io.Writer
}

// NewCommandTester creates a tester backed by the configured shell command.
func NewCommandTester(runner CommandRunner, cfg config.TestConfig) *CommandTester {
	return &CommandTester{runner: runner, cfg: cfg}
}

// WithLiveOutput streams test suite output to w as it is produced.
func (t *CommandTester) WithLiveOutput(w io.Writer) *CommandTester {
	t.liveOut = w
	return t
}

// Test runs the test command. A non-zero exit is a definite failure, not an
// error; errors are reserved for cases with no definite outcome.
func (t *CommandTester) Test(ctx context.Context, artifactID string) (*domain.TestOutcome, error) {
	log := zerolog.Ctx(ctx)

	cmdCtx, cancel := withTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	start := time.Now()
	log.Info().Str("command", t.cfg.Command).Str("artifact_id", artifactID).Msg("running test suite")

	env := []string{ArtifactEnvVar + "=" + artifactID}
	stdout, stderr, exitCode, err := runStageCommand(cmdCtx, t.runner, t.cfg.WorkDir, t.cfg.Command, env, t.liveOut)
	duration := time.Since(start)

	if cmdCtx.Err() != nil || (err != nil && !isExitError(err)) {
		log.Error().Err(err).Dur("duration_ms", duration).Msg("test suite produced no definite outcome")
		return nil, rocketerrors.Wrapf(rocketerrors.ErrTestExecutionFailed, "%s", t.cfg.Command)
	}

	outcome := &domain.TestOutcome{
		Passed:     exitCode == 0,
		Log:        joinOutput(stdout, stderr),
		DurationMs: duration.Milliseconds(),
	}
	log.Info().
		Bool("passed", outcome.Passed).
		Int("exit_code", exitCode).
		Dur("duration_ms", duration).
		Msg("test suite finished")
	return outcome, nil
}

// CommandPublisher implements Publisher by running the configured publish
// command.
type CommandPublisher struct {
	runner CommandRunner
	cfg    config.PublishConfig
}

// NewCommandPublisher creates a publisher backed by the configured shell command.
func NewCommandPublisher(runner CommandRunner, cfg config.PublishConfig) *CommandPublisher {
	return &CommandPublisher{runner: runner, cfg: cfg}
}

// Publish runs the publish command with the artifact identifier exported.
func (p *CommandPublisher) Publish(ctx context.Context, artifactID string) error {
	log := zerolog.Ctx(ctx)
	if p.cfg.Command == "" {
		return fmt.Errorf("%w: publish command", rocketerrors.ErrCommandNotConfigured)
	}

	cmdCtx, cancel := withTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	log.Info().Str("command", p.cfg.Command).Str("artifact_id", artifactID).Msg("publishing artifact")

	env := []string{ArtifactEnvVar + "=" + artifactID}
	_, stderr, exitCode, err := p.runner.Run(cmdCtx, p.cfg.WorkDir, p.cfg.Command, env)
	if err != nil && !isExitError(err) {
		log.Error().Err(err).Dur("duration_ms", time.Since(start)).Msg("publish command could not run")
		return fmt.Errorf("%w: %w: %v", rocketerrors.ErrPublishFailed, rocketerrors.ErrCommandFailed, err)
	}
	if err != nil || exitCode != 0 {
		log.Error().
			Int("exit_code", exitCode).
			Dur("duration_ms", time.Since(start)).
			Str("stderr", stderr).
			Msg("publish command failed")
		return rocketerrors.Wrapf(rocketerrors.ErrPublishFailed, "exit code %d", exitCode)
	}

	log.Info().Dur("duration_ms", time.Since(start)).Msg("artifact published")
	return nil
}

// withTimeout wraps ctx with a timeout when one is configured.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// isExitError reports whether err is an ordinary non-zero exit.
func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// lastLine returns the last non-empty line of s.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

// joinOutput combines captured stdout and stderr for the test log.
func joinOutput(stdout, stderr string) string {
	switch {
	case stderr == "":
		return stdout
	case stdout == "":
		return stderr
	default:
		return stdout + "\n" + stderr
	}
}
