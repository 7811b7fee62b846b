// Run and release persistence for rocketgate.
// This file implements the storage layer for pipeline run state and release
// records, with atomic writes for data integrity.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nmfs-opensci/rocketgate/internal/constants"
	"github.com/nmfs-opensci/rocketgate/internal/domain"
	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
	"github.com/nmfs-opensci/rocketgate/internal/manifest"
)

// Directory and file permission constants.
const (
	dirPerm  = 0o750 // Secure directory permissions
	filePerm = 0o600 // Secure file permissions
)

// RunStore defines the interface for pipeline run persistence.
type RunStore interface {
	// Save writes the current run state (atomic write).
	Save(ctx context.Context, run *domain.PipelineRun) error

	// Get retrieves a run by ID.
	// Returns ErrRunNotFound if the run doesn't exist.
	Get(ctx context.Context, runID string) (*domain.PipelineRun, error)

	// List returns all persisted runs, newest first.
	List(ctx context.Context) ([]*domain.PipelineRun, error)
}

// FileStore implements RunStore and Releaser using the local filesystem.
// Layout under the rocketgate home directory:
//
//	runs/<run-id>/run.json
//	releases/<run-id>/release.json
//	releases/<run-id>/validation-report.txt
//	releases/<run-id>/<pinned manifests>
type FileStore struct {
	home       string // Usually ~/.rocketgate
	releaseDir string // Usually <home>/releases
}

// NewFileStore creates a FileStore rooted at home.
// If home is empty, uses the default ~/.rocketgate directory.
func NewFileStore(home string) (*FileStore, error) {
	return NewFileStoreWithReleaseDir(home, "")
}

// NewFileStoreWithReleaseDir creates a FileStore with release records
// redirected to releaseDir. An empty releaseDir keeps the default
// <home>/releases location.
func NewFileStoreWithReleaseDir(home, releaseDir string) (*FileStore, error) {
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		home = filepath.Join(userHome, constants.RocketgateHome)
	}
	if releaseDir == "" {
		releaseDir = filepath.Join(home, constants.ReleasesDir)
	}
	return &FileStore{home: home, releaseDir: releaseDir}, nil
}

// Save writes the run state atomically.
func (s *FileStore) Save(ctx context.Context, run *domain.PipelineRun) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if run == nil {
		return rocketerrors.ErrRunNil
	}
	if run.ID == "" {
		return fmt.Errorf("failed to save run: run ID %w", rocketerrors.ErrEmptyValue)
	}

	runDir := filepath.Join(s.home, constants.RunsDir, run.ID)
	if err := os.MkdirAll(runDir, dirPerm); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	// Lock per run so a second rocketgate process cannot interleave writes.
	lock := newFileLock(filepath.Join(runDir, constants.LockFileName))
	if err := lock.LockWithContext(ctx, lockTimeout); err != nil {
		return fmt.Errorf("failed to lock run '%s': %w", run.ID, err)
	}
	defer func() { _ = lock.Unlock() }()

	run.SchemaVersion = constants.RunSchemaVersion

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to save run '%s': %w", run.ID, err)
	}

	return atomicWrite(filepath.Join(runDir, constants.RunFileName), data)
}

// Get retrieves a run by ID.
func (s *FileStore) Get(ctx context.Context, runID string) (*domain.PipelineRun, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if runID == "" {
		return nil, fmt.Errorf("failed to get run: run ID %w", rocketerrors.ErrEmptyValue)
	}

	path := filepath.Join(s.home, constants.RunsDir, runID, constants.RunFileName)
	data, err := os.ReadFile(path) //nolint:gosec // Path is built from validated components
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run '%s': %w", runID, rocketerrors.ErrRunNotFound)
		}
		return nil, fmt.Errorf("failed to read run '%s': %w", runID, err)
	}

	var run domain.PipelineRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run '%s': %w", runID, err)
	}
	return &run, nil
}

// List returns all persisted runs, newest first.
func (s *FileStore) List(ctx context.Context) ([]*domain.PipelineRun, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	runsDir := filepath.Join(s.home, constants.RunsDir)
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*domain.PipelineRun, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		run, err := s.Get(ctx, entry.Name())
		if err != nil {
			// Skip unreadable entries rather than failing the listing.
			continue
		}
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

// CreateRelease writes the release record, the text report, and each pinned
// manifest under releases/<run-id>/.
func (s *FileStore) CreateRelease(ctx context.Context, record *domain.ReleaseRecord) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if record == nil || record.RunID == "" {
		return fmt.Errorf("%w: release record incomplete", rocketerrors.ErrReleaseCreationFailed)
	}

	releaseDir := filepath.Join(s.releaseDir, record.RunID)
	if err := os.MkdirAll(releaseDir, dirPerm); err != nil {
		return rocketerrors.Wrapf(rocketerrors.ErrReleaseCreationFailed, "create release directory: %v", err)
	}

	lock := newFileLock(filepath.Join(releaseDir, constants.LockFileName))
	if err := lock.LockWithContext(ctx, lockTimeout); err != nil {
		return rocketerrors.Wrapf(rocketerrors.ErrReleaseCreationFailed, "lock release directory: %v", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return rocketerrors.Wrapf(rocketerrors.ErrReleaseCreationFailed, "marshal release record: %v", err)
	}
	if err := atomicWrite(filepath.Join(releaseDir, constants.ReleaseRecordFileName), data); err != nil {
		return rocketerrors.Wrapf(rocketerrors.ErrReleaseCreationFailed, "write release record: %v", err)
	}

	reportText := manifest.RenderReportText(record.Report)
	if err := atomicWrite(filepath.Join(releaseDir, constants.ValidationReportFileName), []byte(reportText)); err != nil {
		return rocketerrors.Wrapf(rocketerrors.ErrReleaseCreationFailed, "write validation report: %v", err)
	}

	for _, m := range record.Manifests {
		if err := atomicWrite(filepath.Join(releaseDir, m.Filename), []byte(m.Content)); err != nil {
			return rocketerrors.Wrapf(rocketerrors.ErrReleaseCreationFailed, "write manifest %s: %v", m.Filename, err)
		}
	}

	return nil
}

// atomicWrite writes data to path via a temp file and rename, so readers
// never observe a partial file.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set temp file permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

var (
	_ RunStore = (*FileStore)(nil)
	_ Releaser = (*FileStore)(nil)
)
