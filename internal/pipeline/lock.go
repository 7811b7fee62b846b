package pipeline

import (
	"context"
	"os"
	"time"

	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
	"github.com/nmfs-opensci/rocketgate/internal/flock"
)

// lockTimeout bounds how long a store operation waits for another
// rocketgate process to release the state lock.
const lockTimeout = 5 * time.Second

// fileLock wraps a lock file for exclusive cross-process locking.
type fileLock struct {
	path string
	file *os.File
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path}
}

// LockWithContext acquires an exclusive lock, retrying until the timeout
// elapses or the context is canceled.
func (fl *fileLock) LockWithContext(ctx context.Context, timeout time.Duration) error {
	var err error
	fl.file, err = os.OpenFile(fl.path, os.O_RDWR|os.O_CREATE, filePerm) // #nosec G304 -- path is store-internal
	if err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	interval := 50 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			_ = fl.file.Close()
			return ctx.Err()
		default:
		}

		if err = flock.Exclusive(fl.file.Fd()); err == nil {
			return nil
		}

		if time.Now().After(deadline) {
			_ = fl.file.Close()
			return rocketerrors.Wrapf(rocketerrors.ErrLockTimedOut, "after %v", timeout)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = fl.file.Close()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Unlock releases the lock and closes the lock file.
func (fl *fileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}
	_ = flock.Unlock(fl.file.Fd())
	err := fl.file.Close()
	fl.file = nil
	return err
}
