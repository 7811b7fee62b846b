// Package flock provides cross-platform file locking utilities.
//
// The run store uses these locks to keep two concurrent rocketgate
// invocations from interleaving writes to the same state files. The locks
// are exclusive and non-blocking, and work on both Unix and Windows.
//
// Usage:
//
//	file, _ := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
//	if err := flock.Exclusive(file.Fd()); err != nil {
//	    // Lock not acquired - file is in use
//	}
//	defer flock.Unlock(file.Fd())
package flock
