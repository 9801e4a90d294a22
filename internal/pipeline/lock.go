package pipeline

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrRunLocked is returned when another run already holds the store
var ErrRunLocked = errors.New("another run is using the store")

// RunLock keeps a single pipeline run per store file
type RunLock struct {
	path string
	lock *flock.Flock
}

// NewRunLock creates the lock guarding storePath
func NewRunLock(storePath string) *RunLock {
	path := storePath + ".lock"
	return &RunLock{path: path, lock: flock.New(path)}
}

// Path returns the lock file location
func (l *RunLock) Path() string { return l.path }

// Acquire takes the lock without waiting
func (l *RunLock) Acquire() error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunLocked, l.path)
	}
	return nil
}

// Release gives the lock back
func (l *RunLock) Release() error {
	return l.lock.Unlock()
}
