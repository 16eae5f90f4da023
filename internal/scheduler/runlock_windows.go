//go:build windows

package scheduler

import (
	"errors"
	"os"
)

// runLock is a host-wide mutex over the configured lock file. Without flock,
// exclusive creation of the file is the lock. An empty path disables locking.
type runLock struct {
	path string
	held bool
}

// acquire takes the lock without blocking. False with a nil error means
// another process holds it.
func (l *runLock) acquire() (bool, error) {
	if l.path == "" {
		return true, nil
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	f.Close()
	l.held = true
	return true, nil
}

func (l *runLock) release() {
	if !l.held {
		return
	}
	os.Remove(l.path)
	l.held = false
}
