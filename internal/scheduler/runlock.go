//go:build !windows

package scheduler

import (
	"fmt"
	"os"
	"syscall"
)

// runLock is a host-wide mutex over the configured lock file, backed by
// flock(2). An empty path disables locking (single-process installs).
type runLock struct {
	path string
	held *os.File
}

// acquire takes the lock without blocking. False with a nil error means
// another process holds it.
func (l *runLock) acquire() (bool, error) {
	if l.path == "" {
		return true, nil
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return false, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if err == syscall.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("flock %s: %w", l.path, err)
	}
	l.held = f
	return true, nil
}

func (l *runLock) release() {
	if l.held == nil {
		return
	}
	_ = syscall.Flock(int(l.held.Fd()), syscall.LOCK_UN)
	l.held.Close()
	os.Remove(l.path)
	l.held = nil
}
