package vcs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/desertthunder/plx/internal/shared"
)

// FileLock is an exclusive advisory lock scoped to one playlist directory.
// Commands hold the lock for their full duration so staging, commit and sync
// operations on the same playlist never interleave. Different playlists lock
// independently.
type FileLock struct {
	path string
}

// AcquireLock takes the advisory lock for a repository directory.
// Returns [shared.ErrRepoLocked] when another process holds it.
func AcquireLock(dir string) (*FileLock, error) {
	path := filepath.Join(dir, ".lock")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			holder := "unknown"
			if data, readErr := os.ReadFile(path); readErr == nil && len(data) > 0 {
				holder = string(data)
			}
			return nil, fmt.Errorf("%w: held by pid %s (remove %s if stale)", shared.ErrRepoLocked, holder, path)
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to close lock file: %w", err)
	}

	return &FileLock{path: path}, nil
}

// Release removes the lock file. Safe to call more than once.
func (l *FileLock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	path := l.path
	l.path = ""
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
