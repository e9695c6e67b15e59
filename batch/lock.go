package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrLocked means another run holds the lock.
var ErrLocked = errors.New("batch: another run holds the lock")

// Locker guards a batch run against concurrent runs.
type Locker interface {
	Acquire() error
	Release() error
}

// FileLock is a lock file holding the owner's pid. A lock file older than
// staleAfter is treated as abandoned and taken over.
type FileLock struct {
	path       string
	staleAfter time.Duration
	now        func() time.Time
}

var _ Locker = (*FileLock)(nil)

// NewFileLock returns a lock at path. staleAfter <= 0 means one hour.
func NewFileLock(path string, staleAfter time.Duration) *FileLock {
	if staleAfter <= 0 {
		staleAfter = time.Hour
	}
	return &FileLock{path: path, staleAfter: staleAfter, now: time.Now}
}

// Acquire creates the lock file or returns ErrLocked.
func (l *FileLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, err = f.WriteString(strconv.Itoa(os.Getpid()))
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(l.path)
				return fmt.Errorf("writing lock %s: %w", l.path, err)
			}
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("creating lock %s: %w", l.path, err)
		}

		info, err := os.Stat(l.path)
		if err != nil {
			// Released between our create and stat.
			continue
		}
		if l.now().Sub(info.ModTime()) <= l.staleAfter {
			return ErrLocked
		}
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing stale lock %s: %w", l.path, err)
		}
	}
	return ErrLocked
}

// Release removes the lock file.
func (l *FileLock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock %s: %w", l.path, err)
	}
	return nil
}
