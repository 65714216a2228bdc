package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultStaleAfter is the age after which a leftover lock is reclaimed.
const DefaultStaleAfter = time.Hour

// HeldError reports a lock file younger than the staleness threshold.
type HeldError struct {
	Path string
	PID  int
	Age  time.Duration
}

func (e *HeldError) Error() string {
	holder := "unknown process"
	if e.PID > 0 {
		holder = "pid " + strconv.Itoa(e.PID)
	}
	return fmt.Sprintf("another installation appears to be running (%s, lock %s, age %s)",
		holder, e.Path, e.Age.Truncate(time.Second))
}

// Lock is the single-instance installation lock. Existence and mtime of the
// file are what matter; its content is diagnostic only.
type Lock struct {
	path       string
	staleAfter time.Duration
	runID      string

	mu   sync.Mutex
	held bool
}

// NewLock returns a lock at path that is considered stale after staleAfter.
func NewLock(path string, staleAfter time.Duration, runID string) *Lock {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Lock{path: path, staleAfter: staleAfter, runID: runID}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire creates the lock file exclusively. An existing lock older than
// the staleness threshold is removed and acquisition retried once; a
// younger one returns *HeldError.
func (l *Lock) Acquire(now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create lock directory for %s", l.path)
	}

	for attempt := 0; attempt < 2; attempt++ {
		err := l.create(now)
		if err == nil {
			l.held = true
			return nil
		}
		if !os.IsExist(err) {
			return errors.Wrapf(err, "failed to create lock %s", l.path)
		}

		info, statErr := os.Stat(l.path)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				continue
			}
			return errors.Wrapf(statErr, "failed to inspect lock %s", l.path)
		}

		age := now.Sub(info.ModTime())
		if age < l.staleAfter {
			return &HeldError{Path: l.path, PID: readPID(l.path), Age: age}
		}
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove stale lock %s", l.path)
		}
	}
	return &HeldError{Path: l.path, PID: readPID(l.path)}
}

func (l *Lock) create(now time.Time) error {
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	_, werr := fmt.Fprintf(f, "pid=%d\nrun_id=%s\nstarted=%s\n", os.Getpid(), l.runID, now.UTC().Format(time.RFC3339))
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	if cerr != nil {
		return cerr
	}
	// The timestamp the staleness check reads is the file mtime.
	return os.Chtimes(l.path, now, now)
}

// Release removes the lock file if this process holds it. Calling it more
// than once is safe.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return nil
	}
	l.held = false
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to release lock %s", l.path)
	}
	return nil
}

// Held reports whether this process holds the lock.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func readPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if v, ok := strings.CutPrefix(line, "pid="); ok {
			pid, _ := strconv.Atoi(strings.TrimSpace(v))
			return pid
		}
	}
	return 0
}
