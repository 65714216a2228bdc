// Package state persists which install steps have completed and guards
// against concurrent installer runs.
package state

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

// Store is the completion log: one step name per line. Membership is exact
// full-line equality, so "hadoop" is not satisfied by "hadoop_install".
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a store backed by path. The file is created on first Mark.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Contains reports whether name has been marked complete.
func (s *Store) Contains(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.read()
	if err != nil {
		return false, err
	}
	for _, line := range lines {
		if line == name {
			return true, nil
		}
	}
	return false, nil
}

// List returns the completed step names, de-duplicated, in the order they
// were first recorded.
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Mark records name as complete. The file is rewritten through a temp file
// and rename, so a crash leaves either the previous or the new complete
// content. Marking an already recorded name is a no-op.
func (s *Store) Mark(name string) error {
	if name == "" || strings.ContainsAny(name, "\r\n") {
		return errors.Errorf("invalid step name %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.read()
	if err != nil {
		return err
	}
	for _, line := range lines {
		if line == name {
			return nil
		}
	}
	lines = append(lines, name)

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create state directory for %s", s.path)
	}
	content := strings.Join(lines, "\n") + "\n"
	if err := util.WriteFileAtomic(s.path, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, "failed to record step %s", name)
	}
	return nil
}

// Forget drops the named markers so the next run repeats those steps. The
// state file itself is kept, even when no markers remain.
func (s *Store) Forget(names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.read()
	if err != nil {
		return err
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := lines[:0]
	for _, line := range lines {
		if !drop[line] {
			kept = append(kept, line)
		}
	}
	if len(kept) == len(lines) {
		return nil
	}

	content := ""
	if len(kept) > 0 {
		content = strings.Join(kept, "\n") + "\n"
	}
	if err := util.WriteFileAtomic(s.path, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, "failed to rewrite state file %s", s.path)
	}
	return nil
}

// read returns the de-duplicated non-empty lines. A missing file is empty.
func (s *Store) read() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read state file %s", s.path)
	}

	seen := make(map[string]bool)
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to parse state file %s", s.path)
	}
	return lines, nil
}
