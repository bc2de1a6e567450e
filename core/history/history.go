// Package history persists the lines entered into the shell.
package history

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// legacyHeader is written as the first line by some line editors, it is
// skipped on load so their files can be shared.
const legacyHeader = "#V2"

// Store is an append-only, ordered list of past input lines backed by a file
// with one line per record, newest last.
type Store struct {
	fs    afero.Fs
	path  string
	limit int

	mu    sync.Mutex
	lines []string
}

// New creates an empty store for the file at path. A limit > 0 caps the number
// of lines kept, dropping the oldest first.
func New(fsys afero.Fs, path string, limit int) *Store {
	return &Store{fs: fsys, path: path, limit: limit}
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory history with the contents of the backing file.
//
// If the file is absent or unreadable it is created empty and the returned
// error describes why the old contents couldn't be used, the store is usable
// either way.
func (s *Store) Load() error {
	data, readErr := afero.ReadFile(s.fs, s.path)
	if readErr != nil {
		s.mu.Lock()
		s.lines = nil
		s.mu.Unlock()

		if err := s.create(); err != nil {
			return fmt.Errorf("create history %s: %w", s.path, err)
		}
		if errors.Is(readErr, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read history %s: %w", s.path, readErr)
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(lines) == 0 && line == legacyHeader {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = lines
	s.trim()

	return scanner.Err()
}

func (s *Store) create() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := s.fs.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	fd, err := s.fs.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	return fd.Close()
}

// Add appends a line. Blank lines are ignored.
func (s *Store) Add(line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
	s.trim()

	return true
}

func (s *Store) trim() {
	if s.limit > 0 && len(s.lines) > s.limit {
		s.lines = append([]string(nil), s.lines[len(s.lines)-s.limit:]...)
	}
}

// Lines returns a copy of the history, oldest first.
func (s *Store) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.lines...)
}

// Clear drops every line from memory, the file is rewritten on the next Save.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
}

// Save rewrites the backing file with the current history.
func (s *Store) Save() error {
	s.mu.Lock()
	var buf bytes.Buffer
	for _, line := range s.lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	s.mu.Unlock()

	if err := afero.WriteFile(s.fs, s.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("save history %s: %w", s.path, err)
	}

	return nil
}
