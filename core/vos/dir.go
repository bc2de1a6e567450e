package vos

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/afero"
)

// Dir is a session's working directory.
//
// It is kept separately from the process-wide working directory and handed to
// every spawned process explicitly. Only cd writes it.
type Dir struct {
	fs afero.Fs
	// access, if set, reports whether the caller may search a directory.
	access func(path string) error

	mu  sync.RWMutex
	cwd string
}

// NewDir creates a working directory rooted at start, which must already be
// absolute and clean.
func NewDir(fsys afero.Fs, start string) *Dir {
	return &Dir{fs: fsys, cwd: filepath.Clean(start)}
}

// NewHostDir starts at the process's current working directory on the host
// filesystem.
func NewHostDir() (*Dir, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	return NewDir(afero.NewOsFs(), wd).WithAccessCheck(searchable), nil
}

// WithAccessCheck makes Chdir call check on the resolved target after the
// mode bits pass, an error from check rejects the change.
func (d *Dir) WithAccessCheck(check func(path string) error) *Dir {
	d.access = check
	return d
}

// Getwd returns the current directory.
func (d *Dir) Getwd() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.cwd
}

// Resolve turns path into an absolute path relative to the current directory.
func (d *Dir) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(d.Getwd(), path)
}

// Chdir changes the current directory. On failure the directory is left
// unchanged and a *fs.PathError is returned.
func (d *Dir) Chdir(dir string) error {
	target := d.Resolve(dir)

	fi, err := d.fs.Stat(target)
	if err != nil {
		if pe, ok := err.(*fs.PathError); ok {
			err = pe.Err
		}
		return &fs.PathError{Op: "chdir", Path: dir, Err: err}
	}

	switch {
	case !fi.IsDir():
		return &fs.PathError{Op: "chdir", Path: dir, Err: syscall.ENOTDIR}
	case fi.Mode().Perm()&0111 == 0:
		return &fs.PathError{Op: "chdir", Path: dir, Err: fs.ErrPermission}
	}

	if d.access != nil {
		if err := d.access(target); err != nil {
			return &fs.PathError{Op: "chdir", Path: dir, Err: err}
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cwd = target

	return nil
}
