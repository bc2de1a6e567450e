package vos

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// EnvironFetcher is anything that can list an environment.
type EnvironFetcher interface {
	// Environ returns a copy of strings representing the environment, in the
	// form "key=value".
	Environ() []string
}

// NewMapEnv creates a new environment backed by a map.
func NewMapEnv() *MapEnv {
	return &MapEnv{}
}

// NewMapEnvFrom creates a new environment with a copy of the environment
// variables in the original environment.
func NewMapEnvFrom(src EnvironFetcher) *MapEnv {
	return NewMapEnvFromEnvList(src.Environ())
}

func NewMapEnvFromEnvList(environ []string) *MapEnv {
	out := &MapEnv{}

	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		out.Setenv(key, value)
	}

	return out
}

// MapEnv implements an in-memory environment that is safe for concurrent use.
type MapEnv struct {
	rw  sync.RWMutex
	env map[string]string
}

// Setenv sets the value of the environment variable named by the key.
func (m *MapEnv) Setenv(key, value string) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
}

// LookupEnv retrieves the value of the environment variable named by the key.
// The boolean reports whether the variable was present.
func (m *MapEnv) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv retrieves the value of the environment variable named by the key.
func (m *MapEnv) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// Environ returns the environment as sorted "key=value" pairs.
func (m *MapEnv) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	var env []string
	for k, v := range m.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)

	return env
}

// LoadDotenv reads a .env style file and sets every variable it defines that
// isn't already present. A missing file is not an error.
func (m *MapEnv) LoadDotenv(fsys afero.Fs, path string) error {
	fd, err := fsys.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return err
	}
	defer fd.Close()

	vars, err := godotenv.Parse(fd)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	m.rw.Lock()
	defer m.rw.Unlock()
	if m.env == nil {
		m.env = make(map[string]string)
	}
	for k, v := range vars {
		if _, ok := m.env[k]; !ok {
			m.env[k] = v
		}
	}

	return nil
}
