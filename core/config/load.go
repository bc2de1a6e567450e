package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// DefaultDir returns the standard configuration directory.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gobble")
	}
	return "."
}

// Load loads the configuration from the directory. If the directory holds no
// config.yaml the built-in defaults are used.
func Load(path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	return LoadFs(afero.NewBasePathFs(afero.NewOsFs(), path))
}

// LoadFs loads the configuration from the root of fsys, user values are
// applied on top of the defaults.
func LoadFs(fsys afero.Fs) (*Configuration, error) {
	out := defaultConfig()
	out.configFs = fsys

	configContents, err := afero.ReadFile(fsys, ConfigurationName)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return out, nil
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.UnmarshalStrict(configContents, out); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return out, nil
}

// Initialize writes the default configuration into dir unless one exists.
func Initialize(dir string, logger *log.Logger) error {
	return InitializeFs(afero.NewBasePathFs(afero.NewOsFs(), dir), dir, logger)
}

// InitializeFs is Initialize over an arbitrary filesystem, name is only used
// for log messages.
func InitializeFs(fsys afero.Fs, name string, logger *log.Logger) error {
	if err := fsys.MkdirAll("/", 0700); err != nil {
		return err
	}

	exists, err := afero.Exists(fsys, ConfigurationName)
	if err != nil {
		return err
	}
	if exists {
		logger.Printf("%s already exists, skipping", filepath.Join(name, ConfigurationName))
		return nil
	}

	if err := afero.WriteFile(fsys, ConfigurationName, defaultConfigData, 0600); err != nil {
		return err
	}
	logger.Printf("Wrote %s", filepath.Join(name, ConfigurationName))
	return nil
}
