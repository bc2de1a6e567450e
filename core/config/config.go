package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	AppLogName        = "events.log"
)

type Configuration struct {
	configFs afero.Fs

	Prompt        string `json:"prompt" validate:"required"`
	Color         string `json:"color" validate:"oneof=auto always never"`
	Banner        bool   `json:"banner"`
	PipeDelimiter string `json:"pipe_delimiter" validate:"oneof=strict relaxed"`
	CdFallback    string `json:"cd_fallback" validate:"required"`
	EventLog      bool   `json:"event_log"`

	History History `json:"history"`

	AI AI `json:"ai"`
}

type History struct {
	Path  string `json:"path" validate:"required"`
	Limit int    `json:"limit" validate:"gte=0"`
}

type AI struct {
	Model             string `json:"model" validate:"required"`
	Endpoint          string `json:"endpoint" validate:"required,url"`
	APIKeyEnv         string `json:"api_key_env" validate:"required"`
	DotenvPath        string `json:"dotenv_path"`
	Timeout           string `json:"timeout" validate:"duration"`
	RequestsPerMinute int    `json:"requests_per_minute" validate:"gte=0"`
}

// DefaultAITimeout is used when no timeout is configured.
const DefaultAITimeout = 60 * time.Second

// TimeoutDuration parses the configured timeout or returns the default.
func (a *AI) TimeoutDuration() time.Duration {
	if a.Timeout != "" {
		if dur, err := time.ParseDuration(a.Timeout); err == nil && dur > 0 {
			return dur
		}
	}
	return DefaultAITimeout
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})
	validate.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		dur, err := time.ParseDuration(value)
		return err == nil && dur > 0
	})

	return validate.Struct(c)
}

// HistoryPath returns the history file location with a leading ~ expanded.
func (c *Configuration) HistoryPath() string {
	return ExpandHome(c.History.Path)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		return afero.NewMemMapFs()
	}
	return c.configFs
}

// OpenAppLog opens the event log in an append only state, creating the
// configuration directory if needed.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	if err := c.fs().MkdirAll("/", 0700); err != nil {
		return nil, err
	}
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadAppLog opens the event log for reading.
func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_RDONLY, 0600)
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Default returns the built-in configuration.
func Default() *Configuration {
	return defaultConfig()
}
