package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if field.PkgPath != "" {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := defaultConfig()
	assert.NotNil(t, cfg)
	assert.Nil(t, cfg.Validate())

	assert.Equal(t, "/tmp/.shell_history", cfg.HistoryPath())
	assert.Equal(t, "/home", cfg.CdFallback)
	assert.Equal(t, "strict", cfg.PipeDelimiter)
	assert.Equal(t, "GEMINI_API_KEY", cfg.AI.APIKeyEnv)
	assert.Equal(t, 60*time.Second, cfg.AI.TimeoutDuration())
}

func TestLoadFs(t *testing.T) {
	t.Run("missing uses defaults", func(t *testing.T) {
		cfg, err := LoadFs(afero.NewMemMapFs())
		require.Nil(t, err)
		assert.Equal(t, defaultConfig().Prompt, cfg.Prompt)
	})

	t.Run("partial override", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.Nil(t, afero.WriteFile(fs, ConfigurationName, []byte("color: never\nai:\n  timeout: 5s\n"), 0600))

		cfg, err := LoadFs(fs)
		require.Nil(t, err)
		assert.Equal(t, "never", cfg.Color)
		assert.Equal(t, 5*time.Second, cfg.AI.TimeoutDuration())
		// Untouched values keep their defaults.
		assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
		assert.True(t, cfg.Banner)
	})

	t.Run("unknown field", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.Nil(t, afero.WriteFile(fs, ConfigurationName, []byte("colour: never\n"), 0600))

		_, err := LoadFs(fs)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Configuration){
		"bad color":          func(c *Configuration) { c.Color = "sometimes" },
		"bad delimiter":      func(c *Configuration) { c.PipeDelimiter = "loose" },
		"empty history path": func(c *Configuration) { c.History.Path = "" },
		"negative limit":     func(c *Configuration) { c.History.Limit = -1 },
		"bad timeout":        func(c *Configuration) { c.AI.Timeout = "soon" },
		"bad endpoint":       func(c *Configuration) { c.AI.Endpoint = "not a url" },
		"negative rate":      func(c *Configuration) { c.AI.RequestsPerMinute = -3 },
	}

	for tn, mutate := range cases {
		t.Run(tn, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/gobbler")

	assert.Equal(t, "/home/gobbler/.shell_history", ExpandHome("~/.shell_history"))
	assert.Equal(t, "/tmp/.shell_history", ExpandHome("/tmp/.shell_history"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}
