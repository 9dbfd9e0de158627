package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:         "8480",
			JWTSecret:    "secure-secret-at-least-32-chars-long",
			Env:          "development",
			StoreBackend: "memory",
			DBDriver:     "sqlite",
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"Valid development config", func(c *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing JWT secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Unknown store backend", func(c *Config) { c.StoreBackend = "etcd" }, true},
		{"Gorm backend with unknown driver", func(c *Config) { c.StoreBackend = "gorm"; c.DBDriver = "oracle" }, true},
		{"Gorm backend with postgres driver", func(c *Config) { c.StoreBackend = "gorm"; c.DBDriver = "postgres" }, false},
		{"Production with default JWT secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "your-secret-key-change-in-production"
		}, true},
		{"Production with short JWT secret", func(c *Config) { c.Env = "production"; c.JWTSecret = "short" }, true},
		{"Prod alias enforces JWT rules", func(c *Config) { c.Env = "prod"; c.JWTSecret = "short" }, true},
		{"Production with strong secret", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir changes into dir for the duration of the test; t.Chdir requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer viper.Reset()
	chdir(t, t.TempDir())

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8480", c.Port)
	assert.Equal(t, "development", c.Env)
	assert.Equal(t, "memory", c.StoreBackend)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.False(t, c.TracingEnabled)
}

func TestLoadConfig_ReadsConfigFile(t *testing.T) {
	defer viper.Reset()

	dir := t.TempDir()
	raw, err := yaml.Marshal(map[string]any{
		"PORT":          "9000",
		"STORE_BACKEND": "redis",
		"REDIS_URL":     "redis://cache:6379/0",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), raw, 0o644))
	chdir(t, dir)

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9000", c.Port)
	assert.Equal(t, "redis", c.StoreBackend)
	assert.Equal(t, "redis://cache:6379/0", c.RedisURL)
}

func TestLoadConfig_MissingProfileFileFails(t *testing.T) {
	defer viper.Reset()
	defer os.Unsetenv("APP_ENV")
	chdir(t, t.TempDir())

	os.Setenv("APP_ENV", "staging")
	_, err := LoadConfig()
	assert.Error(t, err, "non-development profiles require their own config file")
}
