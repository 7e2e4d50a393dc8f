package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Service.BaseURL)
	assert.Equal(t, "/myapp/api", cfg.Service.APIPrefix)
	assert.Equal(t, 30*time.Second, cfg.Service.RequestTimeout)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 5, cfg.Retry.CircuitBreakerThreshold)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Service.BaseURL, cfg.Service.BaseURL)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
service:
  base_url: http://staging.example.com
  api_prefix: /api/v2
  request_timeout: 10s
retry:
  max_retries: 6
  initial_backoff: 500ms
auth:
  bearer_token: tok123
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://staging.example.com", cfg.Service.BaseURL)
	assert.Equal(t, "/api/v2", cfg.Service.APIPrefix)
	assert.Equal(t, 10*time.Second, cfg.Service.RequestTimeout)
	assert.Equal(t, 6, cfg.Retry.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialBackoff)
	assert.Equal(t, "tok123", cfg.Auth.BearerToken)
	// unspecified fields keep their defaults
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxBackoff)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfigFile(t, "service: [not a mapping"))
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeConfigFile(t, "retry:\n  max_retries: -2\n"))
		assert.Error(t, err)
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Run("base URL and prefix", func(t *testing.T) {
		t.Setenv(EnvBaseURL, "http://env.example.com")
		t.Setenv(EnvAPIPrefix, "/env/api")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "http://env.example.com", cfg.Service.BaseURL)
		assert.Equal(t, "/env/api", cfg.Service.APIPrefix)
	})

	t.Run("timeout as bare seconds", func(t *testing.T) {
		t.Setenv(EnvRequestTimeout, "15")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 15*time.Second, cfg.Service.RequestTimeout)
	})

	t.Run("timeout as duration string", func(t *testing.T) {
		t.Setenv(EnvRequestTimeout, "1m30s")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, cfg.Service.RequestTimeout)
	})

	t.Run("token", func(t *testing.T) {
		t.Setenv(EnvAPIToken, "secret")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "secret", cfg.Auth.BearerToken)
	})

	t.Run("environment wins over the file", func(t *testing.T) {
		path := writeConfigFile(t, "service:\n  base_url: http://file.example.com\n")
		t.Setenv(EnvBaseURL, "http://env.example.com")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "http://env.example.com", cfg.Service.BaseURL)
	})
}
