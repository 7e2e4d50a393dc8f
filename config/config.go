// Package config loads the test-run configuration: an optional YAML file,
// then environment variable overrides, so the same suite can target local,
// staging, or production deployments of the service without code changes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names recognized as overrides.
const (
	EnvBaseURL        = "BASE_URL"
	EnvAPIPrefix      = "API_PREFIX"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvAPIToken       = "API_TOKEN"
)

type Config struct {
	Service ServiceConfig `yaml:"service"`
	Retry   RetryConfig   `yaml:"retry"`
	Auth    AuthConfig    `yaml:"auth"`
}

type ServiceConfig struct {
	// BaseURL is the scheme://host[:port] of the service under test.
	BaseURL string `yaml:"base_url"`
	// APIPrefix is the path prefix of the REST API, such as "/myapp/api".
	APIPrefix string `yaml:"api_prefix"`
	// RequestTimeout bounds each physical HTTP attempt.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// SLAResponseTime is the latency threshold asserted by response-time tests.
	SLAResponseTime time.Duration `yaml:"sla_response_time"`
}

type RetryConfig struct {
	MaxRetries              int           `yaml:"max_retries"`
	InitialBackoff          time.Duration `yaml:"initial_backoff"`
	MaxBackoff              time.Duration `yaml:"max_backoff"`
	BackoffMultiplier       float64       `yaml:"backoff_multiplier"`
	DisableJitter           bool          `yaml:"disable_jitter"`
	CircuitBreakerThreshold int           `yaml:"circuit_breaker_threshold"`
}

type AuthConfig struct {
	// BearerToken, when set, is attached to every request as
	// "Authorization: Bearer <token>". Token issuance is out of scope here;
	// obtain one from the service's token endpoint and pass it in.
	BearerToken string `yaml:"bearer_token"`
}

// Default returns the configuration used when no file and no environment
// overrides are present, matching a local development deployment.
func Default() Config {
	return Config{
		Service: ServiceConfig{
			BaseURL:         "http://127.0.0.1:8000",
			APIPrefix:       "/myapp/api",
			RequestTimeout:  30 * time.Second,
			SLAResponseTime: 500 * time.Millisecond,
		},
		Retry: RetryConfig{
			MaxRetries:              3,
			InitialBackoff:          time.Second,
			MaxBackoff:              30 * time.Second,
			BackoffMultiplier:       2.0,
			CircuitBreakerThreshold: 5,
		},
	}
}

// Load builds the effective configuration: defaults, overlaid by the YAML
// file at path when path is non-empty, overlaid by environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnvironment()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvironment() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Service.BaseURL = v
	}
	if v := os.Getenv(EnvAPIPrefix); v != "" {
		c.Service.APIPrefix = v
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		// Accepts either a bare number of seconds ("30") or a Go duration
		// string ("30s"), since CI setups have used both.
		if seconds, err := strconv.ParseFloat(v, 64); err == nil {
			c.Service.RequestTimeout = time.Duration(seconds * float64(time.Second))
		} else if d, err := time.ParseDuration(v); err == nil {
			c.Service.RequestTimeout = d
		}
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		c.Auth.BearerToken = v
	}
}

func (c *Config) validate() error {
	if c.Service.BaseURL == "" {
		return fmt.Errorf("config: service.base_url must not be empty")
	}
	if c.Service.RequestTimeout <= 0 {
		return fmt.Errorf("config: service.request_timeout must be positive, got %v",
			c.Service.RequestTimeout)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("config: retry.max_retries must be >= 0, got %d", c.Retry.MaxRetries)
	}
	return nil
}
