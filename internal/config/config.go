package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds all wirecall client configuration.
type Config struct {
	// Target selection
	Region   string `yaml:"region" toml:"region"`
	Endpoint string `yaml:"endpoint" toml:"endpoint"` // Overrides endpoint resolution for every service

	// Credentials
	Profile         string `yaml:"profile" toml:"profile"`
	CredentialsFile string `yaml:"credentials_file" toml:"credentials_file"`

	HTTP     HTTPConfig     `yaml:"http" toml:"http"`
	Retry    RetryConfig    `yaml:"retry" toml:"retry"`
	Executor ExecutorConfig `yaml:"executor" toml:"executor"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Journal  JournalConfig  `yaml:"journal" toml:"journal"`
}

// HTTPConfig configures the shared transport.
type HTTPConfig struct {
	Timeout        string `yaml:"timeout" toml:"timeout"`                 // Whole-call deadline, retries included
	AttemptTimeout string `yaml:"attempt_timeout" toml:"attempt_timeout"` // Per-attempt deadline
	MaxIdleConns   int    `yaml:"max_idle_conns" toml:"max_idle_conns"`
	EnableHTTP2    bool   `yaml:"enable_http2" toml:"enable_http2"`
	UserAgent      string `yaml:"user_agent" toml:"user_agent"`
}

// RetryConfig configures the retry policy. The backoff formula is
// min(max_delay, base_delay * 2^(attempt-1)), optionally with full jitter.
type RetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts" toml:"max_attempts"`
	BaseDelay   string `yaml:"base_delay" toml:"base_delay"`
	MaxDelay    string `yaml:"max_delay" toml:"max_delay"`
	Jitter      bool   `yaml:"jitter" toml:"jitter"`
}

// ExecutorConfig bounds the worker pool used by future and callback dispatch.
type ExecutorConfig struct {
	MaxWorkers int `yaml:"max_workers" toml:"max_workers"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, console
	File   string `yaml:"file" toml:"file"`     // empty means stderr
}

// JournalConfig configures the SQLite call journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

const (
	defaultTimeout        = 60 * time.Second
	defaultAttemptTimeout = 20 * time.Second
	defaultBaseDelay      = 100 * time.Millisecond
	defaultMaxDelay       = 20 * time.Second
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Region:  "us-east-1",
		Profile: "default",
		HTTP: HTTPConfig{
			Timeout:        "60s",
			AttemptTimeout: "20s",
			MaxIdleConns:   100,
			EnableHTTP2:    true,
			UserAgent:      "wirecall/1.0",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   "100ms",
			MaxDelay:    "20s",
			Jitter:      true,
		},
		Executor: ExecutorConfig{
			MaxWorkers: 8,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    filepath.Join(".wirecall", "journal.db"),
		},
	}
}

// Load loads configuration from a YAML or TOML file.
// The format is chosen by extension; anything other than .toml is read as YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// AWS_REGION wins over AWS_DEFAULT_REGION, matching the AWS CLI
	if region := os.Getenv("AWS_DEFAULT_REGION"); region != "" {
		c.Region = region
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		c.Region = region
	}
	if profile := os.Getenv("AWS_PROFILE"); profile != "" {
		c.Profile = profile
	}
	if file := os.Getenv("AWS_SHARED_CREDENTIALS_FILE"); file != "" {
		c.CredentialsFile = file
	}

	if endpoint := os.Getenv("WIRECALL_ENDPOINT"); endpoint != "" {
		c.Endpoint = endpoint
	}
	if attempts := os.Getenv("WIRECALL_MAX_ATTEMPTS"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil && n > 0 {
			c.Retry.MaxAttempts = n
		}
	}
	if level := os.Getenv("WIRECALL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if path := os.Getenv("WIRECALL_JOURNAL"); path != "" {
		c.Journal.Enabled = true
		c.Journal.Path = path
	}
}

// GetTimeout returns the whole-call deadline. It also caps each HTTP exchange.
func (c *Config) GetTimeout() time.Duration {
	return parseDuration(c.HTTP.Timeout, defaultTimeout)
}

// GetAttemptTimeout returns the per-attempt deadline.
func (c *Config) GetAttemptTimeout() time.Duration {
	return parseDuration(c.HTTP.AttemptTimeout, defaultAttemptTimeout)
}

// GetRetryBaseDelay returns the first backoff delay.
func (c *Config) GetRetryBaseDelay() time.Duration {
	return parseDuration(c.Retry.BaseDelay, defaultBaseDelay)
}

// GetRetryMaxDelay returns the backoff ceiling.
func (c *Config) GetRetryMaxDelay() time.Duration {
	return parseDuration(c.Retry.MaxDelay, defaultMaxDelay)
}

// GetMaxWorkers returns the executor bound, at least 1.
func (c *Config) GetMaxWorkers() int {
	if c.Executor.MaxWorkers < 1 {
		return 1
	}
	return c.Executor.MaxWorkers
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Region == "" && c.Endpoint == "" {
		return fmt.Errorf("region or endpoint is required")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	for name, v := range map[string]string{
		"http.timeout":         c.HTTP.Timeout,
		"http.attempt_timeout": c.HTTP.AttemptTimeout,
		"retry.base_delay":     c.Retry.BaseDelay,
		"retry.max_delay":      c.Retry.MaxDelay,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}
	if c.GetRetryBaseDelay() > c.GetRetryMaxDelay() {
		return fmt.Errorf("retry.base_delay exceeds retry.max_delay")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid logging.format %q", c.Logging.Format)
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required when the journal is enabled")
	}
	return nil
}
