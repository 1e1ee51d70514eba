package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all formulas configuration.
type Config struct {
	// Calculation service
	Server ServerConfig `yaml:"server"`

	// Client of the calculation service
	Client ClientConfig `yaml:"client"`

	// Local and server-side evaluation
	Eval EvalConfig `yaml:"eval"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the calculation service.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	ReadTimeout    string   `yaml:"read_timeout"`
	WriteTimeout   string   `yaml:"write_timeout"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ClientConfig configures calls to the calculation service.
type ClientConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// EvalConfig configures formula evaluation.
type EvalConfig struct {
	// Precision is the number of mantissa bits used while evaluating.
	Precision uint `yaml:"precision"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":5000",
			ReadTimeout:    "10s",
			WriteTimeout:   "10s",
			MaxBodyBytes:   1 << 20,
			AllowedOrigins: []string{"*"},
		},
		Client: ClientConfig{
			BaseURL: "http://localhost:5000",
			Timeout: "15s",
		},
		Eval: EvalConfig{
			Precision: 64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. Environment variables override
// values from the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults if the config file doesn't exist.
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

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

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("FORMULAS_API_URL"); url != "" {
		c.Client.BaseURL = url
	}
	if addr := os.Getenv("FORMULAS_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("FORMULAS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if p := os.Getenv("FORMULAS_PRECISION"); p != "" {
		// A bad value is left for Validate to report.
		if n, err := strconv.ParseUint(p, 10, 0); err == nil {
			c.Eval.Precision = uint(n)
		} else {
			c.Eval.Precision = 0
		}
	}
}

// GetReadTimeout returns the server read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	return c.Server.GetReadTimeout()
}

// GetWriteTimeout returns the server write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return c.Server.GetWriteTimeout()
}

// GetReadTimeout returns the read timeout as a duration.
func (s ServerConfig) GetReadTimeout() time.Duration {
	d, err := time.ParseDuration(s.ReadTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetWriteTimeout returns the write timeout as a duration.
func (s ServerConfig) GetWriteTimeout() time.Duration {
	d, err := time.ParseDuration(s.WriteTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetClientTimeout returns the timeout for one call to the service.
func (c *Config) GetClientTimeout() time.Duration {
	d, err := time.ParseDuration(c.Client.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// MaxPrecision is the largest accepted evaluation precision.
const MaxPrecision = 1 << 16

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidLogFormats lists the accepted logging formats.
var ValidLogFormats = []string{"json", "console"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Eval.Precision == 0 || c.Eval.Precision > MaxPrecision {
		return fmt.Errorf("invalid precision: %d (must be 1 to %d bits)", c.Eval.Precision, MaxPrecision)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid max_body_bytes: %d", c.Server.MaxBodyBytes)
	}
	if c.Client.BaseURL == "" {
		return fmt.Errorf("client base_url not configured (set FORMULAS_API_URL)")
	}
	if !contains(ValidLogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	if !contains(ValidLogFormats, c.Logging.Format) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Logging.Format, ValidLogFormats)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
