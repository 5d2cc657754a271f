package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for out-of-range values.
var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults. Budget thresholds follow the 70%/90% warning/critical split.
const (
	DefaultTokenBudget         = 200000
	DefaultWarningThreshold    = 0.7
	DefaultCriticalThreshold   = 0.9
	DefaultMaxValidationErrors = 5
	DefaultMaxRetryAttempts    = 5
	DefaultBacktrackThreshold  = 3
	DefaultLogLevel            = "INFO"
	DefaultWebPort             = "8080"
)

// Config holds all agent settings. Build one with Default, then layer
// LoadFile and ApplyEnv on top (env wins over file).
//
// MaxRetryAttempts and BacktrackThreshold are deliberately separate knobs:
// the retry ceiling bounds strategies per task, the backtrack threshold
// bounds consecutive same-category failures before abandoning the approach.
type Config struct {
	TokenBudget         int64   `yaml:"token_budget"`
	WarningThreshold    float64 `yaml:"warning_threshold"`
	CriticalThreshold   float64 `yaml:"critical_threshold"`
	MaxValidationErrors int     `yaml:"max_validation_errors"`
	MaxRetryAttempts    int     `yaml:"max_retry_attempts"`
	BacktrackThreshold  int     `yaml:"backtrack_threshold"`
	EnableMultiStrategy bool    `yaml:"enable_multi_strategy"`
	EnableBacktracking  bool    `yaml:"enable_backtracking"`
	LogLevel            string  `yaml:"log_level"`
	WebPort             string  `yaml:"web_port"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		TokenBudget:         DefaultTokenBudget,
		WarningThreshold:    DefaultWarningThreshold,
		CriticalThreshold:   DefaultCriticalThreshold,
		MaxValidationErrors: DefaultMaxValidationErrors,
		MaxRetryAttempts:    DefaultMaxRetryAttempts,
		BacktrackThreshold:  DefaultBacktrackThreshold,
		EnableMultiStrategy: true,
		EnableBacktracking:  true,
		LogLevel:            DefaultLogLevel,
		WebPort:             DefaultWebPort,
	}
}

// fileConfig mirrors Config with pointer fields so a YAML file only
// overrides the keys it actually sets.
type fileConfig struct {
	TokenBudget         *int64   `yaml:"token_budget"`
	WarningThreshold    *float64 `yaml:"warning_threshold"`
	CriticalThreshold   *float64 `yaml:"critical_threshold"`
	MaxValidationErrors *int     `yaml:"max_validation_errors"`
	MaxRetryAttempts    *int     `yaml:"max_retry_attempts"`
	BacktrackThreshold  *int     `yaml:"backtrack_threshold"`
	EnableMultiStrategy *bool    `yaml:"enable_multi_strategy"`
	EnableBacktracking  *bool    `yaml:"enable_backtracking"`
	LogLevel            *string  `yaml:"log_level"`
	WebPort             *string  `yaml:"web_port"`
}

// LoadFile overlays settings from a YAML file onto c.
// Keys absent from the file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.TokenBudget != nil {
		c.TokenBudget = *fc.TokenBudget
	}
	if fc.WarningThreshold != nil {
		c.WarningThreshold = *fc.WarningThreshold
	}
	if fc.CriticalThreshold != nil {
		c.CriticalThreshold = *fc.CriticalThreshold
	}
	if fc.MaxValidationErrors != nil {
		c.MaxValidationErrors = *fc.MaxValidationErrors
	}
	if fc.MaxRetryAttempts != nil {
		c.MaxRetryAttempts = *fc.MaxRetryAttempts
	}
	if fc.BacktrackThreshold != nil {
		c.BacktrackThreshold = *fc.BacktrackThreshold
	}
	if fc.EnableMultiStrategy != nil {
		c.EnableMultiStrategy = *fc.EnableMultiStrategy
	}
	if fc.EnableBacktracking != nil {
		c.EnableBacktracking = *fc.EnableBacktracking
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.WebPort != nil {
		c.WebPort = *fc.WebPort
	}
	return nil
}

// ApplyEnv overlays settings from environment variables onto c.
// Malformed values log a warning and keep the current setting, so a typo in
// the environment never takes the process down.
func (c *Config) ApplyEnv() {
	c.TokenBudget = envInt64("AGENT_TOKEN_BUDGET", c.TokenBudget)
	c.MaxValidationErrors = envInt("AGENT_MAX_ERRORS", c.MaxValidationErrors)
	c.MaxRetryAttempts = envInt("AGENT_MAX_RETRIES", c.MaxRetryAttempts)
	c.BacktrackThreshold = envInt("AGENT_BACKTRACK_THRESHOLD", c.BacktrackThreshold)
	if v := os.Getenv("AGENT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("AGENT_WEB_PORT"); v != "" {
		c.WebPort = v
	}
}

// FromEnv builds a config from defaults plus environment overrides.
func FromEnv() Config {
	c := Default()
	c.ApplyEnv()
	return c
}

// Validate checks value ranges. Called after all layers are applied;
// violations are construction errors, not warnings.
func (c Config) Validate() error {
	if c.TokenBudget <= 0 {
		return fmt.Errorf("%w: token_budget must be positive, got %d", ErrInvalidConfig, c.TokenBudget)
	}
	if c.WarningThreshold <= 0 || c.WarningThreshold >= c.CriticalThreshold || c.CriticalThreshold > 1.0 {
		return fmt.Errorf("%w: need 0 < warning_threshold (%v) < critical_threshold (%v) <= 1.0",
			ErrInvalidConfig, c.WarningThreshold, c.CriticalThreshold)
	}
	if c.MaxValidationErrors <= 0 {
		return fmt.Errorf("%w: max_validation_errors must be positive", ErrInvalidConfig)
	}
	if c.MaxRetryAttempts <= 0 {
		return fmt.Errorf("%w: max_retry_attempts must be positive", ErrInvalidConfig)
	}
	if c.BacktrackThreshold <= 0 {
		return fmt.Errorf("%w: backtrack_threshold must be positive", ErrInvalidConfig)
	}
	return nil
}

// envInt reads an integer env var, warning and keeping fallback on garbage.
func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[Config] WARNING: invalid %s=%q (must be a positive integer), using %d", name, v, fallback)
		return fallback
	}
	return n
}

// envInt64 is envInt for 64-bit values (the token budget).
func envInt64(name string, fallback int64) int64 {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		log.Printf("[Config] WARNING: invalid %s=%q (must be a positive integer), using %d", name, v, fallback)
		return fallback
	}
	return n
}
