package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	domainconfig "tripgraph/domain/config"
)

// BreakerConfig tunes the circuit breaker in front of the events API
type BreakerConfig struct {
	MaxRequests  uint32        `yaml:"max_requests"`
	Interval     time.Duration `yaml:"interval"`
	Timeout      time.Duration `yaml:"timeout"`
	FailureRatio float64       `yaml:"failure_ratio"`
	MinRequests  uint32        `yaml:"min_requests"`
}

// PlannerConfig configures tripctl
type PlannerConfig struct {
	Environment       string        `yaml:"environment"`
	APIURL            string        `yaml:"api_url"`
	APIToken          string        `yaml:"api_token"`
	Listen            string        `yaml:"listen"`
	ChainMode         string        `yaml:"chain_mode"`
	LogLevel          string        `yaml:"log_level"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	EnableTracing     bool          `yaml:"enable_tracing"`
	Breaker           BreakerConfig `yaml:"breaker"`
}

// DefaultPlannerConfig returns the built-in planner settings
func DefaultPlannerConfig() *PlannerConfig {
	return &PlannerConfig{
		Environment:       "development",
		APIURL:            "http://localhost:8080",
		Listen:            ":8090",
		ChainMode:         string(domainconfig.ChainModeExplicit),
		LogLevel:          "info",
		ReconcileInterval: 30 * time.Second,
		RequestTimeout:    10 * time.Second,
		Breaker: BreakerConfig{
			MaxRequests:  3,
			Interval:     60 * time.Second,
			Timeout:      30 * time.Second,
			FailureRatio: 0.6,
			MinRequests:  5,
		},
	}
}

// LoadPlannerConfig reads path over the defaults, then applies TRIPCTL_*
// environment overrides. A missing file is not an error.
func LoadPlannerConfig(path string) (*PlannerConfig, error) {
	cfg := DefaultPlannerConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	cfg.APIURL = getEnv("TRIPCTL_API_URL", cfg.APIURL)
	cfg.APIToken = getEnv("TRIPCTL_API_TOKEN", cfg.APIToken)
	cfg.Listen = getEnv("TRIPCTL_LISTEN", cfg.Listen)
	cfg.ChainMode = getEnv("TRIPCTL_CHAIN_MODE", cfg.ChainMode)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.EnableTracing = getEnvBool("ENABLE_TRACING", cfg.EnableTracing)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the planner settings
func (c *PlannerConfig) Validate() error {
	if _, err := domainconfig.ParseChainMode(c.ChainMode); err != nil {
		return err
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url must be an http(s) URL, got %q", c.APIURL)
	}
	if c.ReconcileInterval < 0 {
		return fmt.Errorf("reconcile_interval cannot be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("breaker.failure_ratio must be in (0, 1]")
	}
	return nil
}

// DomainConfig builds the timeline rules for this planner
func (c *PlannerConfig) DomainConfig() *domainconfig.DomainConfig {
	dc := domainconfig.LoadDomainConfig(c.Environment)
	mode, err := domainconfig.ParseChainMode(c.ChainMode)
	if err == nil {
		dc.ChainMode = mode
	}
	return dc
}
