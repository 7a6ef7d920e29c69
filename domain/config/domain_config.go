package config

import (
	"fmt"
	"strings"
)

// ChainMode selects how the timeline maintains its edges
type ChainMode string

const (
	// ChainModeDerived recomputes edges from the sequence on every read.
	// Manual connections are not supported.
	ChainModeDerived ChainMode = "derived"

	// ChainModeExplicit keeps edges as state, seeded from the chain and
	// repaired incrementally on append and delete.
	ChainModeExplicit ChainMode = "explicit"
)

// ParseChainMode converts a configuration string into a ChainMode
func ParseChainMode(s string) (ChainMode, error) {
	switch ChainMode(strings.ToLower(strings.TrimSpace(s))) {
	case ChainModeDerived:
		return ChainModeDerived, nil
	case ChainModeExplicit, "":
		return ChainModeExplicit, nil
	default:
		return "", fmt.Errorf("unknown chain mode %q", s)
	}
}

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Edge strategy
	ChainMode ChainMode

	// Placement of appended events
	HorizontalStep float64
	OriginX        float64
	OriginY        float64

	// Event constraints
	DefaultTitle         string
	MaxTitleLength       int
	MaxDescriptionLength int
	MaxEventsPerTimeline int

	// Edge constraints
	AllowSelfConnections bool

	// Prefix for ids assigned locally before the store answers
	ProvisionalIDPrefix string
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		ChainMode: ChainModeExplicit,

		HorizontalStep: 150,
		OriginX:        50,
		OriginY:        50,

		DefaultTitle:         "New Event",
		MaxTitleLength:       200,
		MaxDescriptionLength: 5000,
		MaxEventsPerTimeline: 1000,

		AllowSelfConnections: false,

		ProvisionalIDPrefix: "local-",
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxEventsPerTimeline = 500
	config.MaxDescriptionLength = 2000

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxEventsPerTimeline = 10000

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if _, err := ParseChainMode(string(c.ChainMode)); err != nil {
		return err
	}
	if c.HorizontalStep <= 0 {
		return fmt.Errorf("horizontal step must be positive, got %v", c.HorizontalStep)
	}
	if c.MaxTitleLength < 1 {
		return fmt.Errorf("max title length must be at least 1")
	}
	if c.MaxEventsPerTimeline < 1 {
		return fmt.Errorf("max events per timeline must be at least 1")
	}
	if c.ProvisionalIDPrefix == "" {
		return fmt.Errorf("provisional id prefix cannot be empty")
	}
	return nil
}
