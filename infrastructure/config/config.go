package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Store backends for the events API
const (
	StoreDynamoDB = "dynamodb"
	StoreBadger   = "badger"
)

// Config holds all events API configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Storage
	StoreBackend  string
	BadgerDir     string // empty runs badger in memory
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string // empty disables publishing

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Rate limiting, per client IP
	RateLimitPerMinute int
	RateLimitBurst     int

	// Seconds the ordered listing stays cached; 0 disables the cache
	ListCacheTTL int

	// Feature flags
	EnableMetrics    bool
	EnableCloudWatch bool
	EnableTracing    bool
	EnableCORS       bool
	CORSOrigins      []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	env := getEnv("ENVIRONMENT", "development")
	defaultBackend := StoreBadger
	if env == "production" {
		defaultBackend = StoreDynamoDB
	}

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   env,

		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", defaultBackend)),
		BadgerDir:     getEnv("BADGER_DIR", ""),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "trip-events")),
		EventBusName:  getEnv("EVENT_BUS_NAME", ""),

		// Lambda configuration
		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		// Authentication
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "tripgraph"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),
		ListCacheTTL:       getEnvInt("LIST_CACHE_TTL", 5),

		// Logging and features
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		EnableMetrics:    getEnvBool("ENABLE_METRICS", true),
		EnableCloudWatch: getEnvBool("ENABLE_CLOUDWATCH", false),
		EnableTracing:    getEnvBool("ENABLE_TRACING", false),
		EnableCORS:       getEnvBool("ENABLE_CORS", true),
		CORSOrigins:      getEnvList("CORS_ORIGINS", []string{"*"}),
	}

	// Lambda runtime sets AWS_LAMBDA_FUNCTION_NAME
	if cfg.LambdaFunctionName != "" {
		cfg.IsLambda = true
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required for the dynamodb store")
		}
	case StoreBadger:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.RateLimitPerMinute < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limits cannot be negative")
	}
	if c.Environment == "production" && c.StoreBackend == StoreBadger && c.BadgerDir == "" {
		return fmt.Errorf("BADGER_DIR is required in production when using badger")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AuthEnabled reports whether bearer tokens are required
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// ListingCacheTTL returns the listing cache lifetime in seconds. Lambda
// instances do not share a cache, so a write on one would leave the others
// serving a stale listing; caching is off there.
func (c *Config) ListingCacheTTL() int {
	if c.IsLambda {
		return 0
	}
	return c.ListCacheTTL
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated environment variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
