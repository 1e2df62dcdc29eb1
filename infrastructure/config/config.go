package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	domainconfig "ponydocs/domain/config"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageDynamoDB = "dynamodb"
	StorageBadger   = "badger"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	EdgeIndexName string
	EventBusName  string

	// Storage
	StorageBackend string
	BadgerPath     string
	StoreTimeout   time.Duration
	LockTTL        time.Duration

	// Documentation engine
	DocNamespace     string
	NavCacheTTL      time.Duration
	TOCCacheTTL      time.Duration
	LatestDocURL     string
	LandingURL       string
	AutoCreateOnEdit bool

	// Lambda configuration
	IsLambda bool

	// Optional YAML overlay, hot-reloaded in development
	ConfigFile string

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
	CORSOrigins   string
}

// LoadConfig loads configuration from environment variables and applies the
// overlay file when CONFIG_FILE is set
func LoadConfig() (*Config, error) {
	namespace := getEnv("DOC_NAMESPACE", "Documentation")

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", "ponydocs"),
		EdgeIndexName: getEnv("EDGE_INDEX_NAME", "GSI1"),
		EventBusName:  getEnv("EVENT_BUS_NAME", ""),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageMemory),
		BadgerPath:     getEnv("BADGER_PATH", ""),
		StoreTimeout:   getEnvDuration("STORE_TIMEOUT", 3*time.Second),
		LockTTL:        getEnvDuration("LOCK_TTL", 10*time.Second),

		DocNamespace:     namespace,
		NavCacheTTL:      getEnvDuration("NAV_CACHE_TTL", time.Hour),
		TOCCacheTTL:      getEnvDuration("TOC_CACHE_TTL", time.Hour),
		LatestDocURL:     getEnv("LATEST_DOC_URL", "Special:SpecialLatestDoc"),
		LandingURL:       getEnv("LANDING_URL", namespace),
		AutoCreateOnEdit: getEnvBool("AUTOCREATE_ON_EDIT", false),

		IsLambda:   getEnv("AWS_LAMBDA_FUNCTION_NAME", "") != "",
		ConfigFile: getEnv("CONFIG_FILE", ""),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		CORSOrigins:   getEnv("CORS_ORIGINS", ""),
	}

	if cfg.ConfigFile != "" {
		overlay, err := LoadOverlay(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg.ApplyOverlay(overlay)
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StorageDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required for the dynamodb backend")
		}
	case StorageBadger:
		if c.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required for the badger backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.DocNamespace == "" {
		return fmt.Errorf("DOC_NAMESPACE must not be empty")
	}
	if c.NavCacheTTL <= 0 || c.TOCCacheTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be positive")
	}

	if c.IsProduction() && c.StorageBackend == StorageMemory {
		return fmt.Errorf("the memory backend is not allowed in production")
	}

	return nil
}

// Domain builds the naming conventions the engine runs with
func (c *Config) Domain() *domainconfig.DomainConfig {
	dc := domainconfig.DefaultDomainConfig().WithNamespace(c.DocNamespace)
	dc.LatestDocURL = c.LatestDocURL
	if c.LandingURL != "" {
		dc.LandingURL = c.LandingURL
	}
	dc.AutoCreateOnEdit = c.AutoCreateOnEdit
	return dc
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
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

// getEnvDuration accepts Go durations ("90s") or plain seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs := getEnvInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
