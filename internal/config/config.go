package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database driver constants
const (
	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Config cache type constants
const (
	ConfigCacheTypeNone       = "none"
	ConfigCacheTypeMemory     = "memory"
	ConfigCacheTypeRedis      = "redis"
	ConfigCacheTypeRedisAside = "redis-aside"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string // Dashboard root; callbacks redirect here with oauth_success/oauth_error
	IsProduction bool

	// Session settings (OAuth state is kept in a signed session cookie)
	SessionSecret string
	SessionMaxAge int // seconds

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)
	DBInitTimeout  time.Duration

	// Outbound HTTP (token exchange, metadata and probe calls)
	OutboundTimeout            time.Duration
	OutboundInsecureSkipVerify bool

	// Carry the stored refresh_token forward when a reconnect response omits it
	TokenPreserveRefresh bool

	// Bearer token guarding the management API (empty = open)
	AdminToken string

	// Provider config read cache
	ConfigCacheType      string
	ConfigCacheTTL       time.Duration
	ConfigCacheClientTTL time.Duration // redis-aside local TTL
	CacheInitTimeout     time.Duration

	// Redis (config cache and rate limiting)
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisConnTimeout time.Duration

	// Rate limiting
	EnableRateLimit          bool
	RateLimitStore           string
	OAuthRateLimit           int // requests per minute on start/callback
	ProbeRateLimit           int // requests per minute on probe calls
	RateLimitCleanupInterval time.Duration

	// Metrics
	MetricsEnabled             bool
	MetricsToken               string
	MetricsGaugeUpdateInterval time.Duration

	// Tracing
	OTelEndpoint    string
	OTelInsecure    bool
	OTelServiceName string

	// Logging
	LogLevel string
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", DatabaseDriverSQLite)
	var dsn string
	if driver == DatabaseDriverSQLite {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "connectgate.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	env := getEnv("ENVIRONMENT", "development")

	return &Config{
		ServerAddr:    getEnv("SERVER_ADDR", ":8080"),
		BaseURL:       strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		IsProduction:  env == "production",
		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 3600),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		DBInitTimeout:  getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),

		OutboundTimeout:            getEnvDuration("OUTBOUND_TIMEOUT", 15*time.Second),
		OutboundInsecureSkipVerify: getEnvBool("OUTBOUND_INSECURE_SKIP_VERIFY", false),

		TokenPreserveRefresh: getEnvBool("TOKEN_PRESERVE_REFRESH", true),
		AdminToken:           getEnv("ADMIN_TOKEN", ""),

		ConfigCacheType:      getEnv("CONFIG_CACHE_TYPE", ConfigCacheTypeMemory),
		ConfigCacheTTL:       getEnvDuration("CONFIG_CACHE_TTL", 5*time.Minute),
		ConfigCacheClientTTL: getEnvDuration("CONFIG_CACHE_CLIENT_TTL", 30*time.Second),
		CacheInitTimeout:     getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),

		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisConnTimeout: getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),

		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		OAuthRateLimit:           getEnvInt("OAUTH_RATE_LIMIT", 30),
		ProbeRateLimit:           getEnvInt("PROBE_RATE_LIMIT", 60),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),

		MetricsEnabled:             getEnvBool("METRICS_ENABLED", false),
		MetricsToken:               getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 5*time.Minute),

		OTelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelInsecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OTelServiceName: getEnv("OTEL_SERVICE_NAME", "connectgate"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks enum-style settings and required values
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DatabaseDriverSQLite, DatabaseDriverPostgres:
	default:
		return fmt.Errorf(
			"invalid DATABASE_DRIVER value: %q (must be %q or %q)",
			c.DatabaseDriver, DatabaseDriverSQLite, DatabaseDriverPostgres,
		)
	}
	if c.DatabaseDriver == DatabaseDriverPostgres && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required when DATABASE_DRIVER=%s", DatabaseDriverPostgres)
	}

	if c.RateLimitStore != RateLimitStoreMemory && c.RateLimitStore != RateLimitStoreRedis {
		return fmt.Errorf(
			"invalid RATE_LIMIT_STORE value: %q (must be %q or %q)",
			c.RateLimitStore, RateLimitStoreMemory, RateLimitStoreRedis,
		)
	}

	switch c.ConfigCacheType {
	case ConfigCacheTypeNone, ConfigCacheTypeMemory, ConfigCacheTypeRedis, ConfigCacheTypeRedisAside:
	default:
		return fmt.Errorf(
			"invalid CONFIG_CACHE_TYPE value: %q (must be none, memory, redis or redis-aside)",
			c.ConfigCacheType,
		)
	}
	if c.ConfigCacheType != ConfigCacheTypeNone && c.ConfigCacheTTL <= 0 {
		return fmt.Errorf("CONFIG_CACHE_TTL must be positive, got %s", c.ConfigCacheTTL)
	}

	if c.BaseURL == "" {
		return fmt.Errorf("BASE_URL must not be empty")
	}
	return nil
}

// UsesRedis reports whether any component needs a Redis connection
func (c *Config) UsesRedis() bool {
	return (c.EnableRateLimit && c.RateLimitStore == RateLimitStoreRedis) ||
		c.ConfigCacheType == ConfigCacheTypeRedis ||
		c.ConfigCacheType == ConfigCacheTypeRedisAside
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
