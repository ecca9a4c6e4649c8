package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		BaseURL:         "http://localhost:8080",
		DatabaseDriver:  DatabaseDriverSQLite,
		DatabaseDSN:     ":memory:",
		RateLimitStore:  RateLimitStoreMemory,
		ConfigCacheType: ConfigCacheTypeMemory,
		ConfigCacheTTL:  time.Minute,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:   "valid redis-aside cache",
			mutate: func(c *Config) { c.ConfigCacheType = ConfigCacheTypeRedisAside },
		},
		{
			name:   "cache disabled ignores ttl",
			mutate: func(c *Config) { c.ConfigCacheType = ConfigCacheTypeNone; c.ConfigCacheTTL = 0 },
		},
		{
			name:     "unknown database driver",
			mutate:   func(c *Config) { c.DatabaseDriver = "mysql" },
			errorMsg: `invalid DATABASE_DRIVER value: "mysql"`,
		},
		{
			name: "postgres without dsn",
			mutate: func(c *Config) {
				c.DatabaseDriver = DatabaseDriverPostgres
				c.DatabaseDSN = ""
			},
			errorMsg: "DATABASE_DSN is required",
		},
		{
			name:     "rate limit store typo",
			mutate:   func(c *Config) { c.RateLimitStore = "reddis" },
			errorMsg: `invalid RATE_LIMIT_STORE value: "reddis"`,
		},
		{
			name:     "unknown cache type",
			mutate:   func(c *Config) { c.ConfigCacheType = "memcache" },
			errorMsg: `invalid CONFIG_CACHE_TYPE value: "memcache"`,
		},
		{
			name:     "zero cache ttl",
			mutate:   func(c *Config) { c.ConfigCacheTTL = 0 },
			errorMsg: "CONFIG_CACHE_TTL must be positive",
		},
		{
			name:     "empty base url",
			mutate:   func(c *Config) { c.BaseURL = "" },
			errorMsg: "BASE_URL must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BASE_URL", "https://dash.example.com/")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("OUTBOUND_TIMEOUT", "3s")
	t.Setenv("TOKEN_PRESERVE_REFRESH", "false")

	cfg := Load()

	assert.Equal(t, "https://dash.example.com", cfg.BaseURL, "trailing slash trimmed")
	assert.Equal(t, DatabaseDriverSQLite, cfg.DatabaseDriver)
	assert.True(t, cfg.IsProduction)
	assert.Equal(t, 3*time.Second, cfg.OutboundTimeout)
	assert.False(t, cfg.TokenPreserveRefresh)
	assert.Equal(t, ConfigCacheTypeMemory, cfg.ConfigCacheType)
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_MAX_AGE", "abc")
	t.Setenv("OUTBOUND_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 3600, cfg.SessionMaxAge)
	assert.Equal(t, 15*time.Second, cfg.OutboundTimeout)
}

func TestConfig_UsesRedis(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.UsesRedis())

	cfg.ConfigCacheType = ConfigCacheTypeRedis
	assert.True(t, cfg.UsesRedis())

	cfg.ConfigCacheType = ConfigCacheTypeMemory
	cfg.EnableRateLimit = true
	cfg.RateLimitStore = RateLimitStoreRedis
	assert.True(t, cfg.UsesRedis())

	cfg.EnableRateLimit = false
	assert.False(t, cfg.UsesRedis())
}
