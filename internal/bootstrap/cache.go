package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-authgate/connectgate/internal/cache"
	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/metrics"
	"github.com/go-authgate/connectgate/internal/services"

	"go.uber.org/zap"
)

const configCacheKeyPrefix = "connectgate:configs:"

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		zap.L().Info("prometheus metrics initialized")
	} else {
		zap.L().Info("metrics disabled (using noop implementation)")
	}
	return recorder
}

// initializeConfigCache initializes the provider config read cache.
// CONFIG_CACHE_TYPE=none returns a nil cache and reads go to the store.
func initializeConfigCache(
	ctx context.Context,
	cfg *config.Config,
) (cache.Cache[services.ConfigEntry], func() error, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
	defer cancel()

	switch cfg.ConfigCacheType {
	case config.ConfigCacheTypeNone:
		zap.L().Info("config cache disabled")
		return nil, nil, nil

	case config.ConfigCacheTypeRedisAside:
		c, err := cache.NewRueidisAsideCache[services.ConfigEntry](
			ctx,
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			configCacheKeyPrefix,
			cfg.ConfigCacheClientTTL,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis-aside config cache: %w", err)
		}
		zap.L().Info("config cache: redis-aside",
			zap.String("addr", cfg.RedisAddr),
			zap.Int("db", cfg.RedisDB),
			zap.Duration("client_ttl", cfg.ConfigCacheClientTTL),
		)
		return c, c.Close, nil

	case config.ConfigCacheTypeRedis:
		c, err := cache.NewRueidisCache[services.ConfigEntry](
			ctx,
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			configCacheKeyPrefix,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis config cache: %w", err)
		}
		zap.L().Info("config cache: redis",
			zap.String("addr", cfg.RedisAddr),
			zap.Int("db", cfg.RedisDB),
		)
		return c, c.Close, nil

	default: // memory
		c := cache.NewMemoryCache[services.ConfigEntry]()
		zap.L().Info("config cache: memory (single instance only)")
		return c, c.Close, nil
	}
}
