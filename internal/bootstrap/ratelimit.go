package bootstrap

import (
	"fmt"

	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// rateLimitMiddlewares holds rate limiting middlewares for different endpoints
type rateLimitMiddlewares struct {
	oauth gin.HandlerFunc // start and callback
	probe gin.HandlerFunc
}

// setupRateLimiting configures rate limiting middlewares based on configuration
func setupRateLimiting(
	cfg *config.Config,
	redisClient *redis.Client,
) (rateLimitMiddlewares, error) {
	if !cfg.EnableRateLimit {
		noOpMiddleware := func(c *gin.Context) { c.Next() }
		return rateLimitMiddlewares{oauth: noOpMiddleware, probe: noOpMiddleware}, nil
	}
	return createRateLimiters(cfg, redisClient)
}

// createRateLimiters creates one limiter per route group; with Redis they
// share the client but keep separate counters
func createRateLimiters(
	cfg *config.Config,
	redisClient *redis.Client,
) (rateLimitMiddlewares, error) {
	storeType := middleware.RateLimitStoreType(cfg.RateLimitStore)
	zap.L().Info("rate limiting enabled", zap.String("store", cfg.RateLimitStore))

	createLimiter := func(requestsPerMinute int, name string) (gin.HandlerFunc, error) {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: requestsPerMinute,
			StoreType:         storeType,
			RedisClient:       redisClient,
			CleanupInterval:   cfg.RateLimitCleanupInterval,
			Prefix:            "connectgate:ratelimit:" + name,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter for %s: %w", name, err)
		}
		return limiter, nil
	}

	oauth, err := createLimiter(cfg.OAuthRateLimit, "oauth")
	if err != nil {
		return rateLimitMiddlewares{}, err
	}
	probe, err := createLimiter(cfg.ProbeRateLimit, "probe")
	if err != nil {
		return rateLimitMiddlewares{}, err
	}
	return rateLimitMiddlewares{oauth: oauth, probe: probe}, nil
}
