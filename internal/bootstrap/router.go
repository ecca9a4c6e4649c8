package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/metrics"
	"github.com/go-authgate/connectgate/internal/middleware"
	"github.com/go-authgate/connectgate/internal/store"
	"github.com/go-authgate/connectgate/internal/version"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const sessionName = "connectgate_session"

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	h handlerSet,
	prometheusMetrics metrics.Recorder,
	rateLimitRedisClient *redis.Client,
) (*gin.Engine, error) {
	setupGinMode(cfg)
	r := gin.New()

	// Setup middleware
	r.Use(otelgin.Middleware(cfg.OTelServiceName))
	r.Use(metrics.HTTPMetricsMiddleware(prometheusMetrics))
	r.Use(middleware.RequestLogger(zap.L()), gin.Recovery())

	setupSessionMiddleware(r, cfg)

	// Health check endpoint
	r.GET("/health", createHealthCheckHandler(db))

	setupMetricsEndpoint(r, cfg)

	rateLimiters, err := setupRateLimiting(cfg, rateLimitRedisClient)
	if err != nil {
		return nil, err
	}

	setupAllRoutes(r, cfg, h, rateLimiters)

	logServerStartup(cfg)
	return r, nil
}

// setupSessionMiddleware configures the cookie session holding OAuth state
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		zap.L().Info("prometheus metrics disabled")
	case cfg.MetricsToken != "":
		zap.L().Info("prometheus metrics enabled at /metrics with bearer token authentication")
		r.GET(
			"/metrics",
			middleware.BearerAuth(cfg.MetricsToken, "Metrics"),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		zap.L().Info("prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes. The browser flow stays
// open; management routes sit behind ADMIN_TOKEN when it is set.
func setupAllRoutes(
	r *gin.Engine,
	cfg *config.Config,
	h handlerSet,
	rateLimiters rateLimitMiddlewares,
) {
	api := r.Group("/api")

	oauth := api.Group("/oauth")
	{
		oauth.GET("/start/:provider", rateLimiters.oauth, h.oauth.Start)
		oauth.GET("/callback/:provider", rateLimiters.oauth, h.oauth.Callback)
	}

	admin := api.Group("")
	admin.Use(middleware.BearerAuth(cfg.AdminToken, "ConnectGate"))
	{
		admin.GET("/oauth/configs", h.configs.Get)
		admin.POST("/oauth/configs", h.configs.Upsert)
		admin.DELETE("/oauth/configs", h.configs.Delete)

		admin.GET("/oauth/tokens", h.tokens.List)
		admin.DELETE("/oauth/tokens", h.tokens.Delete)

		admin.GET("/oauth/logs", h.logs.List)
		admin.DELETE("/oauth/logs", h.logs.Clear)

		admin.GET("/providers", h.providers.List)
		admin.POST("/test/:provider", rateLimiters.probe, h.probe.Test)
	}

	if cfg.AdminToken == "" {
		zap.L().Warn("ADMIN_TOKEN is not set; management API is unauthenticated")
	}
}

// createHealthCheckHandler creates health check endpoint handler
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		switch err := db.Health(ctx); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
				"version":  version.GetVersion(),
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	gin.SetMode(ginModeMap[cfg.IsProduction])
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	zap.L().Info("connectgate starting",
		zap.String("addr", cfg.ServerAddr),
		zap.String("version", version.GetVersion()),
		zap.String("callback_url", cfg.BaseURL+"/api/oauth/callback/{provider}"),
		zap.String("gin_mode", gin.Mode()),
	)
}
