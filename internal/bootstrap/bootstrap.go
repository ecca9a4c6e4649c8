package bootstrap

import (
	"context"
	"net/http"

	"github.com/go-authgate/connectgate/internal/cache"
	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/metrics"
	"github.com/go-authgate/connectgate/internal/providers"
	"github.com/go-authgate/connectgate/internal/services"
	"github.com/go-authgate/connectgate/internal/store"
	"github.com/go-authgate/connectgate/internal/telemetry"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config
	Logger *zap.Logger

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      metrics.Recorder
	Telemetry            *telemetry.Provider
	ConfigCache          cache.Cache[services.ConfigEntry]
	ConfigCacheCloser    func() error
	RateLimitRedisClient *redis.Client
	OutboundClient       *http.Client

	// Business layer
	Registry *providers.Registry
	Services serviceSet

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(ctx context.Context, cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := validateAllConfiguration(cfg); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		app.closeInfrastructure()
		return err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		app.closeInfrastructure()
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up logging, database, metrics, tracing,
// cache, Redis and the outbound HTTP client
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	app.Logger, err = initializeLogger(app.Config)
	if err != nil {
		return err
	}

	app.Telemetry, err = initializeTelemetry(ctx, app.Config, app.Logger)
	if err != nil {
		return err
	}

	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	app.MetricsRecorder = initializeMetrics(app.Config)

	app.ConfigCache, app.ConfigCacheCloser, err = initializeConfigCache(ctx, app.Config)
	if err != nil {
		return err
	}

	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config)
	if err != nil {
		return err
	}

	app.OutboundClient, err = createOutboundHTTPClient(app.Config)
	if err != nil {
		return err
	}

	return nil
}

// closeInfrastructure releases whatever was opened before a startup failure
func (app *Application) closeInfrastructure() {
	if app.RateLimitRedisClient != nil {
		_ = app.RateLimitRedisClient.Close()
	}
	if app.ConfigCacheCloser != nil {
		_ = app.ConfigCacheCloser()
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
	if app.Telemetry != nil {
		_ = app.Telemetry.Shutdown(context.Background())
	}
	if app.Logger != nil {
		_ = app.Logger.Sync()
	}
}

// initializeBusinessLayer sets up the provider registry and services
func (app *Application) initializeBusinessLayer() {
	app.Registry = providers.Default()
	app.Services = initializeServices(
		app.Config,
		app.DB,
		app.Registry,
		app.ConfigCache,
		app.OutboundClient,
		app.MetricsRecorder,
	)
	logProvidersStatus(app.Config, app.Registry, app.Services.resolver)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(app.Config, app.Registry, app.Services)

	var err error
	app.Router, err = setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.MetricsRecorder,
		app.RateLimitRedisClient,
	)
	if err != nil {
		return err
	}

	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	// Add jobs
	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addConnectedGaugeJob(m, app.Config, app.Services.tokens)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient)
	addCacheCleanupJob(m, app.ConfigCacheCloser)
	addDatabaseShutdownJob(m, app.DB)
	addTelemetryShutdownJob(m, app.Telemetry)

	// Wait for graceful shutdown
	<-m.Done()
	_ = app.Logger.Sync()
}
