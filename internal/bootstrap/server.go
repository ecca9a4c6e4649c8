package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/services"
	"github.com/go-authgate/connectgate/internal/store"
	"github.com/go-authgate/connectgate/internal/telemetry"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// createHTTPServer creates the HTTP server instance. WriteTimeout leaves
// room for a slow token exchange inside the callback.
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	writeTimeout := 30 * time.Second
	if cfg.OutboundTimeout*2 > writeTimeout {
		writeTimeout = cfg.OutboundTimeout * 2
	}
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zap.L().Fatal("failed to start server", zap.Error(err))
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		zap.L().Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			zap.L().Error("server forced to shutdown", zap.Error(err))
			return err
		}

		zap.L().Info("server exited")
		return nil
	})
}

// addConnectedGaugeJob periodically refreshes the connected-providers gauge
func addConnectedGaugeJob(m *graceful.Manager, cfg *config.Config, tokens *services.TokenService) {
	if !cfg.MetricsEnabled || cfg.MetricsGaugeUpdateInterval <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.MetricsGaugeUpdateInterval)
		defer ticker.Stop()

		// Update immediately on startup
		tokens.UpdateConnectedGauge(ctx)

		for {
			select {
			case <-ticker.C:
				tokens.UpdateConnectedGauge(ctx)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(m *graceful.Manager, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := redisClient.Close(); err != nil {
			zap.L().Error("error closing redis client", zap.Error(err))
			return err
		}
		zap.L().Info("redis connection closed")
		return nil
	})
}

// addCacheCleanupJob adds cache cleanup on shutdown
func addCacheCleanupJob(m *graceful.Manager, cacheCloser func() error) {
	if cacheCloser == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := cacheCloser(); err != nil {
			zap.L().Error("error closing config cache", zap.Error(err))
		} else {
			zap.L().Info("config cache closed")
		}
		return nil
	})
}

// addDatabaseShutdownJob closes the connection pool
func addDatabaseShutdownJob(m *graceful.Manager, db *store.Store) {
	m.AddShutdownJob(func() error {
		if err := db.Close(); err != nil {
			zap.L().Error("error closing database", zap.Error(err))
			return err
		}
		return nil
	})
}

// addTelemetryShutdownJob flushes pending spans
func addTelemetryShutdownJob(m *graceful.Manager, tp *telemetry.Provider) {
	if !tp.Enabled() {
		return
	}

	m.AddShutdownJob(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			zap.L().Error("error flushing traces", zap.Error(err))
			return err
		}
		return nil
	})
}
