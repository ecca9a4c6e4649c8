package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/store"

	"go.uber.org/zap"
)

// initializeDatabase opens the store and runs migrations
func initializeDatabase(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DBInitTimeout)
	defer cancel()

	db, err := store.New(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	zap.L().Info("database initialized", zap.String("driver", cfg.DatabaseDriver))
	return db, nil
}
