package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the persistence layer for provider configs, tokens and the
// activity log. It is created once at startup and injected into services.
type Store struct {
	db *gorm.DB
}

// newGormLogger reports slow queries and real errors. A lookup that finds
// nothing is an ordinary outcome here (unset config, disconnected provider).
func newGormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// New opens the database and runs the idempotent schema migration.
func New(ctx context.Context, driver, dsn string) (*Store, error) {
	return open(ctx, driver, dsn, newGormLogger(log.New(os.Stdout, "\r\n", log.LstdFlags)))
}

func open(ctx context.Context, driver, dsn string, gormLogger logger.Interface) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// Each connection to an in-memory SQLite database is a separate database
	if driver == config.DatabaseDriverSQLite && strings.Contains(dsn, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// Auto migrate
	if err := db.WithContext(ctx).AutoMigrate(
		&models.ProviderConfig{},
		&models.TokenRecord{},
		&models.ActivityLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Health checks the database connection
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the underlying GORM database connection
func (s *Store) DB() *gorm.DB {
	return s.db
}
