package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-authgate/connectgate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// mergeColumn keeps the stored value when the incoming one is empty
func mergeColumn(col string) clause.Expr {
	return gorm.Expr("COALESCE(NULLIF(excluded." + col + ", ''), oauth_configs." + col + ")")
}

// UpsertProviderConfig inserts or partially updates a provider config in a
// single statement. Empty fields never overwrite stored values.
func (s *Store) UpsertProviderConfig(ctx context.Context, cfg *models.ProviderConfig) error {
	if cfg.UpdatedAt.IsZero() {
		cfg.UpdatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}},
		DoUpdates: clause.Assignments(map[string]any{
			"client_id":     mergeColumn("client_id"),
			"client_secret": mergeColumn("client_secret"),
			"redirect_uri":  mergeColumn("redirect_uri"),
			"scopes":        mergeColumn("scopes"),
			"updated_at":    gorm.Expr("excluded.updated_at"),
		}),
	}).Create(cfg).Error
}

// GetProviderConfig returns the stored config or ErrRecordNotFound
func (s *Store) GetProviderConfig(ctx context.Context, provider string) (*models.ProviderConfig, error) {
	var cfg models.ProviderConfig
	err := s.db.WithContext(ctx).Where("provider = ?", provider).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListProviderConfigs returns every stored config ordered by provider id
func (s *Store) ListProviderConfigs(ctx context.Context) ([]models.ProviderConfig, error) {
	var cfgs []models.ProviderConfig
	err := s.db.WithContext(ctx).Order("provider ASC").Find(&cfgs).Error
	return cfgs, err
}

// DeleteProviderConfig removes a provider config. Reports whether a row existed.
func (s *Store) DeleteProviderConfig(ctx context.Context, provider string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("provider = ?", provider).
		Delete(&models.ProviderConfig{})
	return result.RowsAffected > 0, result.Error
}
