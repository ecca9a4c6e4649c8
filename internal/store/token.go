package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-authgate/connectgate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SetToken replaces the provider's token record with data (full overwrite)
func (s *Store) SetToken(ctx context.Context, provider string, data models.TokenData) error {
	record := &models.TokenRecord{
		Provider:  provider,
		TokenData: data,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_data", "updated_at"}),
	}).Create(record).Error
}

// GetToken returns the provider's token data. A record past its expires_at
// is deleted and reported as ErrRecordNotFound; the bool result tells the
// caller an expiry happened on this read.
func (s *Store) GetToken(ctx context.Context, provider string) (models.TokenData, bool, error) {
	record, err := s.GetTokenRecord(ctx, provider)
	if err != nil {
		return models.TokenData{}, false, err
	}

	if record.TokenData.Expired(time.Now()) {
		if _, err := s.deleteExpiredToken(ctx, record); err != nil {
			return models.TokenData{}, false, err
		}
		return models.TokenData{}, true, ErrRecordNotFound
	}

	return record.TokenData, false, nil
}

// deleteExpiredToken removes the row only if it is still the one that was
// read, so a token written by a concurrent callback survives.
func (s *Store) deleteExpiredToken(ctx context.Context, record *models.TokenRecord) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("provider = ? AND updated_at = ?", record.Provider, record.UpdatedAt).
		Delete(&models.TokenRecord{})
	return result.RowsAffected > 0, result.Error
}

// GetTokenRecord returns the stored record as is, without the expiry rule
func (s *Store) GetTokenRecord(ctx context.Context, provider string) (*models.TokenRecord, error) {
	var record models.TokenRecord
	err := s.db.WithContext(ctx).Where("provider = ?", provider).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListTokens returns every stored record, expired ones included.
// Callers filter with TokenData.Expired.
func (s *Store) ListTokens(ctx context.Context) ([]models.TokenRecord, error) {
	var records []models.TokenRecord
	err := s.db.WithContext(ctx).Order("provider ASC").Find(&records).Error
	return records, err
}

// DeleteToken removes one provider's token. Reports whether a row existed.
func (s *Store) DeleteToken(ctx context.Context, provider string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("provider = ?", provider).
		Delete(&models.TokenRecord{})
	return result.RowsAffected > 0, result.Error
}

// DeleteAllTokens removes every token record and returns the number removed
func (s *Store) DeleteAllTokens(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.TokenRecord{})
	return result.RowsAffected, result.Error
}
