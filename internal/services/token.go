package services

import (
	"context"
	"time"

	"github.com/go-authgate/connectgate/internal/metrics"
	"github.com/go-authgate/connectgate/internal/models"
	"github.com/go-authgate/connectgate/internal/store"

	"go.uber.org/zap"
)

// ConnectionDetail describes one live token without exposing it
type ConnectionDetail struct {
	Provider   string `json:"provider"`
	ExpiresAt  *int64 `json:"expires_at"`
	HasRefresh bool   `json:"has_refresh"`
}

// ConnectionStatus is the set of providers holding a live token
type ConnectionStatus struct {
	Providers []string           `json:"providers"`
	Details   []ConnectionDetail `json:"details"`
}

// Has reports whether provider is connected
func (c *ConnectionStatus) Has(provider string) bool {
	for _, p := range c.Providers {
		if p == provider {
			return true
		}
	}
	return false
}

// TokenService wraps the token store with lazy-expiry accounting
type TokenService struct {
	store   *store.Store
	metrics metrics.Recorder
}

func NewTokenService(s *store.Store, m metrics.Recorder) *TokenService {
	return &TokenService{store: s, metrics: m}
}

// Get returns the live token for provider. Expired records are removed by
// the store and reported as store.ErrRecordNotFound.
func (s *TokenService) Get(ctx context.Context, provider string) (models.TokenData, error) {
	data, expired, err := s.store.GetToken(ctx, provider)
	if expired {
		s.metrics.RecordLazyExpiration(provider)
		zap.L().Info("expired token removed", zap.String("provider", provider))
	}
	return data, err
}

// Previous returns the stored token even when it has expired. It is used
// to carry state such as the refresh token into a new grant.
func (s *TokenService) Previous(ctx context.Context, provider string) (models.TokenData, error) {
	record, err := s.store.GetTokenRecord(ctx, provider)
	if err != nil {
		return models.TokenData{}, err
	}
	return record.TokenData, nil
}

// Set replaces the provider's token
func (s *TokenService) Set(ctx context.Context, provider string, data models.TokenData) error {
	return s.store.SetToken(ctx, provider, data)
}

// Connected lists providers with a token that has not expired
func (s *TokenService) Connected(ctx context.Context) (*ConnectionStatus, error) {
	records, err := s.store.ListTokens(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	status := &ConnectionStatus{
		Providers: make([]string, 0, len(records)),
		Details:   make([]ConnectionDetail, 0, len(records)),
	}
	for _, r := range records {
		if r.TokenData.Expired(now) {
			continue
		}
		status.Providers = append(status.Providers, r.Provider)
		status.Details = append(status.Details, ConnectionDetail{
			Provider:   r.Provider,
			ExpiresAt:  r.TokenData.ExpiresAt,
			HasRefresh: r.TokenData.HasRefresh(),
		})
	}
	return status, nil
}

// Delete disconnects one provider. Reports whether a token existed.
func (s *TokenService) Delete(ctx context.Context, provider string) (bool, error) {
	return s.store.DeleteToken(ctx, provider)
}

// DeleteAll disconnects every provider
func (s *TokenService) DeleteAll(ctx context.Context) (int64, error) {
	return s.store.DeleteAllTokens(ctx)
}

// UpdateConnectedGauge refreshes the connected-providers gauge
func (s *TokenService) UpdateConnectedGauge(ctx context.Context) {
	status, err := s.Connected(ctx)
	if err != nil {
		s.metrics.RecordDatabaseQueryError("list_tokens")
		zap.L().Error("failed to count connected providers", zap.Error(err))
		return
	}
	s.metrics.SetConnectedProviders(len(status.Providers))
}
