package services

import (
	"context"
	"time"

	"github.com/go-authgate/connectgate/internal/cache"
	"github.com/go-authgate/connectgate/internal/models"
	"github.com/go-authgate/connectgate/internal/providers"
	"github.com/go-authgate/connectgate/internal/store"
	"github.com/go-authgate/connectgate/internal/util"

	"go.uber.org/zap"
)

const configCachePrefix = "config:"

// ConfigInput is a partial provider config update. Empty fields are left
// untouched in storage.
type ConfigInput struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectUri"`
	Scopes       string `json:"scopes"`
}

// IsEmpty reports whether the input carries no value at all
func (in ConfigInput) IsEmpty() bool {
	return in.ClientID == "" && in.ClientSecret == "" && in.RedirectURI == "" && in.Scopes == ""
}

// ConfigEntry is the cached form of a provider config. Unlike
// models.ProviderConfig it serializes the secret, so it can live in Redis.
type ConfigEntry struct {
	Provider     string `json:"provider"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
	Scopes       string `json:"scopes"`
}

func newConfigEntry(cfg *models.ProviderConfig) ConfigEntry {
	return ConfigEntry{
		Provider:     cfg.Provider,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
	}
}

// ConfigService manages per-provider OAuth app credentials
type ConfigService struct {
	store    *store.Store
	registry *providers.Registry
	cache    cache.Cache[ConfigEntry] // nil disables caching
	cacheTTL time.Duration
}

// NewConfigService creates a config service. c may be nil.
func NewConfigService(
	s *store.Store,
	registry *providers.Registry,
	c cache.Cache[ConfigEntry],
	cacheTTL time.Duration,
) *ConfigService {
	return &ConfigService{
		store:    s,
		registry: registry,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// Upsert merges in into the stored config for provider
func (s *ConfigService) Upsert(ctx context.Context, provider string, in ConfigInput) error {
	if _, ok := s.registry.Get(provider); !ok {
		return ErrUnknownProvider
	}
	if !util.IsRedirectSafe(in.RedirectURI) {
		return ErrInvalidRedirectURI
	}

	err := s.store.UpsertProviderConfig(ctx, &models.ProviderConfig{
		Provider:     provider,
		ClientID:     in.ClientID,
		ClientSecret: in.ClientSecret,
		RedirectURI:  in.RedirectURI,
		Scopes:       in.Scopes,
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, provider)
	return nil
}

// Get returns the stored config for provider or store.ErrRecordNotFound
func (s *ConfigService) Get(ctx context.Context, provider string) (ConfigEntry, error) {
	fetch := func(ctx context.Context, _ string) (ConfigEntry, error) {
		cfg, err := s.store.GetProviderConfig(ctx, provider)
		if err != nil {
			return ConfigEntry{}, err
		}
		return newConfigEntry(cfg), nil
	}

	if s.cache == nil {
		return fetch(ctx, provider)
	}
	return cache.GetWithFetch(ctx, s.cache, configCachePrefix+provider, s.cacheTTL, fetch)
}

// List returns provider ids and client ids. Secrets are never included.
func (s *ConfigService) List(ctx context.Context) ([]models.ProviderConfigSummary, error) {
	cfgs, err := s.store.ListProviderConfigs(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.ProviderConfigSummary, 0, len(cfgs))
	for _, cfg := range cfgs {
		out = append(out, models.ProviderConfigSummary{
			Provider: cfg.Provider,
			ClientID: cfg.ClientID,
		})
	}
	return out, nil
}

// GetMasked returns the read-back shape. The secret value is only included
// when reveal is true.
func (s *ConfigService) GetMasked(
	ctx context.Context,
	provider string,
	reveal bool,
) (*models.MaskedProviderConfig, error) {
	cfg, err := s.Get(ctx, provider)
	if err != nil {
		return nil, err
	}

	masked := &models.MaskedProviderConfig{
		Provider:          provider,
		ClientID:          cfg.ClientID,
		ClientSecretSaved: cfg.ClientSecret != "",
		RedirectURI:       cfg.RedirectURI,
		Scopes:            cfg.Scopes,
	}
	if reveal {
		masked.ClientSecret = cfg.ClientSecret
	}
	return masked, nil
}

// Delete removes the stored config. Reports whether one existed.
func (s *ConfigService) Delete(ctx context.Context, provider string) (bool, error) {
	deleted, err := s.store.DeleteProviderConfig(ctx, provider)
	if err != nil {
		return false, err
	}
	s.invalidate(ctx, provider)
	return deleted, nil
}

func (s *ConfigService) invalidate(ctx context.Context, provider string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, configCachePrefix+provider); err != nil {
		zap.L().Warn("failed to invalidate config cache",
			zap.String("provider", provider),
			zap.Error(err),
		)
	}
}
