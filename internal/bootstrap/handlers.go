package bootstrap

import (
	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/handlers"
	"github.com/go-authgate/connectgate/internal/providers"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	oauth     *handlers.OAuthHandler
	configs   *handlers.ConfigHandler
	tokens    *handlers.TokenHandler
	logs      *handlers.LogHandler
	providers *handlers.ProviderHandler
	probe     *handlers.ProbeHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	registry *providers.Registry,
	s serviceSet,
) handlerSet {
	return handlerSet{
		oauth:     handlers.NewOAuthHandler(s.connect, cfg.BaseURL, cfg.IsProduction),
		configs:   handlers.NewConfigHandler(s.configs),
		tokens:    handlers.NewTokenHandler(s.tokens),
		logs:      handlers.NewLogHandler(s.activity),
		providers: handlers.NewProviderHandler(registry, s.resolver, s.tokens),
		probe:     handlers.NewProbeHandler(s.probe),
	}
}
