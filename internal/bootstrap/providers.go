package bootstrap

import (
	"context"

	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/providers"
	"github.com/go-authgate/connectgate/internal/services"

	"go.uber.org/zap"
)

// configuredProviders returns the providers whose client id resolves
// from the store or the environment
func configuredProviders(
	ctx context.Context,
	registry *providers.Registry,
	resolver *services.CredentialResolver,
) []string {
	var names []string
	for _, d := range registry.List() {
		creds, err := resolver.Resolve(ctx, d.ID, services.Credentials{})
		if err == nil && creds.ClientID != "" {
			names = append(names, d.ID)
		}
	}
	return names
}

// logProvidersStatus logs the supported and configured providers
func logProvidersStatus(
	cfg *config.Config,
	registry *providers.Registry,
	resolver *services.CredentialResolver,
) {
	zap.L().Info("oauth providers loaded",
		zap.Int("supported", len(registry.IDs())),
		zap.Strings("configured", configuredProviders(context.Background(), registry, resolver)),
		zap.String("callback_base", cfg.BaseURL),
	)
}
