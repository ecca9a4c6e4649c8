package bootstrap

import (
	"net/http"

	"github.com/go-authgate/connectgate/internal/cache"
	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/metrics"
	"github.com/go-authgate/connectgate/internal/providers"
	"github.com/go-authgate/connectgate/internal/services"
	"github.com/go-authgate/connectgate/internal/store"
)

// serviceSet holds all business services
type serviceSet struct {
	configs  *services.ConfigService
	resolver *services.CredentialResolver
	tokens   *services.TokenService
	activity *services.ActivityService
	connect  *services.ConnectService
	probe    *services.ProbeService
}

// initializeServices creates all business logic services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	registry *providers.Registry,
	configCache cache.Cache[services.ConfigEntry],
	httpClient *http.Client,
	m metrics.Recorder,
) serviceSet {
	configs := services.NewConfigService(db, registry, configCache, cfg.ConfigCacheTTL)
	resolver := services.NewCredentialResolver(registry, configs, cfg.BaseURL)
	tokens := services.NewTokenService(db, m)
	activity := services.NewActivityService(db)

	return serviceSet{
		configs:  configs,
		resolver: resolver,
		tokens:   tokens,
		activity: activity,
		connect: services.NewConnectService(
			registry,
			resolver,
			configs,
			tokens,
			activity,
			httpClient,
			m,
			cfg.TokenPreserveRefresh,
		),
		probe: services.NewProbeService(registry, tokens, httpClient, m),
	}
}
