package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-authgate/connectgate/internal/cache"
	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/metrics"
	"github.com/go-authgate/connectgate/internal/models"
	"github.com/go-authgate/connectgate/internal/providers"
	"github.com/go-authgate/connectgate/internal/store"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testBaseURL = "http://localhost:8080"

type testEnv struct {
	store    *store.Store
	registry *providers.Registry
	configs  *ConfigService
	resolver *CredentialResolver
	tokens   *TokenService
	activity *ActivityService
	connect  *ConnectService
	probe    *ProbeService
	env      map[string]string
}

// newTestEnv wires every service over an in-memory SQLite store.
// With no descriptors the built-in registry is used.
func newTestEnv(t *testing.T, descriptors ...*providers.Descriptor) *testEnv {
	t.Helper()

	s, err := store.New(context.Background(), config.DatabaseDriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	registry := providers.Default()
	if len(descriptors) > 0 {
		registry = providers.NewRegistry(descriptors...)
	}

	m := metrics.NewNoopMetrics()
	env := map[string]string{}

	configs := NewConfigService(s, registry, cache.NewMemoryCache[ConfigEntry](), time.Minute)
	resolver := NewCredentialResolver(registry, configs, testBaseURL)
	resolver.getenv = func(key string) string { return env[key] }
	tokens := NewTokenService(s, m)
	activity := NewActivityService(s)

	return &testEnv{
		store:    s,
		registry: registry,
		configs:  configs,
		resolver: resolver,
		tokens:   tokens,
		activity: activity,
		connect: NewConnectService(
			registry, resolver, configs, tokens, activity, http.DefaultClient, m, true,
		),
		probe: NewProbeService(registry, tokens, http.DefaultClient, m),
		env:   env,
	}
}

// testDescriptor points a provider at a local fake
func testDescriptor(id, baseURL string) *providers.Descriptor {
	return &providers.Descriptor{
		ID:            id,
		Name:          id,
		AuthURL:       baseURL + "/authorize",
		TokenURL:      baseURL + "/token",
		AuthStyle:     oauth2.AuthStyleInParams,
		DefaultScopes: "read:user repo",
		Probes: []providers.Probe{{
			Type:  "user",
			Steps: []providers.ProbeStep{{Method: http.MethodGet, URL: baseURL + "/user"}},
		}},
	}
}

func (e *testEnv) logs(t *testing.T) []models.ActivityLog {
	t.Helper()
	logs, err := e.activity.Recent(context.Background(), store.ActivityLogFilter{})
	require.NoError(t, err)
	return logs
}

func millisFromNow(d time.Duration) *int64 {
	return models.ExpiresAtMillis(time.Now().Add(d))
}
