package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/metrics"
	"github.com/go-authgate/connectgate/internal/providers"
	"github.com/go-authgate/connectgate/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerAddr:               ":8080",
		BaseURL:                  "http://localhost:8080",
		SessionSecret:            "test-session-secret",
		SessionMaxAge:            3600,
		DatabaseDriver:           config.DatabaseDriverSQLite,
		DatabaseDSN:              ":memory:",
		DBInitTimeout:            5 * time.Second,
		OutboundTimeout:          5 * time.Second,
		TokenPreserveRefresh:     true,
		ConfigCacheType:          config.ConfigCacheTypeMemory,
		ConfigCacheTTL:           time.Minute,
		CacheInitTimeout:         time.Second,
		EnableRateLimit:          true,
		RateLimitStore:           config.RateLimitStoreMemory,
		OAuthRateLimit:           30,
		ProbeRateLimit:           60,
		RateLimitCleanupInterval: time.Minute,
		OTelServiceName:          "connectgate-test",
		LogLevel:                 "info",
	}
}

// newTestRouter wires the full application router over SQLite in memory
func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	ctx := context.Background()

	db, err := initializeDatabase(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	configCache, closer, err := initializeConfigCache(ctx, cfg)
	require.NoError(t, err)
	if closer != nil {
		t.Cleanup(func() { _ = closer() })
	}

	httpClient, err := createOutboundHTTPClient(cfg)
	require.NoError(t, err)

	registry := providers.Default()
	s := initializeServices(cfg, db, registry, configCache, httpClient, metrics.NewNoopMetrics())
	h := initializeHandlers(cfg, registry, s)

	r, err := setupRouter(cfg, db, h, metrics.NewNoopMetrics(), nil)
	require.NoError(t, err)
	return r
}

func TestValidateAllConfiguration(t *testing.T) {
	cfg := testConfig()
	assert.NoError(t, validateAllConfiguration(cfg))

	cfg.IsProduction = true
	err := validateAllConfiguration(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")

	cfg.SessionSecret = strings.Repeat("s", 32)
	assert.NoError(t, validateAllConfiguration(cfg))

	cfg.OutboundInsecureSkipVerify = true
	assert.Error(t, validateAllConfiguration(cfg))

	cfg = testConfig()
	cfg.DatabaseDriver = "mysql"
	assert.Error(t, validateAllConfiguration(cfg))
}

func TestInitializeLogger(t *testing.T) {
	cfg := testConfig()
	logger, err := initializeLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)

	cfg.LogLevel = "chatty"
	_, err = initializeLogger(cfg)
	assert.Error(t, err)
}

func TestInitializeMetrics(t *testing.T) {
	m := initializeMetrics(&config.Config{MetricsEnabled: false})
	require.NotNil(t, m)
}

func TestInitializeConfigCache(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	cfg.ConfigCacheType = config.ConfigCacheTypeNone
	c, closer, err := initializeConfigCache(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Nil(t, closer)

	cfg.ConfigCacheType = config.ConfigCacheTypeMemory
	c, closer, err = initializeConfigCache(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.NotNil(t, closer)
	_ = closer()
}

func TestInitializeRateLimitRedisClientSkipped(t *testing.T) {
	cfg := testConfig()
	client, err := initializeRateLimitRedisClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, client, "memory store needs no redis client")

	cfg.EnableRateLimit = false
	cfg.RateLimitStore = config.RateLimitStoreRedis
	client, err = initializeRateLimitRedisClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestSetupRateLimiting(t *testing.T) {
	limiters, err := setupRateLimiting(&config.Config{EnableRateLimit: false}, nil)
	require.NoError(t, err)
	require.NotNil(t, limiters.oauth)
	require.NotNil(t, limiters.probe)

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotPanics(t, func() { limiters.oauth(c) })

	limiters, err = setupRateLimiting(testConfig(), nil)
	require.NoError(t, err)
	require.NotNil(t, limiters.oauth)

	// Redis store without a client is a startup error
	cfg := testConfig()
	cfg.RateLimitStore = config.RateLimitStoreRedis
	_, err = setupRateLimiting(cfg, nil)
	assert.Error(t, err)
}

func TestCreateHTTPServer(t *testing.T) {
	srv := createHTTPServer(
		&config.Config{ServerAddr: ":8080", OutboundTimeout: 45 * time.Second},
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)
	require.NotNil(t, srv)
	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 90*time.Second, srv.WriteTimeout)
}

func TestGinModeMap(t *testing.T) {
	assert.Equal(t, gin.ReleaseMode, ginModeMap[true])
	assert.Equal(t, gin.DebugMode, ginModeMap[false])
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_AdminToken(t *testing.T) {
	cfg := testConfig()
	cfg.AdminToken = "admin-secret"
	r := newTestRouter(t, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/oauth/tokens", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/oauth/tokens", nil)
	req.Header.Set("Authorization", "Bearer admin-secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"providers":[],"details":[]}`, w.Body.String())

	// The browser flow stays open
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/oauth/start/myspace", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_MetricsDisabled(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfiguredProviders(t *testing.T) {
	t.Setenv("GITHUB_CLIENT_ID", "gh")
	cfg := testConfig()
	ctx := context.Background()

	db, err := store.New(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	registry := providers.Default()
	s := initializeServices(cfg, db, registry, nil, http.DefaultClient, metrics.NewNoopMetrics())

	assert.Contains(t, configuredProviders(ctx, registry, s.resolver), "github")
}
