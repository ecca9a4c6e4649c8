package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-authgate/connectgate/internal/cache"
	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/metrics"
	"github.com/go-authgate/connectgate/internal/providers"
	"github.com/go-authgate/connectgate/internal/services"
	"github.com/go-authgate/connectgate/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testBaseURL      = "http://localhost:8080"
	testDashboardURL = "http://localhost:3000"
)

type testEnv struct {
	router   *gin.Engine
	configs  *services.ConfigService
	tokens   *services.TokenService
	activity *services.ActivityService
}

// newTestEnv wires the full HTTP surface over an in-memory SQLite store.
// With no descriptors the built-in registry is used.
func newTestEnv(t *testing.T, descriptors ...*providers.Descriptor) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.New(context.Background(), config.DatabaseDriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	registry := providers.Default()
	if len(descriptors) > 0 {
		registry = providers.NewRegistry(descriptors...)
	}

	m := metrics.NewNoopMetrics()
	configs := services.NewConfigService(
		s, registry, cache.NewMemoryCache[services.ConfigEntry](), time.Minute,
	)
	resolver := services.NewCredentialResolver(registry, configs, testBaseURL)
	tokens := services.NewTokenService(s, m)
	activity := services.NewActivityService(s)
	connect := services.NewConnectService(
		registry, resolver, configs, tokens, activity, http.DefaultClient, m, true,
	)
	probe := services.NewProbeService(registry, tokens, http.DefaultClient, m)

	oauthHandler := NewOAuthHandler(connect, testDashboardURL, false)
	configHandler := NewConfigHandler(configs)
	tokenHandler := NewTokenHandler(tokens)
	logHandler := NewLogHandler(activity)
	providerHandler := NewProviderHandler(registry, resolver, tokens)
	probeHandler := NewProbeHandler(probe)

	r := gin.New()
	r.Use(sessions.Sessions("connectgate_session", cookie.NewStore([]byte("test-secret"))))

	api := r.Group("/api")
	api.GET("/oauth/start/:provider", oauthHandler.Start)
	api.GET("/oauth/callback/:provider", oauthHandler.Callback)
	api.GET("/oauth/configs", configHandler.Get)
	api.POST("/oauth/configs", configHandler.Upsert)
	api.DELETE("/oauth/configs", configHandler.Delete)
	api.GET("/oauth/tokens", tokenHandler.List)
	api.DELETE("/oauth/tokens", tokenHandler.Delete)
	api.GET("/oauth/logs", logHandler.List)
	api.DELETE("/oauth/logs", logHandler.Clear)
	api.GET("/providers", providerHandler.List)
	api.POST("/test/:provider", probeHandler.Test)

	return &testEnv{
		router:   r,
		configs:  configs,
		tokens:   tokens,
		activity: activity,
	}
}

// do sends a request; body, when non-empty, is sent as JSON
func (e *testEnv) do(
	t *testing.T,
	method, target, body string,
	cookies ...*http.Cookie,
) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func responseCookies(w *httptest.ResponseRecorder) []*http.Cookie {
	resp := http.Response{Header: w.Header()}
	return resp.Cookies()
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// fakeProvider serves a token endpoint and a user endpoint.
// Code "good" is accepted; PKCE exchanges must carry a verifier.
func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.Form.Get("code") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Bad code"}`))
			return
		}
		if r.URL.Query().Get("pkce") == "1" && r.Form.Get("code_verifier") == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_request","error_description":"code_verifier required"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600,"refresh_token":"ref"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"login":"octocat"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func fakeDescriptor(id, baseURL string, pkce bool) *providers.Descriptor {
	tokenURL := baseURL + "/token"
	if pkce {
		tokenURL += "?pkce=1"
	}
	return &providers.Descriptor{
		ID:            id,
		Name:          strings.ToUpper(id[:1]) + id[1:],
		AuthURL:       baseURL + "/authorize",
		TokenURL:      tokenURL,
		AuthStyle:     oauth2.AuthStyleInParams,
		DefaultScopes: "read",
		UsePKCE:       pkce,
		Probes: []providers.Probe{{
			Type:  "user",
			Steps: []providers.ProbeStep{{Method: http.MethodGet, URL: baseURL + "/user"}},
		}},
	}
}
