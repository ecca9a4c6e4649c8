package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-authgate/connectgate/internal/models"
	"github.com/go-authgate/connectgate/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigRoutes(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/oauth/configs",
		`{"provider":"github","clientId":"gh-id","clientSecret":"gh-secret","scopes":"repo"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]any{"ok": true, "provider": "github"}, decode(t, w))

	// Masked by default
	w = e.do(t, http.MethodGet, "/api/oauth/configs?provider=github", "")
	require.Equal(t, http.StatusOK, w.Code)
	cfg := decode(t, w)["config"].(map[string]any)
	assert.Equal(t, "gh-id", cfg["clientId"])
	assert.Equal(t, true, cfg["clientSecretSaved"])
	assert.Equal(t, "", cfg["clientSecret"])
	assert.NotContains(t, w.Body.String(), "gh-secret")

	w = e.do(t, http.MethodGet, "/api/oauth/configs?provider=github&reveal=true", "")
	cfg = decode(t, w)["config"].(map[string]any)
	assert.Equal(t, "gh-secret", cfg["clientSecret"])

	// Partial update keeps the secret
	w = e.do(t, http.MethodPost, "/api/oauth/configs", `{"provider":"github","clientId":"gh-id-2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodGet, "/api/oauth/configs?provider=github&reveal=true", "")
	cfg = decode(t, w)["config"].(map[string]any)
	assert.Equal(t, "gh-id-2", cfg["clientId"])
	assert.Equal(t, "gh-secret", cfg["clientSecret"])

	w = e.do(t, http.MethodGet, "/api/oauth/configs", "")
	configs := decode(t, w)["configs"].([]any)
	require.Len(t, configs, 1)
	assert.NotContains(t, w.Body.String(), "gh-secret")

	w = e.do(t, http.MethodDelete, "/api/oauth/configs", `{"provider":"github"}`)
	assert.Equal(t, map[string]any{"ok": true, "deleted": true}, decode(t, w))

	w = e.do(t, http.MethodGet, "/api/oauth/configs?provider=github", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["config"])
}

func TestConfigRoutes_BadRequests(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/oauth/configs", `{"clientId":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/oauth/configs", `{"provider":"myspace","clientId":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/oauth/configs",
		`{"provider":"github","redirectUri":"ftp://example.com/cb"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodDelete, "/api/oauth/configs", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTokenRoutes(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, e.tokens.Set(ctx, "github", models.TokenData{AccessToken: "t"}))
	require.NoError(t, e.tokens.Set(ctx, "slack", models.TokenData{
		AccessToken:  "s",
		RefreshToken: "r",
		ExpiresAt:    models.ExpiresAtMillis(time.Now().Add(time.Hour)),
	}))
	require.NoError(t, e.tokens.Set(ctx, "zoom", models.TokenData{
		AccessToken: "old",
		ExpiresAt:   models.ExpiresAtMillis(time.Now().Add(-time.Hour)),
	}))

	w := e.do(t, http.MethodGet, "/api/oauth/tokens", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{"github", "slack"}, body["providers"])

	details := body["details"].([]any)
	require.Len(t, details, 2)
	github := details[0].(map[string]any)
	assert.Nil(t, github["expires_at"], "github never expires")
	assert.Equal(t, false, github["has_refresh"])
	assert.Equal(t, true, details[1].(map[string]any)["has_refresh"])
	assert.NotContains(t, w.Body.String(), `"s"`, "access tokens are never listed")

	w = e.do(t, http.MethodDelete, "/api/oauth/tokens", `{"provider":"slack"}`)
	assert.Equal(t, map[string]any{"disconnected": "slack"}, decode(t, w))

	// No body clears every token
	w = e.do(t, http.MethodDelete, "/api/oauth/tokens", "")
	assert.Equal(t, map[string]any{"cleared": true}, decode(t, w))

	w = e.do(t, http.MethodGet, "/api/oauth/tokens", "")
	assert.Equal(t, []any{}, decode(t, w)["providers"])
}

func TestLogRoutes(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, e.activity.Record(ctx, "github", models.ActivitySuccess, "Connected"))
	require.NoError(t, e.activity.Record(ctx, "slack", models.ActivityError, "invalid_code"))

	w := e.do(t, http.MethodGet, "/api/oauth/logs", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(2), body["total"])
	logs := body["logs"].([]any)
	require.Len(t, logs, 2)
	newest := logs[0].(map[string]any)
	assert.Equal(t, "slack", newest["provider"])
	assert.Equal(t, "ERROR", newest["status"])
	assert.Equal(t, "invalid_code", newest["message"])

	w = e.do(t, http.MethodGet, "/api/oauth/logs?status=success", "")
	body = decode(t, w)
	assert.Len(t, body["logs"], 1)
	assert.Equal(t, float64(1), body["total"])

	// total keeps counting past the 50-entry cap
	for i := 0; i < store.RecentActivityLimit; i++ {
		require.NoError(t, e.activity.Record(ctx, "zoom", models.ActivityError, "invalid_grant"))
	}
	w = e.do(t, http.MethodGet, "/api/oauth/logs", "")
	body = decode(t, w)
	assert.Len(t, body["logs"], store.RecentActivityLimit)
	assert.Equal(t, float64(store.RecentActivityLimit+2), body["total"])

	w = e.do(t, http.MethodDelete, "/api/oauth/logs", "")
	assert.Equal(t, map[string]any{"ok": true}, decode(t, w))

	w = e.do(t, http.MethodGet, "/api/oauth/logs", "")
	body = decode(t, w)
	assert.Equal(t, []any{}, body["logs"])
	assert.Equal(t, float64(0), body["total"])
}

func TestProviderRoutes(t *testing.T) {
	api := fakeProvider(t)
	e := newTestEnv(t,
		fakeDescriptor("fake", api.URL, false),
		fakeDescriptor("other", api.URL, true),
	)
	configure(t, e, "fake")
	require.NoError(t, e.tokens.Set(context.Background(), "fake", models.TokenData{AccessToken: "tok"}))

	w := e.do(t, http.MethodGet, "/api/providers", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)["providers"].([]any)
	require.Len(t, list, 2)

	byID := map[string]map[string]any{}
	for _, p := range list {
		info := p.(map[string]any)
		byID[info["id"].(string)] = info
	}
	assert.Equal(t, true, byID["fake"]["connected"])
	assert.Equal(t, true, byID["fake"]["configured"])
	assert.Equal(t, []any{"user"}, byID["fake"]["testTypes"])
	assert.Equal(t, false, byID["other"]["connected"])
	assert.Equal(t, false, byID["other"]["configured"])
	assert.Equal(t, true, byID["other"]["pkce"])
}

func TestProbeRoutes(t *testing.T) {
	api := fakeProvider(t)
	e := newTestEnv(t, fakeDescriptor("fake", api.URL, false))

	// No stored token and no manual one
	w := e.do(t, http.MethodPost, "/api/test/fake", `{"testType":"user"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	// Manual token
	w = e.do(t, http.MethodPost, "/api/test/fake", `{"testType":"user","token":"tok"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "user", body["testType"])
	assert.Equal(t, "manual", body["source"])
	assert.NotEmpty(t, body["timestamp"])

	results := body["results"].([]any)
	require.Len(t, results, 1)
	step := results[0].(map[string]any)
	response := step["response"].(map[string]any)
	assert.Equal(t, float64(http.StatusOK), response["status"])
	assert.Equal(t, map[string]any{"login": "octocat"}, response["body"])

	// Stored token, no body at all
	require.NoError(t, e.tokens.Set(context.Background(), "fake", models.TokenData{AccessToken: "bad"}))
	w = e.do(t, http.MethodPost, "/api/test/fake", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, false, body["success"], "upstream 401 is a failed probe, not a local error")
	assert.Equal(t, "stored", body["source"])

	w = e.do(t, http.MethodPost, "/api/test/fake", `{"testType":"billing","token":"tok"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/test/nope", `{"token":"tok"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
