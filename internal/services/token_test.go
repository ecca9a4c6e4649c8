package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-authgate/connectgate/internal/models"
	"github.com/go-authgate/connectgate/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_Connected(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	live := models.TokenData{
		AccessToken:  "live",
		RefreshToken: "r",
		ExpiresAt:    millisFromNow(time.Hour),
	}
	require.NoError(t, e.tokens.Set(ctx, "google", live))
	require.NoError(t, e.tokens.Set(ctx, "github", models.TokenData{AccessToken: "t"}))
	require.NoError(t, e.tokens.Set(ctx, "zoom", models.TokenData{
		AccessToken: "old",
		ExpiresAt:   millisFromNow(-time.Minute),
	}))

	status, err := e.tokens.Connected(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"github", "google"}, status.Providers)
	require.Len(t, status.Details, 2)

	assert.Equal(t, "github", status.Details[0].Provider)
	assert.Nil(t, status.Details[0].ExpiresAt, "github never expires")
	assert.False(t, status.Details[0].HasRefresh)

	assert.Equal(t, "google", status.Details[1].Provider)
	assert.Equal(t, live.ExpiresAt, status.Details[1].ExpiresAt)
	assert.True(t, status.Details[1].HasRefresh)

	assert.True(t, status.Has("github"))
	assert.False(t, status.Has("zoom"))
}

func TestTokenService_GetExpired(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, e.tokens.Set(ctx, "box", models.TokenData{
		AccessToken: "old",
		ExpiresAt:   millisFromNow(-time.Second),
	}))

	_, err := e.tokens.Get(ctx, "box")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	// Second read is also not-found, without error from the delete path
	_, err = e.tokens.Get(ctx, "box")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestTokenService_DeleteAll(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, e.tokens.Set(ctx, "github", models.TokenData{AccessToken: "a"}))
	require.NoError(t, e.tokens.Set(ctx, "slack", models.TokenData{AccessToken: "b"}))

	deleted, err := e.tokens.Delete(ctx, "slack")
	require.NoError(t, err)
	assert.True(t, deleted)

	n, err := e.tokens.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	status, err := e.tokens.Connected(ctx)
	require.NoError(t, err)
	assert.Empty(t, status.Providers)
	assert.NotNil(t, status.Providers, "serializes as [] not null")

	e.tokens.UpdateConnectedGauge(ctx)
}

func TestActivityService(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, e.activity.Record(ctx, "github", models.ActivitySuccess, "Connected"))
	require.NoError(t, e.activity.Record(ctx, "slack", models.ActivityError, "invalid_code"))

	logs := e.logs(t)
	require.Len(t, logs, 2)
	assert.Equal(t, "slack", logs[0].Provider)
	assert.Equal(t, models.ActivityError, logs[0].Status)

	errorsOnly, err := e.activity.Recent(ctx, store.ActivityLogFilter{Status: models.ActivityError})
	require.NoError(t, err)
	assert.Len(t, errorsOnly, 1)

	require.NoError(t, e.activity.Clear(ctx))
	assert.Empty(t, e.logs(t))
}
