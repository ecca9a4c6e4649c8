package handlers

import (
	"errors"
	"net/http"

	"github.com/go-authgate/connectgate/internal/services"
	"github.com/go-authgate/connectgate/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Session keys for the in-flight authorization attempt
const (
	sessionOAuthState       = "oauth_state"
	sessionOAuthProvider    = "oauth_provider"
	sessionOAuthRedirectURI = "oauth_redirect_uri"
)

const (
	pkceCookiePrefix = "oauth_pkce_"
	pkceCookiePath   = "/api/oauth"
	pkceCookieMaxAge = 600 // seconds
)

// OAuthHandler serves the browser side of the authorization-code flow
type OAuthHandler struct {
	connect      *services.ConnectService
	baseURL      string
	isProduction bool
}

func NewOAuthHandler(
	connect *services.ConnectService,
	baseURL string,
	isProduction bool,
) *OAuthHandler {
	return &OAuthHandler{
		connect:      connect,
		baseURL:      baseURL,
		isProduction: isProduction,
	}
}

func pkceCookieName(provider string) string {
	return pkceCookiePrefix + provider
}

// Start redirects the browser to the provider's authorize endpoint.
// Optional query overrides: clientId, clientSecret, redirectUri, scopes.
func (h *OAuthHandler) Start(c *gin.Context) {
	provider := c.Param("provider")

	result, err := h.connect.Start(c.Request.Context(), provider, services.Credentials{
		ClientID:     c.Query("clientId"),
		ClientSecret: c.Query("clientSecret"),
		RedirectURI:  c.Query("redirectUri"),
		Scopes:       c.Query("scopes"),
	})
	if err != nil {
		var missing *services.MissingCredentialError
		switch {
		case errors.Is(err, services.ErrUnknownProvider):
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown provider: " + provider})
		case errors.As(err, &missing):
			c.JSON(http.StatusInternalServerError, gin.H{"error": missing.Error()})
		case errors.Is(err, services.ErrInvalidRedirectURI):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid redirectUri"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start OAuth flow"})
		}
		return
	}

	session := sessions.Default(c)
	session.Set(sessionOAuthState, result.State)
	session.Set(sessionOAuthProvider, provider)
	session.Set(sessionOAuthRedirectURI, result.RedirectURI)
	if err := session.Save(); err != nil {
		zap.L().Error("failed to save oauth session",
			zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}

	if result.Verifier != "" {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(
			pkceCookieName(provider),
			result.Verifier,
			pkceCookieMaxAge,
			pkceCookiePath,
			"",
			h.isProduction,
			true,
		)
	}

	c.Redirect(http.StatusFound, result.AuthURL)
}

// Callback completes the flow and redirects to the dashboard with
// oauth_success or oauth_error.
func (h *OAuthHandler) Callback(c *gin.Context) {
	provider := c.Param("provider")
	session := sessions.Default(c)

	req := services.CallbackRequest{
		Provider:        provider,
		Query:           c.Request.URL.Query(),
		SessionState:    sessionString(session, sessionOAuthState),
		SessionProvider: sessionString(session, sessionOAuthProvider),
		RedirectURI:     sessionString(session, sessionOAuthRedirectURI),
	}
	if verifier, err := c.Cookie(pkceCookieName(provider)); err == nil {
		req.Verifier = verifier
	}

	result := h.connect.Complete(c.Request.Context(), req)

	// A state mismatch may come from a stale tab; leave the live attempt alone
	if result.Outcome != services.OutcomeInvalidState {
		h.clearAttempt(c, session, provider)
	}

	if result.OK() {
		c.Redirect(http.StatusFound, util.DashboardRedirect(h.baseURL, "oauth_success", provider))
		return
	}
	c.Redirect(http.StatusFound, util.DashboardRedirect(h.baseURL, "oauth_error", result.Code))
}

func (h *OAuthHandler) clearAttempt(c *gin.Context, session sessions.Session, provider string) {
	if _, err := c.Cookie(pkceCookieName(provider)); err == nil {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(pkceCookieName(provider), "", -1, pkceCookiePath, "", h.isProduction, true)
	}

	session.Delete(sessionOAuthState)
	session.Delete(sessionOAuthProvider)
	session.Delete(sessionOAuthRedirectURI)
	if err := session.Save(); err != nil {
		zap.L().Warn("failed to clear oauth session",
			zap.String("provider", provider), zap.Error(err))
	}
}

func sessionString(session sessions.Session, key string) string {
	if v, ok := session.Get(key).(string); ok {
		return v
	}
	return ""
}
