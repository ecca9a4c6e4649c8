package handlers

import (
	"errors"
	"net/http"

	"github.com/go-authgate/connectgate/internal/services"
	"github.com/go-authgate/connectgate/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConfigHandler manages stored OAuth app credentials
type ConfigHandler struct {
	configs *services.ConfigService
}

func NewConfigHandler(configs *services.ConfigService) *ConfigHandler {
	return &ConfigHandler{configs: configs}
}

type upsertConfigRequest struct {
	Provider     string `json:"provider"     binding:"required"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectUri"`
	Scopes       string `json:"scopes"`
}

type deleteConfigRequest struct {
	Provider string `json:"provider" binding:"required"`
}

// Get returns one masked config (?provider=) or the list of all configs.
// The secret is only returned with reveal=true.
func (h *ConfigHandler) Get(c *gin.Context) {
	provider := c.Query("provider")
	if provider == "" {
		configs, err := h.configs.List(c.Request.Context())
		if err != nil {
			zap.L().Error("failed to list configs", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load configs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"configs": configs})
		return
	}

	cfg, err := h.configs.GetMasked(c.Request.Context(), provider, c.Query("reveal") == "true")
	if errors.Is(err, store.ErrRecordNotFound) {
		c.JSON(http.StatusOK, gin.H{"config": nil})
		return
	}
	if err != nil {
		zap.L().Error("failed to load config", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load config"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// Upsert merges the non-empty fields of the body into the stored config
func (h *ConfigHandler) Upsert(c *gin.Context) {
	var req upsertConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provider is required"})
		return
	}

	err := h.configs.Upsert(c.Request.Context(), req.Provider, services.ConfigInput{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		RedirectURI:  req.RedirectURI,
		Scopes:       req.Scopes,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true, "provider": req.Provider})
	case errors.Is(err, services.ErrUnknownProvider):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown provider: " + req.Provider})
	case errors.Is(err, services.ErrInvalidRedirectURI):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid redirectUri"})
	default:
		zap.L().Error("failed to save config", zap.String("provider", req.Provider), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save config"})
	}
}

// Delete removes a stored config; tokens are left untouched
func (h *ConfigHandler) Delete(c *gin.Context) {
	var req deleteConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provider is required"})
		return
	}

	deleted, err := h.configs.Delete(c.Request.Context(), req.Provider)
	if err != nil {
		zap.L().Error("failed to delete config", zap.String("provider", req.Provider), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete config"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": deleted})
}
