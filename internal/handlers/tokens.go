package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-authgate/connectgate/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenHandler exposes connection status and disconnects
type TokenHandler struct {
	tokens *services.TokenService
}

func NewTokenHandler(tokens *services.TokenService) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

type disconnectRequest struct {
	Provider string `json:"provider"`
}

// List returns the connected providers; expired tokens are excluded
func (h *TokenHandler) List(c *gin.Context) {
	status, err := h.tokens.Connected(c.Request.Context())
	if err != nil {
		zap.L().Error("failed to list tokens", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tokens"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// Delete disconnects one provider, or every provider when the body
// names none.
func (h *TokenHandler) Delete(c *gin.Context) {
	var req disconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if req.Provider == "" {
		n, err := h.tokens.DeleteAll(ctx)
		if err != nil {
			zap.L().Error("failed to clear tokens", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear tokens"})
			return
		}
		zap.L().Info("all providers disconnected", zap.Int64("count", n))
		c.JSON(http.StatusOK, gin.H{"cleared": true})
		return
	}

	if _, err := h.tokens.Delete(ctx, req.Provider); err != nil {
		zap.L().Error("failed to delete token", zap.String("provider", req.Provider), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect provider"})
		return
	}
	zap.L().Info("provider disconnected", zap.String("provider", req.Provider))
	c.JSON(http.StatusOK, gin.H{"disconnected": req.Provider})
}
