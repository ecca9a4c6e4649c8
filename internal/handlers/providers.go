package handlers

import (
	"net/http"

	"github.com/go-authgate/connectgate/internal/providers"
	"github.com/go-authgate/connectgate/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProviderHandler lists the supported providers for the dashboard
type ProviderHandler struct {
	registry *providers.Registry
	resolver *services.CredentialResolver
	tokens   *services.TokenService
}

func NewProviderHandler(
	registry *providers.Registry,
	resolver *services.CredentialResolver,
	tokens *services.TokenService,
) *ProviderHandler {
	return &ProviderHandler{
		registry: registry,
		resolver: resolver,
		tokens:   tokens,
	}
}

type providerInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Connected  bool     `json:"connected"`
	Configured bool     `json:"configured"` // a client id resolves from store or env
	PKCE       bool     `json:"pkce"`
	TestTypes  []string `json:"testTypes"`
}

// List returns every provider with its connected and configured flags
func (h *ProviderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	status, err := h.tokens.Connected(ctx)
	if err != nil {
		zap.L().Error("failed to load connection status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load providers"})
		return
	}

	list := h.registry.List()
	out := make([]providerInfo, 0, len(list))
	for _, d := range list {
		info := providerInfo{
			ID:        d.ID,
			Name:      d.Name,
			Connected: status.Has(d.ID),
			PKCE:      d.UsePKCE,
			TestTypes: d.ProbeTypes(),
		}
		if creds, err := h.resolver.Resolve(ctx, d.ID, services.Credentials{}); err == nil {
			info.Configured = creds.ClientID != ""
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, gin.H{"providers": out})
}
