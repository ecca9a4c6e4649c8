package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-authgate/connectgate/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProbeHandler runs connectivity checks against provider APIs
type ProbeHandler struct {
	probe *services.ProbeService
}

func NewProbeHandler(probe *services.ProbeService) *ProbeHandler {
	return &ProbeHandler{probe: probe}
}

type probeRequest struct {
	TestType string            `json:"testType"`
	Token    string            `json:"token"`
	Params   map[string]string `json:"params"`
}

// Test runs the selected probe. Without a usable token it answers 401
// and nothing is sent upstream.
func (h *ProbeHandler) Test(c *gin.Context) {
	provider := c.Param("provider")

	var req probeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.probe.Probe(c.Request.Context(), provider, services.ProbeRequest{
		TestType: req.TestType,
		Token:    req.Token,
		Params:   req.Params,
	})
	switch {
	case err == nil:
	case errors.Is(err, services.ErrUnknownProvider):
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown provider: " + provider})
		return
	case errors.Is(err, services.ErrNoCredential):
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "No token available. Connect the provider or supply a token.",
		})
		return
	case errors.Is(err, services.ErrUnknownTestType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	default:
		zap.L().Error("probe failed", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Probe failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        result.ID,
		"success":   result.OK,
		"testType":  result.TestType,
		"source":    result.Source,
		"timestamp": result.Timestamp,
		"results":   result.Steps,
	})
}
