package handlers

import (
	"net/http"
	"strings"

	"github.com/go-authgate/connectgate/internal/models"
	"github.com/go-authgate/connectgate/internal/services"
	"github.com/go-authgate/connectgate/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LogHandler serves the activity log
type LogHandler struct {
	activity *services.ActivityService
}

func NewLogHandler(activity *services.ActivityService) *LogHandler {
	return &LogHandler{activity: activity}
}

// List returns the newest entries, optionally filtered by provider and
// status, with the total number of matching entries.
func (h *LogHandler) List(c *gin.Context) {
	filter := store.ActivityLogFilter{
		Provider: c.Query("provider"),
		Status:   models.ActivityStatus(strings.ToUpper(c.Query("status"))),
	}

	logs, err := h.activity.Recent(c.Request.Context(), filter)
	if err != nil {
		zap.L().Error("failed to load activity logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load logs"})
		return
	}
	if logs == nil {
		logs = []models.ActivityLog{}
	}

	total, err := h.activity.Count(c.Request.Context(), filter)
	if err != nil {
		zap.L().Error("failed to count activity logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "total": total})
}

// Clear removes every entry
func (h *LogHandler) Clear(c *gin.Context) {
	if err := h.activity.Clear(c.Request.Context()); err != nil {
		zap.L().Error("failed to clear activity logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
