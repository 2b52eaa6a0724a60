package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "FHIR Backend API",
		"version": Version,
		"health":  "/health",
	})
}

// Health always answers 200; an unreachable database shows up in the body.
func (h *Handler) Health(c *gin.Context) {
	status, db := "healthy", "connected"
	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			h.Logger.Warn("health check failed", zap.Error(err))
			status, db = "unhealthy", "disconnected"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
		"database":  db,
	})
}
