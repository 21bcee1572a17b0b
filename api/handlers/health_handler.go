package handlers

import (
	"net/http"
	"os/exec"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/media-relay-go/internal/domain"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	config    *domain.DownloadConfig
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(config *domain.DownloadConfig) *HealthHandler {
	return &HealthHandler{
		config:    config,
		startTime: time.Now(),
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.startTime).String(),
	})
}

// Ready handles GET /ready. The service is ready only when the extraction
// tool is resolvable on PATH.
func (h *HealthHandler) Ready(c *gin.Context) {
	if _, err := exec.LookPath(h.config.ExtractorBinary); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "extractor binary not found: " + h.config.ExtractorBinary,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
