package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/media-relay-go/internal/domain"
	"go.uber.org/zap"
)

// HistoryHandler serves the read-only download history endpoints
type HistoryHandler struct {
	repo   domain.HistoryRepository
	logger *zap.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(repo domain.HistoryRepository, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		repo:   repo,
		logger: logger,
	}
}

// List handles GET /api/v1/history
func (h *HistoryHandler) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	var (
		records []*domain.DownloadRecord
		err     error
	)
	if status := c.Query("status"); status != "" {
		switch domain.RecordStatus(status) {
		case domain.RecordCompleted, domain.RecordFailed:
			records, err = h.repo.FindByStatus(domain.RecordStatus(status))
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status: " + status})
			return
		}
	} else {
		records, err = h.repo.FindRecent(limit)
	}
	if err != nil {
		h.logger.Error("Failed to list download history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"count":   len(records),
	})
}

// Get handles GET /api/v1/history/:id
func (h *HistoryHandler) Get(c *gin.Context) {
	record, err := h.repo.FindByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// Stats handles GET /api/v1/history/stats
func (h *HistoryHandler) Stats(c *gin.Context) {
	stats, err := h.repo.GetStats()
	if err != nil {
		h.logger.Error("Failed to compute history stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
