package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/media-relay-go/pkg/logger"
	"go.uber.org/zap"
)

// LogHandler serves the category log files over HTTP
type LogHandler struct {
	reader *logger.LogReader
	logger *zap.Logger
}

// NewLogHandler creates a new log handler
func NewLogHandler(reader *logger.LogReader, log *zap.Logger) *LogHandler {
	return &LogHandler{
		reader: reader,
		logger: log,
	}
}

// Categories handles GET /api/v1/logs
func (h *LogHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": logger.Categories()})
}

// Get handles GET /api/v1/logs/:category
func (h *LogHandler) Get(c *gin.Context) {
	category, ok := parseCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + c.Param("category")})
		return
	}

	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("20060102", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYYMMDD"})
			return
		}
		date = parsed
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	entries, err := h.reader.ReadLogs(category, date, limit)
	if err != nil {
		h.logger.Error("Failed to read logs",
			zap.String("category", string(category)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"date":     date.Format("20060102"),
		"entries":  entries,
		"count":    len(entries),
	})
}

// Search handles GET /api/v1/logs/:category/search
func (h *LogHandler) Search(c *gin.Context) {
	category, ok := parseCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + c.Param("category")})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	entries, err := h.reader.SearchLogs(category, time.Now(), query, 100)
	if err != nil {
		h.logger.Error("Failed to search logs",
			zap.String("category", string(category)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"query":    query,
		"entries":  entries,
		"count":    len(entries),
	})
}

func parseCategory(raw string) (logger.LogCategory, bool) {
	for _, category := range logger.Categories() {
		if string(category) == raw {
			return category, true
		}
	}
	return "", false
}
