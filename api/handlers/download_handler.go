package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/media-relay-go/internal/app"
	"github.com/yourusername/media-relay-go/internal/domain"
	"go.uber.org/zap"
)

// AddDownloadRequest is the request body for submitting a download
type AddDownloadRequest struct {
	URL       string             `json:"url" binding:"required"`
	AudioOnly bool               `json:"audio_only"`
	StartTime *int               `json:"start_time"`
	EndTime   *int               `json:"end_time"`
	Folder    string             `json:"folder"`
	Cookies   string             `json:"cookies"`
	Hooks     *domain.HookConfig `json:"hooks"`
}

// DownloadHandler handles download requests
type DownloadHandler struct {
	service *app.DownloadService
	logger  *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(service *app.DownloadService, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		service: service,
		logger:  logger,
	}
}

// Download handles POST /api/v1/downloads. The connection stays open until
// the extraction run finishes; the response carries the terminal outcome.
func (h *DownloadHandler) Download(c *gin.Context) {
	var body AddDownloadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := &domain.DownloadRequest{
		URL:        body.URL,
		AudioOnly:  body.AudioOnly,
		StartTime:  body.StartTime,
		EndTime:    body.EndTime,
		CookieText: body.Cookies,
		SubFolder:  body.Folder,
		Hooks:      body.Hooks,
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("Download request accepted",
		zap.String("url", req.URL),
		zap.Bool("audio_only", req.AudioOnly),
	)

	outcome := h.service.Process(c.Request.Context(), req)

	if outcome.Succeeded() {
		c.JSON(http.StatusOK, gin.H{
			"status":    "completed",
			"url":       outcome.SourceURL,
			"file_path": outcome.FilePath,
			"file_name": outcome.FileName,
			"title":     outcome.Title,
		})
		return
	}

	c.JSON(statusForKind(outcome.Err.Kind), gin.H{
		"status": "failed",
		"url":    outcome.SourceURL,
		"error":  outcome.Err,
	})
}

// statusForKind maps a classified extraction failure to an HTTP status.
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindAuthExpired:
		return http.StatusUnauthorized
	case domain.KindAgeRestricted:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
