package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourusername/media-relay-go/api/handlers"
	"github.com/yourusername/media-relay-go/api/middleware"
	"github.com/yourusername/media-relay-go/internal/app"
	"github.com/yourusername/media-relay-go/internal/domain"
	"github.com/yourusername/media-relay-go/pkg/logger"
)

// NewRouter creates and configures the gin router
func NewRouter(
	service *app.DownloadService,
	history domain.HistoryRepository,
	config *domain.Config,
	multiLog *logger.MultiLogger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.Logger(multiLog.App()))
	router.Use(middleware.Recovery(multiLog.Error()))
	router.Use(middleware.CORS())

	logReader := logger.NewLogReader(multiLog.GetLogsDir())

	downloadHandler := handlers.NewDownloadHandler(service, multiLog.App())
	historyHandler := handlers.NewHistoryHandler(history, multiLog.App())
	healthHandler := handlers.NewHealthHandler(&config.Download)
	logHandler := handlers.NewLogHandler(logReader, multiLog.App())
	logWSHandler := handlers.NewLogWebSocketHandler(logReader, multiLog.App())

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/downloads", downloadHandler.Download)

		v1.GET("/history", historyHandler.List)
		v1.GET("/history/stats", historyHandler.Stats)
		v1.GET("/history/:id", historyHandler.Get)

		v1.GET("/logs", logHandler.Categories)
		v1.GET("/logs/:category", logHandler.Get)
		v1.GET("/logs/:category/search", logHandler.Search)
	}

	router.GET("/ws/logs", logWSHandler.Tail)

	return router
}
