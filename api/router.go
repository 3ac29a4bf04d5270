package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/yt-batch/api/handlers"
	"github.com/yourusername/yt-batch/api/middleware"
	"github.com/yourusername/yt-batch/internal/app"
	"github.com/yourusername/yt-batch/internal/domain"
	"github.com/yourusername/yt-batch/pkg/logger"
)

// Dependencies are the services the HTTP API exposes
type Dependencies struct {
	Runner  *app.Runner
	Preview *app.PreviewService
	Engine  domain.Engine
	// Repo is nil when run history is disabled
	Repo domain.RunRepository
	Logs *logger.LoggerAdapter
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	logs := deps.Logs
	if logs == nil {
		logs = logger.NewNopAdapter()
	}

	router := gin.New()

	router.Use(middleware.Logger(logs))
	router.Use(middleware.Recovery(logs))

	healthHandler := handlers.NewHealthHandler(deps.Runner, deps.Engine)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		batchHandler := handlers.NewBatchHandler(deps.Runner, deps.Preview, deps.Repo, logs.App())
		streamHandler := handlers.NewStreamHandler(deps.Runner, logs.LogsDir(), logs.App())

		batch := v1.Group("/batch")
		{
			batch.POST("", batchHandler.StartBatch)
			batch.POST("/stop", batchHandler.StopBatch)
			batch.GET("/status", batchHandler.GetStatus)
			batch.GET("/stream", streamHandler.BatchStream)
		}

		v1.GET("/preview", batchHandler.Preview)

		runs := v1.Group("/runs")
		{
			runs.GET("", batchHandler.ListRuns)
			runs.GET("/stats", batchHandler.GetRunStats)
			runs.GET("/:id", batchHandler.GetRun)
		}

		logHandler := handlers.NewLogHandler(logs.LogsDir())
		logRoutes := v1.Group("/logs")
		{
			logRoutes.GET("/categories", logHandler.GetCategories)
			logRoutes.GET("/:category", logHandler.GetLogs)
			logRoutes.GET("/:category/search", logHandler.SearchLogs)
			logRoutes.GET("/:category/export", logHandler.ExportLogs)
			logRoutes.GET("/:category/stream", streamHandler.LogStream)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
