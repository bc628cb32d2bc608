package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/editions-go/api/handlers"
	"github.com/yourusername/editions-go/api/middleware"
	"github.com/yourusername/editions-go/pkg/logger"
)

// RouterDeps are the services the HTTP API is built on
type RouterDeps struct {
	Session    handlers.EditionSession
	History    handlers.AttemptHistory
	Readiness  handlers.ReadinessChecker
	Notices    handlers.NoticeSource
	LogAdapter *logger.LoggerAdapter
	LogsDir    string
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	general := deps.LogAdapter.General()

	router.Use(middleware.Logger(deps.LogAdapter))
	router.Use(middleware.Recovery(deps.LogAdapter))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(deps.Readiness)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		editionHandler := handlers.NewEditionHandler(deps.Session, general)
		editions := v1.Group("/editions")
		{
			editions.GET("", editionHandler.ListEditions)
			editions.POST("/refresh", editionHandler.Refresh)
			editions.GET("/:id", editionHandler.GetEdition)
			editions.POST("/:id/tap", editionHandler.Tap)
			editions.POST("/:id/long-press", editionHandler.LongPress)
		}

		downloadHandler := handlers.NewDownloadHandler(deps.Session, deps.History, deps.LogAdapter.Download())
		downloads := v1.Group("/downloads")
		{
			downloads.GET("", downloadHandler.ListActive)
			downloads.GET("/stats", downloadHandler.GetStats)
			downloads.GET("/:id/attempts", downloadHandler.GetAttempts)
		}

		noticeHandler := handlers.NewNoticeHandler(deps.Notices)
		v1.GET("/notices", noticeHandler.ListNotices)

		eventsHandler := handlers.NewEventsWebSocketHandler(deps.Session, deps.Notices, general)
		v1.GET("/events", eventsHandler.HandleWebSocket)

		logHandler := handlers.NewLogHandler(deps.LogsDir)
		logStream := handlers.NewLogWebSocketHandler(deps.LogsDir, general)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/stream", logStream.HandleWebSocket)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
