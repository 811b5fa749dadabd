package http

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ticketcheck/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger logrus.FieldLogger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	{
		reconciliations := v1.Group("/reconciliations")
		{
			reconciliations.POST("", handler.CreateReconciliation)
			reconciliations.GET("/:id", handler.GetReconciliation)
			reconciliations.GET("/:id/export", handler.ExportReconciliation)
			reconciliations.DELETE("/:id", handler.DeleteReconciliation)
		}
	}

	return router
}
