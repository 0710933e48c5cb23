package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"uld-tracker/internal/config"
	"uld-tracker/internal/delivery/http/handler"
	"uld-tracker/internal/delivery/ws"
	"uld-tracker/internal/ingestion"
	"uld-tracker/internal/logger"
	"uld-tracker/internal/metrics"
	"uld-tracker/internal/middleware"
	"uld-tracker/internal/usecase/fleet"
)

type Dependencies struct {
	Fleet       *fleet.Service
	Ingestion   *ingestion.Processor // optional
	Metrics     *metrics.Metrics     // optional
	RateLimiter *middleware.RateLimiter
}

func SetupRoutes(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Order: recovery, request ID, logging, security headers, CORS, request size limit, rate limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware(cfg.Server.IsProduction()))
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	router.Use(middleware.RateLimitMiddleware(deps.RateLimiter))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ULD tracking backend is running")
	})

	handler.NewHealthHandler(deps.Fleet, deps.Ingestion).RegisterRoutes(router)

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	upgrader := ws.NewUpgrader(cfg.CORS.AllowedOrigins)
	handler.NewStreamHandler(deps.Fleet, upgrader, cfg.Broadcast.SubscriberBuffer).RegisterRoutes(router)

	api := router.Group("/api")
	{
		handler.NewULDHandler(deps.Fleet).RegisterRoutes(api)
		handler.NewAlertHandler(deps.Fleet).RegisterRoutes(api)
		handler.NewAnalyticsHandler(deps.Fleet).RegisterRoutes(api)
	}

	logger.Info("All routes initialized")
	return router
}
