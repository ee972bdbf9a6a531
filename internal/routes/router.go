package routes

import (
	"cargo-tracker/internal/config"
	"cargo-tracker/internal/delivery/http/handler"
	"cargo-tracker/internal/delivery/ws"
	"cargo-tracker/internal/logger"
	"cargo-tracker/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DeviceIngestPaths are rate limited per device rather than per client IP.
var DeviceIngestPaths = []string{"/api/gps/register", "/api/gps/location"}

func SetupRoutes(cfg *config.Config, gpsHandler *handler.GPSHandler, wsHandler *ws.Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit, DeviceIngestPaths...))

	router.GET("/health", gpsHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/gps-ws", wsHandler.ServeWS)

	api := router.Group("/api")
	{
		gpsHandler.RegisterRoutes(api)

		operator := api.Group("")
		if cfg.JWT.Secret != "" {
			operator.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
			operator.Use(middleware.OperatorOnly())
		} else {
			logger.Warn("JWT_SECRET is not set; operator routes are unauthenticated")
		}
		gpsHandler.RegisterOperatorRoutes(operator)
	}

	logger.Info("All routes initialized")
	return router
}
