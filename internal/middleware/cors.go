package middleware

import (
	"slices"
	"time"

	"cargo-tracker/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware serves the dashboard origins from config. The request ID
// header is always allowed and exposed so the dashboard can quote it, and
// ws:// origins are accepted for the device channel.
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	allowHeaders := withHeader(cfg.AllowedHeaders, RequestIDHeader)
	exposeHeaders := withHeader(cfg.ExposedHeaders, RequestIDHeader)

	return cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    exposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		AllowWebSockets:  true,
		MaxAge:           time.Duration(cfg.MaxAge) * time.Second,
	})
}

func withHeader(headers []string, header string) []string {
	if slices.Contains(headers, header) {
		return headers
	}
	return append(slices.Clone(headers), header)
}
