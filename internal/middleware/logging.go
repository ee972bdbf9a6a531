package middleware

import (
	"time"

	"cargo-tracker/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// LoggingMiddleware writes one structured line per completed request.
// WebSocket upgrades are logged once when they open, since the request only
// completes when the device channel closes. Health and metrics scrapes are
// logged at debug level.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		log := logger.WithRequestID(GetRequestID(c))

		if websocket.IsWebSocketUpgrade(c.Request) {
			log.Info("Device channel upgrade",
				zap.String("path", path),
				zap.String("ip", c.ClientIP()),
				zap.String("user_agent", c.Request.UserAgent()),
			)
			c.Next()
			return
		}

		c.Next()

		statusCode := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("ip", c.ClientIP()),
			zap.Int("status_code", statusCode),
			zap.Duration("latency", time.Since(start)),
		}
		if operator := GetOperator(c); operator != "" {
			fields = append(fields, zap.String("operator", operator))
		}
		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			fields = append(fields, zap.String("error", errorMessage))
		}

		switch {
		case statusCode >= 500:
			log.Error("Request completed with server error", fields...)
		case statusCode >= 400:
			log.Warn("Request completed with client error", fields...)
		case path == "/health" || path == "/metrics":
			log.Debug("Request completed", fields...)
		default:
			log.Info("Request completed", fields...)
		}
	}
}
