package middleware

import (
	"net/http"

	"cargo-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DefaultMaxRequestSize fits any device report or operator request with
// plenty of room; larger bodies are not legitimate traffic.
const DefaultMaxRequestSize = 64 << 10

// RequestSizeLimitMiddleware caps request bodies at maxSize bytes.
// WebSocket frames are bounded separately by the channel's read limit.
func RequestSizeLimitMiddleware(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		maxSize = DefaultMaxRequestSize
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large")
			c.Abort()
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}
		c.Next()
	}
}
