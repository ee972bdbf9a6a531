package utils

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse writes the {"error": message} body every endpoint uses for failures.
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// MessageResponse writes {"message": message} merged with extra top-level fields.
func MessageResponse(c *gin.Context, status int, message string, fields gin.H) {
	body := gin.H{"message": message}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}
