package middleware

import (
	"net/http"
	"strings"

	"cargo-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	OperatorKey = "operator"
	RoleKey     = "role"
)

// AuthMiddleware verifies bearer tokens issued by the platform's auth
// service for dispatch operators. Devices never authenticate this way.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Operator bearer token required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(token, secret)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		subject := claims.Subject
		if subject == "" {
			subject = claims.UserID
		}

		c.Set(OperatorKey, subject)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// GetOperator returns the authenticated operator subject, or "" on
// unauthenticated routes.
func GetOperator(c *gin.Context) string {
	operator, _ := c.Get(OperatorKey)
	s, _ := operator.(string)
	return s
}
