package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/seniorbuddy/internal/backend"
)

// RequireBackend answers 503 for every request while the backend is not
// configured. Health and status stay outside it so operators can see why.
func RequireBackend(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": backend.ErrDisabled.Error(),
			})
			return
		}
		c.Next()
	}
}
