package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/seniorbuddy/internal/backend"
	"go.uber.org/zap"
)

// respondError maps the backend sentinels to status codes. Input errors
// echo their detail to the client; anything unrecognised is logged and
// answered with the generic msg.
func respondError(c *gin.Context, logger *zap.Logger, err error, msg string) {
	switch {
	case errors.Is(err, backend.ErrDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": backend.ErrDisabled.Error()})
	case errors.Is(err, backend.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, backend.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, backend.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
