package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/seniorbuddy/internal/backend"
	"github.com/lalith-99/seniorbuddy/internal/session"
	"go.uber.org/zap"
)

// Context keys for the authenticated caller.
const (
	ContextKeySession = "session"
	ContextKeyUID     = "uid"
)

// TokenQueryParam carries the token for WebSocket upgrades, where
// browsers cannot set an Authorization header.
const TokenQueryParam = "token"

// SessionResolver is the part of session.Manager the middleware needs.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

// Auth resolves the bearer token into a session and stores it on the
// gin context. The chain stops with 401 on a missing, bad or closed
// token, and with 500 if the revocation list could not be read.
func Auth(sessions SessionResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		s, err := sessions.Resolve(c.Request.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrRevoked):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		case errors.Is(err, backend.ErrDisabled):
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": backend.ErrDisabled.Error(),
			})
			return
		default:
			logger.Error("failed to resolve session", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "authentication failed",
			})
			return
		}

		c.Set(ContextKeySession, s)
		c.Set(ContextKeyUID, s.UID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		token := c.Query(TokenQueryParam)
		return token, token != ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetSession returns the caller's session, nil outside Auth.
func GetSession(c *gin.Context) *session.Session {
	val, exists := c.Get(ContextKeySession)
	if !exists {
		return nil
	}
	s, ok := val.(*session.Session)
	if !ok {
		return nil
	}
	return s
}

func GetUID(c *gin.Context) string {
	return c.GetString(ContextKeyUID)
}
