package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/seniorbuddy/internal/auth"
	"github.com/lalith-99/seniorbuddy/internal/middleware"
	"github.com/lalith-99/seniorbuddy/internal/profile"
	"github.com/lalith-99/seniorbuddy/internal/session"
	"go.uber.org/zap"
)

// AuthHandler runs phone sign-in. RequestCode and VerifyCode are the only
// public endpoints besides health: the caller has no token yet, that is
// what they produce.
type AuthHandler struct {
	verifier *auth.Verifier
	sessions *session.Manager
	profiles *profile.Store
	logger   *zap.Logger
}

func NewAuthHandler(
	verifier *auth.Verifier,
	sessions *session.Manager,
	profiles *profile.Store,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		verifier: verifier,
		sessions: sessions,
		profiles: profiles,
		logger:   logger,
	}
}

type requestCodeRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type verifyCodeRequest struct {
	VerificationID string `json:"verification_id" binding:"required"`
	Code           string `json:"code" binding:"required"`
}

type verifyCodeResponse struct {
	State     auth.State `json:"state"`
	UID       string     `json:"uid"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// RequestCode handles POST /v1/auth/otp
func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req requestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := h.verifier.Request(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, h.logger, err, "failed to send code")
		return
	}

	c.JSON(http.StatusAccepted, v)
}

// VerifyCode handles POST /v1/auth/otp/verify
//
// A wrong code answers 401 with the remaining attempts and the state still
// awaiting_code; an expired or exhausted verification answers 401 with
// state failed, and the client has to request a new code.
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	v, err := h.verifier.Confirm(ctx, req.VerificationID, req.Code)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrWrongCode):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":         err.Error(),
			"state":         v.State,
			"attempts_left": v.AttemptsLeft,
		})
		return
	case errors.Is(err, auth.ErrCodeExpired), errors.Is(err, auth.ErrTooManyAttempts):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": err.Error(),
			"state": v.State,
		})
		return
	default:
		respondError(c, h.logger, err, "verification failed")
		return
	}

	s, err := h.sessions.Open(ctx, v.UID, v.Phone)
	if err != nil {
		respondError(c, h.logger, err, "failed to open session")
		return
	}

	// The profile would be created on first view anyway; doing it here
	// seeds it with the verified number.
	if _, err := h.profiles.GetOrCreate(ctx, v.UID, v.Phone); err != nil {
		h.logger.Warn("failed to seed profile", zap.String("uid", v.UID), zap.Error(err))
	}

	c.JSON(http.StatusOK, verifyCodeResponse{
		State:     v.State,
		UID:       s.UID,
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
	})
}

// Logout handles POST /v1/auth/logout. The token stops working at once.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Close(c.Request.Context(), middleware.GetSession(c)); err != nil {
		respondError(c, h.logger, err, "failed to sign out")
		return
	}
	c.Status(http.StatusNoContent)
}
