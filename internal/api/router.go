package api

import (
	"github.com/gin-gonic/gin"
	"github.com/lalith-99/seniorbuddy/internal/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Health   *HealthHandler
	Auth     *AuthHandler
	Profile  *ProfileHandler
	Services *ServiceHandler
	Bookings *BookingHandler
	SOS      *SOSHandler
	Chat     *ChatHandler
}

// NewRouter registers every route under /v1.
//
// Health and status are outside both RequireBackend and Auth. Everything
// else answers 503 while the backend is disabled; past that, only the two
// sign-in endpoints are public.
func NewRouter(h Handlers, sessions middleware.SessionResolver, backendEnabled bool, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(logger), gin.Recovery())
	r.MaxMultipartMemory = 8 << 20

	v1 := r.Group("/v1")
	v1.GET("/health", h.Health.Health)
	v1.GET("/status", h.Health.Status)

	open := v1.Group("")
	open.Use(middleware.RequireBackend(backendEnabled))

	open.POST("/auth/otp", h.Auth.RequestCode)
	open.POST("/auth/otp/verify", h.Auth.VerifyCode)

	authed := open.Group("")
	authed.Use(middleware.Auth(sessions, logger))

	authed.POST("/auth/logout", h.Auth.Logout)

	authed.GET("/profile", h.Profile.Get)
	authed.PATCH("/profile", h.Profile.Update)
	authed.POST("/profile/photo", h.Profile.UploadPhoto)

	authed.GET("/services", h.Services.List)

	authed.POST("/bookings", h.Bookings.Create)
	authed.GET("/bookings", h.Bookings.List)

	authed.POST("/sos", h.SOS.Raise)

	chats := authed.Group("/chats/:partner")
	chats.GET("/access", h.Chat.Access)
	chats.GET("/messages", h.Chat.History)
	chats.POST("/messages", h.Chat.SendText)
	chats.POST("/voice", h.Chat.SendVoice)
	chats.GET("/ws", h.Chat.Stream)

	return r
}
