package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lalith-99/seniorbuddy/internal/chat"
	"github.com/lalith-99/seniorbuddy/internal/gate"
	"github.com/lalith-99/seniorbuddy/internal/middleware"
	"github.com/lalith-99/seniorbuddy/internal/pairing"
	"github.com/lalith-99/seniorbuddy/internal/profile"
	"go.uber.org/zap"
)

// MaxVoiceSize bounds a single voice clip upload.
const MaxVoiceSize = 10 << 20

// ChatHandler serves /v1/chats/:partner/*. The partner is a uid, or
// "global" for the shared room that needs no grant.
type ChatHandler struct {
	rooms    *chat.Rooms
	gate     *gate.Gate
	profiles *profile.Store
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewChatHandler builds the handler. allowedOrigins limits which browser
// origins may open the WebSocket feed; empty or "*" allows all.
func NewChatHandler(rooms *chat.Rooms, g *gate.Gate, profiles *profile.Store, allowedOrigins []string, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		rooms:    rooms,
		gate:     g,
		profiles: profiles,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

type accessResponse struct {
	Allowed bool   `json:"allowed"`
	Room    string `json:"room,omitempty"`
}

type sendTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// access runs the gate for the caller and :partner and returns the room
// on success. The subscription is read once per call; nothing is cached.
func (h *ChatHandler) access(c *gin.Context) (string, bool, error) {
	partner := c.Param("partner")
	if partner == pairing.GlobalRoom {
		return pairing.GlobalRoom, true, nil
	}

	uid := middleware.GetUID(c)
	role, err := h.profiles.Role(c.Request.Context(), uid)
	if err != nil {
		return "", false, err
	}

	elder, caregiver := gate.Resolve(uid, role, partner)
	allowed, err := h.gate.Check(c.Request.Context(), elder, caregiver)
	if err != nil || !allowed {
		return "", false, err
	}
	return pairing.Key(elder, caregiver), true, nil
}

// room resolves the room and answers the request itself when access is
// denied. ok is false if the handler must stop.
func (h *ChatHandler) room(c *gin.Context) (string, bool) {
	room, allowed, err := h.access(c)
	if err != nil {
		respondError(c, h.logger, err, "failed to check chat access")
		return "", false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "chat not allowed for this pair"})
		return "", false
	}
	return room, true
}

// Access handles GET /v1/chats/:partner/access. Denial is a normal 200
// answer with allowed=false, not an error.
func (h *ChatHandler) Access(c *gin.Context) {
	room, allowed, err := h.access(c)
	if err != nil {
		respondError(c, h.logger, err, "failed to check chat access")
		return
	}
	c.JSON(http.StatusOK, accessResponse{Allowed: allowed, Room: room})
}

// History handles GET /v1/chats/:partner/messages, oldest first.
func (h *ChatHandler) History(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	messages, err := h.rooms.History(c.Request.Context(), room)
	if err != nil {
		respondError(c, h.logger, err, "failed to list messages")
		return
	}
	c.JSON(http.StatusOK, messages)
}

// SendText handles POST /v1/chats/:partner/messages
func (h *ChatHandler) SendText(c *gin.Context) {
	var req sendTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, ok := h.room(c)
	if !ok {
		return
	}

	msg, err := h.rooms.SendText(c.Request.Context(), room, middleware.GetUID(c), req.Text)
	if err != nil {
		respondError(c, h.logger, err, "failed to send message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// SendVoice handles POST /v1/chats/:partner/voice (multipart field "audio").
func (h *ChatHandler) SendVoice(c *gin.Context) {
	fh, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	if fh.Size > MaxVoiceSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "voice clip too large"})
		return
	}
	room, ok := h.room(c)
	if !ok {
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable audio"})
		return
	}
	defer f.Close()

	msg, err := h.rooms.SendVoice(c.Request.Context(), room, middleware.GetUID(c), f, fh.Size)
	if err != nil {
		respondError(c, h.logger, err, "failed to send voice message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}
