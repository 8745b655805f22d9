package api

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lalith-99/seniorbuddy/internal/backend"
	"github.com/lalith-99/seniorbuddy/internal/middleware"
	"github.com/lalith-99/seniorbuddy/internal/models"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	maxFrameSize = 64 * 1024
)

// snapshotFrame is what the server pushes: the whole room, every time.
type snapshotFrame struct {
	Type     string           `json:"type"`
	Room     string           `json:"room"`
	Messages []models.Message `json:"messages"`
}

// inboundFrame lets a connected client send text without a separate POST.
type inboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Native clients send no Origin at all.
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// Stream handles GET /v1/chats/:partner/ws.
//
// The gate runs before the upgrade, so a denied pair gets a plain 403.
// After that the connection receives one snapshot frame per room change,
// starting with the current history, until either side closes.
func (h *ChatHandler) Stream(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the request.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	feed, err := h.rooms.Subscribe(ctx, room)
	if err != nil {
		if !errors.Is(err, backend.ErrDisabled) {
			h.logger.Error("failed to attach room feed", zap.String("room_id", room), zap.Error(err))
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "feed unavailable"),
			time.Now().Add(writeWait))
		return
	}
	defer feed.Cancel()

	go h.readLoop(ctx, cancel, conn, room, middleware.GetUID(c))

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-feed.Updates():
			if !ok {
				return
			}
			if snapshot == nil {
				snapshot = []models.Message{}
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snapshotFrame{Type: "snapshot", Room: room, Messages: snapshot}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readLoop owns all reads on conn. It ends the stream (via cancel) when
// the client goes away or stops answering pings.
func (h *ChatHandler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, room, uid string) {
	defer cancel()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in inboundFrame
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		if in.Type != "send" {
			continue
		}
		// The sender sees its own message through the next snapshot.
		if _, err := h.rooms.SendText(ctx, room, uid, in.Text); err != nil && !errors.Is(err, backend.ErrInvalidInput) {
			h.logger.Warn("websocket send failed", zap.String("room_id", room), zap.Error(err))
		}
	}
}
