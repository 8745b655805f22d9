package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/seniorbuddy/internal/alerts"
	"github.com/lalith-99/seniorbuddy/internal/middleware"
	"go.uber.org/zap"
)

type SOSHandler struct {
	notifier alerts.Notifier
	logger   *zap.Logger
}

func NewSOSHandler(notifier alerts.Notifier, logger *zap.Logger) *SOSHandler {
	return &SOSHandler{notifier: notifier, logger: logger}
}

type sosRequest struct {
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	Note      string   `json:"note"`
}

// Raise handles POST /v1/sos. An empty body is a valid SOS.
//
// Unlike booking alerts, a failed SOS publish is reported back: the
// elder's app falls back to dialing the emergency contact.
func (h *SOSHandler) Raise(c *gin.Context) {
	var req sosRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	payload := map[string]any{}
	if req.Latitude != nil && req.Longitude != nil {
		payload["latitude"] = *req.Latitude
		payload["longitude"] = *req.Longitude
	}
	if req.Note != "" {
		payload["note"] = req.Note
	}

	a := alerts.Alert{
		Kind:     alerts.KindSOS,
		ElderUID: middleware.GetUID(c),
		At:       time.Now().UTC(),
		Payload:  payload,
	}
	if err := h.notifier.Notify(c.Request.Context(), a); err != nil {
		h.logger.Error("failed to publish sos", zap.String("elder_uid", a.ElderUID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to alert family"})
		return
	}
	c.JSON(http.StatusAccepted, a)
}
