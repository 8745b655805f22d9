package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/seniorbuddy/internal/booking"
	"github.com/lalith-99/seniorbuddy/internal/middleware"
	"go.uber.org/zap"
)

type BookingHandler struct {
	recorder *booking.Recorder
	logger   *zap.Logger
}

func NewBookingHandler(recorder *booking.Recorder, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{recorder: recorder, logger: logger}
}

type createBookingRequest struct {
	ServiceID    string  `json:"service_id" binding:"required"`
	Date         string  `json:"date" binding:"required"`
	Time         string  `json:"time" binding:"required"`
	Notes        string  `json:"notes"`
	CaregiverUID *string `json:"caregiver_uid"`
}

// Create handles POST /v1/bookings. The caller is always the elder; naming
// a caregiver opens private chat between the two.
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CaregiverUID != nil && strings.TrimSpace(*req.CaregiverUID) == "" {
		req.CaregiverUID = nil
	}

	b, err := h.recorder.Submit(c.Request.Context(), booking.Request{
		ElderUID:     middleware.GetUID(c),
		ServiceID:    req.ServiceID,
		Date:         req.Date,
		Time:         req.Time,
		Notes:        req.Notes,
		CaregiverUID: req.CaregiverUID,
	})
	if err != nil {
		respondError(c, h.logger, err, "failed to submit booking")
		return
	}
	c.JSON(http.StatusCreated, b)
}

// List handles GET /v1/bookings?limit=20, newest first.
func (h *BookingHandler) List(c *gin.Context) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
			return
		}
		limit = min(n, 100)
	}

	bookings, err := h.recorder.List(c.Request.Context(), middleware.GetUID(c), limit)
	if err != nil {
		respondError(c, h.logger, err, "failed to list bookings")
		return
	}
	c.JSON(http.StatusOK, bookings)
}
