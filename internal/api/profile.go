package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/seniorbuddy/internal/middleware"
	"github.com/lalith-99/seniorbuddy/internal/models"
	"github.com/lalith-99/seniorbuddy/internal/profile"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	store  *profile.Store
	logger *zap.Logger
}

func NewProfileHandler(store *profile.Store, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{store: store, logger: logger}
}

// Get handles GET /v1/profile. The first call creates an empty profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	s := middleware.GetSession(c)
	p, err := h.store.GetOrCreate(c.Request.Context(), profile.CurrentUID(s), s.Phone)
	if err != nil {
		respondError(c, h.logger, err, "failed to load profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

// Update handles PATCH /v1/profile. Fields left out of the body keep
// their stored value.
func (h *ProfileHandler) Update(c *gin.Context) {
	var patch models.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.store.Save(c.Request.Context(), middleware.GetUID(c), patch)
	if err != nil {
		respondError(c, h.logger, err, "failed to save profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

// UploadPhoto handles POST /v1/profile/photo (multipart field "photo").
func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	fh, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable photo"})
		return
	}
	defer f.Close()

	p, err := h.store.SetPhoto(c.Request.Context(), middleware.GetUID(c),
		fh.Filename, fh.Header.Get("Content-Type"), f, fh.Size)
	if err != nil {
		respondError(c, h.logger, err, "failed to upload photo")
		return
	}
	c.JSON(http.StatusOK, p)
}
