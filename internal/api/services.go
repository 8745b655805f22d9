package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/seniorbuddy/internal/catalog"
)

type ServiceHandler struct {
	catalog *catalog.Catalog
}

func NewServiceHandler(cat *catalog.Catalog) *ServiceHandler {
	return &ServiceHandler{catalog: cat}
}

// List handles GET /v1/services?lang=hi
func (h *ServiceHandler) List(c *gin.Context) {
	lang := c.DefaultQuery("lang", catalog.DefaultLanguage)
	c.JSON(http.StatusOK, h.catalog.List(lang))
}
