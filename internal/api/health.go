package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Check probes one dependency. Used by the status endpoint only.
type Check func(ctx context.Context) error

type HealthHandler struct {
	enabled bool
	missing []string
	checks  map[string]Check
}

// NewHealthHandler reports backend configuration. checks run on every
// status request; keep them to a ping.
func NewHealthHandler(enabled bool, missing []string, checks map[string]Check) *HealthHandler {
	if missing == nil {
		missing = []string{}
	}
	return &HealthHandler{enabled: enabled, missing: missing, checks: checks}
}

// Health handles GET /v1/health. It answers as long as the process is up,
// including with the backend disabled.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type statusResponse struct {
	BackendEnabled bool              `json:"backend_enabled"`
	Missing        []string          `json:"missing"`
	Dependencies   map[string]string `json:"dependencies,omitempty"`
}

// Status handles GET /v1/status. A failing dependency turns the answer
// into 503 so load balancers can take the instance out.
func (h *HealthHandler) Status(c *gin.Context) {
	resp := statusResponse{BackendEnabled: h.enabled, Missing: h.missing}
	code := http.StatusOK

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		resp.Dependencies = make(map[string]string, len(names))
		for _, name := range names {
			if err := h.checks[name](ctx); err != nil {
				resp.Dependencies[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Dependencies[name] = "ok"
		}
	}

	c.JSON(code, resp)
}
