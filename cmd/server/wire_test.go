package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/seniorbuddy/internal/api"
	"github.com/lalith-99/seniorbuddy/internal/auth"
	"github.com/lalith-99/seniorbuddy/internal/catalog"
	"github.com/lalith-99/seniorbuddy/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDisabledBackendServes503(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, key := range config.BackendKeys {
		t.Setenv(key, "")
	}
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	require.False(t, cfg.BackendEnabled())

	logger := zap.NewNop()
	deps := disabledBackend(logger)
	defer deps.Close()

	router := api.NewRouter(newHandlers(cfg, deps, catalog.Default(), logger), deps.sessions, cfg.BackendEnabled(), logger)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/profile", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"backend disabled"}`, w.Body.String())
}

func TestSMSSenderSelection(t *testing.T) {
	logger := zap.NewNop()

	_, ok := smsSender(&config.Config{}, logger).(*auth.LogSender)
	assert.True(t, ok)

	cfg := &config.Config{SMS: config.SMSConfig{BaseURL: "https://sms.test", APIKey: "k"}}
	_, ok = smsSender(cfg, logger).(*auth.GatewaySender)
	assert.True(t, ok)
}
