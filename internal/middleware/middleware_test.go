package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/lalith-99/seniorbuddy/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(sessions SessionResolver) *gin.Engine {
	r := gin.New()
	r.Use(Auth(sessions, zap.NewNop()))
	r.GET("/me", func(c *gin.Context) {
		s := GetSession(c)
		c.JSON(http.StatusOK, gin.H{"uid": GetUID(c), "session_uid": s.UID})
	})
	return r
}

func setupSessions(t *testing.T) (*session.Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return session.NewManager(rdb, "secret", time.Hour), mr
}

func do(r http.Handler, target, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_ValidHeader(t *testing.T) {
	m, _ := setupSessions(t)
	s, err := m.Open(context.Background(), "uid-1", "")
	require.NoError(t, err)

	w := do(newRouter(m), "/me", "Bearer "+s.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"uid-1","session_uid":"uid-1"}`, w.Body.String())
}

func TestAuth_QueryToken(t *testing.T) {
	m, _ := setupSessions(t)
	s, err := m.Open(context.Background(), "uid-1", "")
	require.NoError(t, err)

	w := do(newRouter(m), "/me?token="+s.Token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_Rejects(t *testing.T) {
	m, _ := setupSessions(t)
	r := newRouter(m)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Bearer ").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Bearer garbage").Code)
}

func TestAuth_ClosedSession(t *testing.T) {
	m, _ := setupSessions(t)
	ctx := context.Background()
	s, err := m.Open(ctx, "uid-1", "")
	require.NoError(t, err)
	require.NoError(t, m.Close(ctx, s))

	assert.Equal(t, http.StatusUnauthorized, do(newRouter(m), "/me", "Bearer "+s.Token).Code)
}

func TestAuth_RedisDown(t *testing.T) {
	m, mr := setupSessions(t)
	s, err := m.Open(context.Background(), "uid-1", "")
	require.NoError(t, err)
	mr.Close()

	assert.Equal(t, http.StatusInternalServerError, do(newRouter(m), "/me", "Bearer "+s.Token).Code)
}

func TestRequireBackend(t *testing.T) {
	r := gin.New()
	r.GET("/off", RequireBackend(false), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/on", RequireBackend(true), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, "/off", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"backend disabled"}`, w.Body.String())

	assert.Equal(t, http.StatusOK, do(r, "/on", "").Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	do(r, "/items/secret-uid", "")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	assert.Equal(t, "/items/:id", entry.ContextMap()["route"])
	assert.EqualValues(t, http.StatusTeapot, entry.ContextMap()["status"])
}
