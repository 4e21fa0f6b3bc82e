package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(r *gin.Engine, remote string) int {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestMemoryRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	r := gin.New()
	r.GET("/x", memoryRateLimit(2, time.Minute, nil, clock), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, serve(r, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, serve(r, "10.0.0.1:1000"))
	// other clients have their own window
	assert.Equal(t, http.StatusOK, serve(r, "10.0.0.2:1000"))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, http.StatusOK, serve(r, "10.0.0.1:1000"))
}

func TestRateLimitWithoutRedisUsesMemory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RateLimit(nil, 1, time.Minute, ByClientIP), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, "10.0.0.3:1000"))
	assert.Equal(t, http.StatusTooManyRequests, serve(r, "10.0.0.3:1000"))
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("https://app.example"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
