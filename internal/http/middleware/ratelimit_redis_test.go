package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisRateLimitIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD"), DB: db})
	defer client.Close()

	// small window for test
	w := 2 * time.Second
	max := 2
	ident := "test:" + strconv.FormatInt(time.Now().UnixNano(), 10)

	r := gin.New()
	r.GET("/test", RedisRateLimit(client, max, w, func(*gin.Context) string { return ident }), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	for i := 0; i < max; i++ {
		res, err := http.Get(srv.URL + "/test")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		res.Body.Close()
		if res.StatusCode != 200 {
			t.Fatalf("expected 200 got %d", res.StatusCode)
		}
	}

	// next request should be blocked
	res, err := http.Get(srv.URL + "/test")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != 429 {
		t.Fatalf("expected 429 got %d", res.StatusCode)
	}
}

func TestRedisRateLimitFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// nothing listens on port 1
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	r := gin.New()
	r.GET("/x", RedisRateLimit(client, 1, time.Minute, nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i, w.Code)
		}
		if w.Header().Get("X-RateLimit-Error") != "redis-error" {
			t.Fatalf("expected redis-error header")
		}
	}
}
