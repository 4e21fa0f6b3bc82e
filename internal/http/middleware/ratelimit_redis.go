package middleware

import (
	"net/http"
	"strconv"
	"time"

	"tasker/internal/metrics"
	"tasker/internal/session"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// KeyFunc picks the identity a request is counted against.
type KeyFunc func(c *gin.Context) string

// ByClientIP counts per remote address.
func ByClientIP(c *gin.Context) string { return "ip:" + c.ClientIP() }

// BySessionUser counts per signed-in user, falling back to the client IP
// before RequireSession has run.
func BySessionUser(c *gin.Context) string {
	if s := session.FromGin(c); s != nil {
		return "user:" + s.UserID
	}
	return ByClientIP(c)
}

// RateLimit uses Redis when client is set and an in-process counter
// otherwise.
func RateLimit(client *redis.Client, maxRequests int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	if client == nil {
		return MemoryRateLimit(maxRequests, window, key)
	}
	return RedisRateLimit(client, maxRequests, window, key)
}

// RedisRateLimit implements a fixed-window rate limiter using Redis INCR/EXPIRE.
// key format: rl:<window_seconds>:<identity>
// Redis errors fail open.
func RedisRateLimit(client *redis.Client, maxRequests int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	if key == nil {
		key = ByClientIP
	}
	prefix := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":"
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		k := prefix + key(c)

		val, err := client.Incr(ctx, k).Result()
		if err != nil {
			// on Redis error, fail-open (allow) but set header
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			client.Expire(ctx, k, window)
		}

		if !admit(c, val, maxRequests) {
			return
		}
		c.Next()
	}
}

// admit records the decision and aborts with 429 over the limit.
func admit(c *gin.Context, count int64, maxRequests int) bool {
	endpoint := c.FullPath()
	c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
	if count > int64(maxRequests) {
		metrics.RLBlocked.WithLabelValues(endpoint).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return false
	}
	metrics.RLRequests.WithLabelValues(endpoint).Inc()
	return true
}
