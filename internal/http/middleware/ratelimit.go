package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	last  time.Time
	count int64
}

type memoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	window  time.Duration
	clients map[string]*clientInfo
}

func (l *memoryLimiter) incr(key string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ci, ok := l.clients[key]
	if !ok || now.Sub(ci.last) > l.window {
		// drop expired entries so the map does not grow without bound
		for k, v := range l.clients {
			if now.Sub(v.last) > l.window {
				delete(l.clients, k)
			}
		}
		ci = &clientInfo{last: now}
		l.clients[key] = ci
	}
	ci.count++
	return ci.count
}

// MemoryRateLimit blocks identities that send more than maxRequests per
// window. Counts are per process.
func MemoryRateLimit(maxRequests int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	return memoryRateLimit(maxRequests, window, key, time.Now)
}

func memoryRateLimit(maxRequests int, window time.Duration, key KeyFunc, now func() time.Time) gin.HandlerFunc {
	if key == nil {
		key = ByClientIP
	}
	l := &memoryLimiter{now: now, window: window, clients: make(map[string]*clientInfo)}
	return func(c *gin.Context) {
		if !admit(c, l.incr(key(c)), maxRequests) {
			return
		}
		c.Next()
	}
}
