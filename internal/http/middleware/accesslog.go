package middleware

import (
	"time"

	"tasker/internal/logger"

	"github.com/gin-gonic/gin"
)

// AccessLog logs one line per request and puts a request-scoped logger in
// the request context.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		l := logger.With("method", c.Request.Method, "path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(logger.IntoContext(c.Request.Context(), l))

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}
		switch {
		case status >= 500:
			l.Error("request", attrs...)
		case status >= 400:
			l.Warn("request", attrs...)
		default:
			l.Info("request", attrs...)
		}
	}
}
