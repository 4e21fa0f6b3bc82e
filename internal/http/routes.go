package http

import (
	"time"

	"tasker/internal/http/handlers"
	"tasker/internal/http/middleware"
	"tasker/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

// Limits are requests per window for the rate-limited groups.
type Limits struct {
	Auth   int
	API    int
	Window time.Duration
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, rdb *redis.Client, limits Limits) {
	if limits.Window <= 0 {
		limits.Window = time.Minute
	}

	// Health checks (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireSession := session.RequireSession(h.Tokens.VerifyOptions(), h.LoginPath, h.Now)
	authRL := middleware.RateLimit(rdb, limits.Auth, limits.Window, middleware.ByClientIP)
	apiRL := middleware.RateLimit(rdb, limits.API, limits.Window, middleware.BySessionUser)

	// Auth
	r.POST("/api/login", authRL, h.Login)
	r.POST("/api/register", authRL, h.Register)
	r.POST("/api/logout", h.Logout)
	r.GET("/api/logout", h.Logout)

	api := r.Group("/api")
	api.Use(requireSession, apiRL)
	{
		api.GET("/me", h.Me)

		api.GET("/tasks", h.ListTasks)
		api.POST("/tasks", h.CreateTask)
		api.PATCH("/tasks/:id", h.UpdateTask)
		api.POST("/tasks/:id/toggle", h.ToggleTask)
		api.DELETE("/tasks/:id", h.DeleteTask)

		api.GET("/categories", h.ListCategories)
		api.POST("/categories", h.CreateCategory)
		api.DELETE("/categories/:id", h.DeleteCategory)

		api.GET("/time-entries", h.ListTimeEntries)
		api.POST("/time-entries", h.CreateTimeEntry)
		api.DELETE("/time-entries/:id", h.DeleteTimeEntry)

		api.GET("/dashboard", h.Dashboard)

		api.GET("/timer", h.TimerState)
		api.POST("/timer/start", h.StartTimer)
		api.POST("/timer/pause", h.PauseTimer)
		api.POST("/timer/reset", h.ResetTimer)
		api.POST("/timer/save", h.SaveTimer)

		api.GET("/export/tasks.csv", h.ExportCSV)
		api.GET("/export/report.txt", h.ExportReport)
	}

	// Live dashboard; the socket itself reports a missing session
	r.GET("/ws", h.WS)

	// Protected page: unauthenticated visitors go to the login page
	r.GET("/dashboard", requireSession, h.DashboardPage)
}
