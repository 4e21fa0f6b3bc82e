package handlers

import (
	"net/http"

	"tasker/internal/session"
	"tasker/internal/validation"

	"github.com/gin-gonic/gin"
)

// Dashboard returns the aggregated view for ?preset= or ?from=&to=.
// X-Cache tells whether it came from the cache.
func (h *Handler) Dashboard(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	r, err := validation.Range(c.Query("preset"), c.Query("from"), c.Query("to"), h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	view, hit, err := h.Snapshots.Get(c.Request.Context(), uid, r)
	if err != nil {
		writeError(c, err)
		return
	}
	if hit {
		c.Header("X-Cache", "hit")
	} else {
		c.Header("X-Cache", "miss")
	}
	c.JSON(http.StatusOK, view)
}

// DashboardPage serves the first render of the dashboard page for a
// signed-in user; later updates arrive over /ws.
func (h *Handler) DashboardPage(c *gin.Context) {
	s := session.FromGin(c)
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{"id": s.UserID, "email": s.Email, "name": s.Name},
		"ws":   "/ws",
	})
}
