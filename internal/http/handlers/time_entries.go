package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type timeEntryRequest struct {
	TaskID string    `json:"task_id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Notes  string    `json:"notes"`
}

func (h *Handler) ListTimeEntries(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	entries, err := h.Store.TimeEntries(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"time_entries": entries})
}

// CreateTimeEntry records a hand-entered span for one of the user's tasks.
func (h *Handler) CreateTimeEntry(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req timeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	e, err := h.Store.AddManualEntry(c.Request.Context(), uid, req.TaskID, req.Start, req.End, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *Handler) DeleteTimeEntry(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	if err := h.Store.DeleteTimeEntry(c.Request.Context(), uid, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
