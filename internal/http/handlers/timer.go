package handlers

import (
	"net/http"
	"strings"

	"tasker/internal/ws"

	"github.com/gin-gonic/gin"
)

type saveTimerRequest struct {
	TaskID   string `json:"task_id"`
	TaskName string `json:"task_name"`
}

func (h *Handler) TimerState(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ws.TimerState(h.Timers.Get(uid)))
}

func (h *Handler) StartTimer(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	h.Timers.Get(uid).Start()
	h.timerChanged(c, uid)
}

func (h *Handler) PauseTimer(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	h.Timers.Get(uid).Pause()
	h.timerChanged(c, uid)
}

func (h *Handler) ResetTimer(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	h.Timers.Get(uid).Reset()
	h.timerChanged(c, uid)
}

// SaveTimer records the stopwatch run as a time entry and resets it. The
// task name defaults to the linked task's title.
func (h *Handler) SaveTimer(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req saveTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	ctx := c.Request.Context()
	if req.TaskID != "" && strings.TrimSpace(req.TaskName) == "" {
		t, err := h.Store.Task(ctx, uid, req.TaskID)
		if err != nil {
			writeError(c, err)
			return
		}
		req.TaskName = t.Title
	}

	sw := h.Timers.Get(uid)
	elapsed := sw.Take()
	e, err := h.Saver.Save(ctx, uid, req.TaskID, req.TaskName, elapsed, h.now())
	if err != nil {
		sw.Restore(elapsed)
		writeError(c, err)
		return
	}
	if h.Hub != nil {
		h.Hub.Broadcast(uid, ws.MsgTimer, ws.TimerState(sw))
	}
	c.JSON(http.StatusCreated, e)
}

func (h *Handler) timerChanged(c *gin.Context, uid string) {
	state := ws.TimerState(h.Timers.Get(uid))
	if h.Hub != nil {
		h.Hub.Broadcast(uid, ws.MsgTimer, state)
	}
	c.JSON(http.StatusOK, state)
}
