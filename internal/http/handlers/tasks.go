package handlers

import (
	"net/http"
	"strconv"
	"time"

	"tasker/internal/domain"

	"github.com/gin-gonic/gin"
)

type taskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Project     string          `json:"project"`
	Priority    domain.Priority `json:"priority"`
	DueDate     *time.Time      `json:"due_date"`
	Completed   bool            `json:"completed"`
	TimeSpent   int64           `json:"time_spent"`
}

func (h *Handler) ListTasks(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	tasks, err := h.Store.Tasks(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handler) CreateTask(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	t, err := h.Store.AddTask(c.Request.Context(), uid, domain.Task{
		Title:       req.Title,
		Description: req.Description,
		Project:     req.Project,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Completed:   req.Completed,
		TimeSpent:   req.TimeSpent,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var patch domain.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	t, err := h.Store.UpdateTask(c.Request.Context(), uid, c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) ToggleTask(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	t, err := h.Store.ToggleTask(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTask removes a task; ?cascade=true also drops its time entries.
func (h *Handler) DeleteTask(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	cascade, _ := strconv.ParseBool(c.Query("cascade"))
	if err := h.Store.DeleteTask(c.Request.Context(), uid, c.Param("id"), cascade); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
