package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Me(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	u, err := h.Identity.User(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name(),
		"created_at": u.CreatedAt,
	})
}
