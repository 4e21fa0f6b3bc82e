package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (h *Handler) ListCategories(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	cats, err := h.Store.Categories(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	cat, err := h.Store.AddCategory(c.Request.Context(), uid, req.Name, req.Color)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	if err := h.Store.DeleteCategory(c.Request.Context(), uid, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
