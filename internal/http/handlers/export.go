package handlers

import (
	"bytes"
	"net/http"

	"tasker/internal/analytics"
	"tasker/internal/report"

	"github.com/gin-gonic/gin"
)

// ExportCSV downloads every task of the user as CSV.
func (h *Handler) ExportCSV(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	tasks, err := h.Store.Tasks(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteTasksCSV(&buf, tasks); err != nil {
		writeError(c, err)
		return
	}
	name := "tasks-" + h.now().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportReport downloads the text report for the tasks matching the query
// filter.
func (h *Handler) ExportReport(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var f analytics.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter"})
		return
	}
	tasks, err := h.Store.Tasks(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteText(&buf, report.BuildReport(tasks, f, h.now())); err != nil {
		writeError(c, err)
		return
	}
	name := "task-report-" + h.now().Format("2006-01-02") + ".txt"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}
