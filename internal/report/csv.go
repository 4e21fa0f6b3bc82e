// Package report renders task exports: a CSV of the task list and a plain
// text summary report.
package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"tasker/internal/domain"
)

var csvHeader = []string{
	"id", "title", "description", "project", "priority", "completed",
	"time_spent", "due_date", "created_at", "updated_at",
}

// WriteTasksCSV writes a header row and one row per task.
func WriteTasksCSV(w io.Writer, tasks []domain.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format(time.RFC3339)
		}
		row := []string{
			t.ID,
			t.Title,
			t.Description,
			t.Project,
			string(t.Priority.Normalize()),
			strconv.FormatBool(t.Completed),
			strconv.FormatInt(t.TimeSpent, 10),
			due,
			t.CreatedAt.Format(time.RFC3339),
			t.UpdatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
