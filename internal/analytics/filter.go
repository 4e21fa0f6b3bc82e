package analytics

import (
	"strings"
	"time"

	"tasker/internal/domain"
	"tasker/internal/timeutil"
)

type Status string

const (
	StatusAny       Status = ""
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
)

// Filter narrows a task list. Zero fields match everything.
type Filter struct {
	Query    string          `form:"q" json:"query,omitempty"`
	Project  string          `form:"project" json:"project,omitempty"`
	Priority domain.Priority `form:"priority" json:"priority,omitempty"`
	Status   Status          `form:"status" json:"status,omitempty"`
	From     time.Time       `form:"from" time_format:"2006-01-02" json:"from,omitempty"`
	To       time.Time       `form:"to" time_format:"2006-01-02" json:"to,omitempty"`
}

func (f Filter) IsZero() bool { return f == Filter{} }

// Match reports whether t passes every set criterion. Query is a
// case-insensitive substring match over title, description and project;
// To includes the whole day.
func (f Filter) Match(t domain.Task) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) &&
			!strings.Contains(strings.ToLower(t.Project), q) {
			return false
		}
	}
	if f.Project != "" {
		if f.Project == NoProject {
			if strings.TrimSpace(t.Project) != "" {
				return false
			}
		} else if t.Project != f.Project {
			return false
		}
	}
	if f.Priority != "" && t.Priority.Normalize() != f.Priority.Normalize() {
		return false
	}
	switch f.Status {
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	case StatusPending:
		if t.Completed {
			return false
		}
	}
	if !f.From.IsZero() && t.CreatedAt.Before(timeutil.StartOfDay(f.From)) {
		return false
	}
	if !f.To.IsZero() && t.CreatedAt.After(timeutil.EndOfDay(f.To)) {
		return false
	}
	return true
}

// FilterTasks returns the tasks matching f, preserving order.
func FilterTasks(tasks []domain.Task, f Filter) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Projects lists the distinct non-blank projects in first-seen order.
func Projects(tasks []domain.Task) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, t := range tasks {
		if strings.TrimSpace(t.Project) == "" || seen[t.Project] {
			continue
		}
		seen[t.Project] = true
		out = append(out, t.Project)
	}
	return out
}

// FilterRange keeps tasks created and entries started inside r. A zero range
// returns the inputs unchanged.
func FilterRange(tasks []domain.Task, entries []domain.TimeEntry, r timeutil.Range) ([]domain.Task, []domain.TimeEntry) {
	if r.IsZero() {
		return tasks, entries
	}
	var ft []domain.Task
	for _, t := range tasks {
		if r.Contains(t.CreatedAt) {
			ft = append(ft, t)
		}
	}
	var fe []domain.TimeEntry
	for _, e := range entries {
		if r.Contains(e.StartedAt) {
			fe = append(fe, e)
		}
	}
	return ft, fe
}
