package domain

import (
	"strings"
	"time"
)

// Priority of a task. Anything outside the three tiers is treated as medium.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Normalize returns p when it is one of the known tiers and PriorityMedium otherwise.
func (p Priority) Normalize() Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(string(p)))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Valid reports whether p is exactly one of the three tiers.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type Task struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description,omitempty"`
	Project     string     `db:"project" json:"project"`
	Priority    Priority   `db:"priority" json:"priority"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	Completed   bool       `db:"completed" json:"completed"`
	TimeSpent   int64      `db:"time_spent" json:"time_spent"` // seconds
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// TaskPatch is a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Project     *string    `json:"project,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ClearDue    bool       `json:"clear_due_date,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
}

// Apply copies the set fields of p onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Project != nil {
		t.Project = *p.Project
	}
	if p.Priority != nil {
		t.Priority = p.Priority.Normalize()
	}
	if p.ClearDue {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}
