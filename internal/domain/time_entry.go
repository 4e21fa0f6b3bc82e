package domain

import "time"

// TimeEntry is a saved stopwatch run. TaskName is captured when the entry is
// saved and is not kept in sync with the task afterwards.
type TimeEntry struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	TaskID    *string   `db:"task_id" json:"task_id,omitempty"`
	TaskName  string    `db:"task_name" json:"task_name"`
	Duration  int64     `db:"duration" json:"duration"` // seconds
	StartedAt time.Time `db:"started_at" json:"started_at"`
	EndedAt   time.Time `db:"ended_at" json:"ended_at"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
}
