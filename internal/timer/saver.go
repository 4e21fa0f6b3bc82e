package timer

import (
	"context"
	"strings"
	"time"

	"tasker/internal/apperr"
	"tasker/internal/domain"
)

// Recorder stores a finished run and credits its task.
type Recorder interface {
	RecordTime(ctx context.Context, userID string, e domain.TimeEntry) (*domain.TimeEntry, error)
}

type Saver struct {
	rec Recorder
}

func NewSaver(rec Recorder) *Saver { return &Saver{rec: rec} }

// Save records elapsed as a time entry ending at now. taskID may be empty
// for a run not linked to a task.
func (s *Saver) Save(ctx context.Context, userID, taskID, taskName string, elapsed time.Duration, now time.Time) (*domain.TimeEntry, error) {
	seconds := int64(elapsed / time.Second)
	taskName = strings.TrimSpace(taskName)
	if seconds <= 0 {
		return nil, apperr.Invalid("elapsed", "Start the timer before saving")
	}
	if taskName == "" {
		return nil, apperr.Invalid("task_name", "What are you working on?")
	}

	e := domain.TimeEntry{
		TaskName:  taskName,
		Duration:  seconds,
		StartedAt: now.Add(-time.Duration(seconds) * time.Second),
		EndedAt:   now,
	}
	if taskID = strings.TrimSpace(taskID); taskID != "" {
		e.TaskID = &taskID
	}
	return s.rec.RecordTime(ctx, userID, e)
}
