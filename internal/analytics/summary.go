package analytics

import (
	"time"

	"tasker/internal/domain"
	"tasker/internal/timeutil"
)

// Options tunes Summarize. Zero values select the defaults.
type Options struct {
	Months   int
	TopLimit int
	Range    timeutil.Range
}

// Summary is everything the dashboard renders for one user.
type Summary struct {
	GeneratedAt  time.Time     `json:"generated_at"`
	Empty        bool          `json:"empty"`
	Stats        Stats         `json:"stats"`
	TotalSeconds int64         `json:"total_seconds"`
	TotalTime    string        `json:"total_time"`
	Monthly      []MonthBucket `json:"monthly"`
	TimeByMonth  []MonthHours  `json:"time_by_month"`
	TopTasks     []TaskTime    `json:"top_tasks"`
	Projects     []Slice       `json:"projects"`
	Priorities   []Slice       `json:"priorities"`
	Weekly       []DayProgress `json:"weekly"`
}

// Summarize computes every dashboard series from scratch. When opts.Range is
// set, tasks and entries outside it are ignored first.
func Summarize(tasks []domain.Task, entries []domain.TimeEntry, now time.Time, opts Options) Summary {
	tasks, entries = FilterRange(tasks, entries, opts.Range)

	var total int64
	for _, e := range entries {
		if e.Duration > 0 {
			total += e.Duration
		}
	}

	return Summary{
		GeneratedAt:  now,
		Empty:        len(tasks) == 0 && len(entries) == 0,
		Stats:        TaskStatsAt(tasks, now),
		TotalSeconds: total,
		TotalTime:    timeutil.FormatDurationCompact(total),
		Monthly:      MonthlyTasks(tasks, opts.Months, now),
		TimeByMonth:  TimeSpentByMonth(entries, opts.Months, now),
		TopTasks:     MostTimeConsumingTasks(tasks, opts.TopLimit),
		Projects:     ProjectDistribution(tasks),
		Priorities:   PriorityDistribution(tasks),
		Weekly:       WeeklyProgress(tasks, now),
	}
}
