// Package analytics turns task and time-entry collections into the series
// the dashboard charts. Every function is pure: the current time is passed
// in, calendar boundaries use now.Location(), and empty input yields
// zero-valued results.
package analytics

import (
	"math"
	"time"

	"tasker/internal/domain"
	"tasker/internal/timeutil"
)

const (
	DefaultMonths   = 6
	DefaultTopLimit = 10

	monthLayout = "Jan 2006"
	dayLayout   = "Mon"
	dateLayout  = "2006-01-02"
)

type Stats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	CompletionRate int `json:"completion_rate"`
	Overdue        int `json:"overdue"`
}

// TaskStats counts tasks by completion. Overdue is left at zero; use
// TaskStatsAt when a reference time is available.
func TaskStats(tasks []domain.Task) Stats {
	var s Stats
	for _, t := range tasks {
		s.Total++
		if t.Completed {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	s.CompletionRate = percent(s.Completed, s.Total)
	return s
}

// TaskStatsAt is TaskStats plus the number of pending tasks due before now.
func TaskStatsAt(tasks []domain.Task, now time.Time) Stats {
	s := TaskStats(tasks)
	for _, t := range tasks {
		if !t.Completed && t.DueDate != nil && t.DueDate.Before(now) {
			s.Overdue++
		}
	}
	return s
}

type MonthBucket struct {
	Month     string `json:"month"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Pending   int    `json:"pending"`
}

// MonthlyTasks buckets tasks by creation time into the trailing months
// calendar months ending with now's month, oldest first.
func MonthlyTasks(tasks []domain.Task, months int, now time.Time) []MonthBucket {
	windows := trailingMonths(months, now)
	out := make([]MonthBucket, len(windows))
	for i, w := range windows {
		out[i].Month = w.label
		for _, t := range tasks {
			if !w.Contains(t.CreatedAt) {
				continue
			}
			out[i].Total++
			if t.Completed {
				out[i].Completed++
			}
		}
		out[i].Pending = out[i].Total - out[i].Completed
	}
	return out
}

type MonthHours struct {
	Month string  `json:"month"`
	Hours float64 `json:"hours"`
}

// TimeSpentByMonth sums entry durations by start time over the trailing
// months, in hours rounded to one decimal.
func TimeSpentByMonth(entries []domain.TimeEntry, months int, now time.Time) []MonthHours {
	windows := trailingMonths(months, now)
	out := make([]MonthHours, len(windows))
	for i, w := range windows {
		var secs int64
		for _, e := range entries {
			if w.Contains(e.StartedAt) && e.Duration > 0 {
				secs += e.Duration
			}
		}
		out[i] = MonthHours{Month: w.label, Hours: Hours(secs)}
	}
	return out
}

type DayProgress struct {
	Day            string `json:"day"`
	Date           string `json:"date"`
	Total          int    `json:"total"`
	Completed      int    `json:"completed"`
	CompletionRate int    `json:"completion_rate"`
}

// WeeklyProgress reports the seven days of now's week, Sunday first, with
// tasks counted on the day they were created.
func WeeklyProgress(tasks []domain.Task, now time.Time) []DayProgress {
	start := timeutil.StartOfWeek(now)
	out := make([]DayProgress, 7)
	for i := range out {
		day := start.AddDate(0, 0, i)
		p := DayProgress{Day: day.Format(dayLayout), Date: day.Format(dateLayout)}
		for _, t := range tasks {
			if !timeutil.SameDay(day, t.CreatedAt) {
				continue
			}
			p.Total++
			if t.Completed {
				p.Completed++
			}
		}
		p.CompletionRate = percent(p.Completed, p.Total)
		out[i] = p
	}
	return out
}

// Hours converts seconds to hours rounded to one decimal.
func Hours(seconds int64) float64 {
	if seconds <= 0 {
		return 0
	}
	return math.Round(float64(seconds)/3600*10) / 10
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

type monthWindow struct {
	timeutil.Range
	label string
}

func trailingMonths(months int, now time.Time) []monthWindow {
	if months <= 0 {
		months = DefaultMonths
	}
	current := timeutil.StartOfMonth(now)
	out := make([]monthWindow, 0, months)
	for i := months - 1; i >= 0; i-- {
		start := current.AddDate(0, -i, 0)
		out = append(out, monthWindow{
			Range: timeutil.Range{Start: start, End: timeutil.EndOfMonth(start)},
			label: start.Format(monthLayout),
		})
	}
	return out
}
