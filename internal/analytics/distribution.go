package analytics

import (
	"slices"
	"strings"
	"unicode/utf8"

	"tasker/internal/domain"
)

const (
	NoProject   = "No Project"
	maxNameRune = 25
)

// Slice is one wedge of a distribution chart. Color is empty when the chart
// picks its own palette.
type Slice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color,omitempty"`
}

var tiers = []struct {
	priority domain.Priority
	name     string
	color    string
}{
	{domain.PriorityHigh, "High Priority", "#EF4444"},
	{domain.PriorityMedium, "Medium Priority", "#F59E0B"},
	{domain.PriorityLow, "Low Priority", "#10B981"},
}

// PriorityDistribution counts tasks per tier in high, medium, low order and
// drops empty tiers.
func PriorityDistribution(tasks []domain.Task) []Slice {
	counts := make(map[domain.Priority]int, len(tiers))
	for _, t := range tasks {
		counts[t.Priority.Normalize()]++
	}
	out := make([]Slice, 0, len(tiers))
	for _, tier := range tiers {
		if n := counts[tier.priority]; n > 0 {
			out = append(out, Slice{Name: tier.name, Value: n, Color: tier.color})
		}
	}
	return out
}

// ProjectDistribution counts tasks per project in first-seen order. Blank
// projects are grouped under NoProject.
func ProjectDistribution(tasks []domain.Task) []Slice {
	index := make(map[string]int)
	var out []Slice
	for _, t := range tasks {
		name := projectName(t.Project)
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, Slice{Name: name})
		}
		out[i].Value++
	}
	if out == nil {
		return []Slice{}
	}
	return out
}

type TaskTime struct {
	Name     string          `json:"name"`
	Hours    float64         `json:"hours"`
	Seconds  int64           `json:"seconds"`
	Priority domain.Priority `json:"priority"`
}

// MostTimeConsumingTasks returns up to limit tasks with tracked time, most
// time first. Ties keep input order.
func MostTimeConsumingTasks(tasks []domain.Task, limit int) []TaskTime {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	tracked := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.TimeSpent > 0 {
			tracked = append(tracked, t)
		}
	}
	slices.SortStableFunc(tracked, func(a, b domain.Task) int {
		switch {
		case a.TimeSpent > b.TimeSpent:
			return -1
		case a.TimeSpent < b.TimeSpent:
			return 1
		}
		return 0
	})
	if len(tracked) > limit {
		tracked = tracked[:limit]
	}

	out := make([]TaskTime, len(tracked))
	for i, t := range tracked {
		out[i] = TaskTime{
			Name:     Truncate(t.Title, maxNameRune),
			Hours:    Hours(t.TimeSpent),
			Seconds:  t.TimeSpent,
			Priority: t.Priority.Normalize(),
		}
	}
	return out
}

// Truncate shortens s to n runes and appends "..." when it was longer.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func projectName(p string) string {
	if strings.TrimSpace(p) == "" {
		return NoProject
	}
	return p
}
