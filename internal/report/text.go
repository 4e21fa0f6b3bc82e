package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"tasker/internal/analytics"
	"tasker/internal/domain"
)

const dateLayout = "2006-01-02"

type Count struct {
	Name  string
	Count int
}

// Report summarizes the tasks that pass a filter.
type Report struct {
	GeneratedAt  time.Time
	Filter       analytics.Filter
	Stats        analytics.Stats
	TotalSeconds int64
	AvgSeconds   float64
	Priorities   []Count
	Projects     []Count
	Tasks        []domain.Task
}

// BuildReport filters tasks and totals the result.
func BuildReport(tasks []domain.Task, f analytics.Filter, now time.Time) Report {
	matched := analytics.FilterTasks(tasks, f)

	r := Report{
		GeneratedAt: now,
		Filter:      f,
		Stats:       analytics.TaskStats(matched),
		Tasks:       matched,
	}

	tiers := map[domain.Priority]int{}
	for _, t := range matched {
		if t.TimeSpent > 0 {
			r.TotalSeconds += t.TimeSpent
		}
		tiers[t.Priority.Normalize()]++
	}
	if len(matched) > 0 {
		r.AvgSeconds = float64(r.TotalSeconds) / float64(len(matched))
	}
	r.Priorities = []Count{
		{"High Priority", tiers[domain.PriorityHigh]},
		{"Medium Priority", tiers[domain.PriorityMedium]},
		{"Low Priority", tiers[domain.PriorityLow]},
	}
	for _, s := range analytics.ProjectDistribution(matched) {
		r.Projects = append(r.Projects, Count{s.Name, s.Value})
	}
	return r
}

// hours rounds seconds to hundredths of an hour.
func hours(seconds float64) string {
	h := math.Round(seconds/3600*100) / 100
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func clip(s string, width int) string {
	r := []rune(s)
	if len(r) > width-2 {
		return string(r[:width-2]) + ".."
	}
	return s
}

func day(t time.Time) string {
	if t.IsZero() {
		return "All time"
	}
	return t.Format(dateLayout)
}

// WriteText renders r as the plain text report.
func WriteText(w io.Writer, r Report) error {
	var b strings.Builder

	b.WriteString("TASKER - TASK REPORT\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format("Jan 2, 2006, 3:04:05 PM"))

	b.WriteString("FILTER CRITERIA:\n")
	fmt.Fprintf(&b, "Search Query: %s\n", orDefault(r.Filter.Query, "None"))
	fmt.Fprintf(&b, "Project: %s\n", orDefault(r.Filter.Project, "All"))
	fmt.Fprintf(&b, "Priority: %s\n", orDefault(string(r.Filter.Priority), "All"))
	fmt.Fprintf(&b, "Status: %s\n", orDefault(string(r.Filter.Status), "All"))
	fmt.Fprintf(&b, "Date From: %s\n", day(r.Filter.From))
	fmt.Fprintf(&b, "Date To: %s\n\n", day(r.Filter.To))

	b.WriteString("SUMMARY:\n")
	fmt.Fprintf(&b, "Total Tasks: %d\n", r.Stats.Total)
	fmt.Fprintf(&b, "Completed Tasks: %d\n", r.Stats.Completed)
	fmt.Fprintf(&b, "Pending Tasks: %d\n", r.Stats.Pending)
	fmt.Fprintf(&b, "Completion Rate: %d%%\n", r.Stats.CompletionRate)
	fmt.Fprintf(&b, "Total Time Spent: %s hours\n", hours(float64(r.TotalSeconds)))
	fmt.Fprintf(&b, "Average Time per Task: %s hours\n\n", hours(r.AvgSeconds))

	b.WriteString("PRIORITY BREAKDOWN:\n")
	for _, p := range r.Priorities {
		fmt.Fprintf(&b, "%s: %d\n", p.Name, p.Count)
	}
	b.WriteString("\n")

	b.WriteString("PROJECT BREAKDOWN:\n")
	for _, p := range r.Projects {
		fmt.Fprintf(&b, "%s: %d\n", p.Name, p.Count)
	}
	b.WriteString("\n")

	b.WriteString("TASK DETAILS:\n")
	fmt.Fprintf(&b, "%-30s %-15s %-10s %-10s %-12s\n", "Title", "Project", "Priority", "Status", "Time (hrs)")
	b.WriteString(strings.Repeat("-", 80) + "\n")
	for _, t := range r.Tasks {
		status := "Pending"
		if t.Completed {
			status = "Done"
		}
		fmt.Fprintf(&b, "%-30s %-15s %-10s %-10s %-12s\n",
			clip(t.Title, 30),
			clip(orDefault(t.Project, "None"), 15),
			t.Priority.Normalize(),
			status,
			hours(float64(t.TimeSpent)),
		)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
