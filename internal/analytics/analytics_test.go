package analytics

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasker/internal/domain"
	"tasker/internal/timeutil"
)

// Wednesday, 13 March 2024.
var now = time.Date(2024, time.March, 13, 15, 0, 0, 0, time.UTC)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func scenarioTasks() []domain.Task {
	return []domain.Task{
		{ID: "1", Title: "Ship release", TimeSpent: 7200, Priority: domain.PriorityHigh, Project: "Work", Completed: true, CreatedAt: now},
		{ID: "2", Title: "Water plants", TimeSpent: 0, Priority: domain.PriorityLow, Project: "", Completed: false, CreatedAt: now},
	}
}

func TestScenario(t *testing.T) {
	tasks := scenarioTasks()

	assert.Equal(t, Stats{Total: 2, Completed: 1, Pending: 1, CompletionRate: 50}, TaskStats(tasks))
	assert.Equal(t, []Slice{{Name: "Work", Value: 1}, {Name: "No Project", Value: 1}}, ProjectDistribution(tasks))
	assert.Equal(t, []Slice{
		{Name: "High Priority", Value: 1, Color: "#EF4444"},
		{Name: "Low Priority", Value: 1, Color: "#10B981"},
	}, PriorityDistribution(tasks))
}

func TestEmptyInput(t *testing.T) {
	assert.Equal(t, Stats{}, TaskStats(nil))
	assert.Equal(t, Stats{}, TaskStatsAt(nil, now))
	assert.Empty(t, ProjectDistribution(nil))
	assert.NotNil(t, ProjectDistribution(nil))
	assert.Empty(t, PriorityDistribution(nil))
	assert.Empty(t, MostTimeConsumingTasks(nil, 0))

	monthly := MonthlyTasks(nil, 0, now)
	require.Len(t, monthly, DefaultMonths)
	for _, b := range monthly {
		assert.Zero(t, b.Total)
	}
	hours := TimeSpentByMonth(nil, 0, now)
	require.Len(t, hours, DefaultMonths)
	weekly := WeeklyProgress(nil, now)
	require.Len(t, weekly, 7)
	assert.Zero(t, weekly[0].CompletionRate)

	s := Summarize(nil, nil, now, Options{})
	assert.True(t, s.Empty)
	assert.Equal(t, "< 1m", s.TotalTime)
}

func TestTaskStatsInvariant(t *testing.T) {
	for n := 0; n < 20; n++ {
		tasks := make([]domain.Task, n)
		for i := range tasks {
			tasks[i].Completed = i%3 == 0
		}
		s := TaskStats(tasks)
		assert.Equal(t, s.Total, s.Completed+s.Pending, "n=%d", n)
		assert.Equal(t, n, s.Total)
	}
	// 1/3 -> 33, 2/3 -> 67
	assert.Equal(t, 33, TaskStats([]domain.Task{{Completed: true}, {}, {}}).CompletionRate)
	assert.Equal(t, 67, TaskStats([]domain.Task{{Completed: true}, {Completed: true}, {}}).CompletionRate)
}

func TestTaskStatsAtOverdue(t *testing.T) {
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	tasks := []domain.Task{
		{DueDate: &past},
		{DueDate: &past, Completed: true},
		{DueDate: &future},
		{},
	}
	assert.Equal(t, 1, TaskStatsAt(tasks, now).Overdue)
	assert.Zero(t, TaskStats(tasks).Overdue)
}

func TestMonthlyTasks(t *testing.T) {
	tasks := []domain.Task{
		{CreatedAt: at(2024, time.March, 1), Completed: true},
		{CreatedAt: time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC)},
		{CreatedAt: at(2023, time.October, 1)},
		{CreatedAt: at(2023, time.September, 30)}, // outside the window
		{CreatedAt: at(2024, time.April, 1)},      // future month
	}
	got := MonthlyTasks(tasks, 6, now)
	require.Len(t, got, 6)

	labels := make([]string, len(got))
	for i, b := range got {
		labels[i] = b.Month
	}
	assert.Equal(t, []string{"Oct 2023", "Nov 2023", "Dec 2023", "Jan 2024", "Feb 2024", "Mar 2024"}, labels)
	assert.Equal(t, MonthBucket{Month: "Oct 2023", Total: 1, Pending: 1}, got[0])
	assert.Equal(t, MonthBucket{Month: "Feb 2024", Total: 1, Pending: 1}, got[4])
	assert.Equal(t, MonthBucket{Month: "Mar 2024", Total: 1, Completed: 1}, got[5])

	assert.Len(t, MonthlyTasks(tasks, 3, now), 3)
}

func TestMonthlyTasksAtMonthEnd(t *testing.T) {
	// Stepping back whole months from the 31st must not skip February.
	end := time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC)
	got := MonthlyTasks(nil, 2, end)
	require.Len(t, got, 2)
	assert.Equal(t, "Feb 2024", got[0].Month)
	assert.Equal(t, "Mar 2024", got[1].Month)
}

func TestTimeSpentByMonth(t *testing.T) {
	entries := []domain.TimeEntry{
		{Duration: 5400, StartedAt: at(2024, time.March, 2)},
		{Duration: 1800, StartedAt: at(2024, time.March, 10)},
		{Duration: 100, StartedAt: at(2024, time.January, 10)},
		{Duration: 3600, StartedAt: at(2022, time.January, 10)},
	}
	got := TimeSpentByMonth(entries, 6, now)
	require.Len(t, got, 6)
	assert.Equal(t, MonthHours{Month: "Mar 2024", Hours: 2}, got[5])
	assert.Equal(t, MonthHours{Month: "Jan 2024", Hours: 0}, got[3])

	var sum float64
	var inRange int64
	for _, b := range got {
		assert.GreaterOrEqual(t, b.Hours, 0.0)
		sum += b.Hours
	}
	for _, e := range entries[:3] {
		inRange += e.Duration
	}
	want := math.Round(float64(inRange)/3600*10) / 10
	assert.InDelta(t, want, sum, 0.05*float64(len(got)))
}

func TestMostTimeConsumingTasks(t *testing.T) {
	var tasks []domain.Task
	for i := 0; i < 15; i++ {
		tasks = append(tasks, domain.Task{
			Title:     fmt.Sprintf("task %02d", i),
			TimeSpent: int64((i % 5) * 600),
		})
	}
	tasks = append(tasks, domain.Task{Title: "A very long task title that keeps going", TimeSpent: 36000, Priority: "urgent"})

	got := MostTimeConsumingTasks(tasks, 0)
	tracked := 0
	for _, tk := range tasks {
		if tk.TimeSpent > 0 {
			tracked++
		}
	}
	assert.LessOrEqual(t, len(got), min(10, tracked))
	require.Len(t, got, 10)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Seconds, got[i].Seconds)
	}
	assert.Equal(t, "A very long task title th...", got[0].Name)
	assert.Equal(t, 10.0, got[0].Hours)
	assert.Equal(t, domain.PriorityMedium, got[0].Priority)
	// stable: among the 2400s tasks, input order is kept
	assert.Equal(t, "task 04", got[1].Name)
	assert.Equal(t, "task 09", got[2].Name)

	assert.Len(t, MostTimeConsumingTasks(tasks, 3), 3)
}

func TestProjectDistributionSumsToTotal(t *testing.T) {
	tasks := []domain.Task{
		{Project: "Home"}, {Project: "Work"}, {Project: "  "}, {Project: "Home"}, {},
	}
	got := ProjectDistribution(tasks)
	assert.Equal(t, []Slice{{Name: "Home", Value: 2}, {Name: "Work", Value: 1}, {Name: NoProject, Value: 2}}, got)

	sum := 0
	for _, s := range got {
		sum += s.Value
	}
	assert.Equal(t, len(tasks), sum)
}

func TestPriorityDistributionDropsZeroTiers(t *testing.T) {
	tasks := []domain.Task{{Priority: ""}, {Priority: "HIGH"}, {Priority: domain.PriorityMedium}}
	got := PriorityDistribution(tasks)
	assert.Equal(t, []Slice{
		{Name: "High Priority", Value: 1, Color: "#EF4444"},
		{Name: "Medium Priority", Value: 2, Color: "#F59E0B"},
	}, got)
	for _, s := range got {
		assert.NotZero(t, s.Value)
	}
}

func TestWeeklyProgress(t *testing.T) {
	tasks := []domain.Task{
		{CreatedAt: time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), Completed: true},
		{CreatedAt: time.Date(2024, time.March, 13, 9, 0, 0, 0, time.UTC), Completed: true},
		{CreatedAt: time.Date(2024, time.March, 13, 23, 59, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2024, time.March, 9, 23, 59, 0, 0, time.UTC)}, // previous Saturday
	}
	got := WeeklyProgress(tasks, now)
	require.Len(t, got, 7)

	assert.Equal(t, DayProgress{Day: "Sun", Date: "2024-03-10", Total: 1, Completed: 1, CompletionRate: 100}, got[0])
	assert.Equal(t, DayProgress{Day: "Wed", Date: "2024-03-13", Total: 2, Completed: 1, CompletionRate: 50}, got[3])
	assert.Equal(t, "Sat", got[6].Day)
	assert.Zero(t, got[6].Total)
}

func TestSummarize(t *testing.T) {
	tasks := scenarioTasks()
	entries := []domain.TimeEntry{{Duration: 7200, StartedAt: now.Add(-time.Hour)}}

	s := Summarize(tasks, entries, now, Options{Months: 3, TopLimit: 1})
	assert.False(t, s.Empty)
	assert.Equal(t, 2, s.Stats.Total)
	assert.Equal(t, int64(7200), s.TotalSeconds)
	assert.Equal(t, "2h", s.TotalTime)
	assert.Len(t, s.Monthly, 3)
	assert.Len(t, s.TimeByMonth, 3)
	assert.Len(t, s.TopTasks, 1)
	assert.Len(t, s.Weekly, 7)

	// a range excluding everything yields the empty state
	old := timeutil.Range{Start: at(2020, time.January, 1), End: at(2020, time.February, 1)}
	assert.True(t, Summarize(tasks, entries, now, Options{Range: old}).Empty)
}

func TestIdempotent(t *testing.T) {
	tasks := scenarioTasks()
	entries := []domain.TimeEntry{{Duration: 60, StartedAt: now}}
	a := Summarize(tasks, entries, now, Options{})
	b := Summarize(tasks, entries, now, Options{})
	assert.Equal(t, a, b)
	assert.Equal(t, MostTimeConsumingTasks(tasks, 5), MostTimeConsumingTasks(tasks, 5))
}

func TestFilterTasks(t *testing.T) {
	tasks := []domain.Task{
		{ID: "1", Title: "Write Report", Project: "Work", Priority: domain.PriorityHigh, Completed: true, CreatedAt: at(2024, time.March, 1)},
		{ID: "2", Title: "Groceries", Description: "milk, report card", Project: "Home", CreatedAt: at(2024, time.March, 5)},
		{ID: "3", Title: "Gym", CreatedAt: at(2024, time.February, 20)},
	}
	ids := func(ts []domain.Task) []string {
		out := []string{}
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(FilterTasks(tasks, Filter{})))
	assert.Equal(t, []string{"1", "2"}, ids(FilterTasks(tasks, Filter{Query: "REPORT"})))
	assert.Equal(t, []string{"2"}, ids(FilterTasks(tasks, Filter{Project: "Home"})))
	assert.Equal(t, []string{"3"}, ids(FilterTasks(tasks, Filter{Project: NoProject})))
	assert.Equal(t, []string{"2", "3"}, ids(FilterTasks(tasks, Filter{Priority: domain.PriorityMedium})))
	assert.Equal(t, []string{"1"}, ids(FilterTasks(tasks, Filter{Status: StatusCompleted})))
	assert.Equal(t, []string{"2", "3"}, ids(FilterTasks(tasks, Filter{Status: StatusPending})))
	assert.Equal(t, []string{"1", "2"}, ids(FilterTasks(tasks, Filter{From: at(2024, time.March, 1)})))
	assert.Equal(t, []string{"1", "3"}, ids(FilterTasks(tasks, Filter{To: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)})))

	assert.Equal(t, []string{"Work", "Home"}, Projects(tasks))
	assert.True(t, Filter{}.IsZero())
}

func TestFilterRange(t *testing.T) {
	tasks := []domain.Task{{ID: "in", CreatedAt: at(2024, time.March, 2)}, {ID: "out", CreatedAt: at(2024, time.January, 2)}}
	entries := []domain.TimeEntry{{ID: "in", StartedAt: at(2024, time.March, 3)}, {ID: "out", StartedAt: at(2024, time.April, 3)}}

	ft, fe := FilterRange(tasks, entries, timeutil.Range{Start: at(2024, time.March, 1), End: at(2024, time.March, 31)})
	require.Len(t, ft, 1)
	require.Len(t, fe, 1)
	assert.Equal(t, "in", ft[0].ID)
	assert.Equal(t, "in", fe[0].ID)

	ft, fe = FilterRange(tasks, entries, timeutil.Range{})
	assert.Len(t, ft, 2)
	assert.Len(t, fe, 2)
}
