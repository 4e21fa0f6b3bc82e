// Package storetest provides in-memory repositories for tests of code built
// on store.Store.
package storetest

import (
	"context"
	"slices"
	"sync"
	"time"

	"tasker/internal/apperr"
	"tasker/internal/domain"
	"tasker/internal/store"
)

// Repos holds the data behind the in-memory repositories. Lists come back
// newest first, like the Postgres ones.
type Repos struct {
	mu         sync.Mutex
	now        func() time.Time
	tasks      []domain.Task
	categories []domain.Category
	entries    []domain.TimeEntry
	failures   map[string]error
}

func NewRepos(now func() time.Time) *Repos {
	if now == nil {
		now = time.Now
	}
	return &Repos{now: now, failures: make(map[string]error)}
}

// New returns a Store over fresh in-memory repositories and an in-process
// notifier.
func New(opts ...store.Option) (*store.Store, *Repos) {
	r := NewRepos(nil)
	return store.New(r.Tasks(), r.Categories(), r.Entries(), store.NewMemoryNotifier(), opts...), r
}

// FailOn makes the named operation (e.g. "tasks.list") return err until
// cleared with a nil err.
func (r *Repos) FailOn(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, op)
		return
	}
	r.failures[op] = err
}

func (r *Repos) failure(op string) error { return r.failures[op] }

func (r *Repos) Tasks() *TaskRepo          { return &TaskRepo{r} }
func (r *Repos) Categories() *CategoryRepo { return &CategoryRepo{r} }
func (r *Repos) Entries() *TimeEntryRepo   { return &TimeEntryRepo{r} }

func newestFirst[T any](items []T, owned func(T) bool) []T {
	out := []T{}
	for i := len(items) - 1; i >= 0; i-- {
		if owned(items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

type TaskRepo struct{ r *Repos }

func (t *TaskRepo) List(_ context.Context, userID string) ([]domain.Task, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if err := t.r.failure("tasks.list"); err != nil {
		return nil, err
	}
	return newestFirst(t.r.tasks, func(x domain.Task) bool { return x.UserID == userID }), nil
}

func (t *TaskRepo) index(userID, id string) int {
	return slices.IndexFunc(t.r.tasks, func(x domain.Task) bool { return x.ID == id && x.UserID == userID })
}

func (t *TaskRepo) Get(_ context.Context, userID, id string) (*domain.Task, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	i := t.index(userID, id)
	if i < 0 {
		return nil, apperr.ErrNotFound
	}
	cp := t.r.tasks[i]
	return &cp, nil
}

func (t *TaskRepo) Create(_ context.Context, task *domain.Task) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if err := t.r.failure("tasks.create"); err != nil {
		return err
	}
	now := t.r.now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	t.r.tasks = append(t.r.tasks, *task)
	return nil
}

func (t *TaskRepo) Update(_ context.Context, task *domain.Task) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	i := t.index(task.UserID, task.ID)
	if i < 0 {
		return apperr.ErrNotFound
	}
	task.UpdatedAt = t.r.now()
	task.TimeSpent = t.r.tasks[i].TimeSpent
	t.r.tasks[i] = *task
	return nil
}

func (t *TaskRepo) Toggle(_ context.Context, userID, id string) (*domain.Task, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	i := t.index(userID, id)
	if i < 0 {
		return nil, apperr.ErrNotFound
	}
	t.r.tasks[i].Completed = !t.r.tasks[i].Completed
	t.r.tasks[i].UpdatedAt = t.r.now()
	cp := t.r.tasks[i]
	return &cp, nil
}

func (t *TaskRepo) AddTimeSpent(_ context.Context, userID, id string, delta int64) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	i := t.index(userID, id)
	if i < 0 {
		return apperr.ErrNotFound
	}
	t.r.tasks[i].TimeSpent += delta
	return nil
}

func (t *TaskRepo) Delete(_ context.Context, userID, id string, cascade bool) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	i := t.index(userID, id)
	if i < 0 {
		return apperr.ErrNotFound
	}
	t.r.tasks = slices.Delete(t.r.tasks, i, i+1)
	if cascade {
		t.r.entries = slices.DeleteFunc(t.r.entries, func(e domain.TimeEntry) bool {
			return e.UserID == userID && e.TaskID != nil && *e.TaskID == id
		})
	} else {
		for j := range t.r.entries {
			if e := &t.r.entries[j]; e.UserID == userID && e.TaskID != nil && *e.TaskID == id {
				e.TaskID = nil
			}
		}
	}
	return nil
}

type CategoryRepo struct{ r *Repos }

func (c *CategoryRepo) List(_ context.Context, userID string) ([]domain.Category, error) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	if err := c.r.failure("categories.list"); err != nil {
		return nil, err
	}
	return newestFirst(c.r.categories, func(x domain.Category) bool { return x.UserID == userID }), nil
}

func (c *CategoryRepo) Create(_ context.Context, cat *domain.Category) error {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	if err := c.r.failure("categories.create"); err != nil {
		return err
	}
	cat.CreatedAt = c.r.now()
	c.r.categories = append(c.r.categories, *cat)
	return nil
}

func (c *CategoryRepo) Delete(_ context.Context, userID, id string) error {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	n := len(c.r.categories)
	c.r.categories = slices.DeleteFunc(c.r.categories, func(x domain.Category) bool {
		return x.ID == id && x.UserID == userID
	})
	if len(c.r.categories) == n {
		return apperr.ErrNotFound
	}
	return nil
}

type TimeEntryRepo struct{ r *Repos }

func (e *TimeEntryRepo) List(_ context.Context, userID string) ([]domain.TimeEntry, error) {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	if err := e.r.failure("entries.list"); err != nil {
		return nil, err
	}
	return newestFirst(e.r.entries, func(x domain.TimeEntry) bool { return x.UserID == userID }), nil
}

func (e *TimeEntryRepo) CreateAndAccrue(_ context.Context, entry *domain.TimeEntry) error {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	if err := e.r.failure("entries.create"); err != nil {
		return err
	}
	if entry.TaskID != nil {
		tasks := &TaskRepo{e.r}
		i := tasks.index(entry.UserID, *entry.TaskID)
		if i < 0 {
			return apperr.ErrNotFound
		}
		e.r.tasks[i].TimeSpent += entry.Duration
	}
	e.r.entries = append(e.r.entries, *entry)
	return nil
}

func (e *TimeEntryRepo) Delete(_ context.Context, userID, id string) error {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	n := len(e.r.entries)
	e.r.entries = slices.DeleteFunc(e.r.entries, func(x domain.TimeEntry) bool {
		return x.ID == id && x.UserID == userID
	})
	if len(e.r.entries) == n {
		return apperr.ErrNotFound
	}
	return nil
}
