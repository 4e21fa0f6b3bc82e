// Package store is the record store gateway: per-user CRUD over tasks,
// categories and time entries, with live snapshot subscriptions driven by a
// change notifier.
package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tasker/internal/apperr"
	"tasker/internal/domain"
	"tasker/internal/logger"
	"tasker/internal/timeutil"
	"tasker/internal/validation"

	"github.com/google/uuid"
)

type TaskRepo interface {
	List(ctx context.Context, userID string) ([]domain.Task, error)
	Get(ctx context.Context, userID, id string) (*domain.Task, error)
	Create(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, t *domain.Task) error
	Toggle(ctx context.Context, userID, id string) (*domain.Task, error)
	AddTimeSpent(ctx context.Context, userID, id string, delta int64) error
	Delete(ctx context.Context, userID, id string, cascade bool) error
}

type CategoryRepo interface {
	List(ctx context.Context, userID string) ([]domain.Category, error)
	Create(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, userID, id string) error
}

type TimeEntryRepo interface {
	List(ctx context.Context, userID string) ([]domain.TimeEntry, error)
	CreateAndAccrue(ctx context.Context, e *domain.TimeEntry) error
	Delete(ctx context.Context, userID, id string) error
}

type Store struct {
	tasks      TaskRepo
	categories CategoryRepo
	entries    TimeEntryRepo
	notifier   Notifier
	log        *slog.Logger
	now        func() time.Time
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.log = l } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// New builds a Store. A nil notifier selects an in-process one.
func New(tasks TaskRepo, categories CategoryRepo, entries TimeEntryRepo, notifier Notifier, opts ...Option) *Store {
	s := &Store{
		tasks:      tasks,
		categories: categories,
		entries:    entries,
		notifier:   notifier,
		log:        logger.With("component", "store"),
		now:        time.Now,
	}
	if s.notifier == nil {
		s.notifier = NewMemoryNotifier()
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Notifier exposes the change feed so other components can listen to it.
func (s *Store) Notifier() Notifier { return s.notifier }

func (s *Store) fail(ctx context.Context, op, userID string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.IsValidation(err) || errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	logger.FromContext(ctx).Error("record store operation failed",
		"component", "store", "op", op, "user_id", userID, "error", err)
	return apperr.OperationFailed(op, err)
}

func (s *Store) publish(ctx context.Context, userID string, colls ...Collection) {
	for _, c := range colls {
		if err := s.notifier.Publish(ctx, Change{UserID: userID, Collection: c}); err != nil {
			s.log.Warn("change publish failed", "user_id", userID, "collection", string(c), "error", err)
		}
	}
}

// NotifySignOut tells the user's live sessions that they were signed out.
func (s *Store) NotifySignOut(ctx context.Context, userID string) {
	s.publish(ctx, userID, Auth)
}

// Tasks

func (s *Store) Tasks(ctx context.Context, userID string) ([]domain.Task, error) {
	ts, err := s.tasks.List(ctx, userID)
	return ts, s.fail(ctx, "list tasks", userID, err)
}

func (s *Store) Task(ctx context.Context, userID, id string) (*domain.Task, error) {
	t, err := s.tasks.Get(ctx, userID, id)
	return t, s.fail(ctx, "get task", userID, err)
}

// AddTask validates and stores a new task owned by userID.
func (s *Store) AddTask(ctx context.Context, userID string, in domain.Task) (*domain.Task, error) {
	t := in
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	t.Project = strings.TrimSpace(t.Project)
	if err := validation.Task(t.Title, t.Description); err != nil {
		return nil, err
	}
	if t.TimeSpent < 0 {
		return nil, apperr.Invalid("time_spent", "Time spent cannot be negative")
	}
	t.ID = uuid.NewString()
	t.UserID = userID
	t.Priority = t.Priority.Normalize()

	if err := s.tasks.Create(ctx, &t); err != nil {
		return nil, s.fail(ctx, "add task", userID, err)
	}
	s.publish(ctx, userID, Tasks)
	return &t, nil
}

// UpdateTask applies patch to the user's task.
func (s *Store) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	t, err := s.tasks.Get(ctx, userID, id)
	if err != nil {
		return nil, s.fail(ctx, "update task", userID, err)
	}
	patch.Apply(t)
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	t.Project = strings.TrimSpace(t.Project)
	if err := validation.Task(t.Title, t.Description); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, s.fail(ctx, "update task", userID, err)
	}
	s.publish(ctx, userID, Tasks)
	return t, nil
}

func (s *Store) ToggleTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	t, err := s.tasks.Toggle(ctx, userID, id)
	if err != nil {
		return nil, s.fail(ctx, "toggle task", userID, err)
	}
	s.publish(ctx, userID, Tasks)
	return t, nil
}

// AddTimeSpent adds delta seconds to a task. Time is only ever added.
func (s *Store) AddTimeSpent(ctx context.Context, userID, id string, delta int64) error {
	if delta < 0 {
		return apperr.Invalid("time_spent", "Time spent cannot be negative")
	}
	if err := s.tasks.AddTimeSpent(ctx, userID, id, delta); err != nil {
		return s.fail(ctx, "add time spent", userID, err)
	}
	s.publish(ctx, userID, Tasks)
	return nil
}

// DeleteTask removes a task, and its time entries when cascade is set.
func (s *Store) DeleteTask(ctx context.Context, userID, id string, cascade bool) error {
	if err := s.tasks.Delete(ctx, userID, id, cascade); err != nil {
		return s.fail(ctx, "delete task", userID, err)
	}
	s.publish(ctx, userID, Tasks, TimeEntries)
	return nil
}

// Categories

func (s *Store) Categories(ctx context.Context, userID string) ([]domain.Category, error) {
	cs, err := s.categories.List(ctx, userID)
	return cs, s.fail(ctx, "list categories", userID, err)
}

func (s *Store) AddCategory(ctx context.Context, userID, name, color string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if err := validation.Category(name, color); err != nil {
		return nil, err
	}
	c := &domain.Category{ID: uuid.NewString(), UserID: userID, Name: name, Color: strings.ToUpper(color)}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, s.fail(ctx, "add category", userID, err)
	}
	s.publish(ctx, userID, Categories)
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := s.categories.Delete(ctx, userID, id); err != nil {
		return s.fail(ctx, "delete category", userID, err)
	}
	s.publish(ctx, userID, Categories)
	return nil
}

// Time entries

func (s *Store) TimeEntries(ctx context.Context, userID string) ([]domain.TimeEntry, error) {
	es, err := s.entries.List(ctx, userID)
	return es, s.fail(ctx, "list time entries", userID, err)
}

// RecordTime stores a finished run and adds its duration to the linked task.
func (s *Store) RecordTime(ctx context.Context, userID string, e domain.TimeEntry) (*domain.TimeEntry, error) {
	if e.Duration < 0 {
		return nil, apperr.Invalid("duration", "Duration cannot be negative")
	}
	e.ID = uuid.NewString()
	e.UserID = userID
	if e.TaskID != nil && *e.TaskID == "" {
		e.TaskID = nil
	}
	if err := s.entries.CreateAndAccrue(ctx, &e); err != nil {
		return nil, s.fail(ctx, "record time", userID, err)
	}
	if e.TaskID != nil {
		s.publish(ctx, userID, TimeEntries, Tasks)
	} else {
		s.publish(ctx, userID, TimeEntries)
	}
	return &e, nil
}

// AddManualEntry validates a hand-entered span against the current time,
// snapshots the task's title and records it.
func (s *Store) AddManualEntry(ctx context.Context, userID, taskID string, start, end time.Time, notes string) (*domain.TimeEntry, error) {
	notes = strings.TrimSpace(notes)
	if err := validation.ManualTimeEntry(taskID, start, end, notes, s.now()); err != nil {
		return nil, err
	}
	t, err := s.tasks.Get(ctx, userID, taskID)
	if err != nil {
		return nil, s.fail(ctx, "add time entry", userID, err)
	}
	return s.RecordTime(ctx, userID, domain.TimeEntry{
		TaskID:    &t.ID,
		TaskName:  t.Title,
		Duration:  timeutil.Seconds(start, end),
		StartedAt: start,
		EndedAt:   end,
		Notes:     notes,
	})
}

func (s *Store) DeleteTimeEntry(ctx context.Context, userID, id string) error {
	if err := s.entries.Delete(ctx, userID, id); err != nil {
		return s.fail(ctx, "delete time entry", userID, err)
	}
	s.publish(ctx, userID, TimeEntries)
	return nil
}

// Subscriptions

func (s *Store) SubscribeTasks(ctx context.Context, userID string, fn func(Snapshot[domain.Task])) Unsubscribe {
	return watch(ctx, s, userID, Tasks, s.tasks.List, fn)
}

func (s *Store) SubscribeCategories(ctx context.Context, userID string, fn func(Snapshot[domain.Category])) Unsubscribe {
	return watch(ctx, s, userID, Categories, s.categories.List, fn)
}

func (s *Store) SubscribeTimeEntries(ctx context.Context, userID string, fn func(Snapshot[domain.TimeEntry])) Unsubscribe {
	return watch(ctx, s, userID, TimeEntries, s.entries.List, fn)
}
