// Package dashboard turns a user's live collections into the dashboard view.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tasker/internal/analytics"
	"tasker/internal/domain"
	"tasker/internal/logger"
	"tasker/internal/metrics"
	"tasker/internal/store"
	"tasker/internal/timeutil"
)

var ErrStarted = errors.New("dashboard: controller already started")

// Gateway is the live side of the record store.
type Gateway interface {
	SubscribeTasks(ctx context.Context, userID string, fn func(store.Snapshot[domain.Task])) store.Unsubscribe
	SubscribeCategories(ctx context.Context, userID string, fn func(store.Snapshot[domain.Category])) store.Unsubscribe
	SubscribeTimeEntries(ctx context.Context, userID string, fn func(store.Snapshot[domain.TimeEntry])) store.Unsubscribe
}

// View is one immutable rendering of the dashboard.
type View struct {
	UserID     string            `json:"user_id"`
	Ready      bool              `json:"ready"`
	Summary    analytics.Summary `json:"summary"`
	Categories []domain.Category `json:"categories"`
	Projects   []string          `json:"projects"`
}

type stream int

const (
	streamTasks stream = iota
	streamCategories
	streamEntries
	streamCount
)

func (s stream) String() string {
	return [...]string{"tasks", "categories", "time_entries"}[s]
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

func WithLogger(l *slog.Logger) Option { return func(c *Controller) { c.log = l } }

// WithMonths sets the trailing month window of the charts.
func WithMonths(n int) Option { return func(c *Controller) { c.opts.Months = n } }

// WithTopLimit caps the most-time-consuming task list.
func WithTopLimit(n int) Option { return func(c *Controller) { c.opts.TopLimit = n } }

// Controller keeps a View current for one user while started. Snapshot
// callbacks and hooks run one at a time.
type Controller struct {
	gw   Gateway
	now  func() time.Time
	log  *slog.Logger
	view atomic.Pointer[View]

	mu         sync.Mutex
	opts       analytics.Options
	gen        int
	userID     string
	unsubs     []store.Unsubscribe
	pending    int
	seen       [streamCount]bool
	tasks      []domain.Task
	categories []domain.Category
	entries    []domain.TimeEntry
	ready      chan struct{}
	onReady    func(View)
	onUpdate   func(View)
}

func NewController(gw Gateway, opts ...Option) *Controller {
	c := &Controller{
		gw:    gw,
		now:   time.Now,
		log:   logger.With("component", "dashboard"),
		ready: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnReady sets the hook run once when every stream has delivered.
func (c *Controller) OnReady(fn func(View)) {
	c.mu.Lock()
	c.onReady = fn
	c.mu.Unlock()
}

// OnUpdate sets the hook run after every recompute. Hooks must not call
// Stop.
func (c *Controller) OnUpdate(fn func(View)) {
	c.mu.Lock()
	c.onUpdate = fn
	c.mu.Unlock()
}

// Ready is closed once the first snapshot of all three streams arrived.
func (c *Controller) Ready() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// View returns the latest view, or nil when stopped or not yet computed.
func (c *Controller) View() *View { return c.view.Load() }

// Start opens the task, category and time entry subscriptions for userID.
func (c *Controller) Start(ctx context.Context, userID string) error {
	c.mu.Lock()
	if c.unsubs != nil {
		c.mu.Unlock()
		return ErrStarted
	}
	c.gen++
	gen := c.gen
	c.userID = userID
	c.pending = int(streamCount)
	c.seen = [streamCount]bool{}
	c.tasks, c.categories, c.entries = []domain.Task{}, []domain.Category{}, []domain.TimeEntry{}
	c.ready = make(chan struct{})
	c.unsubs = make([]store.Unsubscribe, 0, streamCount)
	c.mu.Unlock()

	c.log.Debug("dashboard starting", "user_id", userID)

	subs := []store.Unsubscribe{
		c.gw.SubscribeTasks(ctx, userID, func(s store.Snapshot[domain.Task]) {
			c.apply(gen, streamTasks, s.Err, func() { c.tasks = s.Items })
		}),
		c.gw.SubscribeCategories(ctx, userID, func(s store.Snapshot[domain.Category]) {
			c.apply(gen, streamCategories, s.Err, func() { c.categories = s.Items })
		}),
		c.gw.SubscribeTimeEntries(ctx, userID, func(s store.Snapshot[domain.TimeEntry]) {
			c.apply(gen, streamEntries, s.Err, func() { c.entries = s.Items })
		}),
	}

	c.mu.Lock()
	if gen != c.gen {
		// stopped while subscribing
		c.mu.Unlock()
		for _, unsub := range subs {
			unsub()
		}
		return nil
	}
	c.unsubs = subs
	c.mu.Unlock()
	return nil
}

// Stop releases the subscriptions and clears the projections. It is
// idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	subs := c.unsubs
	c.unsubs = nil
	c.gen++
	c.mu.Unlock()

	// Unsubscribe waits for a running callback, which needs c.mu.
	for _, unsub := range subs {
		unsub()
	}

	c.mu.Lock()
	c.tasks, c.categories, c.entries = nil, nil, nil
	c.seen = [streamCount]bool{}
	c.pending = 0
	c.mu.Unlock()
	c.view.Store(nil)
}

// SetRange limits the charts to r and recomputes when data is loaded.
func (c *Controller) SetRange(r timeutil.Range) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.Range = r
	if c.tasks != nil {
		c.recompute()
	}
}

func (c *Controller) apply(gen int, s stream, err error, set func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	if err != nil {
		c.log.Warn("snapshot failed, using empty collection", "stream", s.String(), "user_id", c.userID, "error", err)
	}
	set()

	first := !c.seen[s]
	c.seen[s] = true
	if first {
		c.pending--
	}

	v := c.recompute()
	if first && c.pending == 0 {
		close(c.ready)
		c.log.Debug("dashboard ready", "user_id", c.userID)
		if c.onReady != nil {
			c.onReady(v)
		}
	}
}

// recompute rebuilds the whole view. Caller holds c.mu.
func (c *Controller) recompute() View {
	v := &View{
		UserID:     c.userID,
		Ready:      c.pending == 0,
		Summary:    analytics.Summarize(c.tasks, c.entries, c.now(), c.opts),
		Categories: c.categories,
		Projects:   analytics.Projects(c.tasks),
	}
	c.view.Store(v)
	metrics.DashboardRecomputes.Inc()
	if c.onUpdate != nil {
		c.onUpdate(*v)
	}
	return *v
}
