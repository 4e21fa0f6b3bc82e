package dashboard

import (
	"context"
	"log/slog"
	"time"

	"tasker/internal/analytics"
	"tasker/internal/apperr"
	"tasker/internal/domain"
	"tasker/internal/logger"
	"tasker/internal/metrics"
	"tasker/internal/timeutil"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Loader reads a user's collections once.
type Loader interface {
	Tasks(ctx context.Context, userID string) ([]domain.Task, error)
	Categories(ctx context.Context, userID string) ([]domain.Category, error)
	TimeEntries(ctx context.Context, userID string) ([]domain.TimeEntry, error)
}

// SnapshotService builds a View on request, caching it per user and range.
type SnapshotService struct {
	loader  Loader
	cache   Cache
	retry   apperr.RetryOptions
	opts    analytics.Options
	now     func() time.Time
	log     *slog.Logger
	sfGroup singleflight.Group
}

type SnapshotOption func(*SnapshotService)

func WithSnapshotClock(now func() time.Time) SnapshotOption {
	return func(s *SnapshotService) { s.now = now }
}

func WithRetry(opts apperr.RetryOptions) SnapshotOption {
	return func(s *SnapshotService) { s.retry = opts }
}

func WithSummaryOptions(opts analytics.Options) SnapshotOption {
	return func(s *SnapshotService) { s.opts = opts }
}

// NewSnapshotService builds the service. A nil cache disables caching.
func NewSnapshotService(loader Loader, cache Cache, opts ...SnapshotOption) *SnapshotService {
	s := &SnapshotService{
		loader: loader,
		cache:  cache,
		retry:  apperr.RetryOptions{Attempts: 3, Delay: time.Second},
		now:    time.Now,
		log:    logger.With("component", "dashboard_snapshot"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func rangeKey(r timeutil.Range) string {
	key := "all"
	if !r.Start.IsZero() {
		key = r.Start.UTC().Format(time.RFC3339)
	}
	key += ".."
	if !r.End.IsZero() {
		key += r.End.UTC().Format(time.RFC3339)
	}
	return key
}

// Get returns the user's dashboard limited to r. The bool reports a cache
// hit.
func (s *SnapshotService) Get(ctx context.Context, userID string, r timeutil.Range) (*View, bool, error) {
	key := rangeKey(r)

	if s.cache != nil {
		var cached View
		found, err := s.cache.Get(ctx, userID, key, &cached)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			s.log.Warn("dashboard cache read failed", "user_id", userID, "error", err)
		case found:
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return &cached, true, nil
		default:
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	val, err, _ := s.sfGroup.Do(userID+"|"+key, func() (any, error) {
		return s.buildAndStore(ctx, userID, key, r)
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*View), false, nil
}

// buildAndStore caches the built view only if no invalidation happened
// while it was loading.
func (s *SnapshotService) buildAndStore(ctx context.Context, userID, key string, r timeutil.Range) (*View, error) {
	var (
		gen    int64
		genErr error
	)
	if s.cache != nil {
		gen, genErr = s.cache.Generation(ctx, userID)
		if genErr != nil {
			s.log.Warn("dashboard cache generation read failed", "user_id", userID, "error", genErr)
		}
	}

	v, err := s.build(ctx, userID, r)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && genErr == nil {
		stored, err := s.cache.Set(ctx, userID, key, gen, v)
		switch {
		case err != nil:
			s.log.Warn("dashboard cache write failed", "user_id", userID, "error", err)
		case !stored:
			s.log.Debug("dashboard changed while building, not cached", "user_id", userID)
		}
	}
	return v, nil
}

func (s *SnapshotService) build(ctx context.Context, userID string, r timeutil.Range) (*View, error) {
	var (
		tasks      []domain.Task
		categories []domain.Category
		entries    []domain.TimeEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tasks, err = apperr.RetryValue(gctx, s.retry, func(ctx context.Context) ([]domain.Task, error) {
			return s.loader.Tasks(ctx, userID)
		})
		return err
	})
	g.Go(func() (err error) {
		categories, err = apperr.RetryValue(gctx, s.retry, func(ctx context.Context) ([]domain.Category, error) {
			return s.loader.Categories(ctx, userID)
		})
		return err
	})
	g.Go(func() (err error) {
		entries, err = apperr.RetryValue(gctx, s.retry, func(ctx context.Context) ([]domain.TimeEntry, error) {
			return s.loader.TimeEntries(ctx, userID)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if categories == nil {
		categories = []domain.Category{}
	}
	opts := s.opts
	opts.Range = r
	metrics.DashboardRecomputes.Inc()
	return &View{
		UserID:     userID,
		Ready:      true,
		Summary:    analytics.Summarize(tasks, entries, s.now(), opts),
		Categories: categories,
		Projects:   analytics.Projects(tasks),
	}, nil
}
