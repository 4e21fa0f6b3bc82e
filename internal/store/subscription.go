package store

import (
	"context"
	"slices"
	"sync"

	"tasker/internal/apperr"
	"tasker/internal/metrics"
)

// Snapshot is one delivery of a collection's full contents. Items is never
// nil and is owned by the receiver. Err is set when the load failed; Items
// is then empty.
type Snapshot[T any] struct {
	Items []T
	Err   error
}

// Unsubscribe stops a subscription. Once it returns no further callback
// runs. It is idempotent, but must not be called from inside the
// subscription's own callback.
type Unsubscribe func()

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	// held while a callback runs
	mu     sync.Mutex
	closed bool
}

func (s *subscription) deliver(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	fn()
	return true
}

func (s *subscription) stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cancel()
		<-s.done
		metrics.LiveSubscriptions.Dec()
	})
}

// watch delivers an initial snapshot of coll and a fresh one after every
// change event for the user, until unsubscribed or ctx is done.
func watch[T any](
	ctx context.Context,
	s *Store,
	userID string,
	coll Collection,
	load func(context.Context, string) ([]T, error),
	fn func(Snapshot[T]),
) Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	metrics.LiveSubscriptions.Inc()

	log := s.log.With("collection", string(coll), "user_id", userID)

	go func() {
		defer close(sub.done)

		// Listen before the first load so a write racing the load still
		// triggers a reload.
		changes, err := s.notifier.Listen(ctx, userID, coll)
		if err != nil {
			log.Warn("live updates unavailable", "error", err)
		}

		for {
			items, err := load(ctx, userID)
			if ctx.Err() != nil {
				return
			}
			snap := Snapshot[T]{Items: slices.Clone(items)}
			if err != nil {
				log.Error("snapshot load failed", "error", err)
				snap = Snapshot[T]{Err: apperr.OperationFailed("load "+string(coll), err)}
			}
			if snap.Items == nil {
				snap.Items = []T{}
			}
			if !sub.deliver(func() { fn(snap) }) {
				return
			}

			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					if ctx.Err() != nil {
						return
					}
					log.Warn("change feed closed; snapshot will no longer refresh")
					changes = nil
				}
			}
		}
	}()

	return sub.stop
}
