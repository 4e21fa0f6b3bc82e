package store

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"tasker/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// Collection names a per-user change stream.
type Collection string

const (
	Tasks       Collection = "tasks"
	Categories  Collection = "categories"
	TimeEntries Collection = "time_entries"
	// Auth carries sign-out events so live sessions can redirect.
	Auth Collection = "auth"
)

// Change tells listeners that a user's collection was modified.
type Change struct {
	UserID     string     `json:"user_id"`
	Collection Collection `json:"collection"`
}

// Notifier fans out change events per user. Listen channels coalesce: a
// listener that has not drained its pending change receives no duplicate.
// The channel is closed once ctx is done.
type Notifier interface {
	Publish(ctx context.Context, c Change) error
	Listen(ctx context.Context, userID string, colls ...Collection) (<-chan Change, error)
}

func wants(colls []Collection, c Collection) bool {
	return len(colls) == 0 || slices.Contains(colls, c)
}

// MemoryNotifier delivers changes inside one process.
type MemoryNotifier struct {
	mu        sync.Mutex
	listeners map[string]map[*memoryListener]struct{}
}

type memoryListener struct {
	ch    chan Change
	colls []Collection
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{listeners: make(map[string]map[*memoryListener]struct{})}
}

func (n *MemoryNotifier) Publish(_ context.Context, c Change) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for l := range n.listeners[c.UserID] {
		if !wants(l.colls, c.Collection) {
			continue
		}
		select {
		case l.ch <- c:
		default:
		}
	}
	return nil
}

func (n *MemoryNotifier) Listen(ctx context.Context, userID string, colls ...Collection) (<-chan Change, error) {
	l := &memoryListener{ch: make(chan Change, 1), colls: colls}

	n.mu.Lock()
	set, ok := n.listeners[userID]
	if !ok {
		set = make(map[*memoryListener]struct{})
		n.listeners[userID] = set
	}
	set[l] = struct{}{}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.listeners[userID], l)
		if len(n.listeners[userID]) == 0 {
			delete(n.listeners, userID)
		}
		close(l.ch)
		n.mu.Unlock()
	}()
	return l.ch, nil
}

// RedisNotifier publishes changes on a per-user Redis channel so every
// server instance sees them.
type RedisNotifier struct {
	client *redis.Client
	prefix string
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client, prefix: "tasker:changes:"}
}

func (n *RedisNotifier) channel(userID string) string { return n.prefix + userID }

func (n *RedisNotifier) Publish(ctx context.Context, c Change) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, n.channel(c.UserID), b).Err()
}

func (n *RedisNotifier) Listen(ctx context.Context, userID string, colls ...Collection) (<-chan Change, error) {
	pubsub := n.client.Subscribe(ctx, n.channel(userID))
	// Wait for the subscription confirmation so no publish is missed after
	// Listen returns.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan Change, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(m.Payload), &c); err != nil {
					logger.Warn("dropping malformed change event", "channel", m.Channel, "error", err)
					continue
				}
				if !wants(colls, c.Collection) {
					continue
				}
				select {
				case out <- c:
				default:
				}
			}
		}
	}()
	return out, nil
}
