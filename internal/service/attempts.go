package service

import (
	"context"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// AttemptCounter tracks failed sign-ins per key over a fixed window.
type AttemptCounter interface {
	Count(ctx context.Context, key string) (int64, error)
	Fail(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// RedisAttempts keeps counters in Redis with INCR/EXPIRE.
type RedisAttempts struct {
	client *redis.Client
	window time.Duration
}

func NewRedisAttempts(client *redis.Client, window time.Duration) *RedisAttempts {
	return &RedisAttempts{client: client, window: window}
}

func (a *RedisAttempts) key(k string) string { return "tasker:signin_fail:" + k }

func (a *RedisAttempts) Count(ctx context.Context, key string) (int64, error) {
	n, err := a.client.Get(ctx, a.key(key)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func (a *RedisAttempts) Fail(ctx context.Context, key string) (int64, error) {
	k := a.key(key)
	n, err := a.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		a.client.Expire(ctx, k, a.window)
	}
	return n, nil
}

func (a *RedisAttempts) Reset(ctx context.Context, key string) error {
	return a.client.Del(ctx, a.key(key)).Err()
}

// MemoryAttempts is the single-process fallback used when Redis is absent.
type MemoryAttempts struct {
	mu      sync.Mutex
	window  time.Duration
	now     func() time.Time
	entries map[string]*attemptWindow
}

type attemptWindow struct {
	start time.Time
	count int64
}

func NewMemoryAttempts(window time.Duration) *MemoryAttempts {
	return &MemoryAttempts{window: window, now: time.Now, entries: make(map[string]*attemptWindow)}
}

func (a *MemoryAttempts) current(key string) *attemptWindow {
	w, ok := a.entries[key]
	if ok && a.now().Sub(w.start) > a.window {
		delete(a.entries, key)
		return nil
	}
	return w
}

func (a *MemoryAttempts) Count(_ context.Context, key string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if w := a.current(key); w != nil {
		return w.count, nil
	}
	return 0, nil
}

func (a *MemoryAttempts) Fail(_ context.Context, key string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	w := a.current(key)
	if w == nil {
		w = &attemptWindow{start: a.now()}
		a.entries[key] = w
	}
	w.count++
	return w.count, nil
}

func (a *MemoryAttempts) Reset(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.entries, key)
	return nil
}
