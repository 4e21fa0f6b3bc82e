package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"tasker/internal/store"

	redis "github.com/redis/go-redis/v9"
)

// Cache stores rendered views per user. All of a user's entries are
// dropped together by Invalidate, which also bumps the user's generation.
// Set only stores a value while the generation it was built at is current.
type Cache interface {
	Get(ctx context.Context, userID, key string, dest any) (bool, error)
	Generation(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, userID, key string, gen int64, value any) (bool, error)
	Invalidate(ctx context.Context, userID string) error
}

// setIfCurrent writes the hash field only when the generation key still
// holds ARGV[1].
var setIfCurrent = redis.NewScript(`
local gen = redis.call("GET", KEYS[1]) or "0"
if gen ~= ARGV[1] then
	return 0
end
redis.call("HSET", KEYS[2], ARGV[2], ARGV[3])
redis.call("EXPIRE", KEYS[2], ARGV[4])
return 1
`)

// RedisCache keeps one hash per user so invalidation is a single DEL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: "tasker:dashboard:", ttl: ttl}
}

func (c *RedisCache) genKey(userID string) string {
	return c.prefix + "gen:" + userID
}

func (c *RedisCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation error: %w", err)
	}
	return gen, nil
}

func (c *RedisCache) Get(ctx context.Context, userID, key string, dest any) (bool, error) {
	data, err := c.client.HGet(ctx, c.prefix+userID, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get error: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, userID, key string, gen int64, value any) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache marshal error: %w", err)
	}
	ttl := int64(c.ttl / time.Second)
	if ttl < 1 {
		ttl = 1
	}
	keys := []string{c.genKey(userID), c.prefix + userID}
	stored, err := setIfCurrent.Run(ctx, c.client, keys, strconv.FormatInt(gen, 10), key, data, ttl).Int()
	if err != nil {
		return false, fmt.Errorf("cache set error: %w", err)
	}
	return stored == 1, nil
}

func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, c.prefix+userID)
		p.Incr(ctx, c.genKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// MemoryCache is the in-process Cache used without Redis.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]map[string]memoryEntry
	gens    map[string]int64
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now, entries: make(map[string]map[string]memoryEntry), gens: make(map[string]int64)}
}

func (c *MemoryCache) Get(_ context.Context, userID, key string, dest any) (bool, error) {
	c.mu.Lock()
	e, ok := c.entries[userID][key]
	c.mu.Unlock()
	if !ok || !c.now().Before(e.expires) {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return true, nil
}

func (c *MemoryCache) Generation(_ context.Context, userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[userID], nil
}

func (c *MemoryCache) Set(_ context.Context, userID, key string, gen int64, value any) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache marshal error: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[userID] != gen {
		return false, nil
	}
	if c.entries[userID] == nil {
		c.entries[userID] = make(map[string]memoryEntry)
	}
	c.entries[userID][key] = memoryEntry{data: data, expires: c.now().Add(c.ttl)}
	return true, nil
}

func (c *MemoryCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	c.gens[userID]++
	return nil
}

// InvalidatingNotifier drops a user's cached views before publishing any
// data change of theirs.
type InvalidatingNotifier struct {
	store.Notifier
	cache Cache
}

func NewInvalidatingNotifier(n store.Notifier, cache Cache) *InvalidatingNotifier {
	return &InvalidatingNotifier{Notifier: n, cache: cache}
}

func (n *InvalidatingNotifier) Publish(ctx context.Context, c store.Change) error {
	if c.Collection != store.Auth {
		if err := n.cache.Invalidate(ctx, c.UserID); err != nil {
			return err
		}
	}
	return n.Notifier.Publish(ctx, c)
}
