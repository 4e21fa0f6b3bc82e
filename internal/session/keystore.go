package session

import (
	"context"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// KeyStore persists the last-known user id per client so it can be served
// before the session context has initialized.
type KeyStore interface {
	Get(ctx context.Context, client string) (string, error)
	Put(ctx context.Context, client, userID string) error
	Delete(ctx context.Context, client string) error
}

// LastUserKey is the storage key for a client's last-known user id.
func LastUserKey(client string) string { return "tasker:last_user:" + client }

type RedisKeyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisKeyStore keeps keys for ttl; zero keeps them without expiry.
func NewRedisKeyStore(client *redis.Client, ttl time.Duration) *RedisKeyStore {
	return &RedisKeyStore{client: client, ttl: ttl}
}

func (s *RedisKeyStore) Get(ctx context.Context, client string) (string, error) {
	v, err := s.client.Get(ctx, LastUserKey(client)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}

func (s *RedisKeyStore) Put(ctx context.Context, client, userID string) error {
	return s.client.Set(ctx, LastUserKey(client), userID, s.ttl).Err()
}

func (s *RedisKeyStore) Delete(ctx context.Context, client string) error {
	return s.client.Del(ctx, LastUserKey(client)).Err()
}

type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string]string
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string]string)}
}

func (s *MemoryKeyStore) Get(_ context.Context, client string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[LastUserKey(client)], nil
}

func (s *MemoryKeyStore) Put(_ context.Context, client, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[LastUserKey(client)] = userID
	return nil
}

func (s *MemoryKeyStore) Delete(_ context.Context, client string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, LastUserKey(client))
	return nil
}
