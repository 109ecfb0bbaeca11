package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/artcart-backend/pkg/redis"
)

// Store keeps the raw JSON container of each cart session.
type Store interface {
	// Load returns nil when the session has no cart yet.
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Save(ctx context.Context, sessionID string, raw []byte) error
	Clear(ctx context.Context, sessionID string) error
}

type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// RedisStore persists carts under ac:cart:<session> and refreshes the TTL on
// every save.
type RedisStore struct {
	client kv
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed cart store.
func NewRedisStore(client kv, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.client.CartKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(val), nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, raw []byte) error {
	return s.client.Set(ctx, s.client.CartKey(sessionID), string(raw), s.ttl)
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.client.CartKey(sessionID))
}

// MemoryStore is a process-local store for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: map[string][]byte{}}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.carts[sessionID]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), raw...), nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[sessionID] = append([]byte(nil), raw...)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}
