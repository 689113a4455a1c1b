package theme

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "theme-mode:"
	keyTTL    = 180 * 24 * time.Hour
)

// RedisStore keeps modes in Redis so every replica sees the same choice.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an already-connected client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, session string) (string, error) {
	v, err := s.rdb.Get(ctx, keyPrefix+session).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *RedisStore) Set(ctx context.Context, session string, mode Mode) error {
	return s.rdb.Set(ctx, keyPrefix+session, string(mode), keyTTL).Err()
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.RWMutex
	modes map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{modes: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, session string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modes[session], nil
}

func (s *MemoryStore) Set(_ context.Context, session string, mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes[session] = string(mode)
	return nil
}
