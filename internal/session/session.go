// Package session keeps the state that lives for one browsing session:
// the serialized collections and the API keys the user supplied.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix        = "stockpile:collection:"
	operationTimeout = 3 * time.Second
)

// RedisStore keeps collections in redis. Every save refreshes the TTL, so a
// session expires once it has been idle for that long.
type RedisStore struct {
	cl  *redis.Client
	ttl time.Duration
}

// NewRedisStore connects to the redis URL and verifies the connection.
func NewRedisStore(ctx context.Context, rawURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	cl := redis.NewClient(opt)
	if _, err := cl.Ping(ctx).Result(); err != nil {
		cl.Close()
		return nil, fmt.Errorf("cannot reach redis: %w", err)
	}
	return &RedisStore{cl: cl, ttl: ttl}, nil
}

func key(provider string) string { return keyPrefix + provider }

func (s *RedisStore) Load(provider string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()
	data, err := s.cl.Get(ctx, key(provider)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get %s collection: %w", provider, err)
	}
	return data, nil
}

func (s *RedisStore) Save(provider string, state []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()
	if err := s.cl.Set(ctx, key(provider), state, s.ttl).Err(); err != nil {
		return fmt.Errorf("cannot set %s collection: %w", provider, err)
	}
	return nil
}

// ClearCollections removes every stored collection.
func (s *RedisStore) ClearCollections() error {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()
	iter := s.cl.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cannot scan collections: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.cl.Del(ctx, keys...).Err()
}

func (s *RedisStore) Close() error { return s.cl.Close() }

// MemoryStore keeps collections in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Load(provider string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[provider]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Save(provider string, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[provider] = append([]byte(nil), state...)
	return nil
}

func (s *MemoryStore) ClearCollections() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte)
	return nil
}
