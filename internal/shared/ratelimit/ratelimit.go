package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a time-windowed counter keyed by (identity, action). It is
// injected wherever an operation needs throttling (invitation sending),
// never reached through package state.
type Store interface {
	// Allow records one occurrence of action by identity and reports whether
	// it stays within limit occurrences per window.
	Allow(ctx context.Context, identity, action string, limit int, window time.Duration) (bool, error)
}

// RedisStore implements Store with a Redis sliding window.
type RedisStore struct {
	redis redis.UniversalClient
}

// NewRedisStore creates a Redis-backed counter store.
func NewRedisStore(redis redis.UniversalClient) *RedisStore {
	return &RedisStore{redis: redis}
}

var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current = redis.call('ZCARD', key)
	if current >= limit then
		return 0
	end

	redis.call('ZADD', key, now, now)
	redis.call('PEXPIRE', key, ttl)
	return 1
`)

// Allow implements Store.
func (s *RedisStore) Allow(ctx context.Context, identity, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", action, identity)
	now := time.Now().UnixNano()
	windowStart := now - window.Nanoseconds()

	res, err := slidingWindowScript.Run(ctx, s.redis, []string{key},
		windowStart, now, limit, window.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check: %w", err)
	}

	return res == 1, nil
}

// MemoryStore implements Store in process memory. Used when Redis is not
// configured and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

// NewMemoryStore creates an in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]time.Time)}
}

// Allow implements Store.
func (s *MemoryStore) Allow(_ context.Context, identity, action string, limit int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := action + ":" + identity
	cutoff := time.Now().Add(-window)

	kept := s.entries[key][:0]
	for _, t := range s.entries[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		s.entries[key] = kept
		return false, nil
	}

	s.entries[key] = append(kept, time.Now())
	return true, nil
}
