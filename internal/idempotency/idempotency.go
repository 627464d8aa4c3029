// Package idempotency remembers which external deliveries (webhook event ids)
// were already processed.
package idempotency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// dedup:{scope}:{id}
	keyDedup = "dedup:%s:%s"

	TTLDedup = 48 * time.Hour

	sweepInterval = time.Minute
)

type Store interface {
	// Claim marks key as taken. It returns false when key was already claimed.
	Claim(ctx context.Context, scope, id string, ttl time.Duration) (bool, error)
	// Release forgets a claim so the delivery can be retried.
	Release(ctx context.Context, scope, id string) error
}

func Key(scope, id string) string {
	return fmt.Sprintf(keyDedup, scope, id)
}

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Claim(ctx context.Context, scope, id string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, Key(scope, id), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", Key(scope, id), err)
	}
	return ok, nil
}

func (s *RedisStore) Release(ctx context.Context, scope, id string) error {
	if err := s.rdb.Del(ctx, Key(scope, id)).Err(); err != nil {
		return fmt.Errorf("release %s: %w", Key(scope, id), err)
	}
	return nil
}

// MemoryStore is a single-process fallback used when Redis is not configured.
type MemoryStore struct {
	mu        sync.Mutex
	expires   map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{expires: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Claim(_ context.Context, scope, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= sweepInterval {
		s.sweep(now)
	}

	key := Key(scope, id)
	if exp, ok := s.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expires[key] = now.Add(ttl)
	return true, nil
}

// sweep drops expired claims. Callers hold s.mu.
func (s *MemoryStore) sweep(now time.Time) {
	for key, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, key)
		}
	}
	s.lastSweep = now
}

func (s *MemoryStore) Release(_ context.Context, scope, id string) error {
	s.mu.Lock()
	delete(s.expires, Key(scope, id))
	s.mu.Unlock()
	return nil
}
