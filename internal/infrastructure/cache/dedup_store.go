package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupPrefix = "dedup:"

// RedisDedupStore remembers processed keys in Redis so every instance of
// the service sees them
type RedisDedupStore struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisDedupStore creates a store over client. An empty prefix uses "dedup:".
func NewRedisDedupStore(client redis.Cmdable, keyPrefix string) *RedisDedupStore {
	if keyPrefix == "" {
		keyPrefix = defaultDedupPrefix
	}
	return &RedisDedupStore{client: client, keyPrefix: keyPrefix}
}

// MarkProcessed sets key with SETNX and reports whether it was new
func (s *RedisDedupStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark %s as processed: %w", key, err)
	}
	return ok, nil
}

// IsProcessed reports whether key is currently marked
func (s *RedisDedupStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return n > 0, nil
}

// InMemoryDedupStore is the single-instance fallback used when Redis is disabled
type InMemoryDedupStore struct {
	mu        sync.Mutex
	entries   map[string]time.Time
	now       func() time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryDedupStore creates the store and starts its expiry sweeper
func NewInMemoryDedupStore() *InMemoryDedupStore {
	s := &InMemoryDedupStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweepLoop(5 * time.Minute)
	return s
}

// MarkProcessed reports true when key is absent or expired
func (s *InMemoryDedupStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiresAt, ok := s.entries[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	s.entries[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether key is marked and not expired
func (s *InMemoryDedupStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.entries[key]
	return ok && s.now().Before(expiresAt), nil
}

// Size returns the number of stored entries, expired ones included
func (s *InMemoryDedupStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryDedupStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryDedupStore) sweepLoop(every time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryDedupStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, key)
		}
	}
}
