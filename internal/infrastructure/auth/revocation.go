package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers logged-out token ids until those tokens would
// have expired anyway
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RevokeClaims revokes the token described by claims for its remaining
// lifetime. An already expired token needs no entry.
func RevokeClaims(ctx context.Context, store RevocationStore, claims *Claims, now time.Time) error {
	if claims.ID == "" {
		return ErrInvalidClaims
	}
	ttl := claims.RemainingTTL(now)
	if ttl <= 0 {
		return nil
	}
	return store.Revoke(ctx, claims.ID, ttl)
}

// RedisRevocationStore keeps revoked ids as expiring Redis keys, so a
// revocation survives restarts and is shared by every instance
type RedisRevocationStore struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisRevocationStore creates a store over an existing client
func NewRedisRevocationStore(client redis.Cmdable) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, keyPrefix: "token:revoked:"}
}

// Revoke stores jti with ttl
func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks for the jti key
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// InMemoryRevocationStore is used when Redis is disabled. Revocations are
// lost on restart and are not shared between instances.
type InMemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewInMemoryRevocationStore creates an empty store
func NewInMemoryRevocationStore() *InMemoryRevocationStore {
	return &InMemoryRevocationStore{entries: make(map[string]time.Time), now: time.Now}
}

// Revoke records jti until now+ttl and drops expired entries
func (s *InMemoryRevocationStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.entries {
		if !now.Before(exp) {
			delete(s.entries, k)
		}
	}
	s.entries[jti] = now.Add(ttl)
	return nil
}

// IsRevoked reports whether jti is revoked and not yet expired
func (s *InMemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.entries[jti]
	return ok && s.now().Before(exp), nil
}

var (
	_ RevocationStore = (*RedisRevocationStore)(nil)
	_ RevocationStore = (*InMemoryRevocationStore)(nil)
)
