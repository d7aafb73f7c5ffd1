// Package lock provides the named locks that serialize sale creation
// across server processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/shopledger/backend/internal/application/sales"
	"github.com/shopledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Options tunes how long Obtain keeps trying before giving up
type Options struct {
	RetryInterval time.Duration
	MaxRetries    int
}

// DefaultOptions retries every 50ms for up to one second
func DefaultOptions() Options {
	return Options{RetryInterval: 50 * time.Millisecond, MaxRetries: 20}
}

// RedisLocker obtains locks through redislock
type RedisLocker struct {
	client *redislock.Client
	opts   Options
	logger *zap.Logger
}

// NewRedisLocker creates a locker over a configured redis client
func NewRedisLocker(client redislock.RedisClient, opts Options, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{client: redislock.New(client), opts: opts, logger: logger}
}

// Obtain takes key for ttl. A key held elsewhere past the retry budget
// yields a CONFLICT error.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (sales.Lock, error) {
	retry := redislock.NoRetry()
	if l.opts.MaxRetries > 0 {
		retry = redislock.LimitRetry(redislock.LinearBackoff(l.opts.RetryInterval), l.opts.MaxRetries)
	}

	lk, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{RetryStrategy: retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.logger.Info("Lock busy", zap.String("key", key))
		return nil, shared.Conflict("Another sale for this shop is in progress, retry shortly")
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return &redisLock{lock: lk}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

// Release frees the lock. A lock that already expired is not an error.
func (r *redisLock) Release(ctx context.Context) error {
	err := r.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

var _ sales.Locker = (*RedisLocker)(nil)
