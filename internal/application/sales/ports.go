package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lock is a held distributed lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker obtains named locks shared by every server process.
// Obtain returns a CONFLICT error when the lock is held elsewhere.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// NoOpLocker hands out locks that guard nothing. The database row locks
// and the invoice counter still serialize writers.
type NoOpLocker struct{}

type noOpLock struct{}

func (noOpLock) Release(context.Context) error { return nil }

// Obtain always succeeds
func (NoOpLocker) Obtain(context.Context, string, time.Duration) (Lock, error) {
	return noOpLock{}, nil
}

// Metrics receives business counters from the sale pipeline
type Metrics interface {
	RecordSaleCreated(ctx context.Context, shopID uuid.UUID, paymentType string, amount decimal.Decimal, items int)
	RecordSaleVoided(ctx context.Context, shopID uuid.UUID)
	RecordSaleRefunded(ctx context.Context, shopID uuid.UUID, partial bool)
	RecordInsufficientStock(ctx context.Context, shopID uuid.UUID)
	RecordConflictRetry(ctx context.Context, operation string)
}

// NoOpMetrics drops every measurement
type NoOpMetrics struct{}

func (NoOpMetrics) RecordSaleCreated(context.Context, uuid.UUID, string, decimal.Decimal, int) {}
func (NoOpMetrics) RecordSaleVoided(context.Context, uuid.UUID)                                {}
func (NoOpMetrics) RecordSaleRefunded(context.Context, uuid.UUID, bool)                        {}
func (NoOpMetrics) RecordInsufficientStock(context.Context, uuid.UUID)                         {}
func (NoOpMetrics) RecordConflictRetry(context.Context, string)                                {}

var (
	_ Locker  = NoOpLocker{}
	_ Metrics = NoOpMetrics{}
)
