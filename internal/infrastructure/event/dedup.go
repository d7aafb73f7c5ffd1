package event

import (
	"context"
	"time"

	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Deduplicator remembers keys for a while. MarkProcessed reports true when
// key was not marked yet.
type Deduplicator interface {
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// KeyFunc derives the deduplication key of an event
type KeyFunc func(event shared.DomainEvent) string

// ByEventID deduplicates redeliveries of the same event
func ByEventID(event shared.DomainEvent) string {
	return "event:" + event.EventID().String()
}

// StockAlertPerDay collapses low-stock events to one per product and UTC day
func StockAlertPerDay(event shared.DomainEvent) string {
	day := event.OccurredAt().UTC().Format("20060102")
	if e, ok := event.(*inventory.StockBelowThresholdEvent); ok {
		kind := "low"
		if e.OutOfStock() {
			kind = "out"
		}
		return "stock_alert:" + e.ShopID().String() + ":" + e.ProductID.String() + ":" + kind + ":" + day
	}
	return ByEventID(event)
}

// DedupHandler runs the wrapped handler only for events whose key is new
type DedupHandler struct {
	handler shared.EventHandler
	store   Deduplicator
	key     KeyFunc
	ttl     time.Duration
	logger  *zap.Logger
}

// NewDedupHandler wraps handler. A nil key defaults to ByEventID.
func NewDedupHandler(handler shared.EventHandler, store Deduplicator, key KeyFunc, ttl time.Duration, logger *zap.Logger) *DedupHandler {
	if key == nil {
		key = ByEventID
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DedupHandler{handler: handler, store: store, key: key, ttl: ttl, logger: logger}
}

// EventTypes returns the wrapped handler's event types
func (h *DedupHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle skips duplicates. When the store fails the event is handled anyway:
// a repeated alert is better than a lost one.
func (h *DedupHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := h.key(event)
	fresh, err := h.store.MarkProcessed(ctx, key, h.ttl)
	if err != nil {
		h.logger.Warn("Deduplication store failed, handling event anyway",
			zap.String("key", key),
			zap.Error(err))
		return h.handler.Handle(ctx, event)
	}
	if !fresh {
		h.logger.Debug("Duplicate event skipped", zap.String("key", key))
		return nil
	}
	return h.handler.Handle(ctx, event)
}

var _ shared.EventHandler = (*DedupHandler)(nil)
