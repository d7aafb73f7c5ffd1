package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/sales"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the business metrics
const MeterName = "github.com/shopledger/backend/sales"

// SaleMetrics records point-of-sale counters
type SaleMetrics struct {
	created           metric.Int64Counter
	revenue           metric.Float64Counter
	itemsPerSale      metric.Int64Histogram
	voided            metric.Int64Counter
	refunded          metric.Int64Counter
	insufficientStock metric.Int64Counter
	conflictRetries   metric.Int64Counter
}

// NewSaleMetrics creates the instruments on meter
func NewSaleMetrics(meter metric.Meter) (*SaleMetrics, error) {
	m := &SaleMetrics{}
	var err error

	if m.created, err = meter.Int64Counter("sales.created",
		metric.WithDescription("Sales committed"),
		metric.WithUnit("{sale}")); err != nil {
		return nil, err
	}
	if m.revenue, err = meter.Float64Counter("sales.revenue",
		metric.WithDescription("Gross sale amount including GST"),
		metric.WithUnit("INR")); err != nil {
		return nil, err
	}
	if m.itemsPerSale, err = meter.Int64Histogram("sales.items",
		metric.WithDescription("Line items per sale"),
		metric.WithUnit("{item}"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 20, 50)); err != nil {
		return nil, err
	}
	if m.voided, err = meter.Int64Counter("sales.voided",
		metric.WithDescription("Sales voided"),
		metric.WithUnit("{sale}")); err != nil {
		return nil, err
	}
	if m.refunded, err = meter.Int64Counter("sales.refunded",
		metric.WithDescription("Sales refunded"),
		metric.WithUnit("{sale}")); err != nil {
		return nil, err
	}
	if m.insufficientStock, err = meter.Int64Counter("sales.insufficient_stock",
		metric.WithDescription("Sales rejected for insufficient stock"),
		metric.WithUnit("{sale}")); err != nil {
		return nil, err
	}
	if m.conflictRetries, err = meter.Int64Counter("sales.conflict_retries",
		metric.WithDescription("Transactions retried after a write conflict"),
		metric.WithUnit("{retry}")); err != nil {
		return nil, err
	}
	return m, nil
}

func shopAttr(shopID uuid.UUID) attribute.KeyValue {
	return attribute.String("shop_id", shopID.String())
}

func (m *SaleMetrics) RecordSaleCreated(ctx context.Context, shopID uuid.UUID, paymentType string, amount decimal.Decimal, items int) {
	attrs := metric.WithAttributes(shopAttr(shopID), attribute.String("payment_type", paymentType))
	m.created.Add(ctx, 1, attrs)
	m.revenue.Add(ctx, amount.InexactFloat64(), attrs)
	m.itemsPerSale.Record(ctx, int64(items), metric.WithAttributes(shopAttr(shopID)))
}

func (m *SaleMetrics) RecordSaleVoided(ctx context.Context, shopID uuid.UUID) {
	m.voided.Add(ctx, 1, metric.WithAttributes(shopAttr(shopID)))
}

func (m *SaleMetrics) RecordSaleRefunded(ctx context.Context, shopID uuid.UUID, partial bool) {
	m.refunded.Add(ctx, 1, metric.WithAttributes(shopAttr(shopID), attribute.Bool("partial", partial)))
}

func (m *SaleMetrics) RecordInsufficientStock(ctx context.Context, shopID uuid.UUID) {
	m.insufficientStock.Add(ctx, 1, metric.WithAttributes(shopAttr(shopID)))
}

func (m *SaleMetrics) RecordConflictRetry(ctx context.Context, operation string) {
	m.conflictRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

var _ sales.Metrics = (*SaleMetrics)(nil)
