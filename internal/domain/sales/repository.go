package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopledger/backend/internal/domain/shared"
)

// SaleFilter narrows sale listings. Filter.Search matches the invoice number.
type SaleFilter struct {
	shared.Filter
	From        *time.Time
	To          *time.Time
	PaymentType PaymentType
	Status      SaleStatus
}

// PaymentStat is the count and value of sales for one payment type
type PaymentStat struct {
	PaymentType PaymentType     `json:"payment_type"`
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID finds a sale with its items within a shop
	FindByID(ctx context.Context, shopID, id uuid.UUID) (*Sale, error)

	// FindByIDForUpdate finds a sale with its items and locks the header row
	FindByIDForUpdate(ctx context.Context, shopID, id uuid.UUID) (*Sale, error)

	// FindAll lists sales, newest first, and returns the total count
	FindAll(ctx context.Context, shopID uuid.UUID, filter SaleFilter) ([]Sale, int64, error)

	// FindInPeriod returns sales created in [from, to] excluding the given statuses
	FindInPeriod(ctx context.Context, shopID uuid.UUID, from, to time.Time, exclude ...SaleStatus) ([]Sale, error)

	// Create inserts the sale header without items
	Create(ctx context.Context, sale *Sale) error

	// CreateItem inserts one sale line
	CreateItem(ctx context.Context, item *SaleItem) error

	// Save updates header fields with an optimistic version check
	Save(ctx context.Context, sale *Sale) error

	// CountByStatus counts sales of one status created in [from, to]
	CountByStatus(ctx context.Context, shopID uuid.UUID, from, to time.Time, status SaleStatus) (int64, error)

	// PaymentStats groups paid and pending sales by payment type
	PaymentStats(ctx context.Context, shopID uuid.UUID, from, to *time.Time) ([]PaymentStat, error)

	// CountForShop counts sale headers of a shop
	CountForShop(ctx context.Context, shopID uuid.UUID) (int64, error)

	// CountItemsForShop counts sale lines belonging to a shop's sales
	CountItemsForShop(ctx context.Context, shopID uuid.UUID) (int64, error)
}

// InvoiceSequencer hands out invoice numbers. Implementations must
// serialize callers per (shop, day) and must run inside the caller's
// transaction so that an aborted sale does not keep its number.
type InvoiceSequencer interface {
	Next(ctx context.Context, shopID uuid.UUID, at time.Time) (string, error)
}

// InvoiceRepository persists issued-invoice records
type InvoiceRepository interface {
	// FindBySaleID finds the invoice record of a sale
	FindBySaleID(ctx context.Context, shopID, saleID uuid.UUID) (*Invoice, error)

	// Create inserts an invoice record
	Create(ctx context.Context, invoice *Invoice) error

	// FindInPeriod lists invoice records whose sale was created in [from, to]
	FindInPeriod(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]Invoice, error)
}
