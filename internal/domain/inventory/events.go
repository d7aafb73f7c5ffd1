package inventory

import (
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeStockBelowThreshold = "StockBelowThreshold"
	EventTypeStockAdjusted       = "StockAdjusted"
)

// StockBelowThresholdEvent is raised when a movement leaves stock at or below the reorder threshold
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	ProductID       uuid.UUID `json:"product_id"`
	SKU             string    `json:"sku"`
	ProductName     string    `json:"product_name"`
	CurrentStock    int64     `json:"current_stock"`
	Threshold       int64     `json:"threshold"`
	ReorderQuantity int64     `json:"reorder_quantity"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(p *Product, stock int64) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeProduct, p.ID, p.ShopID),
		ProductID:       p.ID,
		SKU:             p.SKU,
		ProductName:     p.Name,
		CurrentStock:    stock,
		Threshold:       p.ReorderThreshold,
		ReorderQuantity: p.ReorderQuantity,
	}
}

// OutOfStock reports whether the event is for an empty or negative balance
func (e *StockBelowThresholdEvent) OutOfStock() bool {
	return IsOutOfStock(e.CurrentStock)
}

// StockAdjustedEvent is raised when stock is set to a counted quantity
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID `json:"product_id"`
	OldQuantity int64     `json:"old_quantity"`
	NewQuantity int64     `json:"new_quantity"`
	Reason      string    `json:"reason"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(shopID, productID uuid.UUID, oldQty, newQty int64, reason string) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeProduct, productID, shopID),
		ProductID:       productID,
		OldQuantity:     oldQty,
		NewQuantity:     newQty,
		Reason:          reason,
	}
}
