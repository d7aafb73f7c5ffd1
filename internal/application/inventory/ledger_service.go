package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
)

// MovementInput describes one ledger entry to append
type MovementInput struct {
	ShopID        uuid.UUID
	ProductID     uuid.UUID
	ChangeQty     int64
	Reason        inventory.MovementReason
	ReferenceType string
	ReferenceID   uuid.UUID
	CreatedBy     uuid.UUID
	Metadata      map[string]interface{}
}

// LedgerService is the single writer of stock movements.
//
// A LedgerService is bound to the repositories it was built with; build one
// per transaction from TransactionalRepositories so that the append and the
// cache refresh commit together. Stock is always read from the ledger.
type LedgerService struct {
	products  inventory.ProductRepository
	movements inventory.StockMovementRepository
	events    []shared.DomainEvent
}

// NewLedgerService creates a ledger over the given repositories
func NewLedgerService(products inventory.ProductRepository, movements inventory.StockMovementRepository) *LedgerService {
	return &LedgerService{
		products:  products,
		movements: movements,
	}
}

// CurrentStock returns the ledger balance of a product. It may be negative.
func (l *LedgerService) CurrentStock(ctx context.Context, productID, shopID uuid.UUID) (int64, error) {
	return l.movements.SumChangeQty(ctx, shopID, productID)
}

// ValidateAvailability reports whether the ledger covers the requested quantity
func (l *LedgerService) ValidateAvailability(ctx context.Context, productID, shopID uuid.UUID, requested int64) (bool, error) {
	current, err := l.CurrentStock(ctx, productID, shopID)
	if err != nil {
		return false, err
	}
	return current >= requested, nil
}

// RecordMovement appends a movement and refreshes the cached stock of the
// product from the new ledger sum.
func (l *LedgerService) RecordMovement(ctx context.Context, in MovementInput) (*inventory.StockMovement, error) {
	if in.ChangeQty == 0 {
		return nil, shared.InvalidArgument("change_qty cannot be zero")
	}
	if !in.Reason.IsValid() {
		return nil, shared.InvalidArgument("Invalid movement reason: %s", in.Reason)
	}
	product, err := l.products.FindByID(ctx, in.ShopID, in.ProductID)
	if err != nil {
		return nil, err
	}
	return l.RecordProductMovement(ctx, product, in)
}

// RecordProductMovement is RecordMovement for a product the caller already
// loaded, typically under a row lock. The product's version is advanced.
func (l *LedgerService) RecordProductMovement(ctx context.Context, product *inventory.Product, in MovementInput) (*inventory.StockMovement, error) {
	movement, err := inventory.NewStockMovement(product.ShopID, product.ID, in.ChangeQty, in.Reason)
	if err != nil {
		return nil, err
	}
	movement.WithReference(in.ReferenceType, in.ReferenceID).
		WithCreatedBy(in.CreatedBy).
		WithMetadata(in.Metadata)

	if err := l.movements.Create(ctx, movement); err != nil {
		return nil, err
	}

	stock, err := l.CurrentStock(ctx, product.ID, product.ShopID)
	if err != nil {
		return nil, err
	}
	if err := l.products.UpdateCachedStock(ctx, product, stock); err != nil {
		return nil, err
	}

	if !movement.IsIncrease() && product.IsActive && product.IsLowStockAt(stock) {
		l.events = append(l.events, inventory.NewStockBelowThresholdEvent(product, stock))
	}

	return movement, nil
}

// AdjustToQuantity records the movement that brings stock to target.
// It returns nil and no error when stock already equals target.
func (l *LedgerService) AdjustToQuantity(ctx context.Context, shopID, productID uuid.UUID, target int64, createdBy uuid.UUID, reason string) (*inventory.StockMovement, error) {
	current, err := l.CurrentStock(ctx, productID, shopID)
	if err != nil {
		return nil, err
	}

	delta := target - current
	if delta == 0 {
		return nil, nil
	}

	movement, err := l.RecordMovement(ctx, MovementInput{
		ShopID:        shopID,
		ProductID:     productID,
		ChangeQty:     delta,
		Reason:        inventory.ReasonAdjustment,
		ReferenceType: inventory.ReferenceManualAdjustment,
		CreatedBy:     createdBy,
		Metadata: map[string]interface{}{
			"reason":       reason,
			"old_quantity": current,
			"new_quantity": target,
		},
	})
	if err != nil {
		return nil, err
	}

	l.events = append(l.events, inventory.NewStockAdjustedEvent(shopID, productID, current, target, reason))
	return movement, nil
}

// History lists movements of a product, newest first
func (l *LedgerService) History(ctx context.Context, shopID, productID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	return l.movements.FindByProduct(ctx, shopID, productID, filter.Normalize())
}

// TakeEvents returns the events raised since the last call and forgets them.
// Publish them only after the surrounding transaction committed.
func (l *LedgerService) TakeEvents() []shared.DomainEvent {
	events := l.events
	l.events = nil
	return events
}
