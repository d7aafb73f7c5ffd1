package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopledger/backend/internal/domain/shared"
)

// MovementReason classifies a ledger entry
type MovementReason string

const (
	// ReasonSale is stock leaving through a sale
	ReasonSale MovementReason = "sale"
	// ReasonPurchase is stock received from a supplier, including initial stock
	ReasonPurchase MovementReason = "purchase"
	// ReasonAdjustment is a stock count correction to a target quantity
	ReasonAdjustment MovementReason = "adjustment"
	// ReasonReturn is stock restored by a void or a refund
	ReasonReturn MovementReason = "return"
	// ReasonCorrection fixes an earlier erroneous entry
	ReasonCorrection MovementReason = "correction"
	// ReasonTransfer moves stock between shops
	ReasonTransfer MovementReason = "transfer"
)

// String returns the string representation of MovementReason
func (r MovementReason) String() string {
	return string(r)
}

// IsValid returns true if the reason is one of the known reasons
func (r MovementReason) IsValid() bool {
	switch r {
	case ReasonSale,
		ReasonPurchase,
		ReasonAdjustment,
		ReasonReturn,
		ReasonCorrection,
		ReasonTransfer:
		return true
	}
	return false
}

// Reference types linking a movement to the document that caused it
const (
	ReferenceSale             = "sale"
	ReferenceSaleVoid         = "sale_void"
	ReferenceManualAdjustment = "manual_adjustment"
	ReferenceInitialStock     = "initial_stock"
	ReferenceStockReceipt     = "stock_receipt"
)

// StockMovement is one immutable row of the stock ledger.
// The sum of ChangeQty over a (product, shop) pair is the stock level.
// Rows are never updated or deleted; mistakes are fixed by new rows.
type StockMovement struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ShopID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_stock_movements_product_shop,priority:2"`
	ProductID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_stock_movements_product_shop,priority:1"`
	ChangeQty     int64          `gorm:"not null"`
	Reason        MovementReason `gorm:"type:varchar(20);not null"`
	ReferenceType string         `gorm:"type:varchar(50);index:idx_stock_movements_reference,priority:1"`
	ReferenceID   *uuid.UUID     `gorm:"type:uuid;index:idx_stock_movements_reference,priority:2"`
	CreatedBy     *uuid.UUID     `gorm:"type:uuid"`
	CreatedAt     time.Time      `gorm:"not null;index"`
	Metadata      shared.JSONMap `gorm:"type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a ledger entry. A zero change is rejected.
func NewStockMovement(shopID, productID uuid.UUID, changeQty int64, reason MovementReason) (*StockMovement, error) {
	if shopID == uuid.Nil {
		return nil, shared.InvalidArgument("Shop ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.InvalidArgument("Product ID cannot be empty")
	}
	if changeQty == 0 {
		return nil, shared.InvalidArgument("change_qty cannot be zero")
	}
	if !reason.IsValid() {
		return nil, shared.InvalidArgument("Invalid movement reason: %s", reason)
	}

	return &StockMovement{
		ID:        uuid.New(),
		ShopID:    shopID,
		ProductID: productID,
		ChangeQty: changeQty,
		Reason:    reason,
		CreatedAt: time.Now(),
		Metadata:  shared.JSONMap{},
	}, nil
}

// WithReference links the movement to a source document
func (m *StockMovement) WithReference(refType string, refID uuid.UUID) *StockMovement {
	m.ReferenceType = refType
	if refID != uuid.Nil {
		m.ReferenceID = &refID
	}
	return m
}

// WithCreatedBy sets the user who caused the movement
func (m *StockMovement) WithCreatedBy(userID uuid.UUID) *StockMovement {
	if userID != uuid.Nil {
		m.CreatedBy = &userID
	}
	return m
}

// WithMetadata replaces the movement metadata
func (m *StockMovement) WithMetadata(metadata map[string]interface{}) *StockMovement {
	if metadata == nil {
		m.Metadata = shared.JSONMap{}
		return m
	}
	m.Metadata = shared.JSONMap(metadata).Clone()
	return m
}

// IsIncrease returns true if the movement adds stock
func (m *StockMovement) IsIncrease() bool {
	return m.ChangeQty > 0
}

// Valuation returns stock multiplied by unit cost
func Valuation(stock int64, unitCost decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(stock).Mul(unitCost)
}
