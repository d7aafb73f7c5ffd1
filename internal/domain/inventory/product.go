package inventory

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopledger/backend/internal/domain/shared"
)

// AggregateTypeProduct is the aggregate type name used in events
const AggregateTypeProduct = "Product"

// Product is a shop-scoped sellable item.
//
// CurrentStock is a cache of the ledger sum written in the same
// transaction as each movement. Decisions read the ledger, never this field.
type Product struct {
	shared.ShopAggregateRoot
	SKU              string          `gorm:"type:varchar(100);not null"`
	Name             string          `gorm:"type:varchar(255);not null"`
	Description      string          `gorm:"type:text"`
	Barcode          string          `gorm:"type:varchar(100);index"`
	PriceMRP         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CostPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CurrentStock     int64           `gorm:"not null"`
	ReorderThreshold int64           `gorm:"not null"`
	ReorderQuantity  int64           `gorm:"not null"`
	LeadTimeDays     int             `gorm:"not null"`
	Attributes       shared.JSONMap  `gorm:"type:jsonb;not null"`
	IsActive         bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates an active product with zero cached stock
func NewProduct(shopID uuid.UUID, sku, name string, priceMRP, costPrice decimal.Decimal) (*Product, error) {
	if shopID == uuid.Nil {
		return nil, shared.InvalidArgument("Shop ID cannot be empty")
	}
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.InvalidArgument("SKU cannot be empty")
	}
	if len(sku) > 100 {
		return nil, shared.InvalidArgument("SKU cannot exceed 100 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.InvalidArgument("Product name cannot be empty")
	}
	if err := validatePrices(priceMRP, costPrice); err != nil {
		return nil, err
	}

	return &Product{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		SKU:               sku,
		Name:              name,
		PriceMRP:          priceMRP,
		CostPrice:         costPrice,
		Attributes:        shared.JSONMap{},
		IsActive:          true,
	}, nil
}

func validatePrices(priceMRP, costPrice decimal.Decimal) error {
	if priceMRP.IsNegative() {
		return shared.InvalidArgument("Price cannot be negative")
	}
	if costPrice.IsNegative() {
		return shared.InvalidArgument("Cost price cannot be negative")
	}
	return nil
}

// SetReorderPolicy sets the low-stock threshold and the suggested reorder quantity
func (p *Product) SetReorderPolicy(threshold, quantity int64, leadTimeDays int) error {
	if threshold < 0 {
		return shared.InvalidArgument("Reorder threshold cannot be negative")
	}
	if quantity < 0 {
		return shared.InvalidArgument("Reorder quantity cannot be negative")
	}
	if leadTimeDays < 0 {
		return shared.InvalidArgument("Lead time cannot be negative")
	}
	p.ReorderThreshold = threshold
	p.ReorderQuantity = quantity
	p.LeadTimeDays = leadTimeDays
	p.Touch()
	return nil
}

// SetPrices updates MRP and cost price. Cost changes never touch past sales
// because sale lines keep their own snapshot.
func (p *Product) SetPrices(priceMRP, costPrice decimal.Decimal) error {
	if err := validatePrices(priceMRP, costPrice); err != nil {
		return err
	}
	p.PriceMRP = priceMRP
	p.CostPrice = costPrice
	p.Touch()
	return nil
}

// Rename changes the display name
func (p *Product) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.InvalidArgument("Product name cannot be empty")
	}
	p.Name = name
	p.Touch()
	return nil
}

// Deactivate hides the product from sale and from valuation
func (p *Product) Deactivate() {
	p.IsActive = false
	p.Touch()
}

// Activate makes the product sellable again
func (p *Product) Activate() {
	p.IsActive = true
	p.Touch()
}

// IsLowStock reports stock at or below the reorder threshold
func IsLowStock(stock, threshold int64) bool {
	return stock <= threshold
}

// IsOutOfStock reports zero or negative stock
func IsOutOfStock(stock int64) bool {
	return stock <= 0
}

// IsLowStockAt reports whether stock is low for this product
func (p *Product) IsLowStockAt(stock int64) bool {
	return IsLowStock(stock, p.ReorderThreshold)
}
