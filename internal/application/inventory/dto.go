package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopledger/backend/internal/domain/inventory"
)

// CreateProductRequest is the input of ProductService.Create
type CreateProductRequest struct {
	SKU              string                 `json:"sku" binding:"required,max=100"`
	Name             string                 `json:"name" binding:"required,max=255"`
	Description      string                 `json:"description"`
	Barcode          string                 `json:"barcode" binding:"max=100"`
	PriceMRP         decimal.Decimal        `json:"price_mrp" binding:"gte=0"`
	CostPrice        decimal.Decimal        `json:"cost_price" binding:"gte=0"`
	ReorderThreshold int64                  `json:"reorder_threshold" binding:"min=0"`
	ReorderQuantity  int64                  `json:"reorder_quantity" binding:"min=0"`
	LeadTimeDays     int                    `json:"lead_time_days" binding:"min=0"`
	InitialStock     int64                  `json:"initial_stock" binding:"min=0"`
	Attributes       map[string]interface{} `json:"attributes"`
}

// UpdateProductRequest is the input of ProductService.Update. Nil fields are left unchanged.
type UpdateProductRequest struct {
	Name             *string                `json:"name" binding:"omitempty,max=255"`
	Description      *string                `json:"description"`
	Barcode          *string                `json:"barcode" binding:"omitempty,max=100"`
	PriceMRP         *decimal.Decimal       `json:"price_mrp" binding:"omitempty,gte=0"`
	CostPrice        *decimal.Decimal       `json:"cost_price" binding:"omitempty,gte=0"`
	ReorderThreshold *int64                 `json:"reorder_threshold" binding:"omitempty,min=0"`
	ReorderQuantity  *int64                 `json:"reorder_quantity" binding:"omitempty,min=0"`
	LeadTimeDays     *int                   `json:"lead_time_days" binding:"omitempty,min=0"`
	IsActive         *bool                  `json:"is_active"`
	Attributes       map[string]interface{} `json:"attributes"`
}

// AdjustStockRequest sets stock to a counted quantity
type AdjustStockRequest struct {
	Quantity int64  `json:"quantity" binding:"min=0"`
	Reason   string `json:"reason" binding:"required,max=255"`
}

// ReceiveStockRequest records a signed non-sale movement
type ReceiveStockRequest struct {
	Quantity    int64      `json:"quantity" binding:"required"`
	Reason      string     `json:"reason" binding:"required,oneof=purchase adjustment return correction transfer"`
	ReferenceID *uuid.UUID `json:"reference_id"`
	Note        string     `json:"note" binding:"max=500"`
}

// ProductListFilter is the query accepted by product listings
type ProductListFilter struct {
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	LowStock bool   `form:"low_stock"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name sku created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MovementListFilter is the query accepted by movement history
type MovementListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ProductResponse is a product with its ledger-computed stock
type ProductResponse struct {
	ID               uuid.UUID              `json:"id"`
	ShopID           uuid.UUID              `json:"shop_id"`
	SKU              string                 `json:"sku"`
	Name             string                 `json:"name"`
	Description      string                 `json:"description"`
	Barcode          string                 `json:"barcode"`
	PriceMRP         decimal.Decimal        `json:"price_mrp"`
	CostPrice        decimal.Decimal        `json:"cost_price"`
	CurrentStock     int64                  `json:"current_stock"`
	ReorderThreshold int64                  `json:"reorder_threshold"`
	ReorderQuantity  int64                  `json:"reorder_quantity"`
	LeadTimeDays     int                    `json:"lead_time_days"`
	IsLowStock       bool                   `json:"is_low_stock"`
	IsOutOfStock     bool                   `json:"is_out_of_stock"`
	StockValue       decimal.Decimal        `json:"stock_value"`
	Attributes       map[string]interface{} `json:"attributes"`
	IsActive         bool                   `json:"is_active"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	Version          int                    `json:"version"`
}

// ToProductResponse builds a response using stock from the ledger
func ToProductResponse(p *inventory.Product, stock int64) ProductResponse {
	return ProductResponse{
		ID:               p.ID,
		ShopID:           p.ShopID,
		SKU:              p.SKU,
		Name:             p.Name,
		Description:      p.Description,
		Barcode:          p.Barcode,
		PriceMRP:         p.PriceMRP,
		CostPrice:        p.CostPrice,
		CurrentStock:     stock,
		ReorderThreshold: p.ReorderThreshold,
		ReorderQuantity:  p.ReorderQuantity,
		LeadTimeDays:     p.LeadTimeDays,
		IsLowStock:       p.IsLowStockAt(stock),
		IsOutOfStock:     inventory.IsOutOfStock(stock),
		StockValue:       inventory.Valuation(stock, p.CostPrice).Round(2),
		Attributes:       p.Attributes,
		IsActive:         p.IsActive,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		Version:          p.Version,
	}
}

// MovementResponse is one ledger row
type MovementResponse struct {
	ID            uuid.UUID              `json:"id"`
	ProductID     uuid.UUID              `json:"product_id"`
	ChangeQty     int64                  `json:"change_qty"`
	Reason        string                 `json:"reason"`
	ReferenceType string                 `json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID             `json:"reference_id,omitempty"`
	CreatedBy     *uuid.UUID             `json:"created_by,omitempty"`
	Metadata      map[string]interface{} `json:"metadata"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ToMovementResponse converts a domain movement
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		ChangeQty:     m.ChangeQty,
		Reason:        m.Reason.String(),
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		CreatedBy:     m.CreatedBy,
		Metadata:      m.Metadata,
		CreatedAt:     m.CreatedAt,
	}
}

// ToMovementResponses converts a slice of movements
func ToMovementResponses(movements []inventory.StockMovement) []MovementResponse {
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	return out
}

// StockResponse is the ledger balance of one product
type StockResponse struct {
	ProductID        uuid.UUID `json:"product_id"`
	CurrentStock     int64     `json:"current_stock"`
	ReorderThreshold int64     `json:"reorder_threshold"`
	IsLowStock       bool      `json:"is_low_stock"`
	IsOutOfStock     bool      `json:"is_out_of_stock"`
}

// StockAdjustmentResponse reports the outcome of AdjustStock
type StockAdjustmentResponse struct {
	ProductID   uuid.UUID         `json:"product_id"`
	OldQuantity int64             `json:"old_quantity"`
	NewQuantity int64             `json:"new_quantity"`
	Movement    *MovementResponse `json:"movement"`
}

// ValuationResponse is the stock value of a shop at cost
type ValuationResponse struct {
	TotalValue   decimal.Decimal `json:"total_value"`
	ProductCount int             `json:"product_count"`
	TotalUnits   int64           `json:"total_units"`
}

// InventorySummaryResponse is the dashboard summary of a shop's stock
type InventorySummaryResponse struct {
	TotalProducts   int64           `json:"total_products"`
	InStock         int64           `json:"in_stock"`
	LowStock        int64           `json:"low_stock"`
	OutOfStock      int64           `json:"out_of_stock"`
	TotalStockValue decimal.Decimal `json:"total_stock_value"`
	NewThisMonth    int64           `json:"new_this_month"`
}
