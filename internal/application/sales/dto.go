package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopledger/backend/internal/domain/gst"
	"github.com/shopledger/backend/internal/domain/sales"
)

// CreateSaleItemInput is one requested line
type CreateSaleItemInput struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  int64            `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal  `json:"unit_price" binding:"gte=0"`
	Discount  decimal.Decimal  `json:"discount" binding:"gte=0"`
	GSTRate   *decimal.Decimal `json:"gst_rate" binding:"omitempty,gte=0,lte=100"`
}

// CreateSaleInput is the input of SaleService.CreateSale
type CreateSaleInput struct {
	Items        []CreateSaleItemInput  `json:"items" binding:"required,min=1,dive"`
	PaymentType  sales.PaymentType      `json:"payment_type" binding:"omitempty,payment_type"`
	CustomerInfo map[string]interface{} `json:"customer_info"`
	Notes        string                 `json:"notes" binding:"max=2000"`
	GSTRate      *decimal.Decimal       `json:"gst_rate" binding:"omitempty,gte=0,lte=100"`
}

// UpdateSaleInput changes header fields only. Nil fields are left unchanged.
type UpdateSaleInput struct {
	PaymentType  *sales.PaymentType     `json:"payment_type" binding:"omitempty,payment_type"`
	CustomerInfo map[string]interface{} `json:"customer_info"`
	Notes        *string                `json:"notes" binding:"omitempty,max=2000"`
	Status       *sales.SaleStatus      `json:"status"`
}

// RefundInput restores stock for some or all lines of a sale
type RefundInput struct {
	Reason  string      `json:"reason" binding:"required,max=500"`
	ItemIDs []uuid.UUID `json:"items"`
}

// ListSalesFilter is the query accepted by ListSales
type ListSalesFilter struct {
	From        *time.Time        `form:"start_date" time_format:"2006-01-02"`
	To          *time.Time        `form:"end_date" time_format:"2006-01-02"`
	PaymentType sales.PaymentType `form:"payment_type"`
	Status      sales.SaleStatus  `form:"status"`
	Search      string            `form:"search"`
	Page        int               `form:"page" binding:"omitempty,min=1"`
	PageSize    int               `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SaleItemResponse is one sale line
type SaleItemResponse struct {
	ID           uuid.UUID         `json:"id"`
	ProductID    uuid.UUID         `json:"product_id"`
	ProductName  string            `json:"product_name"`
	Quantity     int64             `json:"quantity"`
	UnitPrice    decimal.Decimal   `json:"unit_price"`
	UnitCost     decimal.Decimal   `json:"unit_cost"`
	Discount     decimal.Decimal   `json:"discount"`
	GSTRate      decimal.Decimal   `json:"gst_rate"`
	TaxBreakdown gst.LineBreakdown `json:"tax_breakdown"`
	LineTotal    decimal.Decimal   `json:"line_total"`
}

// SaleResponse is a sale with its lines
type SaleResponse struct {
	ID                 uuid.UUID              `json:"id"`
	ShopID             uuid.UUID              `json:"shop_id"`
	InvoiceNo          string                 `json:"invoice_no"`
	PaymentType        sales.PaymentType      `json:"payment_type"`
	Status             sales.SaleStatus       `json:"status"`
	TotalAmount        decimal.Decimal        `json:"total_amount"`
	TotalCost          decimal.Decimal        `json:"total_cost"`
	Profit             decimal.Decimal        `json:"profit"`
	GSTBreakdown       gst.Breakdown          `json:"gst_breakdown"`
	RoundingAdjustment decimal.Decimal        `json:"rounding_adjustment"`
	CustomerInfo       map[string]interface{} `json:"customer_info"`
	Notes              string                 `json:"notes"`
	CreatedBy          *uuid.UUID             `json:"created_by,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
	Items              []SaleItemResponse     `json:"items"`
}

// SaleListItemResponse is a sale header in listings
type SaleListItemResponse struct {
	ID           uuid.UUID         `json:"id"`
	InvoiceNo    string            `json:"invoice_no"`
	PaymentType  sales.PaymentType `json:"payment_type"`
	Status       sales.SaleStatus  `json:"status"`
	TotalAmount  decimal.Decimal   `json:"total_amount"`
	Profit       decimal.Decimal   `json:"profit"`
	CustomerName string            `json:"customer_name,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ToSaleResponse converts a domain sale
func ToSaleResponse(s *sales.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i := range s.Items {
		it := &s.Items[i]
		items[i] = SaleItemResponse{
			ID:           it.ID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			UnitCost:     it.UnitCost,
			Discount:     it.Discount,
			GSTRate:      it.GSTRate,
			TaxBreakdown: it.TaxBreakdown,
			LineTotal:    it.LineTotal,
		}
	}
	return SaleResponse{
		ID:                 s.ID,
		ShopID:             s.ShopID,
		InvoiceNo:          s.InvoiceNo,
		PaymentType:        s.PaymentType,
		Status:             s.Status,
		TotalAmount:        s.TotalAmount,
		TotalCost:          s.TotalCost,
		Profit:             s.Profit,
		GSTBreakdown:       s.GSTBreakdown,
		RoundingAdjustment: s.RoundingAdjustment,
		CustomerInfo:       s.CustomerInfo,
		Notes:              s.Notes,
		CreatedBy:          s.CreatedBy,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
		Items:              items,
	}
}

// ToSaleListItemResponse converts a domain sale header
func ToSaleListItemResponse(s *sales.Sale) SaleListItemResponse {
	return SaleListItemResponse{
		ID:           s.ID,
		InvoiceNo:    s.InvoiceNo,
		PaymentType:  s.PaymentType,
		Status:       s.Status,
		TotalAmount:  s.TotalAmount,
		Profit:       s.Profit,
		CustomerName: s.CustomerName(),
		CreatedAt:    s.CreatedAt,
	}
}
