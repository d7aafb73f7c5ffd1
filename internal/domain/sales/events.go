package sales

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopledger/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeSaleCreated  = "SaleCreated"
	EventTypeSaleVoided   = "SaleVoided"
	EventTypeSaleRefunded = "SaleRefunded"
)

// SaleCreatedEvent is raised after a sale commits
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNo   string          `json:"invoice_no"`
	PaymentType PaymentType     `json:"payment_type"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Profit      decimal.Decimal `json:"profit"`
	ItemCount   int             `json:"item_count"`
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, s.ID, s.ShopID),
		InvoiceNo:       s.InvoiceNo,
		PaymentType:     s.PaymentType,
		TotalAmount:     s.TotalAmount,
		Profit:          s.Profit,
		ItemCount:       len(s.Items),
	}
}

// SaleVoidedEvent is raised when a sale is voided
type SaleVoidedEvent struct {
	shared.BaseDomainEvent
	InvoiceNo   string          `json:"invoice_no"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewSaleVoidedEvent creates a new SaleVoidedEvent
func NewSaleVoidedEvent(s *Sale) *SaleVoidedEvent {
	return &SaleVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleVoided, AggregateTypeSale, s.ID, s.ShopID),
		InvoiceNo:       s.InvoiceNo,
		TotalAmount:     s.TotalAmount,
	}
}

// SaleRefundedEvent is raised when a sale is refunded
type SaleRefundedEvent struct {
	shared.BaseDomainEvent
	InvoiceNo string      `json:"invoice_no"`
	Reason    string      `json:"reason"`
	ItemIDs   []uuid.UUID `json:"item_ids,omitempty"`
	Partial   bool        `json:"partial"`
}

// NewSaleRefundedEvent creates a new SaleRefundedEvent
func NewSaleRefundedEvent(s *Sale, reason string, itemIDs []uuid.UUID) *SaleRefundedEvent {
	return &SaleRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleRefunded, AggregateTypeSale, s.ID, s.ShopID),
		InvoiceNo:       s.InvoiceNo,
		Reason:          reason,
		ItemIDs:         itemIDs,
		Partial:         len(itemIDs) > 0,
	}
}
