package sales

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopledger/backend/internal/domain/gst"
	"github.com/shopledger/backend/internal/domain/shared"
)

// AggregateTypeSale is the aggregate type name used in events
const AggregateTypeSale = "Sale"

// SaleItem is one line of a sale. Lines are never edited after creation;
// corrections go through compensating ledger entries.
type SaleItem struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	SaleID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductName  string            `gorm:"type:varchar(255)"`
	Quantity     int64             `gorm:"not null;check:sale_items_quantity_positive,quantity > 0"`
	UnitPrice    decimal.Decimal   `gorm:"type:decimal(14,2);not null"`
	UnitCost     decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Discount     decimal.Decimal   `gorm:"type:decimal(14,2);not null"`
	GSTRate      decimal.Decimal   `gorm:"type:decimal(5,2);not null"`
	TaxBreakdown gst.LineBreakdown `gorm:"type:jsonb;not null"`
	LineTotal    decimal.Decimal   `gorm:"type:decimal(14,2);not null"`
	CreatedAt    time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleItem) TableName() string {
	return "sale_items"
}

// NewSaleItem validates a line and computes its tax.
// unitCost is the product cost at the time of sale.
func NewSaleItem(saleID, productID uuid.UUID, productName string, quantity int64, unitPrice, unitCost, discount, gstRate decimal.Decimal) (*SaleItem, error) {
	if productID == uuid.Nil {
		return nil, shared.InvalidArgument("Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.InvalidArgument("Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.InvalidArgument("Unit price cannot be negative")
	}
	if unitCost.IsNegative() {
		return nil, shared.InvalidArgument("Unit cost cannot be negative")
	}
	if err := ValidateDiscount(quantity, unitPrice, discount); err != nil {
		return nil, err
	}
	if !gst.IsValidRate(gstRate) {
		return nil, shared.InvalidArgument("GST rate must be between 0 and 100, got %s", gstRate.String())
	}

	breakdown := gst.CalculateLineItem(quantity, unitPrice, discount, gstRate)

	return &SaleItem{
		ID:           uuid.New(),
		SaleID:       saleID,
		ProductID:    productID,
		ProductName:  productName,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		UnitCost:     unitCost,
		Discount:     discount,
		GSTRate:      gstRate,
		TaxBreakdown: breakdown,
		LineTotal:    breakdown.LineTotal,
		CreatedAt:    time.Now(),
	}, nil
}

// ValidateDiscount rejects a negative discount or one larger than the line subtotal
func ValidateDiscount(quantity int64, unitPrice, discount decimal.Decimal) error {
	if discount.IsNegative() {
		return shared.InvalidArgument("Discount cannot be negative")
	}
	subtotal := decimal.NewFromInt(quantity).Mul(unitPrice)
	if discount.GreaterThan(subtotal) {
		return shared.InvalidArgument("Discount %s exceeds line subtotal %s", discount.String(), subtotal.String())
	}
	return nil
}

// Cost returns quantity times the snapshotted unit cost
func (i *SaleItem) Cost() decimal.Decimal {
	return decimal.NewFromInt(i.Quantity).Mul(i.UnitCost)
}

// Sale is the header of a point-of-sale transaction
type Sale struct {
	shared.ShopAggregateRoot
	InvoiceNo          string          `gorm:"type:varchar(32);not null"`
	PaymentType        PaymentType     `gorm:"type:varchar(20);not null"`
	Status             SaleStatus      `gorm:"type:varchar(20);not null;index"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TotalCost          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Profit             decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	GSTBreakdown       gst.Breakdown   `gorm:"type:jsonb;not null"`
	RoundingAdjustment decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CustomerInfo       shared.JSONMap  `gorm:"type:jsonb;not null"`
	Notes              string          `gorm:"type:text"`
	Items              []SaleItem      `gorm:"foreignKey:SaleID"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// NewSale creates a paid sale header without lines
func NewSale(shopID uuid.UUID, invoiceNo string, paymentType PaymentType, customerInfo map[string]interface{}, notes string, createdBy uuid.UUID) (*Sale, error) {
	if shopID == uuid.Nil {
		return nil, shared.InvalidArgument("Shop ID cannot be empty")
	}
	if invoiceNo == "" {
		return nil, shared.InvalidArgument("Invoice number cannot be empty")
	}
	if paymentType == "" {
		paymentType = PaymentTypeCash
	}
	if !paymentType.IsValid() {
		return nil, shared.InvalidArgument("Invalid payment type: %s", paymentType)
	}

	info := shared.JSONMap{}
	if customerInfo != nil {
		info = shared.JSONMap(customerInfo).Clone()
	}

	s := &Sale{
		ShopAggregateRoot:  shared.NewShopAggregateRoot(shopID),
		InvoiceNo:          invoiceNo,
		PaymentType:        paymentType,
		Status:             SaleStatusPaid,
		TotalAmount:        decimal.Zero,
		TotalCost:          decimal.Zero,
		Profit:             decimal.Zero,
		GSTBreakdown:       gst.Aggregate(nil),
		RoundingAdjustment: decimal.Zero,
		CustomerInfo:       info,
		Notes:              notes,
		Items:              make([]SaleItem, 0),
	}
	s.SetCreatedBy(createdBy)
	return s, nil
}

// AddItem attaches a line and refreshes the totals
func (s *Sale) AddItem(item *SaleItem) {
	item.SaleID = s.ID
	s.Items = append(s.Items, *item)
	s.RecalculateTotals()
}

// RecalculateTotals derives amount, cost, profit and the GST aggregate from the lines
func (s *Sale) RecalculateTotals() {
	totalAmount := decimal.Zero
	totalCost := decimal.Zero
	lines := make([]gst.Breakdown, 0, len(s.Items))

	for i := range s.Items {
		totalAmount = totalAmount.Add(s.Items[i].LineTotal)
		totalCost = totalCost.Add(s.Items[i].Cost())
		lines = append(lines, s.Items[i].TaxBreakdown.Breakdown)
	}

	s.TotalAmount = gst.Round(totalAmount)
	s.TotalCost = gst.Round(totalCost)
	s.Profit = s.TotalAmount.Sub(s.TotalCost)
	s.GSTBreakdown = gst.Aggregate(lines)
}

// FindItem returns the line with the given id
func (s *Sale) FindItem(itemID uuid.UUID) (*SaleItem, bool) {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// CustomerName returns customer_info.name when present
func (s *Sale) CustomerName() string {
	return s.CustomerInfo.GetString("name")
}

// Void marks the sale void. It reports false when the sale already was void.
func (s *Sale) Void() (bool, error) {
	if s.Status == SaleStatusVoid {
		return false, nil
	}
	if !s.Status.CanTransitionTo(SaleStatusVoid) {
		return false, shared.InvalidState("Cannot void a sale in status %s", s.Status)
	}
	s.Status = SaleStatusVoid
	s.Touch()
	s.AddDomainEvent(NewSaleVoidedEvent(s))
	return true, nil
}

// CheckRefundable verifies that a refund may start
func (s *Sale) CheckRefundable() error {
	switch s.Status {
	case SaleStatusRefunded:
		return shared.InvalidState("Sale is already refunded")
	case SaleStatusVoid:
		return shared.InvalidState("Cannot refund a voided sale")
	}
	if !s.Status.CanTransitionTo(SaleStatusRefunded) {
		return shared.InvalidState("Cannot refund a sale in status %s", s.Status)
	}
	return nil
}

// Refund marks the sale refunded and appends the reason to the notes
func (s *Sale) Refund(reason string, itemIDs []uuid.UUID) error {
	if err := s.CheckRefundable(); err != nil {
		return err
	}
	s.Notes = strings.TrimSpace(s.Notes + "\nRefund: " + reason)
	s.Status = SaleStatusRefunded
	s.Touch()
	s.AddDomainEvent(NewSaleRefundedEvent(s, reason, itemIDs))
	return nil
}

// ChangeStatus applies a generic status update. Void and refund have
// dedicated operations because they move stock.
func (s *Sale) ChangeStatus(target SaleStatus) error {
	if !target.IsValid() {
		return shared.InvalidArgument("Invalid sale status: %s", target)
	}
	if target == s.Status {
		return nil
	}
	if target.IsTerminal() {
		return shared.InvalidState("Status %s is set through the %s operation, not through an update", target, terminalOperation(target))
	}
	if !s.Status.CanTransitionTo(target) {
		return shared.InvalidState("Cannot change sale status from %s to %s", s.Status, target)
	}
	s.Status = target
	s.Touch()
	return nil
}

func terminalOperation(status SaleStatus) string {
	if status == SaleStatusVoid {
		return "void"
	}
	return "refund"
}

// ChangePaymentType updates how the sale was paid
func (s *Sale) ChangePaymentType(paymentType PaymentType) error {
	if !paymentType.IsValid() {
		return shared.InvalidArgument("Invalid payment type: %s", paymentType)
	}
	s.PaymentType = paymentType
	s.Touch()
	return nil
}

// SetCustomerInfo replaces the free-form customer details
func (s *Sale) SetCustomerInfo(info map[string]interface{}) {
	if info == nil {
		s.CustomerInfo = shared.JSONMap{}
	} else {
		s.CustomerInfo = shared.JSONMap(info).Clone()
	}
	s.Touch()
}

// SetNotes replaces the notes
func (s *Sale) SetNotes(notes string) {
	s.Notes = notes
	s.Touch()
}

// ItemCount returns the number of lines
func (s *Sale) ItemCount() int {
	return len(s.Items)
}
