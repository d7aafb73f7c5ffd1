package sales

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InvoiceNumberPrefix starts every invoice number
const InvoiceNumberPrefix = "INV"

// InvoiceDatePrefix returns "INV-YYYYMMDD" for the calendar day of t
func InvoiceDatePrefix(t time.Time) string {
	return InvoiceNumberPrefix + "-" + t.Format("20060102")
}

// FormatInvoiceNumber returns "INV-YYYYMMDD-NNNN"
func FormatInvoiceNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("%s-%04d", InvoiceDatePrefix(t), seq)
}

// ParseInvoiceSequence extracts the trailing sequence of an invoice number
// issued on the day of t. It reports false for other days or malformed input.
func ParseInvoiceSequence(invoiceNo string, t time.Time) (int64, bool) {
	prefix := InvoiceDatePrefix(t) + "-"
	if !strings.HasPrefix(invoiceNo, prefix) {
		return 0, false
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(invoiceNo, prefix), 10, 64)
	if err != nil || seq < 1 {
		return 0, false
	}
	return seq, true
}

// InvoiceSequence is the per-shop, per-day invoice counter row
type InvoiceSequence struct {
	ShopID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	SeqDate   string    `gorm:"type:varchar(8);primaryKey"`
	LastValue int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceSequence) TableName() string {
	return "invoice_sequences"
}

// Invoice is the issued-invoice record of a sale. A sale has at most one.
type Invoice struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ShopID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	SaleID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	InvoiceNo string     `gorm:"type:varchar(32);not null"`
	PDFURL    *string    `gorm:"type:text"`
	IssuedBy  *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates an invoice record for a sale
func NewInvoice(sale *Sale, issuedBy uuid.UUID) *Invoice {
	inv := &Invoice{
		ID:        uuid.New(),
		ShopID:    sale.ShopID,
		SaleID:    sale.ID,
		InvoiceNo: sale.InvoiceNo,
		CreatedAt: time.Now(),
	}
	if issuedBy != uuid.Nil {
		inv.IssuedBy = &issuedBy
	}
	return inv
}
