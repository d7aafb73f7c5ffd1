package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/sales"
	"github.com/shopledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements sales.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindBySaleID finds the invoice record of a sale
func (r *GormInvoiceRepository) FindBySaleID(ctx context.Context, shopID, saleID uuid.UUID) (*sales.Invoice, error) {
	var inv sales.Invoice
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND sale_id = ?", shopID, saleID).
		First(&inv).Error; err != nil {
		return nil, notFoundOr(err, "Invoice for sale", saleID)
	}
	return &inv, nil
}

// Create inserts an invoice record. A second record for the same sale is a CONFLICT.
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *sales.Invoice) error {
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return duplicateAs(err, "create invoice",
			shared.Conflict("Invoice for sale %s already exists", invoice.SaleID))
	}
	return nil
}

// FindInPeriod lists invoice records whose sale was created in [from, to]
func (r *GormInvoiceRepository) FindInPeriod(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]sales.Invoice, error) {
	var list []sales.Invoice
	if err := r.db.WithContext(ctx).
		Joins("JOIN sales ON sales.id = invoices.sale_id").
		Where("invoices.shop_id = ? AND sales.created_at >= ? AND sales.created_at <= ?", shopID, from, to).
		Order("invoices.created_at").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("find invoices in period: %w", err)
	}
	return list, nil
}

var _ sales.InvoiceRepository = (*GormInvoiceRepository)(nil)
