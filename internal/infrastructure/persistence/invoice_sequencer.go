package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/sales"
	"github.com/shopledger/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceSequencer issues INV-YYYYMMDD-NNNN numbers from the
// invoice_sequences counter row of (shop, day). It must be built on the
// sale transaction: the counter row stays locked until that transaction ends
// and a rolled back sale gives its number back.
type GormInvoiceSequencer struct {
	db *gorm.DB
}

// NewGormInvoiceSequencer creates a sequencer over db, normally a transaction handle
func NewGormInvoiceSequencer(db *gorm.DB) *GormInvoiceSequencer {
	return &GormInvoiceSequencer{db: db}
}

// Next returns the next invoice number for the calendar day of at.
// at must already be in the business time zone.
func (s *GormInvoiceSequencer) Next(ctx context.Context, shopID uuid.UUID, at time.Time) (string, error) {
	day := at.Format("20060102")

	current, err := s.lockCounter(ctx, shopID, day)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.createCounter(ctx, shopID, at); err != nil {
			return "", err
		}
		current, err = s.lockCounter(ctx, shopID, day)
	}
	if err != nil {
		return "", fmt.Errorf("lock invoice sequence: %w", err)
	}

	next := current.LastValue + 1
	result := s.db.WithContext(ctx).Model(&sales.InvoiceSequence{}).
		Where("shop_id = ? AND seq_date = ? AND last_value = ?", shopID, day, current.LastValue).
		Updates(map[string]interface{}{
			"last_value": next,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return "", fmt.Errorf("advance invoice sequence: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", shared.Conflict("Invoice sequence for %s was advanced concurrently", day)
	}

	return sales.FormatInvoiceNumber(at, next), nil
}

func (s *GormInvoiceSequencer) lockCounter(ctx context.Context, shopID uuid.UUID, day string) (*sales.InvoiceSequence, error) {
	var seq sales.InvoiceSequence
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("shop_id = ? AND seq_date = ?", shopID, day).
		First(&seq).Error
	if err != nil {
		return nil, err
	}
	return &seq, nil
}

// createCounter inserts the day's counter seeded from the highest invoice
// already issued that day. A concurrent insert wins silently.
func (s *GormInvoiceSequencer) createCounter(ctx context.Context, shopID uuid.UUID, at time.Time) error {
	seed, err := s.highestIssued(ctx, shopID, at)
	if err != nil {
		return err
	}
	row := sales.InvoiceSequence{
		ShopID:    shopID,
		SeqDate:   at.Format("20060102"),
		LastValue: seed,
		UpdatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error; err != nil {
		return fmt.Errorf("create invoice sequence: %w", err)
	}
	return nil
}

func (s *GormInvoiceSequencer) highestIssued(ctx context.Context, shopID uuid.UUID, at time.Time) (int64, error) {
	var invoiceNos []string
	if err := s.db.WithContext(ctx).Model(&sales.Sale{}).
		Where("shop_id = ? AND invoice_no LIKE ?", shopID, sales.InvoiceDatePrefix(at)+"-%").
		Order("LENGTH(invoice_no) DESC").
		Order("invoice_no DESC").
		Limit(1).
		Pluck("invoice_no", &invoiceNos).Error; err != nil {
		return 0, fmt.Errorf("find highest invoice number: %w", err)
	}
	if len(invoiceNos) == 0 {
		return 0, nil
	}
	seq, _ := sales.ParseInvoiceSequence(invoiceNos[0], at)
	return seq, nil
}

var _ sales.InvoiceSequencer = (*GormInvoiceSequencer)(nil)
