package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/sales"
	"github.com/shopledger/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements sales.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("sale_items.created_at").Order("sale_items.id")
}

// FindByID finds a sale with its items within a shop
func (r *GormSaleRepository) FindByID(ctx context.Context, shopID, id uuid.UUID) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("shop_id = ? AND id = ?", shopID, id).
		First(&sale).Error; err != nil {
		return nil, notFoundOr(err, "Sale", id)
	}
	return &sale, nil
}

// FindByIDForUpdate finds a sale with its items and locks the header row
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, shopID, id uuid.UUID) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("shop_id = ? AND id = ?", shopID, id).
		First(&sale).Error; err != nil {
		return nil, notFoundOr(err, "Sale", id)
	}
	// Items are loaded separately: FOR UPDATE cannot be combined with the preload query.
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", sale.ID).
		Order("created_at").Order("id").
		Find(&sale.Items).Error; err != nil {
		return nil, fmt.Errorf("load sale items: %w", err)
	}
	return &sale, nil
}

// FindAll lists sales, newest first, and returns the total count
func (r *GormSaleRepository) FindAll(ctx context.Context, shopID uuid.UUID, filter sales.SaleFilter) ([]sales.Sale, int64, error) {
	f := filter.Filter.Normalize()
	filtered := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&sales.Sale{}).Where("shop_id = ?", shopID)
		if filter.From != nil {
			query = query.Where("created_at >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("created_at <= ?", *filter.To)
		}
		if filter.PaymentType != "" {
			query = query.Where("payment_type = ?", filter.PaymentType)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if search := strings.TrimSpace(f.Search); search != "" {
			query = query.Where("LOWER(invoice_no) LIKE ?", "%"+strings.ToLower(search)+"%")
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}

	orderBy := ValidateSortField(f.OrderBy, SaleSortFields, "created_at")
	var list []sales.Sale
	if err := filtered().
		Preload("Items", preloadItems).
		Order(orderBy + " " + ValidateSortOrder(f.OrderDir)).
		Order("id").
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	return list, total, nil
}

// FindInPeriod returns sales created in [from, to], oldest first, excluding the given statuses
func (r *GormSaleRepository) FindInPeriod(ctx context.Context, shopID uuid.UUID, from, to time.Time, exclude ...sales.SaleStatus) ([]sales.Sale, error) {
	query := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("shop_id = ? AND created_at >= ? AND created_at <= ?", shopID, from, to)
	if len(exclude) > 0 {
		query = query.Where("status NOT IN ?", exclude)
	}

	var list []sales.Sale
	if err := query.Order("created_at").Order("id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("find sales in period: %w", err)
	}
	return list, nil
}

// Create inserts the sale header. Items are written through CreateItem.
// A duplicate invoice number within the shop is a CONFLICT.
func (r *GormSaleRepository) Create(ctx context.Context, sale *sales.Sale) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(sale).Error; err != nil {
		return duplicateAs(err, "create sale",
			shared.Conflict("Invoice number %s already exists", sale.InvoiceNo))
	}
	return nil
}

// CreateItem inserts one sale line
func (r *GormSaleRepository) CreateItem(ctx context.Context, item *sales.SaleItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create sale item: %w", err)
	}
	return nil
}

// Save updates the header columns if the row still carries sale.Version
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	result := r.db.WithContext(ctx).Model(&sales.Sale{}).
		Where("id = ? AND shop_id = ? AND version = ?", sale.ID, sale.ShopID, sale.Version).
		Updates(map[string]interface{}{
			"payment_type":        sale.PaymentType,
			"status":              sale.Status,
			"total_amount":        sale.TotalAmount,
			"total_cost":          sale.TotalCost,
			"profit":              sale.Profit,
			"gst_breakdown":       sale.GSTBreakdown,
			"rounding_adjustment": sale.RoundingAdjustment,
			"customer_info":       sale.CustomerInfo,
			"notes":               sale.Notes,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          sale.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("save sale: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.Conflict("Sale %s was modified concurrently", sale.ID)
	}
	sale.Version++
	return nil
}

// CountByStatus counts sales of one status created in [from, to]
func (r *GormSaleRepository) CountByStatus(ctx context.Context, shopID uuid.UUID, from, to time.Time, status sales.SaleStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&sales.Sale{}).
		Where("shop_id = ? AND status = ? AND created_at >= ? AND created_at <= ?", shopID, status, from, to).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count sales by status: %w", err)
	}
	return count, nil
}

// PaymentStats groups paid and pending sales by payment type
func (r *GormSaleRepository) PaymentStats(ctx context.Context, shopID uuid.UUID, from, to *time.Time) ([]sales.PaymentStat, error) {
	query := r.db.WithContext(ctx).Model(&sales.Sale{}).
		Select("payment_type, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total_amount").
		Where("shop_id = ? AND status IN ?", shopID, []sales.SaleStatus{sales.SaleStatusPaid, sales.SaleStatusPending})
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}

	var stats []sales.PaymentStat
	if err := query.Group("payment_type").Order("payment_type").Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("payment stats: %w", err)
	}
	return stats, nil
}

// CountForShop counts sale headers of a shop
func (r *GormSaleRepository) CountForShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&sales.Sale{}).
		Where("shop_id = ?", shopID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return count, nil
}

// CountItemsForShop counts sale lines belonging to a shop's sales
func (r *GormSaleRepository) CountItemsForShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&sales.SaleItem{}).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.shop_id = ?", shopID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count sale items: %w", err)
	}
	return count, nil
}

var _ sales.SaleRepository = (*GormSaleRepository)(nil)
