package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ledgerStockSQL is the ledger balance of the product row in scope
const ledgerStockSQL = "(SELECT COALESCE(SUM(m.change_qty), 0) FROM stock_movements m WHERE m.product_id = products.id AND m.shop_id = products.shop_id)"

// GormProductRepository implements inventory.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product within a shop
func (r *GormProductRepository) FindByID(ctx context.Context, shopID, id uuid.UUID) (*inventory.Product, error) {
	var p inventory.Product
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND id = ?", shopID, id).
		First(&p).Error; err != nil {
		return nil, notFoundOr(err, "Product", id)
	}
	return &p, nil
}

// FindByIDForUpdate finds a product and holds its row lock until the transaction ends
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, shopID, id uuid.UUID) (*inventory.Product, error) {
	var p inventory.Product
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("shop_id = ? AND id = ?", shopID, id).
		First(&p).Error; err != nil {
		return nil, notFoundOr(err, "Product", id)
	}
	return &p, nil
}

// FindByIDs finds several products of a shop. Unknown ids are skipped.
func (r *GormProductRepository) FindByIDs(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) ([]inventory.Product, error) {
	if len(ids) == 0 {
		return []inventory.Product{}, nil
	}
	var products []inventory.Product
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND id IN ?", shopID, ids).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return products, nil
}

// ExistsBySKU checks whether the SKU is taken within the shop
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, shopID uuid.UUID, sku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&inventory.Product{}).
		Where("shop_id = ? AND sku = ?", shopID, sku).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check sku: %w", err)
	}
	return count > 0, nil
}

// FindAll lists products matching the filter and returns the total count
func (r *GormProductRepository) FindAll(ctx context.Context, shopID uuid.UUID, filter inventory.ProductFilter) ([]inventory.Product, int64, error) {
	f := filter.Filter.Normalize()
	filtered := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&inventory.Product{}).Where("shop_id = ?", shopID)
		if search := strings.TrimSpace(f.Search); search != "" {
			pattern := "%" + strings.ToLower(search) + "%"
			query = query.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(barcode) LIKE ?)", pattern, pattern, pattern)
		}
		if filter.Active != nil {
			query = query.Where("is_active = ?", *filter.Active)
		}
		if filter.LowStockOnly {
			query = query.Where(ledgerStockSQL + " <= products.reorder_threshold")
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	orderBy := ValidateSortField(f.OrderBy, ProductSortFields, "created_at")
	var products []inventory.Product
	if err := filtered().
		Order(orderBy + " " + ValidateSortOrder(f.OrderDir)).
		Order("id").
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// FindActive returns every active product of a shop, ordered by name
func (r *GormProductRepository) FindActive(ctx context.Context, shopID uuid.UUID) ([]inventory.Product, error) {
	var products []inventory.Product
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND is_active = ?", shopID, true).
		Order("name").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	return products, nil
}

// Create inserts a new product. A duplicate SKU within the shop is ALREADY_EXISTS.
func (r *GormProductRepository) Create(ctx context.Context, product *inventory.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return duplicateAs(err, "create product",
			shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("Product with SKU %s already exists", product.SKU)))
	}
	return nil
}

// Save updates the descriptive columns if the row still carries product.Version
func (r *GormProductRepository) Save(ctx context.Context, product *inventory.Product) error {
	result := r.db.WithContext(ctx).Model(&inventory.Product{}).
		Where("id = ? AND shop_id = ? AND version = ?", product.ID, product.ShopID, product.Version).
		Updates(map[string]interface{}{
			"name":              product.Name,
			"description":       product.Description,
			"barcode":           product.Barcode,
			"price_mrp":         product.PriceMRP,
			"cost_price":        product.CostPrice,
			"reorder_threshold": product.ReorderThreshold,
			"reorder_quantity":  product.ReorderQuantity,
			"lead_time_days":    product.LeadTimeDays,
			"attributes":        product.Attributes,
			"is_active":         product.IsActive,
			"version":           gorm.Expr("version + 1"),
			"updated_at":        product.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("save product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.Conflict("Product %s was modified concurrently", product.ID)
	}
	product.Version++
	return nil
}

// UpdateCachedStock overwrites current_stock under an optimistic version check
func (r *GormProductRepository) UpdateCachedStock(ctx context.Context, product *inventory.Product, stock int64) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&inventory.Product{}).
		Where("id = ? AND shop_id = ? AND version = ?", product.ID, product.ShopID, product.Version).
		Updates(map[string]interface{}{
			"current_stock": stock,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    now,
		})
	if result.Error != nil {
		return fmt.Errorf("update cached stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.Conflict("Product %s was modified concurrently", product.ID)
	}
	product.CurrentStock = stock
	product.Version++
	product.UpdatedAt = now
	return nil
}

// CountForShop counts all products of a shop
func (r *GormProductRepository) CountForShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&inventory.Product{}).
		Where("shop_id = ?", shopID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// CountCreatedSince counts products created at or after since
func (r *GormProductRepository) CountCreatedSince(ctx context.Context, shopID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&inventory.Product{}).
		Where("shop_id = ? AND created_at >= ?", shopID, since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count new products: %w", err)
	}
	return count, nil
}

var _ inventory.ProductRepository = (*GormProductRepository)(nil)
