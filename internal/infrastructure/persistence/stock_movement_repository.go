package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormStockMovementRepository is the append-only ledger store.
// It has no update or delete methods.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create appends a movement
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	if err := r.db.WithContext(ctx).Create(movement).Error; err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	return nil
}

// SumChangeQty returns the ledger balance of a product, zero without rows
func (r *GormStockMovementRepository) SumChangeQty(ctx context.Context, shopID, productID uuid.UUID) (int64, error) {
	var sum int64
	if err := r.db.WithContext(ctx).Model(&inventory.StockMovement{}).
		Select("COALESCE(SUM(change_qty), 0)").
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		Scan(&sum).Error; err != nil {
		return 0, fmt.Errorf("sum stock movements: %w", err)
	}
	return sum, nil
}

// SumChangeQtyByProducts returns the balances of several products in one grouped query
func (r *GormStockMovementRepository) SumChangeQtyByProducts(ctx context.Context, shopID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	for _, id := range productIDs {
		out[id] = 0
	}

	var rows []struct {
		ProductID uuid.UUID
		Total     int64
	}
	if err := r.db.WithContext(ctx).Model(&inventory.StockMovement{}).
		Select("product_id, COALESCE(SUM(change_qty), 0) AS total").
		Where("shop_id = ? AND product_id IN ?", shopID, productIDs).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("sum stock movements by product: %w", err)
	}
	for _, row := range rows {
		out[row.ProductID] = row.Total
	}
	return out, nil
}

// FindByProduct lists a product's movements, newest first
func (r *GormStockMovementRepository) FindByProduct(ctx context.Context, shopID, productID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	f := filter.Normalize()
	scoped := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&inventory.StockMovement{}).
			Where("shop_id = ? AND product_id = ?", shopID, productID)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count stock movements: %w", err)
	}

	var movements []inventory.StockMovement
	if err := scoped().
		Order("created_at DESC").
		Order("id").
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&movements).Error; err != nil {
		return nil, 0, fmt.Errorf("list stock movements: %w", err)
	}
	return movements, total, nil
}

// FindByReference lists movements created for a source document, oldest first
func (r *GormStockMovementRepository) FindByReference(ctx context.Context, shopID uuid.UUID, refType string, refID uuid.UUID) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND reference_type = ? AND reference_id = ?", shopID, refType, refID).
		Order("created_at").
		Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("find stock movements by reference: %w", err)
	}
	return movements, nil
}

// CountForShop counts ledger rows of a shop
func (r *GormStockMovementRepository) CountForShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&inventory.StockMovement{}).
		Where("shop_id = ?", shopID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count stock movements: %w", err)
	}
	return count, nil
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
