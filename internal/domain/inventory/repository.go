package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	shared.Filter
	// Active filters on IsActive when set
	Active *bool
	// LowStockOnly keeps products whose ledger stock is at or below threshold
	LowStockOnly bool
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product within a shop
	FindByID(ctx context.Context, shopID, id uuid.UUID) (*Product, error)

	// FindByIDForUpdate finds a product and holds a row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, shopID, id uuid.UUID) (*Product, error)

	// FindByIDs finds several products of a shop
	FindByIDs(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) ([]Product, error)

	// ExistsBySKU checks whether the SKU is taken within the shop
	ExistsBySKU(ctx context.Context, shopID uuid.UUID, sku string) (bool, error)

	// FindAll lists products matching the filter and returns the total count
	FindAll(ctx context.Context, shopID uuid.UUID, filter ProductFilter) ([]Product, int64, error)

	// FindActive returns every active product of a shop
	FindActive(ctx context.Context, shopID uuid.UUID) ([]Product, error)

	// Create inserts a new product
	Create(ctx context.Context, product *Product) error

	// Save updates descriptive fields with an optimistic version check.
	// The cached stock column is never written here.
	Save(ctx context.Context, product *Product) error

	// UpdateCachedStock overwrites the cached stock column if the row still
	// carries product.Version, then bumps the version on row and struct.
	// A stale version is a CONFLICT.
	UpdateCachedStock(ctx context.Context, product *Product, stock int64) error

	// CountForShop counts all products of a shop
	CountForShop(ctx context.Context, shopID uuid.UUID) (int64, error)

	// CountCreatedSince counts products created at or after since
	CountCreatedSince(ctx context.Context, shopID uuid.UUID, since time.Time) (int64, error)
}

// StockMovementRepository defines the append-only ledger store.
// It exposes no update or delete.
type StockMovementRepository interface {
	// Create appends a movement
	Create(ctx context.Context, movement *StockMovement) error

	// SumChangeQty returns the ledger balance of a product, zero when it has no rows
	SumChangeQty(ctx context.Context, shopID, productID uuid.UUID) (int64, error)

	// SumChangeQtyByProducts returns balances for several products in one query.
	// Products without movements are present with zero.
	SumChangeQtyByProducts(ctx context.Context, shopID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]int64, error)

	// FindByProduct lists a product's movements, newest first
	FindByProduct(ctx context.Context, shopID, productID uuid.UUID, filter shared.Filter) ([]StockMovement, int64, error)

	// FindByReference lists movements created for a source document
	FindByReference(ctx context.Context, shopID uuid.UUID, refType string, refID uuid.UUID) ([]StockMovement, error)

	// CountForShop counts ledger rows of a shop
	CountForShop(ctx context.Context, shopID uuid.UUID) (int64, error)
}
