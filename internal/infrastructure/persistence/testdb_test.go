package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB returns a migrated in-memory sqlite database
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := Open(sqlite.Open(":memory:"))
	require.NoError(t, err)

	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(database.DB))
	return database.DB
}

func seedProduct(t *testing.T, db *gorm.DB, shopID uuid.UUID, sku, name string, cost int64, threshold int64) *inventory.Product {
	t.Helper()
	p, err := inventory.NewProduct(shopID, sku, name, decimal.NewFromInt(cost*2), decimal.NewFromInt(cost))
	require.NoError(t, err)
	require.NoError(t, p.SetReorderPolicy(threshold, 0, 0))
	require.NoError(t, NewGormProductRepository(db).Create(t.Context(), p))
	return p
}

func seedMovement(t *testing.T, db *gorm.DB, p *inventory.Product, qty int64, reason inventory.MovementReason) *inventory.StockMovement {
	t.Helper()
	m, err := inventory.NewStockMovement(p.ShopID, p.ID, qty, reason)
	require.NoError(t, err)
	require.NoError(t, NewGormStockMovementRepository(db).Create(t.Context(), m))
	return m
}

func seedSale(t *testing.T, db *gorm.DB, shopID uuid.UUID, invoiceNo string, payment sales.PaymentType, createdAt time.Time, p *inventory.Product, qty int64) *sales.Sale {
	t.Helper()
	repo := NewGormSaleRepository(db)
	sale, err := sales.NewSale(shopID, invoiceNo, payment, map[string]interface{}{"name": "Asha"}, "", uuid.Nil)
	require.NoError(t, err)
	sale.CreatedAt = createdAt
	sale.UpdatedAt = createdAt
	require.NoError(t, repo.Create(t.Context(), sale))

	item, err := sales.NewSaleItem(sale.ID, p.ID, p.Name, qty, decimal.NewFromInt(100), p.CostPrice, decimal.Zero, decimal.NewFromInt(18))
	require.NoError(t, err)
	require.NoError(t, repo.CreateItem(t.Context(), item))
	sale.AddItem(item)
	require.NoError(t, repo.Save(t.Context(), sale))
	return sale
}
