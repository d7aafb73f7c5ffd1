package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	appsales "github.com/shopledger/backend/internal/application/sales"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/sales"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// Runs the sale pipeline against sqlite through the real transaction scope.

func newSaleFlow(t *testing.T) (*appsales.SaleService, *gorm.DB, uuid.UUID) {
	t.Helper()
	db := newTestDB(t)
	svc := appsales.NewSaleService(NewGormSaleTransactionScope(db), NewGormSaleRepository(db), appsales.DefaultConfig(), zaptest.NewLogger(t))
	svc.SetClock(func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) })
	return svc, db, uuid.New()
}

func ledgerStock(t *testing.T, db *gorm.DB, p *inventory.Product) int64 {
	t.Helper()
	sum, err := NewGormStockMovementRepository(db).SumChangeQty(t.Context(), p.ShopID, p.ID)
	require.NoError(t, err)
	return sum
}

func TestSaleFlow_CreateAndVoid(t *testing.T) {
	svc, db, shopID := newSaleFlow(t)
	rice := seedProduct(t, db, shopID, "RICE", "Rice", 60, 0)
	seedMovement(t, db, rice, 10, inventory.ReasonPurchase)
	userID := uuid.New()
	rate := decimal.NewFromInt(18)

	resp, err := svc.CreateSale(t.Context(), shopID, userID, appsales.CreateSaleInput{
		Items: []appsales.CreateSaleItemInput{
			{ProductID: rice.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(100), GSTRate: &rate},
		},
		PaymentType: sales.PaymentTypeUPI,
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-20240315-0001", resp.InvoiceNo)
	assert.True(t, decimal.NewFromInt(472).Equal(resp.TotalAmount), "got %s", resp.TotalAmount)
	assert.True(t, decimal.NewFromInt(240).Equal(resp.TotalCost), "got %s", resp.TotalCost)
	assert.Equal(t, int64(6), ledgerStock(t, db, rice))

	cached, err := NewGormProductRepository(db).FindByID(t.Context(), shopID, rice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 6, cached.CurrentStock)

	movements, err := NewGormStockMovementRepository(db).FindByReference(t.Context(), shopID, inventory.ReferenceSale, resp.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.EqualValues(t, -4, movements[0].ChangeQty)
	assert.Equal(t, "INV-20240315-0001", movements[0].Metadata.GetString("invoice_no"))

	second, err := svc.CreateSale(t.Context(), shopID, userID, appsales.CreateSaleInput{
		Items: []appsales.CreateSaleItemInput{{ProductID: rice.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(100)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-20240315-0002", second.InvoiceNo)
	assert.Equal(t, int64(5), ledgerStock(t, db, rice))

	voided, err := svc.VoidSale(t.Context(), shopID, resp.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, sales.SaleStatusVoid, voided.Status)
	assert.Equal(t, int64(9), ledgerStock(t, db, rice))

	again, err := svc.VoidSale(t.Context(), shopID, resp.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, sales.SaleStatusVoid, again.Status)
	assert.Equal(t, int64(9), ledgerStock(t, db, rice), "second void must not move stock")
}

func TestSaleFlow_InsufficientStockWritesNothing(t *testing.T) {
	svc, db, shopID := newSaleFlow(t)
	rice := seedProduct(t, db, shopID, "RICE", "Rice", 60, 0)
	seedMovement(t, db, rice, 2, inventory.ReasonPurchase)

	_, err := svc.CreateSale(t.Context(), shopID, uuid.New(), appsales.CreateSaleInput{
		Items: []appsales.CreateSaleItemInput{{ProductID: rice.ID, Quantity: 5, UnitPrice: decimal.NewFromInt(100)}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	assert.Equal(t, int64(2), ledgerStock(t, db, rice))
	count, err := NewGormSaleRepository(db).CountForShop(t.Context(), shopID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The aborted sale did not consume an invoice number.
	ok, err := svc.CreateSale(t.Context(), shopID, uuid.New(), appsales.CreateSaleInput{
		Items: []appsales.CreateSaleItemInput{{ProductID: rice.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(100)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-20240315-0001", ok.InvoiceNo)
	assert.Equal(t, int64(0), ledgerStock(t, db, rice))
}

func TestSaleFlow_ForeignProductAbortsWholeSale(t *testing.T) {
	svc, db, shopID := newSaleFlow(t)
	rice := seedProduct(t, db, shopID, "RICE", "Rice", 60, 0)
	seedMovement(t, db, rice, 10, inventory.ReasonPurchase)
	foreign := seedProduct(t, db, uuid.New(), "OIL", "Oil", 40, 0)

	_, err := svc.CreateSale(t.Context(), shopID, uuid.New(), appsales.CreateSaleInput{
		Items: []appsales.CreateSaleItemInput{
			{ProductID: rice.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(100)},
			{ProductID: foreign.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(80)},
		},
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.Equal(t, int64(10), ledgerStock(t, db, rice))
	movements, err := NewGormStockMovementRepository(db).CountForShop(t.Context(), shopID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, movements)
	items, err := NewGormSaleRepository(db).CountItemsForShop(t.Context(), shopID)
	require.NoError(t, err)
	assert.Zero(t, items)
}
