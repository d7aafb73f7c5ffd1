package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shopledger/backend/internal/domain/inventory"
)

func TestQueryService_ListProducts_SingleStockQuery(t *testing.T) {
	shopID := uuid.New()
	a := newTestProduct(t, shopID, 2)
	b := newTestProduct(t, shopID, 2)
	a.CurrentStock, b.CurrentStock = 1000, 1000

	products := new(MockProductRepository)
	movements := new(MockStockMovementRepository)
	products.On("FindAll", mock.Anything, shopID, mock.MatchedBy(func(f inventory.ProductFilter) bool {
		return f.Search == "rice" && f.LowStockOnly && f.OrderBy == "created_at" && f.PageSize == 20
	})).Return([]inventory.Product{*a, *b}, int64(2), nil)
	movements.On("SumChangeQtyByProducts", mock.Anything, shopID, []uuid.UUID{a.ID, b.ID}).
		Return(map[uuid.UUID]int64{a.ID: 1, b.ID: 0}, nil).Once()

	q := NewQueryService(products, movements)
	page, err := q.ListProducts(context.Background(), shopID, ProductListFilter{Search: "rice", LowStock: true})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(1), page.Items[0].CurrentStock)
	assert.Equal(t, int64(0), page.Items[1].CurrentStock)
	assert.True(t, page.Items[1].IsOutOfStock)
	movements.AssertNumberOfCalls(t, "SumChangeQtyByProducts", 1)
	movements.AssertNotCalled(t, "SumChangeQty", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueryService_LowAndOutOfStock(t *testing.T) {
	shopID := uuid.New()
	plenty := newTestProduct(t, shopID, 5)
	low := newTestProduct(t, shopID, 5)
	empty := newTestProduct(t, shopID, 5)
	stocks := map[uuid.UUID]int64{plenty.ID: 50, low.ID: 5, empty.ID: -1}

	products := new(MockProductRepository)
	movements := new(MockStockMovementRepository)
	products.On("FindActive", mock.Anything, shopID).Return([]inventory.Product{*plenty, *low, *empty}, nil)
	movements.On("SumChangeQtyByProducts", mock.Anything, shopID, mock.Anything).Return(stocks, nil)

	q := NewQueryService(products, movements)

	lowList, err := q.LowStockProducts(context.Background(), shopID)
	require.NoError(t, err)
	require.Len(t, lowList, 2)
	assert.Equal(t, low.ID, lowList[0].ID)
	assert.Equal(t, empty.ID, lowList[1].ID)

	outList, err := q.OutOfStockProducts(context.Background(), shopID)
	require.NoError(t, err)
	require.Len(t, outList, 1)
	assert.Equal(t, empty.ID, outList[0].ID)
}

func TestQueryService_Valuation(t *testing.T) {
	shopID := uuid.New()
	a := newTestProduct(t, shopID, 0)
	b := newTestProduct(t, shopID, 0)
	require.NoError(t, b.SetPrices(decimal.NewFromInt(20), decimal.RequireFromString("12.5")))

	products := new(MockProductRepository)
	movements := new(MockStockMovementRepository)
	products.On("FindActive", mock.Anything, shopID).Return([]inventory.Product{*a, *b}, nil)
	movements.On("SumChangeQtyByProducts", mock.Anything, shopID, mock.Anything).
		Return(map[uuid.UUID]int64{a.ID: 3, b.ID: 4}, nil)

	v, err := NewQueryService(products, movements).Valuation(context.Background(), shopID)
	require.NoError(t, err)
	assert.True(t, v.TotalValue.Equal(decimal.NewFromInt(230)), v.TotalValue.String())
	assert.Equal(t, int64(7), v.TotalUnits)
	assert.Equal(t, 2, v.ProductCount)
}

func TestQueryService_Valuation_Empty(t *testing.T) {
	shopID := uuid.New()
	products := new(MockProductRepository)
	movements := new(MockStockMovementRepository)
	products.On("FindActive", mock.Anything, shopID).Return([]inventory.Product{}, nil)

	v, err := NewQueryService(products, movements).Valuation(context.Background(), shopID)
	require.NoError(t, err)
	assert.True(t, v.TotalValue.IsZero())
	movements.AssertNotCalled(t, "SumChangeQtyByProducts", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueryService_Summary(t *testing.T) {
	shopID := uuid.New()
	now := time.Date(2024, 5, 20, 15, 0, 0, 0, time.UTC)
	plenty := newTestProduct(t, shopID, 5)
	low := newTestProduct(t, shopID, 5)
	empty := newTestProduct(t, shopID, 5)

	products := new(MockProductRepository)
	movements := new(MockStockMovementRepository)
	products.On("CountForShop", mock.Anything, shopID).Return(int64(4), nil)
	products.On("CountCreatedSince", mock.Anything, shopID, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)).Return(int64(2), nil)
	products.On("FindActive", mock.Anything, shopID).Return([]inventory.Product{*plenty, *low, *empty}, nil)
	movements.On("SumChangeQtyByProducts", mock.Anything, shopID, mock.Anything).
		Return(map[uuid.UUID]int64{plenty.ID: 10, low.ID: 3, empty.ID: 0}, nil)

	s, err := NewQueryService(products, movements).Summary(context.Background(), shopID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), s.TotalProducts)
	assert.Equal(t, int64(2), s.InStock)
	assert.Equal(t, int64(1), s.LowStock)
	assert.Equal(t, int64(1), s.OutOfStock)
	assert.Equal(t, int64(2), s.NewThisMonth)
	assert.True(t, s.TotalStockValue.Equal(decimal.NewFromInt(780)))
}

func TestIsLowStockPredicates(t *testing.T) {
	assert.True(t, inventory.IsLowStock(5, 5))
	assert.False(t, inventory.IsLowStock(6, 5))
	assert.True(t, inventory.IsOutOfStock(0))
	assert.True(t, inventory.IsOutOfStock(-2))
	assert.False(t, inventory.IsOutOfStock(1))
}
