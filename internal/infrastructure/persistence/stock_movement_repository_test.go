package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStockMovementRepository_Sums(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockMovementRepository(db)
	shopID := uuid.New()
	rice := seedProduct(t, db, shopID, "RICE", "Rice", 10, 0)
	oil := seedProduct(t, db, shopID, "OIL", "Oil", 10, 0)
	empty := seedProduct(t, db, shopID, "EMPTY", "Empty", 10, 0)

	seedMovement(t, db, rice, 10, inventory.ReasonPurchase)
	seedMovement(t, db, rice, -4, inventory.ReasonSale)
	seedMovement(t, db, rice, 4, inventory.ReasonReturn)
	seedMovement(t, db, oil, -3, inventory.ReasonSale)

	sum, err := repo.SumChangeQty(t.Context(), shopID, rice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, sum)

	sum, err = repo.SumChangeQty(t.Context(), shopID, empty.ID)
	require.NoError(t, err)
	assert.Zero(t, sum)

	// Negative balances are reported as they are.
	sum, err = repo.SumChangeQty(t.Context(), shopID, oil.ID)
	require.NoError(t, err)
	assert.EqualValues(t, -3, sum)

	// Another shop never sees this ledger.
	sum, err = repo.SumChangeQty(t.Context(), uuid.New(), rice.ID)
	require.NoError(t, err)
	assert.Zero(t, sum)

	sums, err := repo.SumChangeQtyByProducts(t.Context(), shopID, []uuid.UUID{rice.ID, oil.ID, empty.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{rice.ID: 10, oil.ID: -3, empty.ID: 0}, sums)

	none, err := repo.SumChangeQtyByProducts(t.Context(), shopID, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	count, err := repo.CountForShop(t.Context(), shopID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
}

func TestGormStockMovementRepository_FindByProduct(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockMovementRepository(db)
	shopID := uuid.New()
	rice := seedProduct(t, db, shopID, "RICE", "Rice", 10, 0)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		m, err := inventory.NewStockMovement(shopID, rice.ID, int64(i+1), inventory.ReasonPurchase)
		require.NoError(t, err)
		m.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(t.Context(), m))
	}

	page, total, err := repo.FindByProduct(t.Context(), shopID, rice.ID, shared.Filter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page, 2)
	assert.EqualValues(t, 5, page[0].ChangeQty, "newest first")
	assert.EqualValues(t, 4, page[1].ChangeQty)

	last, _, err := repo.FindByProduct(t.Context(), shopID, rice.ID, shared.Filter{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.EqualValues(t, 1, last[0].ChangeQty)
}

func TestGormStockMovementRepository_FindByReference(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockMovementRepository(db)
	shopID := uuid.New()
	rice := seedProduct(t, db, shopID, "RICE", "Rice", 10, 0)
	saleID := uuid.New()

	m, err := inventory.NewStockMovement(shopID, rice.ID, -2, inventory.ReasonSale)
	require.NoError(t, err)
	m.WithReference(inventory.ReferenceSale, saleID).WithMetadata(map[string]interface{}{"invoice_no": "INV-20240301-0001"})
	require.NoError(t, repo.Create(t.Context(), m))
	seedMovement(t, db, rice, 5, inventory.ReasonPurchase)

	found, err := repo.FindByReference(t.Context(), shopID, inventory.ReferenceSale, saleID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.EqualValues(t, -2, found[0].ChangeQty)
	assert.Equal(t, "INV-20240301-0001", found[0].Metadata.GetString("invoice_no"))
	require.NotNil(t, found[0].ReferenceID)
	assert.Equal(t, saleID, *found[0].ReferenceID)
}
