package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormProductRepository_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	shopID := uuid.New()

	p := seedProduct(t, db, shopID, "SKU-1", "Basmati Rice 5kg", 300, 5)

	found, err := repo.FindByID(t.Context(), shopID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Basmati Rice 5kg", found.Name)
	assert.True(t, found.CostPrice.Equal(decimal.NewFromInt(300)))
	assert.EqualValues(t, 5, found.ReorderThreshold)
	assert.True(t, found.IsActive)

	locked, err := repo.FindByIDForUpdate(t.Context(), shopID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, locked.ID)

	_, err = repo.FindByID(t.Context(), uuid.New(), p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductRepository_DuplicateSKU(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	shopID := uuid.New()
	seedProduct(t, db, shopID, "SKU-1", "Rice", 10, 0)

	dup, err := inventory.NewProduct(shopID, "SKU-1", "Other rice", decimal.NewFromInt(20), decimal.NewFromInt(10))
	require.NoError(t, err)
	err = repo.Create(t.Context(), dup)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	exists, err := repo.ExistsBySKU(t.Context(), shopID, "SKU-1")
	require.NoError(t, err)
	assert.True(t, exists)

	// The same SKU is free in another shop.
	seedProduct(t, db, uuid.New(), "SKU-1", "Rice", 10, 0)
}

func TestGormProductRepository_SaveVersionCheck(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	shopID := uuid.New()
	p := seedProduct(t, db, shopID, "SKU-1", "Rice", 10, 0)

	stale := *p
	require.NoError(t, p.Rename("Brown rice"))
	require.NoError(t, repo.Save(t.Context(), p))
	assert.Equal(t, 2, p.Version)

	require.NoError(t, stale.Rename("White rice"))
	err := repo.Save(t.Context(), &stale)
	assert.True(t, shared.IsConflict(err))

	found, err := repo.FindByID(t.Context(), shopID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brown rice", found.Name)
}

func TestGormProductRepository_UpdateCachedStock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	shopID := uuid.New()
	p := seedProduct(t, db, shopID, "SKU-1", "Rice", 10, 0)

	require.NoError(t, repo.UpdateCachedStock(t.Context(), p, 42))
	assert.EqualValues(t, 42, p.CurrentStock)
	assert.Equal(t, 2, p.Version)

	found, err := repo.FindByID(t.Context(), shopID, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 42, found.CurrentStock)

	// A descriptive save never writes the cache.
	found.CurrentStock = 999
	require.NoError(t, repo.Save(t.Context(), found))
	again, err := repo.FindByID(t.Context(), shopID, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 42, again.CurrentStock)

	err = repo.UpdateCachedStock(t.Context(), p, 1)
	assert.True(t, shared.IsConflict(err), "p still carries version 2")
}

func TestGormProductRepository_FindAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	shopID := uuid.New()

	rice := seedProduct(t, db, shopID, "RICE-5", "Basmati Rice", 300, 5)
	oil := seedProduct(t, db, shopID, "OIL-1", "Sunflower Oil", 150, 2)
	soap := seedProduct(t, db, shopID, "SOAP-1", "Neem Soap", 20, 10)
	seedProduct(t, db, uuid.New(), "RICE-5", "Other shop rice", 300, 5)

	seedMovement(t, db, rice, 10, inventory.ReasonPurchase)
	seedMovement(t, db, oil, 2, inventory.ReasonPurchase)
	// soap has no movements and a cached stock that disagrees with the ledger
	require.NoError(t, repo.UpdateCachedStock(t.Context(), soap, 50))

	soap.Deactivate()
	require.NoError(t, repo.Save(t.Context(), soap))

	t.Run("all products of the shop", func(t *testing.T) {
		list, total, err := repo.FindAll(t.Context(), shopID, inventory.ProductFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, list, 3)
	})

	t.Run("search matches sku case-insensitively", func(t *testing.T) {
		list, total, err := repo.FindAll(t.Context(), shopID, inventory.ProductFilter{Filter: shared.Filter{Search: "rice-"}})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, rice.ID, list[0].ID)
	})

	t.Run("active only", func(t *testing.T) {
		active := true
		_, total, err := repo.FindAll(t.Context(), shopID, inventory.ProductFilter{Active: &active})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})

	t.Run("low stock uses the ledger", func(t *testing.T) {
		list, total, err := repo.FindAll(t.Context(), shopID, inventory.ProductFilter{
			Filter:       shared.Filter{OrderBy: "name", OrderDir: "asc"},
			LowStockOnly: true,
		})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Equal(t, "Neem Soap", list[0].Name)
		assert.Equal(t, "Sunflower Oil", list[1].Name)
	})

	t.Run("pagination", func(t *testing.T) {
		list, total, err := repo.FindAll(t.Context(), shopID, inventory.ProductFilter{
			Filter: shared.Filter{Page: 2, PageSize: 2, OrderBy: "sku", OrderDir: "asc"},
		})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, list, 1)
		assert.Equal(t, "SOAP-1", list[0].SKU)
	})

	t.Run("unknown sort field falls back", func(t *testing.T) {
		_, _, err := repo.FindAll(t.Context(), shopID, inventory.ProductFilter{
			Filter: shared.Filter{OrderBy: "name; DROP TABLE products"},
		})
		require.NoError(t, err)
	})

	t.Run("find active and by ids", func(t *testing.T) {
		active, err := repo.FindActive(t.Context(), shopID)
		require.NoError(t, err)
		assert.Len(t, active, 2)

		byIDs, err := repo.FindByIDs(t.Context(), shopID, []uuid.UUID{rice.ID, oil.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, byIDs, 2)

		none, err := repo.FindByIDs(t.Context(), shopID, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestGormProductRepository_Counts(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	shopID := uuid.New()

	old := seedProduct(t, db, shopID, "OLD", "Old", 1, 0)
	require.NoError(t, db.Model(old).Update("created_at", time.Now().AddDate(0, -2, 0)).Error)
	seedProduct(t, db, shopID, "NEW", "New", 1, 0)

	total, err := repo.CountForShop(t.Context(), shopID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	recent, err := repo.CountCreatedSince(t.Context(), shopID, time.Now().AddDate(0, -1, 0))
	require.NoError(t, err)
	assert.EqualValues(t, 1, recent)
}
