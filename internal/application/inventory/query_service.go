package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
)

// QueryService serves read models whose stock figures come from the ledger
type QueryService struct {
	products  inventory.ProductRepository
	movements inventory.StockMovementRepository
}

// NewQueryService creates a new QueryService
func NewQueryService(products inventory.ProductRepository, movements inventory.StockMovementRepository) *QueryService {
	return &QueryService{products: products, movements: movements}
}

// freshStocks loads ledger balances for all products in one grouped query
func (q *QueryService) freshStocks(ctx context.Context, shopID uuid.UUID, products []inventory.Product) (map[uuid.UUID]int64, error) {
	if len(products) == 0 {
		return map[uuid.UUID]int64{}, nil
	}
	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	return q.movements.SumChangeQtyByProducts(ctx, shopID, ids)
}

func (q *QueryService) toResponses(ctx context.Context, shopID uuid.UUID, products []inventory.Product, keep func(p *inventory.Product, stock int64) bool) ([]ProductResponse, error) {
	stocks, err := q.freshStocks(ctx, shopID, products)
	if err != nil {
		return nil, err
	}
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		stock := stocks[products[i].ID]
		if keep != nil && !keep(&products[i], stock) {
			continue
		}
		out = append(out, ToProductResponse(&products[i], stock))
	}
	return out, nil
}

// ListProducts lists products with ledger-computed stock
func (q *QueryService) ListProducts(ctx context.Context, shopID uuid.UUID, filter ProductListFilter) (shared.Paginated[ProductResponse], error) {
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	f := inventory.ProductFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  orderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		}.Normalize(),
		Active:       filter.Active,
		LowStockOnly: filter.LowStock,
	}

	products, total, err := q.products.FindAll(ctx, shopID, f)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	items, err := q.toResponses(ctx, shopID, products, nil)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// LowStockProducts returns active products at or below their threshold, empty ones included
func (q *QueryService) LowStockProducts(ctx context.Context, shopID uuid.UUID) ([]ProductResponse, error) {
	products, err := q.products.FindActive(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return q.toResponses(ctx, shopID, products, func(p *inventory.Product, stock int64) bool {
		return p.IsLowStockAt(stock)
	})
}

// OutOfStockProducts returns active products with zero or negative stock
func (q *QueryService) OutOfStockProducts(ctx context.Context, shopID uuid.UUID) ([]ProductResponse, error) {
	products, err := q.products.FindActive(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return q.toResponses(ctx, shopID, products, func(_ *inventory.Product, stock int64) bool {
		return inventory.IsOutOfStock(stock)
	})
}

// Valuation sums stock times cost price over active products
func (q *QueryService) Valuation(ctx context.Context, shopID uuid.UUID) (*ValuationResponse, error) {
	products, err := q.products.FindActive(ctx, shopID)
	if err != nil {
		return nil, err
	}
	stocks, err := q.freshStocks(ctx, shopID, products)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	var units int64
	for i := range products {
		stock := stocks[products[i].ID]
		units += stock
		total = total.Add(inventory.Valuation(stock, products[i].CostPrice))
	}
	return &ValuationResponse{
		TotalValue:   total.Round(2),
		ProductCount: len(products),
		TotalUnits:   units,
	}, nil
}

// Summary returns the stock dashboard of a shop as of now
func (q *QueryService) Summary(ctx context.Context, shopID uuid.UUID, now time.Time) (*InventorySummaryResponse, error) {
	total, err := q.products.CountForShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	newThisMonth, err := q.products.CountCreatedSince(ctx, shopID, monthStart)
	if err != nil {
		return nil, err
	}

	products, err := q.products.FindActive(ctx, shopID)
	if err != nil {
		return nil, err
	}
	stocks, err := q.freshStocks(ctx, shopID, products)
	if err != nil {
		return nil, err
	}

	summary := &InventorySummaryResponse{
		TotalProducts:   total,
		TotalStockValue: decimal.Zero,
		NewThisMonth:    newThisMonth,
	}
	for i := range products {
		stock := stocks[products[i].ID]
		switch {
		case inventory.IsOutOfStock(stock):
			summary.OutOfStock++
		case products[i].IsLowStockAt(stock):
			summary.LowStock++
			summary.InStock++
		default:
			summary.InStock++
		}
		summary.TotalStockValue = summary.TotalStockValue.Add(inventory.Valuation(stock, products[i].CostPrice))
	}
	summary.TotalStockValue = summary.TotalStockValue.Round(2)
	return summary, nil
}
