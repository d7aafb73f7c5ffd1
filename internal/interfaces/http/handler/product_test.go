package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	invapp "github.com/shopledger/backend/internal/application/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type productFixture struct {
	shopID   uuid.UUID
	userID   uuid.UUID
	commands *MockProductCommands
	queries  *MockProductQueries
	router   *gin.Engine
}

func newProductFixture() *productFixture {
	f := &productFixture{
		shopID:   uuid.New(),
		userID:   uuid.New(),
		commands: &MockProductCommands{},
		queries:  &MockProductQueries{},
	}
	h := NewProductHandler(f.commands, f.queries)
	h.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }

	r := newTestEngine(f.shopID, f.userID)
	g := r.Group("/products")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/summary", h.Summary)
	g.GET("/low-stock", h.LowStock)
	g.GET("/valuation", h.Valuation)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Deactivate)
	g.POST("/:id/adjust-stock", h.AdjustStock)
	g.POST("/:id/movements", h.RecordMovement)
	g.GET("/:id/movements", h.Movements)
	g.GET("/:id/stock", h.Stock)
	f.router = r
	return f
}

func TestProductHandler_Create(t *testing.T) {
	f := newProductFixture()
	created := &invapp.ProductResponse{ID: uuid.New(), SKU: "TEA-250", Name: "Assam Tea 250g", CurrentStock: 24}

	f.commands.On("Create", mock.Anything, f.shopID, f.userID, mock.MatchedBy(func(req invapp.CreateProductRequest) bool {
		return req.SKU == "TEA-250" && req.PriceMRP.Equal(decimal.RequireFromString("145.00")) && req.InitialStock == 24
	})).Return(created, nil)

	w := doJSON(f.router, http.MethodPost, "/products", map[string]any{
		"sku":           "TEA-250",
		"name":          "Assam Tea 250g",
		"price_mrp":     "145.00",
		"cost_price":    "110.00",
		"initial_stock": 24,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var got invapp.ProductResponse
	decodeData(t, w, &got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, int64(24), got.CurrentStock)
	f.commands.AssertExpectations(t)
}

func TestProductHandler_Create_Validation(t *testing.T) {
	f := newProductFixture()

	tests := []struct {
		name string
		body any
	}{
		{"missing sku", map[string]any{"name": "Tea"}},
		{"negative price", map[string]any{"sku": "A", "name": "Tea", "price_mrp": "-1"}},
		{"negative initial stock", map[string]any{"sku": "A", "name": "Tea", "initial_stock": -3}},
		{"malformed json", `{"sku":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(f.router, http.MethodPost, "/products", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "VALIDATION_ERROR", decodeResponse(t, w).Error.Code)
		})
	}
	f.commands.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProductHandler_Get(t *testing.T) {
	f := newProductFixture()
	id := uuid.New()

	f.commands.On("Get", mock.Anything, f.shopID, id).Return(nil, shared.NotFound("Product", id))

	w := doJSON(f.router, http.MethodGet, "/products/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(f.router, http.MethodGet, "/products/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", decodeResponse(t, w).Error.Code)
}

func TestProductHandler_List(t *testing.T) {
	f := newProductFixture()
	page := shared.NewPaginated([]invapp.ProductResponse{{SKU: "A"}, {SKU: "B"}}, 12, 2, 2)

	f.queries.On("ListProducts", mock.Anything, f.shopID, mock.MatchedBy(func(filter invapp.ProductListFilter) bool {
		return filter.Search == "tea" && filter.Page == 2 && filter.PageSize == 2 && filter.LowStock
	})).Return(page, nil)

	w := doJSON(f.router, http.MethodGet, "/products?search=tea&page=2&page_size=2&low_stock=true", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(12), resp.Meta.Total)
	assert.Equal(t, 6, resp.Meta.TotalPages)
}

func TestProductHandler_LowStock(t *testing.T) {
	f := newProductFixture()
	f.queries.On("LowStockProducts", mock.Anything, f.shopID).Return([]invapp.ProductResponse{{SKU: "LOW"}}, nil)
	f.queries.On("OutOfStockProducts", mock.Anything, f.shopID).Return([]invapp.ProductResponse(nil), nil)

	var low []invapp.ProductResponse
	decodeData(t, doJSON(f.router, http.MethodGet, "/products/low-stock", nil), &low)
	require.Len(t, low, 1)
	assert.Equal(t, "LOW", low[0].SKU)

	w := doJSON(f.router, http.MethodGet, "/products/low-stock?out_of_stock=true", nil)
	assert.JSONEq(t, `[]`, string(extractData(t, w)))
}

func TestProductHandler_SummaryUsesClock(t *testing.T) {
	f := newProductFixture()
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	f.queries.On("Summary", mock.Anything, f.shopID, now).
		Return(&invapp.InventorySummaryResponse{TotalProducts: 3, LowStock: 1}, nil)

	var got invapp.InventorySummaryResponse
	decodeData(t, doJSON(f.router, http.MethodGet, "/products/summary", nil), &got)
	assert.Equal(t, int64(3), got.TotalProducts)
}

func TestProductHandler_AdjustStock(t *testing.T) {
	f := newProductFixture()
	id := uuid.New()
	req := invapp.AdjustStockRequest{Quantity: 7, Reason: "Cycle count"}
	f.commands.On("AdjustStock", mock.Anything, f.shopID, f.userID, id, req).
		Return(&invapp.StockAdjustmentResponse{ProductID: id, OldQuantity: 10, NewQuantity: 7}, nil)

	var got invapp.StockAdjustmentResponse
	decodeData(t, doJSON(f.router, http.MethodPost, "/products/"+id.String()+"/adjust-stock", req), &got)
	assert.Equal(t, int64(10), got.OldQuantity)
	assert.Equal(t, int64(7), got.NewQuantity)

	w := doJSON(f.router, http.MethodPost, "/products/"+id.String()+"/adjust-stock", map[string]any{"quantity": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_RecordMovement(t *testing.T) {
	f := newProductFixture()
	id := uuid.New()
	f.commands.On("ReceiveStock", mock.Anything, f.shopID, f.userID, id, mock.MatchedBy(func(r invapp.ReceiveStockRequest) bool {
		return r.Quantity == 50 && r.Reason == "purchase"
	})).Return(&invapp.MovementResponse{ProductID: id, ChangeQty: 50, Reason: "purchase"}, nil)

	w := doJSON(f.router, http.MethodPost, "/products/"+id.String()+"/movements", map[string]any{"quantity": 50, "reason": "purchase"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(f.router, http.MethodPost, "/products/"+id.String()+"/movements", map[string]any{"quantity": 5, "reason": "sale"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "sale movements are written by the sales flow only")
}

func TestProductHandler_MovementsAndStock(t *testing.T) {
	f := newProductFixture()
	id := uuid.New()
	f.commands.On("History", mock.Anything, f.shopID, id, invapp.MovementListFilter{Page: 1, PageSize: 20}).
		Return(shared.NewPaginated([]invapp.MovementResponse{{ChangeQty: -2, Reason: "sale"}}, 1, 1, 20), nil)
	f.commands.On("Stock", mock.Anything, f.shopID, id).
		Return(&invapp.StockResponse{ProductID: id, CurrentStock: 8, ReorderThreshold: 10, IsLowStock: true}, nil)

	w := doJSON(f.router, http.MethodGet, "/products/"+id.String()+"/movements?page=1&page_size=20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decodeResponse(t, w).Meta.Total)

	var stock invapp.StockResponse
	decodeData(t, doJSON(f.router, http.MethodGet, "/products/"+id.String()+"/stock", nil), &stock)
	assert.Equal(t, int64(8), stock.CurrentStock)
	assert.True(t, stock.IsLowStock)
}

func TestProductHandler_UpdateAndDeactivate(t *testing.T) {
	f := newProductFixture()
	id := uuid.New()
	f.commands.On("Update", mock.Anything, f.shopID, f.userID, id, mock.MatchedBy(func(r invapp.UpdateProductRequest) bool {
		return r.Name != nil && *r.Name == "Darjeeling 250g" && r.PriceMRP == nil
	})).Return(&invapp.ProductResponse{ID: id, Name: "Darjeeling 250g"}, nil)
	f.commands.On("Deactivate", mock.Anything, f.shopID, f.userID, id).Return(nil)

	w := doJSON(f.router, http.MethodPatch, "/products/"+id.String(), map[string]any{"name": "Darjeeling 250g"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(f.router, http.MethodDelete, "/products/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	f.commands.AssertExpectations(t)
}
