package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	invapp "github.com/shopledger/backend/internal/application/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
)

// ProductCommands is the write side of the product API
type ProductCommands interface {
	Create(ctx context.Context, shopID, userID uuid.UUID, req invapp.CreateProductRequest) (*invapp.ProductResponse, error)
	Get(ctx context.Context, shopID, id uuid.UUID) (*invapp.ProductResponse, error)
	Update(ctx context.Context, shopID, userID, id uuid.UUID, req invapp.UpdateProductRequest) (*invapp.ProductResponse, error)
	Deactivate(ctx context.Context, shopID, userID, id uuid.UUID) error
	AdjustStock(ctx context.Context, shopID, userID, id uuid.UUID, req invapp.AdjustStockRequest) (*invapp.StockAdjustmentResponse, error)
	ReceiveStock(ctx context.Context, shopID, userID, id uuid.UUID, req invapp.ReceiveStockRequest) (*invapp.MovementResponse, error)
	Stock(ctx context.Context, shopID, id uuid.UUID) (*invapp.StockResponse, error)
	History(ctx context.Context, shopID, id uuid.UUID, filter invapp.MovementListFilter) (shared.Paginated[invapp.MovementResponse], error)
}

// ProductQueries is the read side of the product API
type ProductQueries interface {
	ListProducts(ctx context.Context, shopID uuid.UUID, filter invapp.ProductListFilter) (shared.Paginated[invapp.ProductResponse], error)
	LowStockProducts(ctx context.Context, shopID uuid.UUID) ([]invapp.ProductResponse, error)
	OutOfStockProducts(ctx context.Context, shopID uuid.UUID) ([]invapp.ProductResponse, error)
	Valuation(ctx context.Context, shopID uuid.UUID) (*invapp.ValuationResponse, error)
	Summary(ctx context.Context, shopID uuid.UUID, now time.Time) (*invapp.InventorySummaryResponse, error)
}

// ProductHandler handles product and stock endpoints
type ProductHandler struct {
	BaseHandler
	commands ProductCommands
	queries  ProductQueries
	now      func() time.Time
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(commands ProductCommands, queries ProductQueries) *ProductHandler {
	return &ProductHandler{commands: commands, queries: queries, now: time.Now}
}

// Create godoc
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body invapp.CreateProductRequest true "Product"
// @Success      201 {object} dto.Response{data=invapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	shopID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	var req invapp.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.commands.Create(c.Request.Context(), shopID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// List godoc
// @Summary      List products with ledger stock
// @Tags         products
// @Produce      json
// @Param        search query string false "Name, SKU or barcode"
// @Param        active query bool false "Active flag"
// @Param        low_stock query bool false "Only low stock"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]invapp.ProductResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	shopID, _, ok := h.caller(c)
	if !ok {
		return
	}

	var filter invapp.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.queries.ListProducts(c.Request.Context(), shopID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// Summary godoc
// @Summary      Inventory summary
// @Tags         products
// @Produce      json
// @Success      200 {object} dto.Response{data=invapp.InventorySummaryResponse}
// @Security     BearerAuth
// @Router       /products/summary [get]
func (h *ProductHandler) Summary(c *gin.Context) {
	shopID, _, ok := h.caller(c)
	if !ok {
		return
	}

	summary, err := h.queries.Summary(c.Request.Context(), shopID, h.now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// LowStock godoc
// @Summary      Products at or below their reorder threshold
// @Tags         products
// @Produce      json
// @Param        out_of_stock query bool false "Only products with no stock"
// @Success      200 {object} dto.Response{data=[]invapp.ProductResponse}
// @Security     BearerAuth
// @Router       /products/low-stock [get]
func (h *ProductHandler) LowStock(c *gin.Context) {
	shopID, _, ok := h.caller(c)
	if !ok {
		return
	}

	var (
		products []invapp.ProductResponse
		err      error
	)
	if c.Query("out_of_stock") == "true" {
		products, err = h.queries.OutOfStockProducts(c.Request.Context(), shopID)
	} else {
		products, err = h.queries.LowStockProducts(c.Request.Context(), shopID)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if products == nil {
		products = []invapp.ProductResponse{}
	}
	h.Success(c, products)
}

// Valuation godoc
// @Summary      Stock value at cost
// @Tags         products
// @Produce      json
// @Success      200 {object} dto.Response{data=invapp.ValuationResponse}
// @Security     BearerAuth
// @Router       /products/valuation [get]
func (h *ProductHandler) Valuation(c *gin.Context) {
	shopID, _, ok := h.caller(c)
	if !ok {
		return
	}

	valuation, err := h.queries.Valuation(c.Request.Context(), shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, valuation)
}

// Get godoc
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=invapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	shopID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.commands.Get(c.Request.Context(), shopID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Update godoc
// @Summary      Update a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body invapp.UpdateProductRequest true "Changed fields"
// @Success      200 {object} dto.Response{data=invapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [patch]
func (h *ProductHandler) Update(c *gin.Context) {
	shopID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "product")
	if !ok {
		return
	}

	var req invapp.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.commands.Update(c.Request.Context(), shopID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Deactivate godoc
// @Summary      Deactivate a product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [delete]
func (h *ProductHandler) Deactivate(c *gin.Context) {
	shopID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "product")
	if !ok {
		return
	}

	if err := h.commands.Deactivate(c.Request.Context(), shopID, userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": id, "is_active": false})
}

// AdjustStock godoc
// @Summary      Set stock to a counted quantity
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body invapp.AdjustStockRequest true "Counted quantity"
// @Success      200 {object} dto.Response{data=invapp.StockAdjustmentResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/adjust-stock [post]
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	shopID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "product")
	if !ok {
		return
	}

	var req invapp.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.commands.AdjustStock(c.Request.Context(), shopID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RecordMovement godoc
// @Summary      Record a purchase, correction or transfer
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body invapp.ReceiveStockRequest true "Movement"
// @Success      201 {object} dto.Response{data=invapp.MovementResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/movements [post]
func (h *ProductHandler) RecordMovement(c *gin.Context) {
	shopID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "product")
	if !ok {
		return
	}

	var req invapp.ReceiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	movement, err := h.commands.ReceiveStock(c.Request.Context(), shopID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// Movements godoc
// @Summary      Stock ledger of a product, newest first
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]invapp.MovementResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /products/{id}/movements [get]
func (h *ProductHandler) Movements(c *gin.Context) {
	shopID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "product")
	if !ok {
		return
	}

	var filter invapp.MovementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.commands.History(c.Request.Context(), shopID, id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// Stock godoc
// @Summary      Ledger-computed stock of a product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=invapp.StockResponse}
// @Security     BearerAuth
// @Router       /products/{id}/stock [get]
func (h *ProductHandler) Stock(c *gin.Context) {
	shopID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "product")
	if !ok {
		return
	}

	stock, err := h.commands.Stock(c.Request.Context(), shopID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stock)
}
