package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	salesapp "github.com/shopledger/backend/internal/application/sales"
	"github.com/shopledger/backend/internal/domain/sales"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
)

// SaleOperations is what the sale endpoints need from the sales service
type SaleOperations interface {
	CreateSale(ctx context.Context, shopID, userID uuid.UUID, in salesapp.CreateSaleInput) (*salesapp.SaleResponse, error)
	VoidSale(ctx context.Context, shopID, saleID, userID uuid.UUID) (*salesapp.SaleResponse, error)
	RefundSale(ctx context.Context, shopID, saleID, userID uuid.UUID, in salesapp.RefundInput) (*salesapp.SaleResponse, error)
	UpdateSale(ctx context.Context, shopID, saleID, userID uuid.UUID, in salesapp.UpdateSaleInput) (*salesapp.SaleResponse, error)
	GetSale(ctx context.Context, shopID, saleID uuid.UUID) (*salesapp.SaleResponse, error)
	ListSales(ctx context.Context, shopID uuid.UUID, f salesapp.ListSalesFilter) (shared.Paginated[salesapp.SaleListItemResponse], error)
	PaymentStats(ctx context.Context, shopID uuid.UUID, from, to *time.Time) ([]sales.PaymentStat, error)
	PaymentMethods() []sales.PaymentMethod
}

// dateRangeQuery is an optional start_date/end_date pair
type dateRangeQuery struct {
	From *time.Time `form:"start_date" time_format:"2006-01-02"`
	To   *time.Time `form:"end_date" time_format:"2006-01-02"`
}

// SaleHandler handles point-of-sale endpoints
type SaleHandler struct {
	BaseHandler
	sales SaleOperations
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(sales SaleOperations) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// Create godoc
// @Summary      Record a sale
// @Description  Validates stock, writes the sale with its lines and the matching ledger entries in one transaction
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body salesapp.CreateSaleInput true "Sale"
// @Success      201 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	shopID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	var in salesapp.CreateSaleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}

	sale, err := h.sales.CreateSale(c.Request.Context(), shopID, userID, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// List godoc
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Param        start_date query string false "YYYY-MM-DD"
// @Param        end_date query string false "YYYY-MM-DD"
// @Param        payment_type query string false "Payment type"
// @Param        status query string false "Status"
// @Param        search query string false "Invoice number or customer"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]salesapp.SaleListItemResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	shopID, _, ok := h.caller(c)
	if !ok {
		return
	}

	var filter salesapp.ListSalesFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.sales.ListSales(c.Request.Context(), shopID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// Get godoc
// @Summary      Get a sale with its lines
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id} [get]
func (h *SaleHandler) Get(c *gin.Context) {
	shopID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "sale")
	if !ok {
		return
	}

	sale, err := h.sales.GetSale(c.Request.Context(), shopID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Update godoc
// @Summary      Update sale header fields
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body salesapp.UpdateSaleInput true "Changed fields"
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id} [patch]
func (h *SaleHandler) Update(c *gin.Context) {
	shopID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "sale")
	if !ok {
		return
	}

	var in salesapp.UpdateSaleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}

	sale, err := h.sales.UpdateSale(c.Request.Context(), shopID, id, userID, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Void godoc
// @Summary      Void a sale and return its stock
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/void [post]
func (h *SaleHandler) Void(c *gin.Context) {
	shopID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "sale")
	if !ok {
		return
	}

	sale, err := h.sales.VoidSale(c.Request.Context(), shopID, id, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Refund godoc
// @Summary      Refund all or some lines of a sale
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body salesapp.RefundInput true "Refund"
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/refund [post]
func (h *SaleHandler) Refund(c *gin.Context) {
	shopID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "sale")
	if !ok {
		return
	}

	var in salesapp.RefundInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}

	sale, err := h.sales.RefundSale(c.Request.Context(), shopID, id, userID, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// PaymentMethods godoc
// @Summary      Accepted payment methods
// @Tags         sales
// @Produce      json
// @Success      200 {object} dto.Response{data=[]sales.PaymentMethod}
// @Security     BearerAuth
// @Router       /sales/payment-methods [get]
func (h *SaleHandler) PaymentMethods(c *gin.Context) {
	h.Success(c, h.sales.PaymentMethods())
}

// PaymentStats godoc
// @Summary      Sale count and value per payment type
// @Tags         sales
// @Produce      json
// @Param        start_date query string false "YYYY-MM-DD"
// @Param        end_date query string false "YYYY-MM-DD"
// @Success      200 {object} dto.Response{data=[]sales.PaymentStat}
// @Security     BearerAuth
// @Router       /sales/payment-stats [get]
func (h *SaleHandler) PaymentStats(c *gin.Context) {
	shopID, _, ok := h.caller(c)
	if !ok {
		return
	}

	var q dateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	stats, err := h.sales.PaymentStats(c.Request.Context(), shopID, q.From, q.To)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if stats == nil {
		stats = []sales.PaymentStat{}
	}
	h.Success(c, stats)
}
