package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/report"
	"github.com/shopledger/backend/internal/domain/gst"
)

// GSTOperations is what the GST endpoints need from the report service
type GSTOperations interface {
	Summary(ctx context.Context, shopID uuid.UUID, f report.PeriodFilter) (*report.Summary, error)
	Report(ctx context.Context, shopID uuid.UUID, f report.PeriodFilter) (*report.Report, error)
	CreateInvoice(ctx context.Context, shopID, saleID, issuedBy uuid.UUID) (*report.InvoiceResponse, bool, error)
	Calculate(req report.CalculateRequest) (gst.Breakdown, error)
}

// GSTHandler handles GST reporting endpoints
type GSTHandler struct {
	BaseHandler
	gst GSTOperations
}

// NewGSTHandler creates a new GSTHandler
func NewGSTHandler(gst GSTOperations) *GSTHandler {
	return &GSTHandler{gst: gst}
}

// Summary godoc
// @Summary      GST position of a period
// @Tags         gst
// @Produce      json
// @Param        start_date query string false "YYYY-MM-DD, defaults to the first of the month"
// @Param        end_date query string false "YYYY-MM-DD, defaults to today"
// @Success      200 {object} dto.Response{data=report.Summary}
// @Security     BearerAuth
// @Router       /gst/summary [get]
func (h *GSTHandler) Summary(c *gin.Context) {
	shopID, _, ok := h.caller(c)
	if !ok {
		return
	}

	var f report.PeriodFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		h.BindError(c, err)
		return
	}

	summary, err := h.gst.Summary(c.Request.Context(), shopID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Report godoc
// @Summary      Per-invoice GST report of a period
// @Tags         gst
// @Produce      json
// @Param        start_date query string false "YYYY-MM-DD"
// @Param        end_date query string false "YYYY-MM-DD"
// @Success      200 {object} dto.Response{data=report.Report}
// @Security     BearerAuth
// @Router       /gst/report [get]
func (h *GSTHandler) Report(c *gin.Context) {
	shopID, _, ok := h.caller(c)
	if !ok {
		return
	}

	var f report.PeriodFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		h.BindError(c, err)
		return
	}

	rep, err := h.gst.Report(c.Request.Context(), shopID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rep)
}

// Calculate godoc
// @Summary      Split an amount into CGST/SGST or IGST
// @Tags         gst
// @Accept       json
// @Produce      json
// @Param        request body report.CalculateRequest true "Amount and rate"
// @Success      200 {object} dto.Response{data=gst.Breakdown}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /gst/calculate [post]
func (h *GSTHandler) Calculate(c *gin.Context) {
	var req report.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	breakdown, err := h.gst.Calculate(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, breakdown)
}

// CreateInvoice godoc
// @Summary      Issue the invoice record of a sale
// @Description  Idempotent: a second call returns the existing record with 200
// @Tags         gst
// @Produce      json
// @Param        sale_id path string true "Sale ID" format(uuid)
// @Success      201 {object} dto.Response{data=report.InvoiceResponse}
// @Success      200 {object} dto.Response{data=report.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /gst/invoices/{sale_id} [post]
func (h *GSTHandler) CreateInvoice(c *gin.Context) {
	shopID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "sale_id", "sale")
	if !ok {
		return
	}

	invoice, created, err := h.gst.CreateInvoice(c.Request.Context(), shopID, saleID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if created {
		h.Created(c, invoice)
		return
	}
	h.Success(c, invoice)
}
