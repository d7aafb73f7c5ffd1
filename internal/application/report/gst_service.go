// Package report builds GST summaries and period reports from recorded sales.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appaudit "github.com/shopledger/backend/internal/application/audit"
	"github.com/shopledger/backend/internal/domain/audit"
	"github.com/shopledger/backend/internal/domain/gst"
	"github.com/shopledger/backend/internal/domain/sales"
	"github.com/shopledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Config holds report settings
type Config struct {
	// ShopGSTIN is printed on every report row; empty when the shop is unregistered
	ShopGSTIN string
	// Location is the business time zone used for period boundaries
	Location *time.Location
}

// PeriodFilter is a date range. Missing bounds default to month to date.
type PeriodFilter struct {
	From *time.Time `form:"start_date" time_format:"2006-01-02"`
	To   *time.Time `form:"end_date" time_format:"2006-01-02"`
}

// Summary is the GST position of a period
type Summary struct {
	TotalGSTCollected decimal.Decimal `json:"total_gst_collected"`
	TotalBaseAmount   decimal.Decimal `json:"total_base_amount"`
	GSTPayable        decimal.Decimal `json:"gst_payable"`
	GSTInputCredit    decimal.Decimal `json:"gst_input_credit"`
	PendingBills      int64           `json:"pending_bills"`
	CompletedBills    int64           `json:"completed_bills"`
	PeriodStart       time.Time       `json:"period_start"`
	PeriodEnd         time.Time       `json:"period_end"`
}

// ReportItem is one sale row of a GST report
type ReportItem struct {
	InvoiceNo    string          `json:"invoice_no"`
	Date         time.Time       `json:"date"`
	CustomerName string          `json:"customer_name,omitempty"`
	BaseAmount   decimal.Decimal `json:"base_amount"`
	CGST         decimal.Decimal `json:"cgst"`
	SGST         decimal.Decimal `json:"sgst"`
	IGST         decimal.Decimal `json:"igst"`
	TotalGST     decimal.Decimal `json:"total_gst"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	GSTNumber    string          `json:"gst_number,omitempty"`
}

// InvoiceResponse is an issued-invoice record
type InvoiceResponse struct {
	ID        uuid.UUID  `json:"id"`
	SaleID    uuid.UUID  `json:"sale_id"`
	InvoiceNo string     `json:"invoice_no"`
	PDFURL    *string    `json:"pdf_url"`
	IssuedBy  *uuid.UUID `json:"issued_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// Report is the detailed GST report of a period
type Report struct {
	Summary     Summary           `json:"summary"`
	Invoices    []InvoiceResponse `json:"invoices"`
	Items       []ReportItem      `json:"gst_items"`
	PeriodStart time.Time         `json:"period_start"`
	PeriodEnd   time.Time         `json:"period_end"`
}

// CalculateRequest is the input of the stateless calculator
type CalculateRequest struct {
	Amount     decimal.Decimal  `json:"amount" binding:"gte=0"`
	GSTRate    *decimal.Decimal `json:"gst_rate" binding:"omitempty,gte=0,lte=100"`
	Inclusive  bool             `json:"inclusive"`
	Interstate bool             `json:"interstate"`
}

// ToInvoiceResponse converts a domain invoice
func ToInvoiceResponse(inv *sales.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:        inv.ID,
		SaleID:    inv.SaleID,
		InvoiceNo: inv.InvoiceNo,
		PDFURL:    inv.PDFURL,
		IssuedBy:  inv.IssuedBy,
		CreatedAt: inv.CreatedAt,
	}
}

// GSTService reads tax totals from sales and issues invoice records
type GSTService struct {
	sales    sales.SaleRepository
	invoices sales.InvoiceRepository
	audit    appaudit.Logger
	logger   *zap.Logger
	cfg      Config
	now      func() time.Time
}

// NewGSTService creates a new GSTService
func NewGSTService(saleRepo sales.SaleRepository, invoiceRepo sales.InvoiceRepository, cfg Config, logger *zap.Logger) *GSTService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if formatted, ok := gst.FormatGSTIN(cfg.ShopGSTIN); ok {
		cfg.ShopGSTIN = formatted
	} else if cfg.ShopGSTIN != "" {
		logger.Warn("Ignoring malformed shop GSTIN", zap.String("gstin", cfg.ShopGSTIN))
		cfg.ShopGSTIN = ""
	}
	return &GSTService{
		sales:    saleRepo,
		invoices: invoiceRepo,
		audit:    appaudit.NopLogger{},
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetAuditLogger sets the audit logger
func (s *GSTService) SetAuditLogger(l appaudit.Logger) {
	if l != nil {
		s.audit = l
	}
}

// SetClock replaces the time source
func (s *GSTService) SetClock(now func() time.Time) {
	s.now = now
}

// period resolves the filter to [start of first day, end of last day]
func (s *GSTService) period(f PeriodFilter) (time.Time, time.Time, error) {
	today := s.now().In(s.cfg.Location)
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.cfg.Location)
	}

	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, s.cfg.Location)
	if f.From != nil {
		from = day(*f.From)
	}
	to := day(today)
	if f.To != nil {
		to = day(*f.To)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, shared.InvalidArgument("end_date must not be before start_date")
	}
	return from, to.Add(24*time.Hour - time.Nanosecond), nil
}

// Summary totals GST over every sale of the period that is not void
func (s *GSTService) Summary(ctx context.Context, shopID uuid.UUID, f PeriodFilter) (*Summary, error) {
	from, to, err := s.period(f)
	if err != nil {
		return nil, err
	}
	summary, _, err := s.summarize(ctx, shopID, from, to)
	return summary, err
}

func (s *GSTService) summarize(ctx context.Context, shopID uuid.UUID, from, to time.Time) (*Summary, []sales.Sale, error) {
	rows, err := s.sales.FindInPeriod(ctx, shopID, from, to, sales.SaleStatusVoid)
	if err != nil {
		return nil, nil, err
	}

	collected := decimal.Zero
	base := decimal.Zero
	for i := range rows {
		collected = collected.Add(rows[i].GSTBreakdown.TotalGST)
		base = base.Add(rows[i].GSTBreakdown.BaseAmount)
	}

	pending, err := s.sales.CountByStatus(ctx, shopID, from, to, sales.SaleStatusPending)
	if err != nil {
		return nil, nil, err
	}
	paid, err := s.sales.CountByStatus(ctx, shopID, from, to, sales.SaleStatusPaid)
	if err != nil {
		return nil, nil, err
	}

	collected = gst.Round(collected)
	return &Summary{
		TotalGSTCollected: collected,
		TotalBaseAmount:   gst.Round(base),
		GSTPayable:        collected,
		GSTInputCredit:    decimal.Zero,
		PendingBills:      pending,
		CompletedBills:    paid,
		PeriodStart:       from,
		PeriodEnd:         to,
	}, rows, nil
}

// Report lists the period's invoice records and one tax row per non-void sale
func (s *GSTService) Report(ctx context.Context, shopID uuid.UUID, f PeriodFilter) (*Report, error) {
	from, to, err := s.period(f)
	if err != nil {
		return nil, err
	}
	summary, rows, err := s.summarize(ctx, shopID, from, to)
	if err != nil {
		return nil, err
	}

	invoices, err := s.invoices.FindInPeriod(ctx, shopID, from, to)
	if err != nil {
		return nil, err
	}

	out := &Report{
		Summary:     *summary,
		Invoices:    make([]InvoiceResponse, len(invoices)),
		Items:       make([]ReportItem, len(rows)),
		PeriodStart: from,
		PeriodEnd:   to,
	}
	for i := range invoices {
		out.Invoices[i] = ToInvoiceResponse(&invoices[i])
	}
	for i := range rows {
		b := rows[i].GSTBreakdown
		out.Items[i] = ReportItem{
			InvoiceNo:    rows[i].InvoiceNo,
			Date:         rows[i].CreatedAt,
			CustomerName: rows[i].CustomerName(),
			BaseAmount:   b.BaseAmount,
			CGST:         b.CGST,
			SGST:         b.SGST,
			IGST:         b.IGST,
			TotalGST:     b.TotalGST,
			TotalAmount:  rows[i].TotalAmount,
			GSTNumber:    s.cfg.ShopGSTIN,
		}
	}
	return out, nil
}

// CreateInvoice issues the invoice record of a sale. A sale that already
// has one gets the existing record back.
func (s *GSTService) CreateInvoice(ctx context.Context, shopID, saleID, issuedBy uuid.UUID) (*InvoiceResponse, bool, error) {
	sale, err := s.sales.FindByID(ctx, shopID, saleID)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.invoices.FindBySaleID(ctx, shopID, saleID)
	if err == nil {
		resp := ToInvoiceResponse(existing)
		return &resp, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	invoice := sales.NewInvoice(sale, issuedBy)
	if err := s.invoices.Create(ctx, invoice); err != nil {
		if !shared.IsConflict(err) {
			return nil, false, err
		}
		// lost a race with a concurrent issue for the same sale
		existing, findErr := s.invoices.FindBySaleID(ctx, shopID, saleID)
		if findErr != nil {
			return nil, false, err
		}
		resp := ToInvoiceResponse(existing)
		return &resp, false, nil
	}

	s.logger.Info("Invoice issued",
		zap.String("sale_id", sale.ID.String()),
		zap.String("invoice_no", invoice.InvoiceNo))
	s.audit.LogAction(ctx, appaudit.Entry{
		ShopID:     shopID,
		UserID:     issuedBy,
		Action:     audit.ActionCreateInvoice,
		ObjectType: audit.ObjectInvoice,
		ObjectID:   invoice.ID,
		Payload: map[string]interface{}{
			"invoice_no": invoice.InvoiceNo,
			"sale_id":    sale.ID.String(),
		},
	})

	resp := ToInvoiceResponse(invoice)
	return &resp, true, nil
}

// Calculate runs the calculator without touching any sale
func (s *GSTService) Calculate(req CalculateRequest) (gst.Breakdown, error) {
	if req.Amount.IsNegative() {
		return gst.Breakdown{}, shared.InvalidArgument("Amount cannot be negative")
	}
	rate := gst.DefaultRate
	if req.GSTRate != nil {
		rate = *req.GSTRate
	}
	if !gst.IsValidRate(rate) {
		return gst.Breakdown{}, shared.InvalidArgument("GST rate must be between 0 and 100, got %s", rate.String())
	}
	return gst.CalculateWithSupply(req.Amount, rate, req.Inclusive, req.Interstate), nil
}
