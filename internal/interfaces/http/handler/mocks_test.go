package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	appaudit "github.com/shopledger/backend/internal/application/audit"
	invapp "github.com/shopledger/backend/internal/application/inventory"
	"github.com/shopledger/backend/internal/application/report"
	salesapp "github.com/shopledger/backend/internal/application/sales"
	"github.com/shopledger/backend/internal/domain/audit"
	"github.com/shopledger/backend/internal/domain/gst"
	"github.com/shopledger/backend/internal/domain/sales"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockProductCommands implements ProductCommands for testing
type MockProductCommands struct {
	mock.Mock
}

func (m *MockProductCommands) Create(ctx context.Context, shopID, userID uuid.UUID, req invapp.CreateProductRequest) (*invapp.ProductResponse, error) {
	args := m.Called(ctx, shopID, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.ProductResponse), args.Error(1)
}

func (m *MockProductCommands) Get(ctx context.Context, shopID, id uuid.UUID) (*invapp.ProductResponse, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.ProductResponse), args.Error(1)
}

func (m *MockProductCommands) Update(ctx context.Context, shopID, userID, id uuid.UUID, req invapp.UpdateProductRequest) (*invapp.ProductResponse, error) {
	args := m.Called(ctx, shopID, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.ProductResponse), args.Error(1)
}

func (m *MockProductCommands) Deactivate(ctx context.Context, shopID, userID, id uuid.UUID) error {
	return m.Called(ctx, shopID, userID, id).Error(0)
}

func (m *MockProductCommands) AdjustStock(ctx context.Context, shopID, userID, id uuid.UUID, req invapp.AdjustStockRequest) (*invapp.StockAdjustmentResponse, error) {
	args := m.Called(ctx, shopID, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.StockAdjustmentResponse), args.Error(1)
}

func (m *MockProductCommands) ReceiveStock(ctx context.Context, shopID, userID, id uuid.UUID, req invapp.ReceiveStockRequest) (*invapp.MovementResponse, error) {
	args := m.Called(ctx, shopID, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.MovementResponse), args.Error(1)
}

func (m *MockProductCommands) Stock(ctx context.Context, shopID, id uuid.UUID) (*invapp.StockResponse, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.StockResponse), args.Error(1)
}

func (m *MockProductCommands) History(ctx context.Context, shopID, id uuid.UUID, filter invapp.MovementListFilter) (shared.Paginated[invapp.MovementResponse], error) {
	args := m.Called(ctx, shopID, id, filter)
	return args.Get(0).(shared.Paginated[invapp.MovementResponse]), args.Error(1)
}

// MockProductQueries implements ProductQueries for testing
type MockProductQueries struct {
	mock.Mock
}

func (m *MockProductQueries) ListProducts(ctx context.Context, shopID uuid.UUID, filter invapp.ProductListFilter) (shared.Paginated[invapp.ProductResponse], error) {
	args := m.Called(ctx, shopID, filter)
	return args.Get(0).(shared.Paginated[invapp.ProductResponse]), args.Error(1)
}

func (m *MockProductQueries) LowStockProducts(ctx context.Context, shopID uuid.UUID) ([]invapp.ProductResponse, error) {
	args := m.Called(ctx, shopID)
	return args.Get(0).([]invapp.ProductResponse), args.Error(1)
}

func (m *MockProductQueries) OutOfStockProducts(ctx context.Context, shopID uuid.UUID) ([]invapp.ProductResponse, error) {
	args := m.Called(ctx, shopID)
	return args.Get(0).([]invapp.ProductResponse), args.Error(1)
}

func (m *MockProductQueries) Valuation(ctx context.Context, shopID uuid.UUID) (*invapp.ValuationResponse, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.ValuationResponse), args.Error(1)
}

func (m *MockProductQueries) Summary(ctx context.Context, shopID uuid.UUID, now time.Time) (*invapp.InventorySummaryResponse, error) {
	args := m.Called(ctx, shopID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.InventorySummaryResponse), args.Error(1)
}

// MockSaleOperations implements SaleOperations for testing
type MockSaleOperations struct {
	mock.Mock
}

func (m *MockSaleOperations) saleResult(args mock.Arguments) (*salesapp.SaleResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.SaleResponse), args.Error(1)
}

func (m *MockSaleOperations) CreateSale(ctx context.Context, shopID, userID uuid.UUID, in salesapp.CreateSaleInput) (*salesapp.SaleResponse, error) {
	return m.saleResult(m.Called(ctx, shopID, userID, in))
}

func (m *MockSaleOperations) VoidSale(ctx context.Context, shopID, saleID, userID uuid.UUID) (*salesapp.SaleResponse, error) {
	return m.saleResult(m.Called(ctx, shopID, saleID, userID))
}

func (m *MockSaleOperations) RefundSale(ctx context.Context, shopID, saleID, userID uuid.UUID, in salesapp.RefundInput) (*salesapp.SaleResponse, error) {
	return m.saleResult(m.Called(ctx, shopID, saleID, userID, in))
}

func (m *MockSaleOperations) UpdateSale(ctx context.Context, shopID, saleID, userID uuid.UUID, in salesapp.UpdateSaleInput) (*salesapp.SaleResponse, error) {
	return m.saleResult(m.Called(ctx, shopID, saleID, userID, in))
}

func (m *MockSaleOperations) GetSale(ctx context.Context, shopID, saleID uuid.UUID) (*salesapp.SaleResponse, error) {
	return m.saleResult(m.Called(ctx, shopID, saleID))
}

func (m *MockSaleOperations) ListSales(ctx context.Context, shopID uuid.UUID, f salesapp.ListSalesFilter) (shared.Paginated[salesapp.SaleListItemResponse], error) {
	args := m.Called(ctx, shopID, f)
	return args.Get(0).(shared.Paginated[salesapp.SaleListItemResponse]), args.Error(1)
}

func (m *MockSaleOperations) PaymentStats(ctx context.Context, shopID uuid.UUID, from, to *time.Time) ([]sales.PaymentStat, error) {
	args := m.Called(ctx, shopID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.PaymentStat), args.Error(1)
}

func (m *MockSaleOperations) PaymentMethods() []sales.PaymentMethod {
	return m.Called().Get(0).([]sales.PaymentMethod)
}

// MockGSTOperations implements GSTOperations for testing
type MockGSTOperations struct {
	mock.Mock
}

func (m *MockGSTOperations) Summary(ctx context.Context, shopID uuid.UUID, f report.PeriodFilter) (*report.Summary, error) {
	args := m.Called(ctx, shopID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Summary), args.Error(1)
}

func (m *MockGSTOperations) Report(ctx context.Context, shopID uuid.UUID, f report.PeriodFilter) (*report.Report, error) {
	args := m.Called(ctx, shopID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Report), args.Error(1)
}

func (m *MockGSTOperations) CreateInvoice(ctx context.Context, shopID, saleID, issuedBy uuid.UUID) (*report.InvoiceResponse, bool, error) {
	args := m.Called(ctx, shopID, saleID, issuedBy)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*report.InvoiceResponse), args.Bool(1), args.Error(2)
}

func (m *MockGSTOperations) Calculate(req report.CalculateRequest) (gst.Breakdown, error) {
	args := m.Called(req)
	return args.Get(0).(gst.Breakdown), args.Error(1)
}

// MockAuditReader implements AuditReader for testing
type MockAuditReader struct {
	mock.Mock
}

func (m *MockAuditReader) List(ctx context.Context, shopID uuid.UUID, filter appaudit.ListFilter) (shared.Paginated[audit.AuditLog], error) {
	args := m.Called(ctx, shopID, filter)
	return args.Get(0).(shared.Paginated[audit.AuditLog]), args.Error(1)
}
