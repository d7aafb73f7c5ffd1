package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	appaudit "github.com/shopledger/backend/internal/application/audit"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
)

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// MockAuditLogger records audit entries
type MockAuditLogger struct {
	mu      sync.Mutex
	entries []appaudit.Entry
}

func (m *MockAuditLogger) LogAction(_ context.Context, entry appaudit.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

func (m *MockAuditLogger) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, shopID, id uuid.UUID) (*inventory.Product, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDForUpdate(ctx context.Context, shopID, id uuid.UUID) (*inventory.Product, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) ([]inventory.Product, error) {
	args := m.Called(ctx, shopID, ids)
	return args.Get(0).([]inventory.Product), args.Error(1)
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, shopID uuid.UUID, sku string) (bool, error) {
	args := m.Called(ctx, shopID, sku)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, shopID uuid.UUID, filter inventory.ProductFilter) ([]inventory.Product, int64, error) {
	args := m.Called(ctx, shopID, filter)
	return args.Get(0).([]inventory.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) FindActive(ctx context.Context, shopID uuid.UUID) ([]inventory.Product, error) {
	args := m.Called(ctx, shopID)
	return args.Get(0).([]inventory.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *inventory.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Save(ctx context.Context, product *inventory.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateCachedStock(ctx context.Context, product *inventory.Product, stock int64) error {
	args := m.Called(ctx, product, stock)
	if args.Error(0) == nil {
		product.CurrentStock = stock
		product.Version++
	}
	return args.Error(0)
}

func (m *MockProductRepository) CountForShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	args := m.Called(ctx, shopID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) CountCreatedSince(ctx context.Context, shopID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, shopID, since)
	return args.Get(0).(int64), args.Error(1)
}

// MockStockMovementRepository is a mock implementation of StockMovementRepository
type MockStockMovementRepository struct {
	mock.Mock
}

func (m *MockStockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockStockMovementRepository) SumChangeQty(ctx context.Context, shopID, productID uuid.UUID) (int64, error) {
	args := m.Called(ctx, shopID, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockMovementRepository) SumChangeQtyByProducts(ctx context.Context, shopID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	args := m.Called(ctx, shopID, productIDs)
	return args.Get(0).(map[uuid.UUID]int64), args.Error(1)
}

func (m *MockStockMovementRepository) FindByProduct(ctx context.Context, shopID, productID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	args := m.Called(ctx, shopID, productID, filter)
	return args.Get(0).([]inventory.StockMovement), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockMovementRepository) FindByReference(ctx context.Context, shopID uuid.UUID, refType string, refID uuid.UUID) ([]inventory.StockMovement, error) {
	args := m.Called(ctx, shopID, refType, refID)
	return args.Get(0).([]inventory.StockMovement), args.Error(1)
}

func (m *MockStockMovementRepository) CountForShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	args := m.Called(ctx, shopID)
	return args.Get(0).(int64), args.Error(1)
}
