package sales

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	appaudit "github.com/shopledger/backend/internal/application/audit"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/sales"
	"github.com/shopledger/backend/internal/domain/shared"
)

// memStore is an in-memory database whose scope rolls every table back
// when the transaction function fails.
type memStore struct {
	mu        sync.Mutex
	products  map[uuid.UUID]inventory.Product
	movements []inventory.StockMovement
	sales     map[uuid.UUID]sales.Sale
	saleOrder []uuid.UUID
	items     []sales.SaleItem
	seq       map[string]int64

	// seqConflicts makes the next n sequencer calls fail with CONFLICT
	seqConflicts int
	// failMovementAt fails the n-th movement insert, counting from 1
	failMovementAt int
	movementCalls  int
	executions     int
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[uuid.UUID]inventory.Product),
		sales:    make(map[uuid.UUID]sales.Sale),
		seq:      make(map[string]int64),
	}
}

type memSnapshot struct {
	products  map[uuid.UUID]inventory.Product
	movements []inventory.StockMovement
	sales     map[uuid.UUID]sales.Sale
	saleOrder []uuid.UUID
	items     []sales.SaleItem
	seq       map[string]int64
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		products:  make(map[uuid.UUID]inventory.Product, len(s.products)),
		movements: append([]inventory.StockMovement(nil), s.movements...),
		sales:     make(map[uuid.UUID]sales.Sale, len(s.sales)),
		saleOrder: append([]uuid.UUID(nil), s.saleOrder...),
		items:     append([]sales.SaleItem(nil), s.items...),
		seq:       make(map[string]int64, len(s.seq)),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.sales {
		snap.sales[k] = v
	}
	for k, v := range s.seq {
		snap.seq[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.products = snap.products
	s.movements = snap.movements
	s.sales = snap.sales
	s.saleOrder = snap.saleOrder
	s.items = snap.items
	s.seq = snap.seq
}

// addProduct stores an active product with an opening purchase movement
func (s *memStore) addProduct(t *testing.T, shopID uuid.UUID, name string, cost int64, stock, threshold int64) *inventory.Product {
	t.Helper()
	p, err := inventory.NewProduct(shopID, "SKU-"+name, name, decimal.NewFromInt(cost*2), decimal.NewFromInt(cost))
	require.NoError(t, err)
	require.NoError(t, p.SetReorderPolicy(threshold, 10, 2))
	p.CurrentStock = stock
	s.products[p.ID] = *p
	if stock != 0 {
		m, err := inventory.NewStockMovement(shopID, p.ID, stock, inventory.ReasonPurchase)
		require.NoError(t, err)
		s.movements = append(s.movements, *m)
	}
	return p
}

func (s *memStore) stockOf(productID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, m := range s.movements {
		if m.ProductID == productID {
			sum += m.ChangeQty
		}
	}
	return sum
}

func (s *memStore) cachedStockOf(productID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].CurrentStock
}

func (s *memStore) movementsFor(refType string, refID uuid.UUID) []inventory.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []inventory.StockMovement
	for _, m := range s.movements {
		if m.ReferenceType == refType && m.ReferenceID != nil && *m.ReferenceID == refID {
			out = append(out, m)
		}
	}
	return out
}

func (s *memStore) counts() (salesCount, itemCount, movementCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales), len(s.items), len(s.movements)
}

func (s *memStore) loadSale(id uuid.UUID) (*sales.Sale, bool) {
	header, ok := s.sales[id]
	if !ok {
		return nil, false
	}
	sale := header
	sale.Items = nil
	for _, it := range s.items {
		if it.SaleID == id {
			sale.Items = append(sale.Items, it)
		}
	}
	sale.ClearDomainEvents()
	return &sale, true
}

// memScope runs functions against the store and rolls back on error
type memScope struct {
	store *memStore
}

func (m memScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	m.store.mu.Lock()
	m.store.executions++
	snap := m.store.snapshot()
	m.store.mu.Unlock()

	err := fn(memRepos{store: m.store})
	if err != nil {
		m.store.mu.Lock()
		m.store.restore(snap)
		m.store.mu.Unlock()
	}
	return err
}

type memRepos struct {
	store *memStore
}

func (r memRepos) ProductRepo() inventory.ProductRepository        { return memProducts{r.store} }
func (r memRepos) MovementRepo() inventory.StockMovementRepository { return memMovements{r.store} }
func (r memRepos) SaleRepo() sales.SaleRepository                  { return memSales{r.store} }
func (r memRepos) InvoiceSequencer() sales.InvoiceSequencer        { return memSequencer{r.store} }

type memProducts struct{ s *memStore }

func (r memProducts) FindByID(_ context.Context, shopID, id uuid.UUID) (*inventory.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok || p.ShopID != shopID {
		return nil, shared.NotFound("Product", id)
	}
	return &p, nil
}

func (r memProducts) FindByIDForUpdate(ctx context.Context, shopID, id uuid.UUID) (*inventory.Product, error) {
	return r.FindByID(ctx, shopID, id)
}

func (r memProducts) FindByIDs(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) ([]inventory.Product, error) {
	var out []inventory.Product
	for _, id := range ids {
		if p, err := r.FindByID(ctx, shopID, id); err == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r memProducts) ExistsBySKU(_ context.Context, shopID uuid.UUID, sku string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.ShopID == shopID && p.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (r memProducts) FindAll(context.Context, uuid.UUID, inventory.ProductFilter) ([]inventory.Product, int64, error) {
	return nil, 0, nil
}

func (r memProducts) FindActive(context.Context, uuid.UUID) ([]inventory.Product, error) {
	return nil, nil
}

func (r memProducts) Create(_ context.Context, p *inventory.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[p.ID] = *p
	return nil
}

func (r memProducts) Save(_ context.Context, p *inventory.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := r.s.products[p.ID]
	if stored.Version != p.Version {
		return shared.Conflict("Product %s was modified concurrently", p.ID)
	}
	p.Version++
	p.CurrentStock = stored.CurrentStock
	r.s.products[p.ID] = *p
	return nil
}

func (r memProducts) UpdateCachedStock(_ context.Context, p *inventory.Product, stock int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := r.s.products[p.ID]
	if stored.Version != p.Version {
		return shared.Conflict("Product %s was modified concurrently", p.ID)
	}
	stored.CurrentStock = stock
	stored.Version++
	r.s.products[p.ID] = stored
	p.CurrentStock = stock
	p.Version = stored.Version
	return nil
}

func (r memProducts) CountForShop(context.Context, uuid.UUID) (int64, error) {
	return int64(len(r.s.products)), nil
}

func (r memProducts) CountCreatedSince(context.Context, uuid.UUID, time.Time) (int64, error) {
	return 0, nil
}

type memMovements struct{ s *memStore }

func (r memMovements) Create(_ context.Context, m *inventory.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movementCalls++
	if r.s.failMovementAt > 0 && r.s.movementCalls == r.s.failMovementAt {
		return shared.NewDomainError("INTERNAL", "disk full")
	}
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r memMovements) SumChangeQty(_ context.Context, shopID, productID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sum int64
	for _, m := range r.s.movements {
		if m.ShopID == shopID && m.ProductID == productID {
			sum += m.ChangeQty
		}
	}
	return sum, nil
}

func (r memMovements) SumChangeQtyByProducts(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(ids))
	for _, id := range ids {
		out[id], _ = r.SumChangeQty(ctx, shopID, id)
	}
	return out, nil
}

func (r memMovements) FindByProduct(context.Context, uuid.UUID, uuid.UUID, shared.Filter) ([]inventory.StockMovement, int64, error) {
	return nil, 0, nil
}

func (r memMovements) FindByReference(_ context.Context, _ uuid.UUID, refType string, refID uuid.UUID) ([]inventory.StockMovement, error) {
	return r.s.movementsFor(refType, refID), nil
}

func (r memMovements) CountForShop(context.Context, uuid.UUID) (int64, error) {
	return int64(len(r.s.movements)), nil
}

type memSales struct{ s *memStore }

func (r memSales) FindByID(_ context.Context, shopID, id uuid.UUID) (*sales.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.loadSale(id)
	if !ok || sale.ShopID != shopID {
		return nil, shared.NotFound("Sale", id)
	}
	return sale, nil
}

func (r memSales) FindByIDForUpdate(ctx context.Context, shopID, id uuid.UUID) (*sales.Sale, error) {
	return r.FindByID(ctx, shopID, id)
}

func (r memSales) FindAll(_ context.Context, shopID uuid.UUID, f sales.SaleFilter) ([]sales.Sale, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []sales.Sale
	for i := len(r.s.saleOrder) - 1; i >= 0; i-- {
		sale, _ := r.s.loadSale(r.s.saleOrder[i])
		if sale.ShopID != shopID {
			continue
		}
		if f.Status != "" && sale.Status != f.Status {
			continue
		}
		if f.PaymentType != "" && sale.PaymentType != f.PaymentType {
			continue
		}
		out = append(out, *sale)
	}
	return out, int64(len(out)), nil
}

func (r memSales) FindInPeriod(context.Context, uuid.UUID, time.Time, time.Time, ...sales.SaleStatus) ([]sales.Sale, error) {
	return nil, nil
}

func (r memSales) Create(_ context.Context, sale *sales.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.sales {
		if existing.ShopID == sale.ShopID && existing.InvoiceNo == sale.InvoiceNo {
			return shared.Conflict("Invoice number %s already exists", sale.InvoiceNo)
		}
	}
	header := *sale
	header.Items = nil
	r.s.sales[sale.ID] = header
	r.s.saleOrder = append(r.s.saleOrder, sale.ID)
	return nil
}

func (r memSales) CreateItem(_ context.Context, item *sales.SaleItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items = append(r.s.items, *item)
	return nil
}

func (r memSales) Save(_ context.Context, sale *sales.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.sales[sale.ID]
	if !ok {
		return shared.NotFound("Sale", sale.ID)
	}
	if stored.Version != sale.Version {
		return shared.Conflict("Sale %s was modified concurrently", sale.ID)
	}
	sale.Version++
	header := *sale
	header.Items = nil
	r.s.sales[sale.ID] = header
	return nil
}

func (r memSales) CountByStatus(context.Context, uuid.UUID, time.Time, time.Time, sales.SaleStatus) (int64, error) {
	return 0, nil
}

func (r memSales) PaymentStats(_ context.Context, shopID uuid.UUID, _, _ *time.Time) ([]sales.PaymentStat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byType := make(map[sales.PaymentType]*sales.PaymentStat)
	for _, sale := range r.s.sales {
		if sale.ShopID != shopID || (sale.Status != sales.SaleStatusPaid && sale.Status != sales.SaleStatusPending) {
			continue
		}
		st, ok := byType[sale.PaymentType]
		if !ok {
			st = &sales.PaymentStat{PaymentType: sale.PaymentType, TotalAmount: decimal.Zero}
			byType[sale.PaymentType] = st
		}
		st.Count++
		st.TotalAmount = st.TotalAmount.Add(sale.TotalAmount)
	}
	out := make([]sales.PaymentStat, 0, len(byType))
	for _, st := range byType {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentType < out[j].PaymentType })
	return out, nil
}

func (r memSales) CountForShop(context.Context, uuid.UUID) (int64, error) {
	return int64(len(r.s.sales)), nil
}

func (r memSales) CountItemsForShop(context.Context, uuid.UUID) (int64, error) {
	return int64(len(r.s.items)), nil
}

type memSequencer struct{ s *memStore }

func (q memSequencer) Next(_ context.Context, shopID uuid.UUID, at time.Time) (string, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if q.s.seqConflicts > 0 {
		q.s.seqConflicts--
		return "", shared.Conflict("Invoice sequence was advanced concurrently")
	}
	key := shopID.String() + at.Format("20060102")
	q.s.seq[key]++
	return sales.FormatInvoiceNumber(at, q.s.seq[key]), nil
}

// recordingLocker remembers lock keys and can refuse to lock
type recordingLocker struct {
	mu       sync.Mutex
	keys     []string
	released int
	refuse   int
}

type recordingLock struct{ l *recordingLocker }

func (l recordingLock) Release(context.Context) error {
	l.l.mu.Lock()
	defer l.l.mu.Unlock()
	l.l.released++
	return nil
}

func (l *recordingLocker) Obtain(_ context.Context, key string, _ time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	if l.refuse > 0 {
		l.refuse--
		return nil, shared.Conflict("Lock %s is held", key)
	}
	return recordingLock{l}, nil
}

// recordingMetrics counts every measurement
type recordingMetrics struct {
	mu                sync.Mutex
	created           int
	createdAmount     decimal.Decimal
	voided            int
	refunded          int
	partialRefunds    int
	insufficientStock int
	retries           []string
}

func (m *recordingMetrics) RecordSaleCreated(_ context.Context, _ uuid.UUID, _ string, amount decimal.Decimal, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
	m.createdAmount = m.createdAmount.Add(amount)
}

func (m *recordingMetrics) RecordSaleVoided(context.Context, uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voided++
}

func (m *recordingMetrics) RecordSaleRefunded(_ context.Context, _ uuid.UUID, partial bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunded++
	if partial {
		m.partialRefunds++
	}
}

func (m *recordingMetrics) RecordInsufficientStock(context.Context, uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insufficientStock++
}

func (m *recordingMetrics) RecordConflictRetry(_ context.Context, operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries = append(m.retries, operation)
}

// recordingAudit keeps audit entries
type recordingAudit struct {
	mu      sync.Mutex
	entries []appaudit.Entry
}

func (a *recordingAudit) LogAction(_ context.Context, e appaudit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}

func (a *recordingAudit) last() appaudit.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entries[len(a.entries)-1]
}

// recordingPublisher keeps published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
