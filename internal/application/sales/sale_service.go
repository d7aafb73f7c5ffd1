package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appaudit "github.com/shopledger/backend/internal/application/audit"
	appinv "github.com/shopledger/backend/internal/application/inventory"
	"github.com/shopledger/backend/internal/domain/audit"
	"github.com/shopledger/backend/internal/domain/gst"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/sales"
	"github.com/shopledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// maxAttempts bounds how often a write runs when it hits a CONFLICT
const maxAttempts = 2

// Config holds the sale pipeline settings
type Config struct {
	// DefaultGSTRate applies when neither the line nor the request has a rate
	DefaultGSTRate decimal.Decimal
	// Location is the business time zone; invoice days follow it
	Location *time.Location
	// LockTTL is the lifetime of the per-shop, per-day sale lock
	LockTTL time.Duration
}

// DefaultConfig returns GST 18, UTC and a ten second lock
func DefaultConfig() Config {
	return Config{
		DefaultGSTRate: gst.DefaultRate,
		Location:       time.UTC,
		LockTTL:        10 * time.Second,
	}
}

// SaleService orchestrates sales: stock validation, invoice numbering,
// ledger writes, voids and refunds. Every write runs in one transaction.
type SaleService struct {
	scope     TransactionScope
	sales     sales.SaleRepository
	locker    Locker
	metrics   Metrics
	audit     appaudit.Logger
	publisher shared.EventPublisher
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time
}

// NewSaleService creates a new SaleService
func NewSaleService(scope TransactionScope, saleRepo sales.SaleRepository, cfg Config, logger *zap.Logger) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultConfig().LockTTL
	}
	if !gst.IsValidRate(cfg.DefaultGSTRate) {
		cfg.DefaultGSTRate = gst.DefaultRate
	}
	return &SaleService{
		scope:   scope,
		sales:   saleRepo,
		locker:  NoOpLocker{},
		metrics: NoOpMetrics{},
		audit:   appaudit.NopLogger{},
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// SetLocker sets the distributed lock used to serialize sales per shop and day
func (s *SaleService) SetLocker(l Locker) {
	if l != nil {
		s.locker = l
	}
}

// SetMetrics sets the business metrics sink
func (s *SaleService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// SetAuditLogger sets the audit logger
func (s *SaleService) SetAuditLogger(l appaudit.Logger) {
	if l != nil {
		s.audit = l
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock replaces the time source
func (s *SaleService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SaleService) clock() time.Time {
	return s.now().In(s.cfg.Location)
}

func (s *SaleService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
}

// withRetry runs fn again once when it fails with a CONFLICT
func (s *SaleService) withRetry(ctx context.Context, operation string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !shared.IsConflict(err) || attempt == maxAttempts {
			return err
		}
		s.metrics.RecordConflictRetry(ctx, operation)
		s.logger.Warn("Retrying after conflict",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return err
}

// resolveRate picks the line rate, then the request rate, then the default
func (s *SaleService) resolveRate(line, request *decimal.Decimal) decimal.Decimal {
	if line != nil {
		return *line
	}
	if request != nil {
		return *request
	}
	return s.cfg.DefaultGSTRate
}

func (s *SaleService) validateCreate(in CreateSaleInput) error {
	if len(in.Items) == 0 {
		return shared.InvalidArgument("Sale must contain at least one item")
	}
	if in.PaymentType != "" && !in.PaymentType.IsValid() {
		return shared.InvalidArgument("Invalid payment type: %s", in.PaymentType)
	}
	for i, item := range in.Items {
		if item.ProductID == uuid.Nil {
			return shared.InvalidArgument("Item %d: product ID cannot be empty", i+1)
		}
		if item.Quantity <= 0 {
			return shared.InvalidArgument("Item %d: quantity must be positive", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return shared.InvalidArgument("Item %d: unit price cannot be negative", i+1)
		}
		if err := sales.ValidateDiscount(item.Quantity, item.UnitPrice, item.Discount); err != nil {
			return err
		}
		rate := s.resolveRate(item.GSTRate, in.GSTRate)
		if !gst.IsValidRate(rate) {
			return shared.InvalidArgument("GST rate must be between 0 and 100, got %s", rate.String())
		}
	}
	return nil
}

// sortedIDs returns the distinct ids ordered by their string form, the
// order in which product rows are locked.
func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func lockProducts(ctx context.Context, repo inventory.ProductRepository, shopID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*inventory.Product, error) {
	locked := make(map[uuid.UUID]*inventory.Product, len(ids))
	for _, id := range sortedIDs(ids) {
		p, err := repo.FindByIDForUpdate(ctx, shopID, id)
		if err != nil {
			return nil, err
		}
		locked[id] = p
	}
	return locked, nil
}

// CreateSale validates stock for every line, numbers the invoice, writes
// the sale with its lines and records one ledger entry per line. Nothing
// is persisted when any step fails.
func (s *SaleService) CreateSale(ctx context.Context, shopID, userID uuid.UUID, in CreateSaleInput) (*SaleResponse, error) {
	if err := s.validateCreate(in); err != nil {
		return nil, err
	}

	var (
		sale   *sales.Sale
		events []shared.DomainEvent
	)
	err := s.withRetry(ctx, "create_sale", func() error {
		var err error
		sale, events, err = s.createOnce(ctx, shopID, userID, in)
		return err
	})
	if err != nil {
		var stockErr *shared.InsufficientStockError
		if errors.As(err, &stockErr) {
			s.metrics.RecordInsufficientStock(ctx, shopID)
		}
		return nil, err
	}

	s.logger.Info("Sale created",
		zap.String("sale_id", sale.ID.String()),
		zap.String("invoice_no", sale.InvoiceNo),
		zap.String("total_amount", sale.TotalAmount.String()),
		zap.Int("items", sale.ItemCount()))

	s.audit.LogAction(ctx, appaudit.Entry{
		ShopID:     shopID,
		UserID:     userID,
		Action:     audit.ActionCreateSale,
		ObjectType: audit.ObjectSale,
		ObjectID:   sale.ID,
		Payload: map[string]interface{}{
			"invoice_no":   sale.InvoiceNo,
			"total_amount": sale.TotalAmount.String(),
			"item_count":   sale.ItemCount(),
		},
	})
	s.publish(ctx, events)
	s.metrics.RecordSaleCreated(ctx, shopID, sale.PaymentType.String(), sale.TotalAmount, sale.ItemCount())

	resp := ToSaleResponse(sale)
	return &resp, nil
}

func (s *SaleService) createOnce(ctx context.Context, shopID, userID uuid.UUID, in CreateSaleInput) (*sales.Sale, []shared.DomainEvent, error) {
	now := s.clock()

	lock, err := s.locker.Obtain(ctx, saleLockKey(shopID, now), s.cfg.LockTTL)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release sale lock", zap.String("shop_id", shopID.String()), zap.Error(err))
		}
	}()

	var (
		sale   *sales.Sale
		events []shared.DomainEvent
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		ledger := appinv.NewLedgerService(repos.ProductRepo(), repos.MovementRepo())

		ids := make([]uuid.UUID, len(in.Items))
		requested := make(map[uuid.UUID]int64, len(in.Items))
		for i, item := range in.Items {
			ids[i] = item.ProductID
			requested[item.ProductID] += item.Quantity
		}
		products, err := lockProducts(ctx, repos.ProductRepo(), shopID, ids)
		if err != nil {
			return err
		}

		checked := make(map[uuid.UUID]bool, len(products))
		for _, item := range in.Items {
			if checked[item.ProductID] {
				continue
			}
			checked[item.ProductID] = true
			available, err := ledger.CurrentStock(ctx, item.ProductID, shopID)
			if err != nil {
				return err
			}
			if available < requested[item.ProductID] {
				return shared.NewInsufficientStockError(item.ProductID, products[item.ProductID].Name, requested[item.ProductID], available)
			}
		}

		invoiceNo, err := repos.InvoiceSequencer().Next(ctx, shopID, now)
		if err != nil {
			return err
		}

		sale, err = sales.NewSale(shopID, invoiceNo, in.PaymentType, in.CustomerInfo, in.Notes, userID)
		if err != nil {
			return err
		}
		sale.CreatedAt = now
		sale.UpdatedAt = now
		if err := repos.SaleRepo().Create(ctx, sale); err != nil {
			return err
		}

		for _, line := range in.Items {
			product := products[line.ProductID]
			item, err := sales.NewSaleItem(sale.ID, product.ID, product.Name, line.Quantity,
				line.UnitPrice, product.CostPrice, line.Discount, s.resolveRate(line.GSTRate, in.GSTRate))
			if err != nil {
				return err
			}
			item.CreatedAt = now
			if err := repos.SaleRepo().CreateItem(ctx, item); err != nil {
				return err
			}
			sale.AddItem(item)

			if _, err := ledger.RecordProductMovement(ctx, product, appinv.MovementInput{
				ShopID:        shopID,
				ProductID:     product.ID,
				ChangeQty:     -line.Quantity,
				Reason:        inventory.ReasonSale,
				ReferenceType: inventory.ReferenceSale,
				ReferenceID:   sale.ID,
				CreatedBy:     userID,
				Metadata: map[string]interface{}{
					"invoice_no": invoiceNo,
					"quantity":   line.Quantity,
					"unit_price": line.UnitPrice.String(),
				},
			}); err != nil {
				return err
			}
		}

		sale.RecalculateTotals()
		if err := repos.SaleRepo().Save(ctx, sale); err != nil {
			return err
		}

		events = append([]shared.DomainEvent{sales.NewSaleCreatedEvent(sale)}, ledger.TakeEvents()...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return sale, events, nil
}

func saleLockKey(shopID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("lock:sale:%s:%s", shopID, day.Format("20060102"))
}

// restoreLines writes one return movement per line, locking products in id order
func restoreLines(ctx context.Context, repos TransactionalRepositories, sale *sales.Sale, items []sales.SaleItem, userID uuid.UUID, refType string, metadata func(item *sales.SaleItem) map[string]interface{}) ([]shared.DomainEvent, error) {
	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ProductID
	}
	products, err := lockProducts(ctx, repos.ProductRepo(), sale.ShopID, ids)
	if err != nil {
		return nil, err
	}

	ledger := appinv.NewLedgerService(repos.ProductRepo(), repos.MovementRepo())
	for i := range items {
		item := &items[i]
		if _, err := ledger.RecordProductMovement(ctx, products[item.ProductID], appinv.MovementInput{
			ShopID:        sale.ShopID,
			ProductID:     item.ProductID,
			ChangeQty:     item.Quantity,
			Reason:        inventory.ReasonReturn,
			ReferenceType: refType,
			ReferenceID:   sale.ID,
			CreatedBy:     userID,
			Metadata:      metadata(item),
		}); err != nil {
			return nil, err
		}
	}
	return ledger.TakeEvents(), nil
}

// VoidSale voids a sale and returns every line to stock. Voiding a void
// sale returns it unchanged.
func (s *SaleService) VoidSale(ctx context.Context, shopID, saleID, userID uuid.UUID) (*SaleResponse, error) {
	var (
		sale    *sales.Sale
		changed bool
		events  []shared.DomainEvent
	)
	err := s.withRetry(ctx, "void_sale", func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			sale, err = repos.SaleRepo().FindByIDForUpdate(ctx, shopID, saleID)
			if err != nil {
				return err
			}
			changed, err = sale.Void()
			if err != nil || !changed {
				return err
			}

			ledgerEvents, err := restoreLines(ctx, repos, sale, sale.Items, userID, inventory.ReferenceSaleVoid,
				func(*sales.SaleItem) map[string]interface{} {
					return map[string]interface{}{"original_invoice_no": sale.InvoiceNo}
				})
			if err != nil {
				return err
			}
			if err := repos.SaleRepo().Save(ctx, sale); err != nil {
				return err
			}

			events = append(sale.GetDomainEvents(), ledgerEvents...)
			sale.ClearDomainEvents()
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("Sale voided",
			zap.String("sale_id", sale.ID.String()),
			zap.String("invoice_no", sale.InvoiceNo))
		s.audit.LogAction(ctx, appaudit.Entry{
			ShopID:     shopID,
			UserID:     userID,
			Action:     audit.ActionVoidSale,
			ObjectType: audit.ObjectSale,
			ObjectID:   sale.ID,
			Payload:    map[string]interface{}{"invoice_no": sale.InvoiceNo},
		})
		s.publish(ctx, events)
		s.metrics.RecordSaleVoided(ctx, shopID)
	}

	resp := ToSaleResponse(sale)
	return &resp, nil
}

// RefundSale returns the selected lines, or all lines when none are
// selected, to stock and marks the sale refunded.
func (s *SaleService) RefundSale(ctx context.Context, shopID, saleID, userID uuid.UUID, in RefundInput) (*SaleResponse, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, shared.InvalidArgument("Refund reason is required")
	}
	itemIDs := sortedIDs(in.ItemIDs)
	if len(in.ItemIDs) == 0 {
		itemIDs = nil
	}

	var (
		sale     *sales.Sale
		restored int
		events   []shared.DomainEvent
	)
	err := s.withRetry(ctx, "refund_sale", func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			sale, err = repos.SaleRepo().FindByIDForUpdate(ctx, shopID, saleID)
			if err != nil {
				return err
			}
			if err := sale.CheckRefundable(); err != nil {
				return err
			}

			items := sale.Items
			metadata := func(*sales.SaleItem) map[string]interface{} {
				return map[string]interface{}{"refund_reason": reason}
			}
			if itemIDs != nil {
				items = make([]sales.SaleItem, 0, len(itemIDs))
				for _, id := range itemIDs {
					item, ok := sale.FindItem(id)
					if !ok {
						return shared.NotFound("Sale item", id)
					}
					items = append(items, *item)
				}
				metadata = func(item *sales.SaleItem) map[string]interface{} {
					return map[string]interface{}{"refund_reason": reason, "item_id": item.ID.String()}
				}
			}

			ledgerEvents, err := restoreLines(ctx, repos, sale, items, userID, inventory.ReferenceSale, metadata)
			if err != nil {
				return err
			}
			if err := sale.Refund(reason, itemIDs); err != nil {
				return err
			}
			if err := repos.SaleRepo().Save(ctx, sale); err != nil {
				return err
			}

			restored = len(items)
			events = append(sale.GetDomainEvents(), ledgerEvents...)
			sale.ClearDomainEvents()
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	partial := itemIDs != nil
	s.logger.Info("Sale refunded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("invoice_no", sale.InvoiceNo),
		zap.Int("items_restored", restored),
		zap.Bool("partial", partial))

	payload := map[string]interface{}{
		"invoice_no":     sale.InvoiceNo,
		"reason":         reason,
		"items_restored": restored,
	}
	if itemIDs != nil {
		ids := make([]string, len(itemIDs))
		for i, id := range itemIDs {
			ids[i] = id.String()
		}
		payload["item_ids"] = ids
	}
	s.audit.LogAction(ctx, appaudit.Entry{
		ShopID:     shopID,
		UserID:     userID,
		Action:     audit.ActionRefundSale,
		ObjectType: audit.ObjectSale,
		ObjectID:   sale.ID,
		Payload:    payload,
	})
	s.publish(ctx, events)
	s.metrics.RecordSaleRefunded(ctx, shopID, partial)

	resp := ToSaleResponse(sale)
	return &resp, nil
}

// UpdateSale changes header fields. Lines, amounts and stock never change here.
func (s *SaleService) UpdateSale(ctx context.Context, shopID, saleID, userID uuid.UUID, in UpdateSaleInput) (*SaleResponse, error) {
	var (
		sale    *sales.Sale
		changes map[string]interface{}
	)
	err := s.withRetry(ctx, "update_sale", func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			changes = make(map[string]interface{})
			sale, err = repos.SaleRepo().FindByIDForUpdate(ctx, shopID, saleID)
			if err != nil {
				return err
			}

			if in.Status != nil {
				if err := sale.ChangeStatus(*in.Status); err != nil {
					return err
				}
				changes["status"] = in.Status.String()
			}
			if in.PaymentType != nil {
				if err := sale.ChangePaymentType(*in.PaymentType); err != nil {
					return err
				}
				changes["payment_type"] = in.PaymentType.String()
			}
			if in.CustomerInfo != nil {
				sale.SetCustomerInfo(in.CustomerInfo)
				changes["customer_info"] = in.CustomerInfo
			}
			if in.Notes != nil {
				sale.SetNotes(*in.Notes)
				changes["notes"] = *in.Notes
			}
			if len(changes) == 0 {
				return nil
			}
			return repos.SaleRepo().Save(ctx, sale)
		})
	})
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		s.audit.LogAction(ctx, appaudit.Entry{
			ShopID:     shopID,
			UserID:     userID,
			Action:     audit.ActionUpdateSale,
			ObjectType: audit.ObjectSale,
			ObjectID:   sale.ID,
			Payload:    changes,
		})
	}

	resp := ToSaleResponse(sale)
	return &resp, nil
}

// GetSale returns a sale with its lines
func (s *SaleService) GetSale(ctx context.Context, shopID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, shopID, saleID)
	if err != nil {
		return nil, err
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// ListSales lists sale headers, newest first. A date-only end bound covers
// the whole day.
func (s *SaleService) ListSales(ctx context.Context, shopID uuid.UUID, f ListSalesFilter) (shared.Paginated[SaleListItemResponse], error) {
	if f.PaymentType != "" && !f.PaymentType.IsValid() {
		return shared.Paginated[SaleListItemResponse]{}, shared.InvalidArgument("Invalid payment type: %s", f.PaymentType)
	}
	if f.Status != "" && !f.Status.IsValid() {
		return shared.Paginated[SaleListItemResponse]{}, shared.InvalidArgument("Invalid sale status: %s", f.Status)
	}

	filter := sales.SaleFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			Search:   strings.TrimSpace(f.Search),
			OrderBy:  "created_at",
			OrderDir: "desc",
		}.Normalize(),
		From:        f.From,
		To:          EndOfDay(f.To),
		PaymentType: f.PaymentType,
		Status:      f.Status,
	}

	rows, total, err := s.sales.FindAll(ctx, shopID, filter)
	if err != nil {
		return shared.Paginated[SaleListItemResponse]{}, err
	}
	items := make([]SaleListItemResponse, len(rows))
	for i := range rows {
		items[i] = ToSaleListItemResponse(&rows[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// PaymentStats returns count and value per payment type of paid and pending sales
func (s *SaleService) PaymentStats(ctx context.Context, shopID uuid.UUID, from, to *time.Time) ([]sales.PaymentStat, error) {
	return s.sales.PaymentStats(ctx, shopID, from, EndOfDay(to))
}

// PaymentMethods lists the accepted payment types
func (s *SaleService) PaymentMethods() []sales.PaymentMethod {
	return sales.PaymentMethods()
}

// EndOfDay moves a midnight bound to the last instant of that day
func EndOfDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return t
	}
	end := t.Add(24*time.Hour - time.Nanosecond)
	return &end
}
