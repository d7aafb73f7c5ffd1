package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	appaudit "github.com/shopledger/backend/internal/application/audit"
	"github.com/shopledger/backend/internal/domain/audit"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService handles product CRUD and non-sale stock operations
type ProductService struct {
	scope     TransactionScope
	products  inventory.ProductRepository
	movements inventory.StockMovementRepository
	audit     appaudit.Logger
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	scope TransactionScope,
	products inventory.ProductRepository,
	movements inventory.StockMovementRepository,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		scope:     scope,
		products:  products,
		movements: movements,
		audit:     appaudit.NopLogger{},
		logger:    logger,
	}
}

// SetAuditLogger sets the audit logger
func (s *ProductService) SetAuditLogger(l appaudit.Logger) {
	s.audit = l
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

func (s *ProductService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
}

// Create creates a product and records its initial stock
func (s *ProductService) Create(ctx context.Context, shopID, userID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	if req.InitialStock < 0 {
		return nil, shared.InvalidArgument("Initial stock cannot be negative")
	}

	product, err := inventory.NewProduct(shopID, req.SKU, req.Name, req.PriceMRP, req.CostPrice)
	if err != nil {
		return nil, err
	}
	product.Description = req.Description
	product.Barcode = strings.TrimSpace(req.Barcode)
	if err := product.SetReorderPolicy(req.ReorderThreshold, req.ReorderQuantity, req.LeadTimeDays); err != nil {
		return nil, err
	}
	if req.Attributes != nil {
		product.Attributes = shared.JSONMap(req.Attributes).Clone()
	}
	product.SetCreatedBy(userID)

	exists, err := s.products.ExistsBySKU(ctx, shopID, product.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Product with SKU "+product.SKU+" already exists")
	}

	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.ProductRepo().Create(ctx, product); err != nil {
			return err
		}
		if req.InitialStock == 0 {
			return nil
		}
		ledger := NewLedgerService(repos.ProductRepo(), repos.MovementRepo())
		if _, err := ledger.RecordProductMovement(ctx, product, MovementInput{
			ChangeQty:     req.InitialStock,
			Reason:        inventory.ReasonPurchase,
			ReferenceType: inventory.ReferenceInitialStock,
			ReferenceID:   product.ID,
			CreatedBy:     userID,
		}); err != nil {
			return err
		}
		events = ledger.TakeEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
		zap.Int64("initial_stock", req.InitialStock))

	s.audit.LogAction(ctx, appaudit.Entry{
		ShopID:     shopID,
		UserID:     userID,
		Action:     audit.ActionCreateProduct,
		ObjectType: audit.ObjectProduct,
		ObjectID:   product.ID,
		Payload: map[string]interface{}{
			"sku":           product.SKU,
			"name":          product.Name,
			"initial_stock": req.InitialStock,
		},
	})
	s.publish(ctx, events)

	resp := ToProductResponse(product, req.InitialStock)
	return &resp, nil
}

// Get returns a product with its ledger stock
func (s *ProductService) Get(ctx context.Context, shopID, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	stock, err := s.movements.SumChangeQty(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product, stock)
	return &resp, nil
}

// Update changes descriptive fields, prices and thresholds. Stock is never touched.
func (s *ProductService) Update(ctx context.Context, shopID, userID, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, shopID, id)
	if err != nil {
		return nil, err
	}

	changed := make([]string, 0)
	if req.Name != nil {
		if err := product.Rename(*req.Name); err != nil {
			return nil, err
		}
		changed = append(changed, "name")
	}
	if req.Description != nil {
		product.Description = *req.Description
		changed = append(changed, "description")
	}
	if req.Barcode != nil {
		product.Barcode = strings.TrimSpace(*req.Barcode)
		changed = append(changed, "barcode")
	}
	if req.PriceMRP != nil || req.CostPrice != nil {
		price, cost := product.PriceMRP, product.CostPrice
		if req.PriceMRP != nil {
			price = *req.PriceMRP
		}
		if req.CostPrice != nil {
			cost = *req.CostPrice
		}
		if err := product.SetPrices(price, cost); err != nil {
			return nil, err
		}
		changed = append(changed, "prices")
	}
	if req.ReorderThreshold != nil || req.ReorderQuantity != nil || req.LeadTimeDays != nil {
		threshold, qty, lead := product.ReorderThreshold, product.ReorderQuantity, product.LeadTimeDays
		if req.ReorderThreshold != nil {
			threshold = *req.ReorderThreshold
		}
		if req.ReorderQuantity != nil {
			qty = *req.ReorderQuantity
		}
		if req.LeadTimeDays != nil {
			lead = *req.LeadTimeDays
		}
		if err := product.SetReorderPolicy(threshold, qty, lead); err != nil {
			return nil, err
		}
		changed = append(changed, "reorder_policy")
	}
	if req.IsActive != nil {
		if *req.IsActive {
			product.Activate()
		} else {
			product.Deactivate()
		}
		changed = append(changed, "is_active")
	}
	if req.Attributes != nil {
		product.Attributes = shared.JSONMap(req.Attributes).Clone()
		changed = append(changed, "attributes")
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, appaudit.Entry{
		ShopID:     shopID,
		UserID:     userID,
		Action:     audit.ActionUpdateProduct,
		ObjectType: audit.ObjectProduct,
		ObjectID:   product.ID,
		Payload:    map[string]interface{}{"fields": changed},
	})

	stock, err := s.movements.SumChangeQty(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product, stock)
	return &resp, nil
}

// Deactivate soft-deletes a product. Its ledger history is kept.
func (s *ProductService) Deactivate(ctx context.Context, shopID, userID, id uuid.UUID) error {
	product, err := s.products.FindByID(ctx, shopID, id)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return nil
	}
	product.Deactivate()
	if err := s.products.Save(ctx, product); err != nil {
		return err
	}

	s.audit.LogAction(ctx, appaudit.Entry{
		ShopID:     shopID,
		UserID:     userID,
		Action:     audit.ActionDeleteProduct,
		ObjectType: audit.ObjectProduct,
		ObjectID:   id,
		Payload:    map[string]interface{}{"sku": product.SKU},
	})
	return nil
}

// AdjustStock sets the ledger balance to a counted quantity
func (s *ProductService) AdjustStock(ctx context.Context, shopID, userID, id uuid.UUID, req AdjustStockRequest) (*StockAdjustmentResponse, error) {
	if req.Quantity < 0 {
		return nil, shared.InvalidArgument("Stock quantity cannot be negative")
	}

	resp := &StockAdjustmentResponse{
		ProductID:   id,
		OldQuantity: req.Quantity,
		NewQuantity: req.Quantity,
	}
	var events []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.ProductRepo().FindByIDForUpdate(ctx, shopID, id); err != nil {
			return err
		}
		ledger := NewLedgerService(repos.ProductRepo(), repos.MovementRepo())
		movement, err := ledger.AdjustToQuantity(ctx, shopID, id, req.Quantity, userID, req.Reason)
		if err != nil {
			return err
		}
		if movement != nil {
			m := ToMovementResponse(movement)
			resp.Movement = &m
			resp.OldQuantity = req.Quantity - movement.ChangeQty
		}
		events = ledger.TakeEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if resp.Movement != nil {
		s.logger.Info("Stock adjusted",
			zap.String("product_id", id.String()),
			zap.Int64("old_quantity", resp.OldQuantity),
			zap.Int64("new_quantity", resp.NewQuantity))

		s.audit.LogAction(ctx, appaudit.Entry{
			ShopID:     shopID,
			UserID:     userID,
			Action:     audit.ActionAdjustStock,
			ObjectType: audit.ObjectProduct,
			ObjectID:   id,
			Payload: map[string]interface{}{
				"reason":       req.Reason,
				"old_quantity": resp.OldQuantity,
				"new_quantity": resp.NewQuantity,
			},
		})
	}
	s.publish(ctx, events)
	return resp, nil
}

// ReceiveStock records a signed movement that is not a sale
func (s *ProductService) ReceiveStock(ctx context.Context, shopID, userID, id uuid.UUID, req ReceiveStockRequest) (*MovementResponse, error) {
	reason := inventory.MovementReason(req.Reason)
	if reason == inventory.ReasonSale {
		return nil, shared.InvalidArgument("Sale movements are recorded through sales")
	}

	refID := id
	if req.ReferenceID != nil {
		refID = *req.ReferenceID
	}
	metadata := map[string]interface{}{}
	if req.Note != "" {
		metadata["note"] = req.Note
	}

	var (
		movement *inventory.StockMovement
		events   []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByIDForUpdate(ctx, shopID, id)
		if err != nil {
			return err
		}
		ledger := NewLedgerService(repos.ProductRepo(), repos.MovementRepo())
		movement, err = ledger.RecordProductMovement(ctx, product, MovementInput{
			ChangeQty:     req.Quantity,
			Reason:        reason,
			ReferenceType: inventory.ReferenceStockReceipt,
			ReferenceID:   refID,
			CreatedBy:     userID,
			Metadata:      metadata,
		})
		if err != nil {
			return err
		}
		events = ledger.TakeEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, appaudit.Entry{
		ShopID:     shopID,
		UserID:     userID,
		Action:     audit.ActionReceiveStock,
		ObjectType: audit.ObjectProduct,
		ObjectID:   id,
		Payload: map[string]interface{}{
			"change_qty": req.Quantity,
			"reason":     req.Reason,
		},
	})
	s.publish(ctx, events)

	resp := ToMovementResponse(movement)
	return &resp, nil
}

// Stock returns the ledger balance of a product
func (s *ProductService) Stock(ctx context.Context, shopID, id uuid.UUID) (*StockResponse, error) {
	product, err := s.products.FindByID(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	stock, err := NewLedgerService(s.products, s.movements).CurrentStock(ctx, id, shopID)
	if err != nil {
		return nil, err
	}
	return &StockResponse{
		ProductID:        id,
		CurrentStock:     stock,
		ReorderThreshold: product.ReorderThreshold,
		IsLowStock:       product.IsLowStockAt(stock),
		IsOutOfStock:     inventory.IsOutOfStock(stock),
	}, nil
}

// History lists the ledger rows of a product, newest first
func (s *ProductService) History(ctx context.Context, shopID, id uuid.UUID, filter MovementListFilter) (shared.Paginated[MovementResponse], error) {
	if _, err := s.products.FindByID(ctx, shopID, id); err != nil {
		return shared.Paginated[MovementResponse]{}, err
	}
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	movements, total, err := NewLedgerService(s.products, s.movements).History(ctx, shopID, id, f)
	if err != nil {
		return shared.Paginated[MovementResponse]{}, err
	}
	return shared.NewPaginated(ToMovementResponses(movements), total, f.Page, f.PageSize), nil
}
