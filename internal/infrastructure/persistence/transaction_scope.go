package persistence

import (
	"context"

	appinv "github.com/shopledger/backend/internal/application/inventory"
	appsales "github.com/shopledger/backend/internal/application/sales"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/sales"
	"gorm.io/gorm"
)

// GormTransactionScope runs inventory writes inside one GORM transaction
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. An error from fn rolls it back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// GormSaleTransactionScope runs sale writes inside one GORM transaction.
// The invoice sequencer shares the transaction with the repositories.
type GormSaleTransactionScope struct {
	db *gorm.DB
}

// NewGormSaleTransactionScope creates a new GormSaleTransactionScope
func NewGormSaleTransactionScope(db *gorm.DB) *GormSaleTransactionScope {
	return &GormSaleTransactionScope{db: db}
}

// Execute runs fn within a database transaction. An error from fn rolls it back.
func (s *GormSaleTransactionScope) Execute(ctx context.Context, fn func(repos appsales.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) ProductRepo() inventory.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) SaleRepo() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) InvoiceSequencer() sales.InvoiceSequencer {
	return NewGormInvoiceSequencer(r.tx)
}

var (
	_ appinv.TransactionScope            = (*GormTransactionScope)(nil)
	_ appsales.TransactionScope          = (*GormSaleTransactionScope)(nil)
	_ appinv.TransactionalRepositories   = (*gormTransactionalRepositories)(nil)
	_ appsales.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
