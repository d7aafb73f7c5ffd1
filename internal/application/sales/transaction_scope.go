package sales

import (
	"context"

	appinv "github.com/shopledger/backend/internal/application/inventory"
	"github.com/shopledger/backend/internal/domain/sales"
)

// TransactionScope runs a sale write inside one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes every repository a sale touches, all
// bound to the same transaction. The sequencer shares it as well so an
// aborted sale releases its invoice number.
type TransactionalRepositories interface {
	appinv.TransactionalRepositories
	SaleRepo() sales.SaleRepository
	InvoiceSequencer() sales.InvoiceSequencer
}
