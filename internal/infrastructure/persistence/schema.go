package persistence

import (
	"fmt"

	"github.com/shopledger/backend/internal/domain/audit"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/sales"
	"gorm.io/gorm"
)

// Models lists every table owned by the service
func Models() []interface{} {
	return []interface{}{
		&inventory.Product{},
		&inventory.StockMovement{},
		&sales.Sale{},
		&sales.SaleItem{},
		&sales.InvoiceSequence{},
		&sales.Invoice{},
		&audit.AuditLog{},
	}
}

// uniqueIndexes are declared here because their shop_id column comes from
// the embedded ShopAggregateRoot and cannot carry a per-table tag.
var uniqueIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_shop_sku ON products (shop_id, sku)",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_sales_shop_invoice_no ON sales (shop_id, invoice_no)",
	"CREATE INDEX IF NOT EXISTS idx_sales_shop_created_at ON sales (shop_id, created_at)",
}

// AutoMigrate creates or updates the schema from the models. It backs the
// sqlite development mode and the tests; postgres deployments use the SQL
// migrations under migrations/.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range uniqueIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
