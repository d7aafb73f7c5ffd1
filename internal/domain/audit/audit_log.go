// Package audit records who did what to which object.
package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// Action names used by the application services
const (
	ActionCreateSale    = "create_sale"
	ActionUpdateSale    = "update_sale"
	ActionVoidSale      = "void_sale"
	ActionRefundSale    = "refund_sale"
	ActionCreateProduct = "create_product"
	ActionUpdateProduct = "update_product"
	ActionDeleteProduct = "deactivate_product"
	ActionAdjustStock   = "adjust_stock"
	ActionReceiveStock  = "receive_stock"
	ActionCreateInvoice = "create_invoice"
)

// Object types
const (
	ObjectSale    = "sale"
	ObjectProduct = "product"
	ObjectInvoice = "invoice"
)

// AuditLog is an immutable record of an action
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ShopID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_audit_logs_shop_created,priority:1" json:"shop_id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action     string         `gorm:"type:varchar(64);not null;index" json:"action"`
	ObjectType string         `gorm:"type:varchar(64);not null" json:"object_type"`
	ObjectID   *uuid.UUID     `gorm:"type:uuid;index" json:"object_id,omitempty"`
	Payload    shared.JSONMap `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt  time.Time      `gorm:"not null;index:idx_audit_logs_shop_created,priority:2" json:"created_at"`
}

// TableName returns the table name for GORM
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates an audit log entry. Nil user and object ids are stored as NULL.
func NewAuditLog(shopID, userID uuid.UUID, action, objectType string, objectID uuid.UUID, payload map[string]interface{}) (*AuditLog, error) {
	if shopID == uuid.Nil {
		return nil, shared.InvalidArgument("Shop ID cannot be empty")
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, shared.InvalidArgument("Audit action cannot be empty")
	}

	l := &AuditLog{
		ID:         uuid.New(),
		ShopID:     shopID,
		Action:     action,
		ObjectType: objectType,
		Payload:    shared.JSONMap{},
		CreatedAt:  time.Now(),
	}
	if userID != uuid.Nil {
		l.UserID = &userID
	}
	if objectID != uuid.Nil {
		l.ObjectID = &objectID
	}
	if payload != nil {
		l.Payload = shared.JSONMap(payload).Clone()
	}
	return l, nil
}

// Filter narrows audit log listings
type Filter struct {
	shared.Filter
	Action     string
	ObjectType string
	ObjectID   *uuid.UUID
	UserID     *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// Repository persists audit logs. Entries are never updated.
type Repository interface {
	Create(ctx context.Context, log *AuditLog) error
	FindAll(ctx context.Context, shopID uuid.UUID, filter Filter) ([]AuditLog, int64, error)
}
