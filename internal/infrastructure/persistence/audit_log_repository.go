package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/audit"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements audit.Repository using GORM
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create inserts an audit entry
func (r *GormAuditLogRepository) Create(ctx context.Context, log *audit.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// FindAll lists a shop's audit entries, newest first
func (r *GormAuditLogRepository) FindAll(ctx context.Context, shopID uuid.UUID, filter audit.Filter) ([]audit.AuditLog, int64, error) {
	f := filter.Filter.Normalize()
	filtered := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&audit.AuditLog{}).Where("shop_id = ?", shopID)
		if filter.Action != "" {
			query = query.Where("action = ?", filter.Action)
		}
		if filter.ObjectType != "" {
			query = query.Where("object_type = ?", filter.ObjectType)
		}
		if filter.ObjectID != nil {
			query = query.Where("object_id = ?", *filter.ObjectID)
		}
		if filter.UserID != nil {
			query = query.Where("user_id = ?", *filter.UserID)
		}
		if filter.From != nil {
			query = query.Where("created_at >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("created_at <= ?", *filter.To)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	var logs []audit.AuditLog
	if err := filtered().
		Order("created_at DESC").
		Order("id").
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, total, nil
}

var _ audit.Repository = (*GormAuditLogRepository)(nil)
