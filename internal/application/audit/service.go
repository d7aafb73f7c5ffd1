// Package audit writes audit trail entries after business operations commit.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/audit"
	"github.com/shopledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// writeTimeout bounds a single audit insert
const writeTimeout = 5 * time.Second

// Entry describes one audited action
type Entry struct {
	ShopID     uuid.UUID
	UserID     uuid.UUID
	Action     string
	ObjectType string
	ObjectID   uuid.UUID
	Payload    map[string]interface{}
}

// Logger records audit entries. Implementations never fail the caller.
type Logger interface {
	LogAction(ctx context.Context, entry Entry)
}

// Service persists audit entries and lists them
type Service struct {
	repo   audit.Repository
	logger *zap.Logger
}

// NewService creates a new audit Service
func NewService(repo audit.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// LogAction stores the entry. Errors are logged and dropped.
// The write is detached from the caller's cancellation.
func (s *Service) LogAction(ctx context.Context, entry Entry) {
	log, err := audit.NewAuditLog(entry.ShopID, entry.UserID, entry.Action, entry.ObjectType, entry.ObjectID, entry.Payload)
	if err != nil {
		s.logger.Warn("Invalid audit entry",
			zap.String("action", entry.Action),
			zap.Error(err))
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := s.repo.Create(writeCtx, log); err != nil {
		s.logger.Error("Failed to write audit log",
			zap.String("action", entry.Action),
			zap.String("shop_id", entry.ShopID.String()),
			zap.String("object_id", entry.ObjectID.String()),
			zap.Error(err))
	}
}

// ListFilter is the query accepted by List
type ListFilter struct {
	Action     string     `form:"action"`
	ObjectType string     `form:"object_type"`
	ObjectID   *uuid.UUID `form:"object_id"`
	UserID     *uuid.UUID `form:"user_id"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// List returns a shop's audit logs, newest first
func (s *Service) List(ctx context.Context, shopID uuid.UUID, filter ListFilter) (shared.Paginated[audit.AuditLog], error) {
	f := audit.Filter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  "created_at",
			OrderDir: "desc",
		}.Normalize(),
		Action:     filter.Action,
		ObjectType: filter.ObjectType,
		ObjectID:   filter.ObjectID,
		UserID:     filter.UserID,
		From:       filter.From,
		To:         filter.To,
	}

	logs, total, err := s.repo.FindAll(ctx, shopID, f)
	if err != nil {
		return shared.Paginated[audit.AuditLog]{}, err
	}
	return shared.NewPaginated(logs, total, f.Page, f.PageSize), nil
}

// NopLogger discards every entry
type NopLogger struct{}

// LogAction does nothing
func (NopLogger) LogAction(context.Context, Entry) {}

var (
	_ Logger = (*Service)(nil)
	_ Logger = NopLogger{}
)
