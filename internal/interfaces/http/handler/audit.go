package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appaudit "github.com/shopledger/backend/internal/application/audit"
	"github.com/shopledger/backend/internal/domain/audit"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
)

// AuditReader lists audit entries
type AuditReader interface {
	List(ctx context.Context, shopID uuid.UUID, filter appaudit.ListFilter) (shared.Paginated[audit.AuditLog], error)
}

// auditQuery takes ids as strings; gin cannot bind uuid.UUID from a query
type auditQuery struct {
	Action     string     `form:"action"`
	ObjectType string     `form:"object_type"`
	ObjectID   string     `form:"object_id" binding:"omitempty,uuid"`
	UserID     string     `form:"user_id" binding:"omitempty,uuid"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// AuditHandler serves the audit trail
type AuditHandler struct {
	BaseHandler
	audit AuditReader
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit AuditReader) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List godoc
// @Summary      List audit log entries, newest first
// @Tags         audit
// @Produce      json
// @Param        action query string false "Action, e.g. sale.create"
// @Param        object_type query string false "Object type"
// @Param        object_id query string false "Object ID" format(uuid)
// @Param        user_id query string false "Acting user" format(uuid)
// @Param        from query string false "YYYY-MM-DD"
// @Param        to query string false "YYYY-MM-DD"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]audit.AuditLog,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	shopID, _, ok := h.caller(c)
	if !ok {
		return
	}

	var q auditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.audit.List(c.Request.Context(), shopID, appaudit.ListFilter{
		Action:     q.Action,
		ObjectType: q.ObjectType,
		ObjectID:   optionalUUID(q.ObjectID),
		UserID:     optionalUUID(q.UserID),
		From:       q.From,
		To:         q.To,
		Page:       q.Page,
		PageSize:   q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}
