// Package handler adapts HTTP requests to the application services.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.CodeBadRequest, message, middleware.GetRequestID(c)))
}

// BindError answers a failed JSON or query binding
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	c.Set(middleware.ErrorCodeKey, dto.CodeValidation)
	middleware.HandleValidationError(c, err)
}

// HandleError writes the envelope for err. Domain errors keep their code
// and message; anything else is logged and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	status, resp, isDomain := dto.FromError(err, middleware.GetRequestID(c))
	if !isDomain {
		logger.GetGinLogger(c).Error("Request failed", zap.Error(err))
		_ = c.Error(err)
	}
	c.Set(middleware.ErrorCodeKey, resp.Error.Code)
	c.JSON(status, resp)
}

// caller returns the authenticated shop and user. It answers 401 and
// reports false when either is missing.
func (h *BaseHandler) caller(c *gin.Context) (shopID, userID uuid.UUID, ok bool) {
	shopID, shopOK := middleware.GetShopID(c)
	userID, userOK := middleware.GetUserID(c)
	if !shopOK || !userOK {
		c.JSON(http.StatusUnauthorized,
			dto.NewErrorResponse(shared.CodeUnauthorized, "Authentication required", middleware.GetRequestID(c)))
		return uuid.Nil, uuid.Nil, false
	}
	return shopID, userID, true
}

// pathUUID parses a uuid path parameter, answering 400 when malformed
func (h *BaseHandler) pathUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+label+" ID format")
		return uuid.Nil, false
	}
	return id, true
}
