package dto

import (
	"errors"
	"net/http"

	"github.com/shopledger/backend/internal/domain/shared"
)

// Transport-level codes. Domain errors keep their own codes.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeBadRequest      = "BAD_REQUEST"
	CodeInternal        = "INTERNAL_ERROR"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeTokenInvalid    = "INVALID_TOKEN"
	CodeTokenRevoked    = "TOKEN_REVOKED"
	CodeRequestTooLarge = "REQUEST_TOO_LARGE"
	CodeUnavailable     = "SERVICE_UNAVAILABLE"
)

// InternalMessage is shown for every error that is not a domain error
const InternalMessage = "An unexpected error occurred"

var codeStatus = map[string]int{
	shared.CodeInvalidArgument:   http.StatusBadRequest,
	shared.CodeNotFound:          http.StatusNotFound,
	shared.CodeAlreadyExists:     http.StatusConflict,
	shared.CodeConflict:          http.StatusConflict,
	shared.CodeInvalidState:      http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock: http.StatusUnprocessableEntity,
	shared.CodeUnauthorized:      http.StatusUnauthorized,
	shared.CodeForbidden:         http.StatusForbidden,

	CodeValidation:      http.StatusBadRequest,
	CodeBadRequest:      http.StatusBadRequest,
	CodeTokenExpired:    http.StatusUnauthorized,
	CodeTokenInvalid:    http.StatusUnauthorized,
	CodeTokenRevoked:    http.StatusUnauthorized,
	CodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	CodeUnavailable:     http.StatusServiceUnavailable,
	CodeInternal:        http.StatusInternalServerError,
}

// HTTPStatus returns the status for code, 500 when unknown
func HTTPStatus(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// InsufficientStockDetails is attached to INSUFFICIENT_STOCK errors
type InsufficientStockDetails struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int64  `json:"requested"`
	Available   int64  `json:"available"`
}

// FromError maps err to a status and envelope. The second result is false
// for errors that are not domain errors; their text is never exposed.
func FromError(err error, requestID string) (int, Response, bool) {
	var stockErr *shared.InsufficientStockError
	if errors.As(err, &stockErr) {
		resp := NewErrorResponse(stockErr.Code, stockErr.Message, requestID)
		resp.Error.Details = InsufficientStockDetails{
			ProductID:   stockErr.ProductID.String(),
			ProductName: stockErr.ProductName,
			Requested:   stockErr.Requested,
			Available:   stockErr.Available,
		}
		return HTTPStatus(stockErr.Code), resp, true
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return HTTPStatus(domainErr.Code), NewErrorResponse(domainErr.Code, domainErr.Message, requestID), true
	}

	return http.StatusInternalServerError, NewErrorResponse(CodeInternal, InternalMessage, requestID), false
}
