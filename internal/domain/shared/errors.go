package shared

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error codes shared by every bounded context.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeAlreadyExists     = "ALREADY_EXISTS"
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeInvalidState      = "INVALID_STATE"
	CodeConflict          = "CONFLICT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrNotFound) matches any NOT_FOUND error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists     = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidArgument   = NewDomainError(CodeInvalidArgument, "Invalid argument provided")
	ErrInvalidState      = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrConflict          = NewDomainError(CodeConflict, "Resource was modified by another process")
	ErrInsufficientStock = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrUnauthorized      = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden         = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
)

// InvalidArgument builds an INVALID_ARGUMENT error with a formatted message.
func InvalidArgument(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidArgument, fmt.Sprintf(format, args...))
}

// InvalidState builds an INVALID_STATE error with a formatted message.
func InvalidState(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidState, fmt.Sprintf(format, args...))
}

// NotFound builds a NOT_FOUND error for the named resource.
func NotFound(resource string, id uuid.UUID) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %s not found", resource, id))
}

// Conflict builds a CONFLICT error with a formatted message.
func Conflict(format string, args ...any) *DomainError {
	return NewDomainError(CodeConflict, fmt.Sprintf(format, args...))
}

// InsufficientStockError reports which product could not cover a request.
type InsufficientStockError struct {
	DomainError
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Requested   int64     `json:"requested"`
	Available   int64     `json:"available"`
}

// NewInsufficientStockError creates an InsufficientStockError
func NewInsufficientStockError(productID uuid.UUID, productName string, requested, available int64) *InsufficientStockError {
	name := productName
	if name == "" {
		name = productID.String()
	}
	return &InsufficientStockError{
		DomainError: DomainError{
			Code: CodeInsufficientStock,
			Message: fmt.Sprintf("Insufficient stock for product %s. Requested: %d, Available: %d",
				name, requested, available),
		},
		ProductID:   productID,
		ProductName: productName,
		Requested:   requested,
		Available:   available,
	}
}

// Shortfall returns how many units are missing.
func (e *InsufficientStockError) Shortfall() int64 {
	return e.Requested - e.Available
}

// Unwrap exposes the embedded DomainError to errors.As and errors.Is.
func (e *InsufficientStockError) Unwrap() error {
	return &e.DomainError
}

// IsConflict reports whether err should trigger a transaction retry.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
