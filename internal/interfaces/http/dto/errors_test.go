package dto

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{shared.CodeInvalidArgument, http.StatusBadRequest},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeConflict, http.StatusConflict},
		{shared.CodeAlreadyExists, http.StatusConflict},
		{shared.CodeInvalidState, http.StatusUnprocessableEntity},
		{shared.CodeInsufficientStock, http.StatusUnprocessableEntity},
		{shared.CodeUnauthorized, http.StatusUnauthorized},
		{shared.CodeForbidden, http.StatusForbidden},
		{CodeValidation, http.StatusBadRequest},
		{CodeTokenRevoked, http.StatusUnauthorized},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestFromError_DomainError(t *testing.T) {
	err := fmt.Errorf("void: %w", shared.InvalidState("Cannot void a sale in status refunded"))

	status, resp, ok := FromError(err, "req-1")

	assert.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, shared.CodeInvalidState, resp.Error.Code)
	assert.Equal(t, "Cannot void a sale in status refunded", resp.Error.Message)
	assert.Equal(t, "req-1", resp.Error.RequestID)
}

func TestFromError_InsufficientStockCarriesDetails(t *testing.T) {
	productID := uuid.New()
	err := shared.NewInsufficientStockError(productID, "Rice 5kg", 4, 1)

	status, resp, ok := FromError(err, "")

	assert.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, shared.CodeInsufficientStock, resp.Error.Code)
	assert.Equal(t, InsufficientStockDetails{
		ProductID:   productID.String(),
		ProductName: "Rice 5kg",
		Requested:   4,
		Available:   1,
	}, resp.Error.Details)
}

func TestFromError_UnknownErrorIsHidden(t *testing.T) {
	status, resp, ok := FromError(errors.New("pq: connection refused"), "req-2")

	assert.False(t, ok)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, CodeInternal, resp.Error.Code)
	assert.Equal(t, InternalMessage, resp.Error.Message)
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse(shared.NewPaginated([]string{"a", "b"}, 5, 1, 2))
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"a", "b"}, resp.Data)
	assert.Equal(t, &Meta{Total: 5, Page: 1, PageSize: 2, TotalPages: 3}, resp.Meta)

	empty := NewPageResponse(shared.NewPaginated[string](nil, 0, 1, 20))
	assert.Equal(t, []string{}, empty.Data)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "r", []ValidationDetail{{Field: "sku", Message: "This field is required"}})
	assert.Equal(t, CodeValidation, resp.Error.Code)
	assert.Len(t, resp.Error.Details, 1)

	bare := NewValidationErrorResponse("Invalid JSON", "r", nil)
	assert.Nil(t, bare.Error.Details)
}
