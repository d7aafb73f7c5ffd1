package persistence

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// notFoundOr maps gorm.ErrRecordNotFound to a NOT_FOUND domain error for the
// named resource and wraps anything else.
func notFoundOr(err error, resource string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NotFound(resource, id)
	}
	return fmt.Errorf("find %s: %w", resource, err)
}

// duplicateAs maps gorm.ErrDuplicatedKey to the given domain error and wraps
// anything else with the operation name.
func duplicateAs(err error, op string, dup *shared.DomainError) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return dup
	}
	return fmt.Errorf("%s: %w", op, err)
}
