package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyCompleted  = errors.New("order is already marked as done")
)

// ValidationError is a caller mistake; its message is safe to show verbatim.
type ValidationError struct {
	Message string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError names the kind of resource that is missing and, when known,
// its id. Repositories declare their sentinels as id-less *NotFoundError
// values; errors.Is matches a sentinel against any error for the same
// resource, and every NotFoundError matches ErrNotFound.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// WithID returns a copy of e naming the missing id.
func (e *NotFoundError) WithID(id string) *NotFoundError {
	return &NotFoundError{Resource: e.Resource, ID: id}
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

func (e *NotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	t, ok := target.(*NotFoundError)
	return ok && t.Resource == e.Resource && (t.ID == "" || t.ID == e.ID)
}

type AuthorizationError struct {
	Message string
}

func NewAuthorizationError(message string) *AuthorizationError {
	return &AuthorizationError{Message: message}
}

func (e *AuthorizationError) Error() string { return e.Message }

func (e *AuthorizationError) Is(target error) bool { return target == ErrForbidden }

// StockError reports a product that cannot cover the requested quantity.
type StockError struct {
	ProductID   string
	ProductName string
	Available   int
	Requested   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d", e.ProductName, e.Available)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }
