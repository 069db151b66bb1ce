// Package services provides the application layer: graph management, run
// orchestration and provider connection handling.
package services

import (
	"errors"
	"fmt"

	"github.com/maestrohq/maestro/pkg/persistence"
)

// Business logic errors. Validation errors map to 400 responses, conflicts
// to 409, not-found to 404.
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrGraphNameRequired    = errors.New("graph name is required")
	ErrNodesRequired        = errors.New("graph must have at least one node")
	ErrGraphNil             = errors.New("graph cannot be nil")
	ErrAuthenticationFailed = errors.New("provider authentication failed")
)

// Not-found sentinels are shared with the persistence layer so handlers
// match on one error regardless of which layer produced it.
var (
	ErrGraphNotFound      = persistence.ErrGraphNotFound
	ErrRunNotFound        = persistence.ErrRunNotFound
	ErrConnectionNotFound = persistence.ErrConnectionNotFound
	ErrGraphAlreadyExists = persistence.ErrGraphAlreadyExists
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should surface as HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrGraphNameRequired) ||
		errors.Is(err, ErrNodesRequired) ||
		errors.Is(err, ErrGraphNil)
}

// IsNotFoundError checks if an error should surface as HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrGraphNotFound) ||
		errors.Is(err, ErrRunNotFound) ||
		errors.Is(err, ErrConnectionNotFound)
}

// IsConflictError checks if an error should surface as HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrGraphAlreadyExists)
}

// NewValidationError creates a validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
