// Package services provides the business operations behind the management
// API: instance, node, edge, template and PVC handling.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. Validation errors map to 400 responses, conflicts
// to 409.
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInstanceNameRequired = errors.New("instance name is required")
	ErrProjectIDRequired    = errors.New("project id is required")
	ErrNodeIDRequired       = errors.New("node id is required")
	ErrNodeNameRequired     = errors.New("node name is required")
	ErrUnknownTemplateKind  = errors.New("unknown template kind")
	ErrUnknownEdgeAction    = errors.New("unknown edge action")
	ErrEdgeEndpointMissing  = errors.New("edge endpoint does not exist")
	ErrEdgeSelfLoop         = errors.New("edge source and target are the same node")

	// Business logic conflicts (409 Conflict).
	ErrNodeIDTaken       = errors.New("node id already exists in instance")
	ErrInstanceFinalized = errors.New("instance is in a terminal status")
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
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

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInstanceNameRequired) ||
		errors.Is(err, ErrProjectIDRequired) ||
		errors.Is(err, ErrNodeIDRequired) ||
		errors.Is(err, ErrNodeNameRequired) ||
		errors.Is(err, ErrUnknownTemplateKind) ||
		errors.Is(err, ErrUnknownEdgeAction) ||
		errors.Is(err, ErrEdgeEndpointMissing) ||
		errors.Is(err, ErrEdgeSelfLoop)
}

// IsConflictError checks if an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrNodeIDTaken) ||
		errors.Is(err, ErrInstanceFinalized)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
