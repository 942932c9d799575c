package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced instance, node or template does
	// not exist on the server.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates the server rejected the call because of a
	// conflicting record, e.g. a duplicate node_id.
	ErrConflict = errors.New("resource conflict")

	// ErrBadRequest indicates the server rejected the payload.
	ErrBadRequest = errors.New("bad request")
)

// RequestError wraps a failed API call with its method and path.
type RequestError struct {
	Method string
	Path   string
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.Path, e.Status, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if an error indicates a missing server resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error indicates a server-side conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
