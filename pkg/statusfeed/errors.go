package statusfeed

import (
	"errors"
	"fmt"

	"github.com/runshine/secflow-console/pkg/models"
)

var (
	// ErrInvalidReport indicates a payload that fails the report schema.
	ErrInvalidReport = errors.New("invalid status report")

	// ErrIllegalTransition indicates a reported status the node state
	// machine does not allow from the current status.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// TransitionError carries the rejected transition's endpoints.
type TransitionError struct {
	InstanceID string
	NodeID     string
	From       models.NodeStatus
	To         models.NodeStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s for node %s in instance %s",
		e.From, e.To, e.NodeID, e.InstanceID)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// IsInvalidReport checks if an error indicates a malformed report payload.
func IsInvalidReport(err error) bool {
	return errors.Is(err, ErrInvalidReport)
}

// IsIllegalTransition checks if an error indicates a state machine violation.
func IsIllegalTransition(err error) bool {
	return errors.Is(err, ErrIllegalTransition)
}
