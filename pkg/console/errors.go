package console

import (
	"errors"
	"fmt"
)

var (
	// ErrNotEditing indicates a structural mutation was attempted outside
	// edit mode.
	ErrNotEditing = errors.New("view is not in edit mode")

	// ErrEditing indicates an operation that requires live mode was called
	// while edit mode is active.
	ErrEditing = errors.New("view is in edit mode")

	// ErrNotLoaded indicates the instance snapshot has not been fetched yet.
	ErrNotLoaded = errors.New("instance not loaded")

	// ErrSaveInProgress gates duplicate save submissions.
	ErrSaveInProgress = errors.New("save already in progress")
)

// Reconciliation step names, in execution order.
const (
	StepRefresh    = "refresh"
	StepDeleteNode = "delete-node"
	StepUpdateNode = "update-node"
	StepCreateNode = "create-node"
	StepDeleteEdge = "delete-edge"
	StepCreateEdge = "create-edge"
	StepReload     = "reload"
)

// ReconciliationError reports which save step rejected. Steps already issued
// before the failure are not rolled back; edit mode stays active so the
// operator can correct and retry.
type ReconciliationError struct {
	Step string
	ID   string // node_id or edge_id the failing call targeted
	Err  error
}

func (e *ReconciliationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("save step %s failed for %s: %v", e.Step, e.ID, e.Err)
	}

	return fmt.Sprintf("save step %s failed: %v", e.Step, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// IsReconciliationError checks if an error came from a failed save step.
func IsReconciliationError(err error) bool {
	var target *ReconciliationError

	return errors.As(err, &target)
}
