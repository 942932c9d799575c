package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateNodeID indicates a node with the same graph-local identity
	// is already present in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node id")

	// ErrDanglingEdge indicates an edge endpoint references a node that does
	// not exist in the graph.
	ErrDanglingEdge = errors.New("edge endpoint does not exist")

	// ErrCycle indicates adding the edge would make the graph cyclic.
	ErrCycle = errors.New("edge would create a cycle")

	// ErrNodeNotFound indicates the referenced node is not in the graph.
	ErrNodeNotFound = errors.New("node not found in graph")

	// ErrEdgeNotFound indicates the referenced edge is not in the graph.
	ErrEdgeNotFound = errors.New("edge not found in graph")
)

// Error wraps a structural graph error with the identities involved.
type Error struct {
	Op     string
	NodeID string
	EdgeID string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.EdgeID != "":
		return fmt.Sprintf("%s: edge %s: %v", e.Op, e.EdgeID, e.Err)
	case e.NodeID != "":
		return fmt.Sprintf("%s: node %s: %v", e.Op, e.NodeID, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsDuplicateNodeID checks if an error indicates a duplicate node identity.
func IsDuplicateNodeID(err error) bool {
	return errors.Is(err, ErrDuplicateNodeID)
}

// IsDanglingEdge checks if an error indicates a missing edge endpoint.
func IsDanglingEdge(err error) bool {
	return errors.Is(err, ErrDanglingEdge)
}

// IsCycle checks if an error indicates a rejected cyclic edge.
func IsCycle(err error) bool {
	return errors.Is(err, ErrCycle)
}
