// Package models defines the core domain models for workflow instance graphs.
package models

import "time"

// InstanceStatus represents the lifecycle state of a workflow instance.
type InstanceStatus string

const (
	InstanceStatusPending   InstanceStatus = "pending"
	InstanceStatusRunning   InstanceStatus = "running"
	InstanceStatusSucceeded InstanceStatus = "succeeded"
	InstanceStatusFailed    InstanceStatus = "failed"
	InstanceStatusStopped   InstanceStatus = "stopped"
)

// Terminal reports whether no further status transition is defined.
// Re-running means creating a new instance, not resurrecting this one.
func (s InstanceStatus) Terminal() bool {
	return s == InstanceStatusSucceeded || s == InstanceStatusFailed || s == InstanceStatusStopped
}

// Instance represents one concrete workflow graph composed from templates,
// owned by a project. The instance's own create/delete lifecycle is driven
// by the project APIs; the console only reads and incrementally mutates it.
type Instance struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"       validate:"required,min=1"`
	Status    InstanceStatus `json:"status"`
	ProjectID string         `json:"project_id" validate:"required"`
	Nodes     []*Node        `json:"nodes"`
	Edges     []*Edge        `json:"edges"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt *time.Time     `json:"deleted_at,omitempty"`
}

// RollupInstanceStatus derives the instance status from its node statuses.
// Running takes precedence over everything: the instance stays running while
// any node still is. A failed or stopped node marks the whole instance once
// nothing is running anymore.
func RollupInstanceStatus(nodes []*Node) InstanceStatus {
	if len(nodes) == 0 {
		return InstanceStatusPending
	}

	var anyRunning, anyFailed, anyStopped, anyPending bool

	for _, node := range nodes {
		switch node.Status {
		case NodeStatusRunning:
			anyRunning = true
		case NodeStatusFailed:
			anyFailed = true
		case NodeStatusStopped:
			anyStopped = true
		case NodeStatusPending:
			anyPending = true
		}
	}

	switch {
	case anyRunning:
		return InstanceStatusRunning
	case anyFailed:
		return InstanceStatusFailed
	case anyStopped:
		return InstanceStatusStopped
	case anyPending:
		return InstanceStatusPending
	default:
		return InstanceStatusSucceeded
	}
}

// NodeByNodeID returns the node with the given graph-local identity, or nil.
func (i *Instance) NodeByNodeID(nodeID string) *Node {
	for _, n := range i.Nodes {
		if n.NodeID == nodeID {
			return n
		}
	}

	return nil
}
