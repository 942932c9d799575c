// Package testutil provides test data builders shared across packages.
package testutil

import (
	"github.com/google/uuid"

	"github.com/runshine/secflow-console/pkg/models"
)

// BuildNode creates a pending app node with sane defaults that can be
// overridden.
func BuildNode(nodeID string, overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:         uuid.New().String(),
		NodeID:     nodeID,
		Kind:       models.TemplateKindApp,
		TemplateID: "tpl-" + nodeID,
		Name:       "Node " + nodeID,
		Position:   models.Position{X: 100, Y: 100},
		Status:     models.NodeStatusPending,
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithStatus sets the node status.
func WithStatus(status models.NodeStatus) func(*models.Node) {
	return func(n *models.Node) {
		n.Status = status
	}
}

// WithKind sets the node kind and keeps the template id in sync.
func WithKind(kind models.TemplateKind) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = kind
	}
}

// BuildInstance creates a pending instance holding the given nodes and no
// edges.
func BuildInstance(id string, nodes ...*models.Node) *models.Instance {
	if nodes == nil {
		nodes = []*models.Node{}
	}

	return &models.Instance{
		ID:        id,
		Name:      "Instance " + id,
		Status:    models.InstanceStatusPending,
		ProjectID: "proj-1",
		Nodes:     nodes,
		Edges:     []*models.Edge{},
	}
}
