// Package client defines the call set the console core consumes from the
// management API, plus its HTTP implementation. The console logic itself is
// transport-agnostic: it only depends on the API interface.
package client

import (
	"context"

	"github.com/runshine/secflow-console/pkg/models"
)

// EdgeAction selects what an edge update does.
type EdgeAction string

const (
	EdgeActionAdd    EdgeAction = "add"
	EdgeActionDelete EdgeAction = "delete"
)

// CreateNodeRequest is the payload for persisting a new node.
type CreateNodeRequest struct {
	NodeID         string               `json:"node_id"     validate:"required"`
	Kind           models.TemplateKind  `json:"node_type"   validate:"required,oneof=app job"`
	TemplateID     string               `json:"template_id" validate:"required"`
	Name           string               `json:"name"        validate:"required,min=1"`
	Position       models.Position      `json:"position"`
	EnvVars        []models.EnvVar      `json:"env_vars,omitempty"`
	VolumeMounts   []models.VolumeMount `json:"volume_mounts,omitempty"`
	Resources      *models.Resources    `json:"resources,omitempty"`
	TimeoutSeconds int                  `json:"timeout_seconds,omitempty"`
}

// UpdateNodeRequest is a partial patch of a node's mutable fields. Nil fields
// are left untouched. NodeID, Kind and TemplateID are immutable and have no
// place here.
type UpdateNodeRequest struct {
	Name         *string              `json:"name,omitempty" validate:"omitempty,min=1"`
	Position     *models.Position     `json:"position,omitempty"`
	EnvVars      []models.EnvVar      `json:"env_vars,omitempty"`
	VolumeMounts []models.VolumeMount `json:"volume_mounts,omitempty"`
}

// EdgeUpdateRequest adds or deletes one edge of an instance.
type EdgeUpdateRequest struct {
	EdgeID string     `json:"edge_id,omitempty"`
	Source string     `json:"source,omitempty"`
	Target string     `json:"target,omitempty"`
	Action EdgeAction `json:"action" validate:"required,oneof=add delete"`
}

// TemplateFilter narrows template catalog listings.
type TemplateFilter struct {
	Name string
}

// API is the full call set the console requires from the management server.
type API interface {
	GetInstance(ctx context.Context, id string) (*models.Instance, error)
	GetNode(ctx context.Context, instanceID, nodeID string) (*models.Node, error)
	CreateNode(ctx context.Context, instanceID string, req *CreateNodeRequest) (*models.Node, error)
	UpdateNode(ctx context.Context, instanceID, id string, patch *UpdateNodeRequest) (*models.Node, error)
	DeleteNode(ctx context.Context, instanceID, id string) error
	UpdateEdge(ctx context.Context, instanceID string, req *EdgeUpdateRequest) error

	GetAppTemplate(ctx context.Context, id string) (*models.Template, error)
	GetJobTemplate(ctx context.Context, id string) (*models.Template, error)
	ListAppTemplates(ctx context.Context, filter TemplateFilter) ([]*models.TemplateSummary, error)
	ListJobTemplates(ctx context.Context, filter TemplateFilter) ([]*models.TemplateSummary, error)

	GetNodeLogs(ctx context.Context, instanceID, nodeID string) (string, error)
	GetPVCs(ctx context.Context, projectID string) ([]*models.PVC, error)
}
