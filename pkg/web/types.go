// Package web provides the HTTP surface of the management API.
package web

import "github.com/runshine/secflow-console/pkg/models"

// InstanceListResponse wraps the instance collection endpoint payload.
type InstanceListResponse struct {
	Items []*models.Instance `json:"items"`
}

// TemplateListResponse wraps the template catalog endpoint payload.
type TemplateListResponse struct {
	Items []*models.TemplateSummary `json:"items"`
}

// NodeLogsResponse carries the accumulated log text of one node.
type NodeLogsResponse struct {
	InstanceID string `json:"instance_id"`
	NodeID     string `json:"node_id"`
	Logs       string `json:"logs"`
}

// PVCListResponse wraps the per-project PVC catalog payload.
type PVCListResponse struct {
	ProjectID string        `json:"project_id"`
	PVCs      []*models.PVC `json:"pvcs"`
}
