// Package persistence provides the data storage abstraction for workflow
// instances, templates, PVCs and node logs.
package persistence

import (
	"context"
	"time"

	"github.com/runshine/secflow-console/pkg/models"
)

// Persistence is the full storage surface the management API requires.
// Instances are stored as aggregates: nodes and edges travel with their
// instance on every read and write.
type Persistence interface {
	Instances(ctx context.Context) ([]*models.Instance, error)
	InstanceByID(ctx context.Context, id string) (*models.Instance, error)
	SaveInstance(ctx context.Context, instance *models.Instance) error
	DeleteInstance(ctx context.Context, id string) error

	// SetNodeStatus updates a single node's status in place, without
	// rewriting the rest of the aggregate.
	SetNodeStatus(ctx context.Context, instanceID, nodeID string, status models.NodeStatus) error
	// SetInstanceStatus updates the instance-level status roll-up.
	SetInstanceStatus(ctx context.Context, instanceID string, status models.InstanceStatus) error
	// PurgeDeletedInstances permanently removes soft-deleted instances
	// whose deletion predates the cutoff. Returns how many were purged.
	PurgeDeletedInstances(ctx context.Context, before time.Time) (int, error)

	Templates(ctx context.Context, kind models.TemplateKind, nameFilter string) ([]*models.Template, error)
	TemplateByID(ctx context.Context, kind models.TemplateKind, id string) (*models.Template, error)
	SaveTemplate(ctx context.Context, template *models.Template) error
	DeleteTemplate(ctx context.Context, kind models.TemplateKind, id string) error

	PVCsByProject(ctx context.Context, projectID string) ([]*models.PVC, error)
	SavePVC(ctx context.Context, pvc *models.PVC) error

	NodeLogs(ctx context.Context, instanceID, nodeID string) (string, error)
	AppendNodeLogs(ctx context.Context, instanceID, nodeID, chunk string) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
