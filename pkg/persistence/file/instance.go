package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence"
)

// InstanceRepository stores each instance aggregate as one JSON file under
// <root>/instances.
type InstanceRepository struct {
	root string
}

// NewInstanceRepository creates a new instance repository.
func NewInstanceRepository(root string) *InstanceRepository {
	return &InstanceRepository{root: root}
}

func (ir *InstanceRepository) dir() string {
	return path.Join(ir.root, "instances")
}

func (ir *InstanceRepository) filePath(id string) string {
	return path.Join(ir.dir(), id+".json")
}

// GetAll returns all instances that are not soft-deleted.
func (ir *InstanceRepository) GetAll(ctx context.Context) ([]*models.Instance, error) {
	entries, err := fs.Glob(os.DirFS(ir.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list instance files: %w", err)
	}

	instances := make([]*models.Instance, 0, len(entries))

	for _, entry := range entries {
		id := entry[:len(entry)-5]

		instance, err := ir.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if instance.DeletedAt != nil {
			continue
		}

		instances = append(instances, instance)
	}

	return instances, nil
}

// GetByID loads one instance aggregate.
func (ir *InstanceRepository) GetByID(_ context.Context, id string) (*models.Instance, error) {
	data, err := os.ReadFile(ir.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewInstanceError("GetByID", id, persistence.ErrInstanceNotFound)
		}

		return nil, persistence.NewInstanceError("GetByID", id, err)
	}

	var instance models.Instance

	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, persistence.NewInstanceError("GetByID", id, err)
	}

	return &instance, nil
}

// Save writes the full instance aggregate, stamping timestamps.
func (ir *InstanceRepository) Save(_ context.Context, instance *models.Instance) error {
	if err := os.MkdirAll(ir.dir(), 0o755); err != nil {
		return persistence.NewInstanceError("Save", instance.ID, err)
	}

	now := time.Now().UTC()
	if instance.CreatedAt.IsZero() {
		instance.CreatedAt = now
	}

	instance.UpdatedAt = now

	data, err := json.MarshalIndent(instance, "", "  ")
	if err != nil {
		return persistence.NewInstanceError("Save", instance.ID, err)
	}

	if err := os.WriteFile(ir.filePath(instance.ID), data, 0o600); err != nil {
		return persistence.NewInstanceError("Save", instance.ID, err)
	}

	return nil
}

// SetNodeStatus updates one node's status inside the aggregate.
func (ir *InstanceRepository) SetNodeStatus(ctx context.Context, instanceID, nodeID string, status models.NodeStatus) error {
	instance, err := ir.GetByID(ctx, instanceID)
	if err != nil {
		return err
	}

	node := instance.NodeByNodeID(nodeID)
	if node == nil {
		return persistence.NewNodeError("SetNodeStatus", instanceID, nodeID, persistence.ErrNodeNotFound)
	}

	node.Status = status

	return ir.Save(ctx, instance)
}

// SetInstanceStatus updates the instance-level status.
func (ir *InstanceRepository) SetInstanceStatus(ctx context.Context, instanceID string, status models.InstanceStatus) error {
	instance, err := ir.GetByID(ctx, instanceID)
	if err != nil {
		return err
	}

	instance.Status = status

	return ir.Save(ctx, instance)
}

// PurgeDeleted permanently removes soft-deleted instances whose deletion
// predates the cutoff.
func (ir *InstanceRepository) PurgeDeleted(ctx context.Context, before time.Time) (int, error) {
	entries, err := fs.Glob(os.DirFS(ir.dir()), "*.json")
	if err != nil {
		return 0, fmt.Errorf("failed to list instance files: %w", err)
	}

	purged := 0

	for _, entry := range entries {
		id := entry[:len(entry)-5]

		instance, err := ir.GetByID(ctx, id)
		if err != nil {
			return purged, err
		}

		if instance.DeletedAt == nil || !instance.DeletedAt.Before(before) {
			continue
		}

		if err := os.Remove(ir.filePath(id)); err != nil {
			return purged, persistence.NewInstanceError("PurgeDeleted", id, err)
		}

		purged++
	}

	return purged, nil
}

// Delete soft-deletes an instance by stamping DeletedAt.
func (ir *InstanceRepository) Delete(ctx context.Context, id string) error {
	instance, err := ir.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	instance.DeletedAt = &now

	return ir.Save(ctx, instance)
}
