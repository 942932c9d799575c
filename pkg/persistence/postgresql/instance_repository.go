package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence"
)

// InstanceRepository stores instance aggregates across the instances,
// instance_nodes and instance_edges tables. Saves replace the node and edge
// sets wholesale inside one transaction.
type InstanceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewInstanceRepository creates a new instance repository.
func NewInstanceRepository(db *sql.DB, logger *slog.Logger) *InstanceRepository {
	return &InstanceRepository{db: db, logger: logger}
}

// GetAll returns all instances that are not soft-deleted, with their nodes
// and edges loaded.
func (ir *InstanceRepository) GetAll(ctx context.Context) ([]*models.Instance, error) {
	rows, err := ir.db.QueryContext(ctx, `
		SELECT id, name, status, project_id, created_at, updated_at
		FROM instances
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query instances: %w", err)
	}

	defer rows.Close()

	instances := make([]*models.Instance, 0)

	for rows.Next() {
		instance := &models.Instance{}

		err := rows.Scan(&instance.ID, &instance.Name, &instance.Status,
			&instance.ProjectID, &instance.CreatedAt, &instance.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instance row: %w", err)
		}

		instances = append(instances, instance)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate instance rows: %w", err)
	}

	for _, instance := range instances {
		if err := ir.loadGraph(ctx, instance); err != nil {
			return nil, err
		}
	}

	return instances, nil
}

// GetByID loads one instance aggregate.
func (ir *InstanceRepository) GetByID(ctx context.Context, id string) (*models.Instance, error) {
	instance := &models.Instance{}

	err := ir.db.QueryRowContext(ctx, `
		SELECT id, name, status, project_id, created_at, updated_at, deleted_at
		FROM instances
		WHERE id = $1`, id).
		Scan(&instance.ID, &instance.Name, &instance.Status, &instance.ProjectID,
			&instance.CreatedAt, &instance.UpdatedAt, &instance.DeletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewInstanceError("GetByID", id, persistence.ErrInstanceNotFound)
		}

		return nil, persistence.NewInstanceError("GetByID", id, err)
	}

	if err := ir.loadGraph(ctx, instance); err != nil {
		return nil, err
	}

	return instance, nil
}

func (ir *InstanceRepository) loadGraph(ctx context.Context, instance *models.Instance) error {
	nodes, err := ir.loadNodes(ctx, instance.ID)
	if err != nil {
		return persistence.NewInstanceError("GetByID", instance.ID, err)
	}

	edges, err := ir.loadEdges(ctx, instance.ID)
	if err != nil {
		return persistence.NewInstanceError("GetByID", instance.ID, err)
	}

	instance.Nodes = nodes
	instance.Edges = edges

	return nil
}

func (ir *InstanceRepository) loadNodes(ctx context.Context, instanceID string) ([]*models.Node, error) {
	rows, err := ir.db.QueryContext(ctx, `
		SELECT id, node_id, node_type, template_id, name, position_x, position_y,
		       status, env_vars, volume_mounts, resources, timeout_seconds
		FROM instance_nodes
		WHERE instance_id = $1
		ORDER BY node_id`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}

	defer rows.Close()

	nodes := make([]*models.Node, 0)

	for rows.Next() {
		node := &models.Node{}

		var envVars, volumeMounts []byte

		var resources sql.NullString

		err := rows.Scan(&node.ID, &node.NodeID, &node.Kind, &node.TemplateID,
			&node.Name, &node.Position.X, &node.Position.Y, &node.Status,
			&envVars, &volumeMounts, &resources, &node.TimeoutSeconds)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node row: %w", err)
		}

		if err := json.Unmarshal(envVars, &node.EnvVars); err != nil {
			return nil, fmt.Errorf("failed to decode env_vars for node %s: %w", node.NodeID, err)
		}

		if err := json.Unmarshal(volumeMounts, &node.VolumeMounts); err != nil {
			return nil, fmt.Errorf("failed to decode volume_mounts for node %s: %w", node.NodeID, err)
		}

		if resources.Valid && resources.String != "" && resources.String != "null" {
			node.Resources = &models.Resources{}
			if err := json.Unmarshal([]byte(resources.String), node.Resources); err != nil {
				return nil, fmt.Errorf("failed to decode resources for node %s: %w", node.NodeID, err)
			}
		}

		nodes = append(nodes, node)
	}

	return nodes, rows.Err()
}

func (ir *InstanceRepository) loadEdges(ctx context.Context, instanceID string) ([]*models.Edge, error) {
	rows, err := ir.db.QueryContext(ctx, `
		SELECT edge_id, source, target
		FROM instance_edges
		WHERE instance_id = $1
		ORDER BY edge_id`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}

	defer rows.Close()

	edges := make([]*models.Edge, 0)

	for rows.Next() {
		edge := &models.Edge{}

		if err := rows.Scan(&edge.EdgeID, &edge.Source, &edge.Target); err != nil {
			return nil, fmt.Errorf("failed to scan edge row: %w", err)
		}

		edges = append(edges, edge)
	}

	return edges, rows.Err()
}

// Save upserts the instance row and replaces its node and edge sets in one
// transaction.
func (ir *InstanceRepository) Save(ctx context.Context, instance *models.Instance) error {
	now := time.Now().UTC()
	if instance.CreatedAt.IsZero() {
		instance.CreatedAt = now
	}

	instance.UpdatedAt = now

	tx, err := ir.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence.NewInstanceError("Save", instance.ID, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO instances (id, name, status, project_id, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			project_id = EXCLUDED.project_id,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at`,
		instance.ID, instance.Name, instance.Status, instance.ProjectID,
		instance.CreatedAt, instance.UpdatedAt, instance.DeletedAt)
	if err != nil {
		return persistence.NewInstanceError("Save", instance.ID, err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM instance_nodes WHERE instance_id = $1", instance.ID)
	if err != nil {
		return persistence.NewInstanceError("Save", instance.ID, err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM instance_edges WHERE instance_id = $1", instance.ID)
	if err != nil {
		return persistence.NewInstanceError("Save", instance.ID, err)
	}

	for _, node := range instance.Nodes {
		if err := ir.insertNode(ctx, tx, instance.ID, node); err != nil {
			return err
		}
	}

	for _, edge := range instance.Edges {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO instance_edges (instance_id, edge_id, source, target)
			VALUES ($1, $2, $3, $4)`,
			instance.ID, edge.EdgeID, edge.Source, edge.Target)
		if err != nil {
			return persistence.NewInstanceError("Save", instance.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return persistence.NewInstanceError("Save", instance.ID, err)
	}

	return nil
}

func (ir *InstanceRepository) insertNode(ctx context.Context, tx *sql.Tx, instanceID string, node *models.Node) error {
	envVars, err := json.Marshal(node.EnvVars)
	if err != nil {
		return &persistence.NodeError{Op: "Save", InstanceID: instanceID, NodeID: node.NodeID, Err: err}
	}

	volumeMounts, err := json.Marshal(node.VolumeMounts)
	if err != nil {
		return &persistence.NodeError{Op: "Save", InstanceID: instanceID, NodeID: node.NodeID, Err: err}
	}

	status := node.Status
	if status == "" {
		status = models.NodeStatusPending
	}

	var resources any

	if node.Resources != nil {
		data, err := json.Marshal(node.Resources)
		if err != nil {
			return &persistence.NodeError{Op: "Save", InstanceID: instanceID, NodeID: node.NodeID, Err: err}
		}

		resources = string(data)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO instance_nodes (instance_id, id, node_id, node_type, template_id,
			name, position_x, position_y, status, env_vars, volume_mounts, resources, timeout_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		instanceID, node.ID, node.NodeID, node.Kind, node.TemplateID,
		node.Name, node.Position.X, node.Position.Y, status,
		envVars, volumeMounts, resources, node.TimeoutSeconds)
	if err != nil {
		return &persistence.NodeError{Op: "Save", InstanceID: instanceID, NodeID: node.NodeID, Err: err}
	}

	return nil
}

// SetNodeStatus updates one node's status in place.
func (ir *InstanceRepository) SetNodeStatus(ctx context.Context, instanceID, nodeID string, status models.NodeStatus) error {
	result, err := ir.db.ExecContext(ctx, `
		UPDATE instance_nodes SET status = $1
		WHERE instance_id = $2 AND node_id = $3`,
		status, instanceID, nodeID)
	if err != nil {
		return persistence.NewNodeError("SetNodeStatus", instanceID, nodeID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewNodeError("SetNodeStatus", instanceID, nodeID, err)
	}

	if affected == 0 {
		return persistence.NewNodeError("SetNodeStatus", instanceID, nodeID, persistence.ErrNodeNotFound)
	}

	return nil
}

// SetInstanceStatus updates the instance-level status.
func (ir *InstanceRepository) SetInstanceStatus(ctx context.Context, instanceID string, status models.InstanceStatus) error {
	result, err := ir.db.ExecContext(ctx, `
		UPDATE instances SET status = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL`,
		status, instanceID)
	if err != nil {
		return persistence.NewInstanceError("SetInstanceStatus", instanceID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewInstanceError("SetInstanceStatus", instanceID, err)
	}

	if affected == 0 {
		return persistence.NewInstanceError("SetInstanceStatus", instanceID, persistence.ErrInstanceNotFound)
	}

	return nil
}

// PurgeDeleted permanently removes soft-deleted instances whose deletion
// predates the cutoff. Node, edge and log rows go with them.
func (ir *InstanceRepository) PurgeDeleted(ctx context.Context, before time.Time) (int, error) {
	tx, err := ir.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin purge transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range []string{"instance_nodes", "instance_edges", "node_logs"} {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM `+table+`
			WHERE instance_id IN (
				SELECT id FROM instances WHERE deleted_at IS NOT NULL AND deleted_at < $1
			)`, before)
		if err != nil {
			return 0, fmt.Errorf("failed to purge %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx,
		"DELETE FROM instances WHERE deleted_at IS NOT NULL AND deleted_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge instances: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged instances: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit purge: %w", err)
	}

	return int(affected), nil
}

// Delete soft deletes an instance by setting deleted_at.
func (ir *InstanceRepository) Delete(ctx context.Context, id string) error {
	result, err := ir.db.ExecContext(ctx,
		"UPDATE instances SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return persistence.NewInstanceError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewInstanceError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewInstanceError("Delete", id, persistence.ErrInstanceNotFound)
	}

	return nil
}
