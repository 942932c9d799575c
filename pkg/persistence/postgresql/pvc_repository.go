package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/runshine/secflow-console/pkg/models"
)

// PVCRepository stores the PVC catalog per project.
type PVCRepository struct {
	db *sql.DB
}

// NewPVCRepository creates a new PVC repository.
func NewPVCRepository(db *sql.DB) *PVCRepository {
	return &PVCRepository{db: db}
}

// GetByProject returns all PVCs registered for one project.
func (pr *PVCRepository) GetByProject(ctx context.Context, projectID string) ([]*models.PVC, error) {
	rows, err := pr.db.QueryContext(ctx, `
		SELECT pvc_name, capacity, resource_name, project_id
		FROM pvcs
		WHERE project_id = $1
		ORDER BY pvc_name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pvcs: %w", err)
	}

	defer rows.Close()

	pvcs := make([]*models.PVC, 0)

	for rows.Next() {
		pvc := &models.PVC{}

		err := rows.Scan(&pvc.PVCName, &pvc.Capacity, &pvc.ResourceName, &pvc.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pvc row: %w", err)
		}

		pvcs = append(pvcs, pvc)
	}

	return pvcs, rows.Err()
}

// Save upserts one PVC record.
func (pr *PVCRepository) Save(ctx context.Context, pvc *models.PVC) error {
	_, err := pr.db.ExecContext(ctx, `
		INSERT INTO pvcs (pvc_name, capacity, resource_name, project_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, pvc_name) DO UPDATE SET
			capacity = EXCLUDED.capacity,
			resource_name = EXCLUDED.resource_name`,
		pvc.PVCName, pvc.Capacity, pvc.ResourceName, pvc.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to save pvc %s: %w", pvc.PVCName, err)
	}

	return nil
}
