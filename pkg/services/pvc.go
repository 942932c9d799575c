package services

import (
	"context"
	"fmt"

	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence"
)

// PVC serves the per-project PVC catalog the volume binding pickers consume.
type PVC struct {
	persistence persistence.Persistence
}

// NewPVC creates a new PVC service.
func NewPVC(p persistence.Persistence) *PVC {
	return &PVC{persistence: p}
}

// ListByProject returns all PVCs registered for one project.
func (s *PVC) ListByProject(ctx context.Context, projectID string) ([]*models.PVC, error) {
	if projectID == "" {
		return nil, ErrProjectIDRequired
	}

	pvcs, err := s.persistence.PVCsByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pvcs: %w", err)
	}

	return pvcs, nil
}

// Register adds or updates a PVC record.
func (s *PVC) Register(ctx context.Context, pvc *models.PVC) error {
	if pvc.ProjectID == "" {
		return ErrProjectIDRequired
	}

	if pvc.PVCName == "" {
		return fmt.Errorf("pvc name: %w", ErrInvalidRequest)
	}

	if err := s.persistence.SavePVC(ctx, pvc); err != nil {
		return fmt.Errorf("failed to save pvc: %w", err)
	}

	return nil
}
