package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/runshine/secflow-console/pkg/models"
)

// PVCRepository stores PVC records as JSON files under
// <root>/pvcs/<project>.
type PVCRepository struct {
	root string
}

// NewPVCRepository creates a new PVC repository.
func NewPVCRepository(root string) *PVCRepository {
	return &PVCRepository{root: root}
}

func (pr *PVCRepository) dir(projectID string) string {
	return path.Join(pr.root, "pvcs", projectID)
}

// GetByProject returns all PVCs registered for one project.
func (pr *PVCRepository) GetByProject(_ context.Context, projectID string) ([]*models.PVC, error) {
	entries, err := fs.Glob(os.DirFS(pr.dir(projectID)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list pvc files: %w", err)
	}

	pvcs := make([]*models.PVC, 0, len(entries))

	for _, entry := range entries {
		data, err := os.ReadFile(path.Join(pr.dir(projectID), entry))
		if err != nil {
			return nil, fmt.Errorf("failed to read pvc file %s: %w", entry, err)
		}

		var pvc models.PVC

		if err := json.Unmarshal(data, &pvc); err != nil {
			return nil, fmt.Errorf("failed to decode pvc file %s: %w", entry, err)
		}

		pvcs = append(pvcs, &pvc)
	}

	return pvcs, nil
}

// Save writes one PVC record.
func (pr *PVCRepository) Save(_ context.Context, pvc *models.PVC) error {
	if err := os.MkdirAll(pr.dir(pvc.ProjectID), 0o755); err != nil {
		return fmt.Errorf("failed to create pvc directory: %w", err)
	}

	data, err := json.MarshalIndent(pvc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pvc %s: %w", pvc.PVCName, err)
	}

	filePath := path.Join(pr.dir(pvc.ProjectID), pvc.PVCName+".json")

	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write pvc %s: %w", pvc.PVCName, err)
	}

	return nil
}
