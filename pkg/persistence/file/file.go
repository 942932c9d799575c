// Package file provides file-based persistence for instances, templates,
// PVCs and node logs. It is intended for local development and tests.
package file

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the
// file system. Every record is one JSON file under the root directory.
type Persistence struct {
	root         string
	instanceRepo *InstanceRepository
	templateRepo *TemplateRepository
	pvcRepo      *PVCRepository
	logRepo      *LogRepository
}

// NewPersistence creates a file persistence layer rooted at the given
// directory. A file:// prefix is accepted and stripped.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		instanceRepo: NewInstanceRepository(cleanRoot),
		templateRepo: NewTemplateRepository(cleanRoot),
		pvcRepo:      NewPVCRepository(cleanRoot),
		logRepo:      NewLogRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is
// nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Instances(ctx context.Context) ([]*models.Instance, error) {
	return fp.instanceRepo.GetAll(ctx)
}

func (fp *Persistence) InstanceByID(ctx context.Context, id string) (*models.Instance, error) {
	return fp.instanceRepo.GetByID(ctx, id)
}

func (fp *Persistence) SaveInstance(ctx context.Context, instance *models.Instance) error {
	return fp.instanceRepo.Save(ctx, instance)
}

func (fp *Persistence) DeleteInstance(ctx context.Context, id string) error {
	return fp.instanceRepo.Delete(ctx, id)
}

func (fp *Persistence) SetNodeStatus(ctx context.Context, instanceID, nodeID string, status models.NodeStatus) error {
	return fp.instanceRepo.SetNodeStatus(ctx, instanceID, nodeID, status)
}

func (fp *Persistence) SetInstanceStatus(ctx context.Context, instanceID string, status models.InstanceStatus) error {
	return fp.instanceRepo.SetInstanceStatus(ctx, instanceID, status)
}

func (fp *Persistence) PurgeDeletedInstances(ctx context.Context, before time.Time) (int, error) {
	return fp.instanceRepo.PurgeDeleted(ctx, before)
}

func (fp *Persistence) Templates(ctx context.Context, kind models.TemplateKind, nameFilter string) ([]*models.Template, error) {
	return fp.templateRepo.GetAll(ctx, kind, nameFilter)
}

func (fp *Persistence) TemplateByID(ctx context.Context, kind models.TemplateKind, id string) (*models.Template, error) {
	return fp.templateRepo.GetByID(ctx, kind, id)
}

func (fp *Persistence) SaveTemplate(ctx context.Context, template *models.Template) error {
	return fp.templateRepo.Save(ctx, template)
}

func (fp *Persistence) DeleteTemplate(ctx context.Context, kind models.TemplateKind, id string) error {
	return fp.templateRepo.Delete(ctx, kind, id)
}

func (fp *Persistence) PVCsByProject(ctx context.Context, projectID string) ([]*models.PVC, error) {
	return fp.pvcRepo.GetByProject(ctx, projectID)
}

func (fp *Persistence) SavePVC(ctx context.Context, pvc *models.PVC) error {
	return fp.pvcRepo.Save(ctx, pvc)
}

func (fp *Persistence) NodeLogs(ctx context.Context, instanceID, nodeID string) (string, error) {
	return fp.logRepo.Get(ctx, instanceID, nodeID)
}

func (fp *Persistence) AppendNodeLogs(ctx context.Context, instanceID, nodeID, chunk string) error {
	return fp.logRepo.Append(ctx, instanceID, nodeID, chunk)
}
