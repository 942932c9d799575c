// Package postgresql provides PostgreSQL persistence for instances,
// templates, PVCs and node logs.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// Registers the postgres driver.
	_ "github.com/lib/pq"

	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db           *sql.DB
	logger       *slog.Logger
	instanceRepo *InstanceRepository
	templateRepo *TemplateRepository
	pvcRepo      *PVCRepository
	logRepo      *LogRepository
}

// NewPersistence creates a new PostgreSQL persistence layer and runs pending
// schema migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:           database,
		logger:       logger,
		instanceRepo: NewInstanceRepository(database, logger),
		templateRepo: NewTemplateRepository(database),
		pvcRepo:      NewPVCRepository(database),
		logRepo:      NewLogRepository(database),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Instances(ctx context.Context) ([]*models.Instance, error) {
	return p.instanceRepo.GetAll(ctx)
}

func (p *Persistence) InstanceByID(ctx context.Context, id string) (*models.Instance, error) {
	return p.instanceRepo.GetByID(ctx, id)
}

func (p *Persistence) SaveInstance(ctx context.Context, instance *models.Instance) error {
	return p.instanceRepo.Save(ctx, instance)
}

// DeleteInstance soft deletes an instance by setting deleted_at.
func (p *Persistence) DeleteInstance(ctx context.Context, id string) error {
	return p.instanceRepo.Delete(ctx, id)
}

func (p *Persistence) SetNodeStatus(ctx context.Context, instanceID, nodeID string, status models.NodeStatus) error {
	return p.instanceRepo.SetNodeStatus(ctx, instanceID, nodeID, status)
}

func (p *Persistence) SetInstanceStatus(ctx context.Context, instanceID string, status models.InstanceStatus) error {
	return p.instanceRepo.SetInstanceStatus(ctx, instanceID, status)
}

func (p *Persistence) PurgeDeletedInstances(ctx context.Context, before time.Time) (int, error) {
	return p.instanceRepo.PurgeDeleted(ctx, before)
}

func (p *Persistence) Templates(ctx context.Context, kind models.TemplateKind, nameFilter string) ([]*models.Template, error) {
	return p.templateRepo.GetAll(ctx, kind, nameFilter)
}

func (p *Persistence) TemplateByID(ctx context.Context, kind models.TemplateKind, id string) (*models.Template, error) {
	return p.templateRepo.GetByID(ctx, kind, id)
}

func (p *Persistence) SaveTemplate(ctx context.Context, template *models.Template) error {
	return p.templateRepo.Save(ctx, template)
}

func (p *Persistence) DeleteTemplate(ctx context.Context, kind models.TemplateKind, id string) error {
	return p.templateRepo.Delete(ctx, kind, id)
}

func (p *Persistence) PVCsByProject(ctx context.Context, projectID string) ([]*models.PVC, error) {
	return p.pvcRepo.GetByProject(ctx, projectID)
}

func (p *Persistence) SavePVC(ctx context.Context, pvc *models.PVC) error {
	return p.pvcRepo.Save(ctx, pvc)
}

func (p *Persistence) NodeLogs(ctx context.Context, instanceID, nodeID string) (string, error) {
	return p.logRepo.Get(ctx, instanceID, nodeID)
}

func (p *Persistence) AppendNodeLogs(ctx context.Context, instanceID, nodeID, chunk string) error {
	return p.logRepo.Append(ctx, instanceID, nodeID, chunk)
}
