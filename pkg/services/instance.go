package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/runshine/secflow-console/pkg/eventbus"
	"github.com/runshine/secflow-console/pkg/events"
	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence"
)

// ErrInstanceNotFound is returned when an instance is not found.
var ErrInstanceNotFound = persistence.ErrInstanceNotFound

// IsInstanceNotFound checks if an error indicates an instance was not found.
func IsInstanceNotFound(err error) bool {
	return errors.Is(err, ErrInstanceNotFound)
}

// Instance handles instance-level business operations.
type Instance struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewInstance creates a new instance service. The publisher may be nil;
// lifecycle events are then skipped.
func NewInstance(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Instance {
	return &Instance{
		persistence: p,
		publisher:   publisher,
		logger:      logger,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Instance) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListInstances returns all live instances, optionally restricted to one
// project.
func (s *Instance) ListInstances(ctx context.Context, projectID string) ([]*models.Instance, error) {
	instances, err := s.persistence.Instances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	if projectID == "" {
		return instances, nil
	}

	filtered := make([]*models.Instance, 0, len(instances))

	for _, instance := range instances {
		if instance.ProjectID == projectID {
			filtered = append(filtered, instance)
		}
	}

	return filtered, nil
}

// GetInstance returns one instance aggregate.
func (s *Instance) GetInstance(ctx context.Context, id string) (*models.Instance, error) {
	instance, err := s.persistence.InstanceByID(ctx, id)
	if err != nil {
		if persistence.IsInstanceNotFound(err) {
			return nil, ErrInstanceNotFound
		}

		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	return instance, nil
}

// CreateInstanceRequest carries the fields to create an empty instance.
type CreateInstanceRequest struct {
	Name      string `json:"name"       validate:"required,min=1"`
	ProjectID string `json:"project_id" validate:"required"`
}

// CreateInstance creates an empty instance owned by a project.
func (s *Instance) CreateInstance(ctx context.Context, req *CreateInstanceRequest) (*models.Instance, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInstanceNameRequired
	}

	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, ErrProjectIDRequired
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate instance id: %w", err)
	}

	instance := &models.Instance{
		ID:        id.String(),
		Name:      req.Name,
		Status:    models.InstanceStatusPending,
		ProjectID: req.ProjectID,
		Nodes:     []*models.Node{},
		Edges:     []*models.Edge{},
	}

	if err := s.persistence.SaveInstance(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to save instance: %w", err)
	}

	s.publish(ctx, instance.ID, events.InstanceCreated{
		BaseEvent: events.NewBaseEvent(events.InstanceCreatedEvent, instance.ID),
		Name:      instance.Name,
		ProjectID: instance.ProjectID,
	})

	return instance, nil
}

// UpdateInstanceRequest is a partial patch of instance-level fields. Nodes
// and edges are managed through their own operations.
type UpdateInstanceRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1"`
}

// UpdateInstance applies a partial patch to instance-level fields.
func (s *Instance) UpdateInstance(ctx context.Context, id string, req *UpdateInstanceRequest) (*models.Instance, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, ErrInstanceNameRequired
	}

	instance, err := s.GetInstance(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		instance.Name = *req.Name
	}

	if err := s.persistence.SaveInstance(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to save instance: %w", err)
	}

	return instance, nil
}

// DeleteInstance soft-deletes an instance.
func (s *Instance) DeleteInstance(ctx context.Context, id string) error {
	err := s.persistence.DeleteInstance(ctx, id)
	if err != nil {
		if persistence.IsInstanceNotFound(err) {
			return ErrInstanceNotFound
		}

		return fmt.Errorf("failed to delete instance: %w", err)
	}

	s.publish(ctx, id, events.InstanceDeleted{
		BaseEvent: events.NewBaseEvent(events.InstanceDeletedEvent, id),
	})

	return nil
}

func (s *Instance) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event",
			"event_type", event.GetType(), "instance_id", key, "error", err)
	}
}
