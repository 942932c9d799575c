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

// ErrNodeNotFound is returned when a node is not found.
var ErrNodeNotFound = persistence.ErrNodeNotFound

// IsNodeNotFound checks if an error indicates a node was not found.
func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

// CreateNodeRequest carries the full configuration of a node to create.
type CreateNodeRequest struct {
	NodeID         string               `json:"node_id"     validate:"required"`
	Kind           models.TemplateKind  `json:"node_type"   validate:"required,oneof=app job"`
	TemplateID     string               `json:"template_id" validate:"required"`
	Name           string               `json:"name"        validate:"required,min=1"`
	Position       models.Position      `json:"position"`
	EnvVars        []models.EnvVar      `json:"env_vars,omitempty"`
	VolumeMounts   []models.VolumeMount `json:"volume_mounts,omitempty"`
	Resources      *models.Resources    `json:"resources,omitempty"`
	TimeoutSeconds int                  `json:"timeout_seconds,omitempty"`
}

// UpdateNodeRequest is a partial patch of a node's mutable fields. Nil
// fields are left untouched. The graph-local node id is immutable and has no
// field here.
type UpdateNodeRequest struct {
	Name         *string              `json:"name,omitempty" validate:"omitempty,min=1"`
	Position     *models.Position     `json:"position,omitempty"`
	EnvVars      []models.EnvVar      `json:"env_vars,omitempty"`
	VolumeMounts []models.VolumeMount `json:"volume_mounts,omitempty"`
}

// Node handles node-level business operations.
type Node struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewNode creates a new node service. The publisher may be nil.
func NewNode(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Node {
	return &Node{
		persistence: p,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreateNode adds a node to an instance. The graph-local node id must be
// unique within the instance; the server-assigned record id is generated
// here and returned on the created node.
func (s *Node) CreateNode(ctx context.Context, instanceID string, req *CreateNodeRequest) (*models.Node, error) {
	if strings.TrimSpace(req.NodeID) == "" {
		return nil, ErrNodeIDRequired
	}

	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNodeNameRequired
	}

	if !req.Kind.Valid() {
		return nil, ErrUnknownTemplateKind
	}

	instance, err := s.loadMutable(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if instance.NodeByNodeID(req.NodeID) != nil {
		return nil, ErrNodeIDTaken
	}

	if _, err := s.persistence.TemplateByID(ctx, req.Kind, req.TemplateID); err != nil {
		if persistence.IsTemplateNotFound(err) {
			return nil, fmt.Errorf("template %s/%s: %w", req.Kind, req.TemplateID, ErrInvalidRequest)
		}

		return nil, fmt.Errorf("failed to resolve template: %w", err)
	}

	recordID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate node record id: %w", err)
	}

	node := &models.Node{
		ID:             recordID.String(),
		NodeID:         req.NodeID,
		Kind:           req.Kind,
		TemplateID:     req.TemplateID,
		Name:           req.Name,
		Position:       req.Position,
		Status:         models.NodeStatusPending,
		EnvVars:        filterEnvVars(req.EnvVars),
		VolumeMounts:   filterVolumeMounts(req.VolumeMounts),
		Resources:      req.Resources,
		TimeoutSeconds: req.TimeoutSeconds,
	}

	instance.Nodes = append(instance.Nodes, node)

	if err := s.persistence.SaveInstance(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to save instance: %w", err)
	}

	s.publish(ctx, instanceID, events.NodeCreated{
		BaseEvent:  events.NewBaseEvent(events.NodeCreatedEvent, instanceID),
		RecordID:   node.ID,
		NodeID:     node.NodeID,
		Kind:       node.Kind,
		TemplateID: node.TemplateID,
	})

	return node, nil
}

// GetNode returns one node by its graph-local identity.
func (s *Node) GetNode(ctx context.Context, instanceID, nodeID string) (*models.Node, error) {
	instance, err := s.loadInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	node := instance.NodeByNodeID(nodeID)
	if node == nil {
		return nil, ErrNodeNotFound
	}

	return node, nil
}

// UpdateNode applies a partial patch to a node, addressed by the
// server-assigned record id. Nil fields are left untouched.
func (s *Node) UpdateNode(ctx context.Context, instanceID, recordID string, req *UpdateNodeRequest) (*models.Node, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, ErrNodeNameRequired
	}

	instance, err := s.loadMutable(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	node := nodeByRecordID(instance, recordID)
	if node == nil {
		return nil, ErrNodeNotFound
	}

	if req.Name != nil {
		node.Name = *req.Name
	}

	if req.Position != nil {
		node.Position = *req.Position
	}

	if req.EnvVars != nil {
		node.EnvVars = filterEnvVars(req.EnvVars)
	}

	if req.VolumeMounts != nil {
		node.VolumeMounts = filterVolumeMounts(req.VolumeMounts)
	}

	if err := s.persistence.SaveInstance(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to save instance: %w", err)
	}

	s.publish(ctx, instanceID, events.NodeUpdated{
		BaseEvent: events.NewBaseEvent(events.NodeUpdatedEvent, instanceID),
		RecordID:  node.ID,
		NodeID:    node.NodeID,
	})

	return node, nil
}

// DeleteNode removes a node by record id, cascading to its incident edges.
func (s *Node) DeleteNode(ctx context.Context, instanceID, recordID string) error {
	instance, err := s.loadMutable(ctx, instanceID)
	if err != nil {
		return err
	}

	node := nodeByRecordID(instance, recordID)
	if node == nil {
		return ErrNodeNotFound
	}

	nodes := make([]*models.Node, 0, len(instance.Nodes)-1)

	for _, n := range instance.Nodes {
		if n.ID != recordID {
			nodes = append(nodes, n)
		}
	}

	edges := make([]*models.Edge, 0, len(instance.Edges))

	for _, e := range instance.Edges {
		if e.Source != node.NodeID && e.Target != node.NodeID {
			edges = append(edges, e)
		}
	}

	instance.Nodes = nodes
	instance.Edges = edges

	if err := s.persistence.SaveInstance(ctx, instance); err != nil {
		return fmt.Errorf("failed to save instance: %w", err)
	}

	s.publish(ctx, instanceID, events.NodeDeleted{
		BaseEvent: events.NewBaseEvent(events.NodeDeletedEvent, instanceID),
		RecordID:  node.ID,
		NodeID:    node.NodeID,
	})

	return nil
}

// NodeLogs returns the accumulated execution logs of a node.
func (s *Node) NodeLogs(ctx context.Context, instanceID, nodeID string) (string, error) {
	if _, err := s.GetNode(ctx, instanceID, nodeID); err != nil {
		return "", err
	}

	logs, err := s.persistence.NodeLogs(ctx, instanceID, nodeID)
	if err != nil {
		return "", fmt.Errorf("failed to load node logs: %w", err)
	}

	return logs, nil
}

func (s *Node) loadInstance(ctx context.Context, instanceID string) (*models.Instance, error) {
	instance, err := s.persistence.InstanceByID(ctx, instanceID)
	if err != nil {
		if persistence.IsInstanceNotFound(err) {
			return nil, ErrInstanceNotFound
		}

		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	return instance, nil
}

// loadMutable loads an instance for a structural mutation. Terminal
// instances are frozen; re-running means creating a new instance.
func (s *Node) loadMutable(ctx context.Context, instanceID string) (*models.Instance, error) {
	instance, err := s.loadInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if instance.Status.Terminal() {
		return nil, ErrInstanceFinalized
	}

	return instance, nil
}

func (s *Node) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event",
			"event_type", event.GetType(), "instance_id", key, "error", err)
	}
}

func nodeByRecordID(instance *models.Instance, recordID string) *models.Node {
	for _, n := range instance.Nodes {
		if n.ID == recordID {
			return n
		}
	}

	return nil
}

// filterEnvVars drops env vars with empty values. An unset slot means "not
// configured", never an empty-string override.
func filterEnvVars(envVars []models.EnvVar) []models.EnvVar {
	out := make([]models.EnvVar, 0, len(envVars))

	for _, env := range envVars {
		if env.Value != "" {
			out = append(out, env)
		}
	}

	return out
}

// filterVolumeMounts drops mounts with no PVC bound.
func filterVolumeMounts(mounts []models.VolumeMount) []models.VolumeMount {
	out := make([]models.VolumeMount, 0, len(mounts))

	for _, mount := range mounts {
		if mount.PVCName != "" {
			out = append(out, mount)
		}
	}

	return out
}
