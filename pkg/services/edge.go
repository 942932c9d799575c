package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/runshine/secflow-console/pkg/eventbus"
	"github.com/runshine/secflow-console/pkg/events"
	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence"
)

// ErrEdgeNotFound is returned when an edge is not found.
var ErrEdgeNotFound = persistence.ErrEdgeNotFound

// EdgeAction selects what an edge update does.
type EdgeAction string

const (
	EdgeActionAdd    EdgeAction = "add"
	EdgeActionDelete EdgeAction = "delete"
)

// EdgeUpdateRequest adds or deletes one edge of an instance. Adds identify
// the edge by its endpoints; deletes by edge id.
type EdgeUpdateRequest struct {
	EdgeID string     `json:"edge_id,omitempty"`
	Source string     `json:"source,omitempty"`
	Target string     `json:"target,omitempty"`
	Action EdgeAction `json:"action" validate:"required,oneof=add delete"`
}

// Edge handles edge-level business operations.
type Edge struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewEdge creates a new edge service. The publisher may be nil.
func NewEdge(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Edge {
	return &Edge{
		persistence: p,
		publisher:   publisher,
		logger:      logger,
	}
}

// UpdateEdge applies one edge mutation.
func (s *Edge) UpdateEdge(ctx context.Context, instanceID string, req *EdgeUpdateRequest) error {
	switch req.Action {
	case EdgeActionAdd:
		return s.addEdge(ctx, instanceID, req)
	case EdgeActionDelete:
		return s.deleteEdge(ctx, instanceID, req.EdgeID)
	default:
		return fmt.Errorf("action %q: %w", req.Action, ErrUnknownEdgeAction)
	}
}

// addEdge inserts an edge between two existing nodes. Adding an edge whose
// endpoint pair already exists is a no-op; edges are identified by value.
func (s *Edge) addEdge(ctx context.Context, instanceID string, req *EdgeUpdateRequest) error {
	instance, err := s.loadMutable(ctx, instanceID)
	if err != nil {
		return err
	}

	if req.Source == req.Target {
		return ErrEdgeSelfLoop
	}

	if instance.NodeByNodeID(req.Source) == nil {
		return fmt.Errorf("source %s: %w", req.Source, ErrEdgeEndpointMissing)
	}

	if instance.NodeByNodeID(req.Target) == nil {
		return fmt.Errorf("target %s: %w", req.Target, ErrEdgeEndpointMissing)
	}

	for _, edge := range instance.Edges {
		if edge.Source == req.Source && edge.Target == req.Target {
			return nil
		}
	}

	edgeID := req.EdgeID
	if edgeID == "" {
		edgeID = models.SynthesizeEdgeID(req.Source, req.Target)
	}

	instance.Edges = append(instance.Edges, &models.Edge{
		EdgeID: edgeID,
		Source: req.Source,
		Target: req.Target,
	})

	if err := s.persistence.SaveInstance(ctx, instance); err != nil {
		return fmt.Errorf("failed to save instance: %w", err)
	}

	s.publish(ctx, instanceID, events.EdgeCreated{
		BaseEvent: events.NewBaseEvent(events.EdgeCreatedEvent, instanceID),
		EdgeID:    edgeID,
		Source:    req.Source,
		Target:    req.Target,
	})

	return nil
}

func (s *Edge) deleteEdge(ctx context.Context, instanceID, edgeID string) error {
	instance, err := s.loadMutable(ctx, instanceID)
	if err != nil {
		return err
	}

	edges := make([]*models.Edge, 0, len(instance.Edges))
	found := false

	for _, edge := range instance.Edges {
		if edge.EdgeID == edgeID {
			found = true

			continue
		}

		edges = append(edges, edge)
	}

	if !found {
		return fmt.Errorf("edge %s: %w", edgeID, ErrEdgeNotFound)
	}

	instance.Edges = edges

	if err := s.persistence.SaveInstance(ctx, instance); err != nil {
		return fmt.Errorf("failed to save instance: %w", err)
	}

	s.publish(ctx, instanceID, events.EdgeDeleted{
		BaseEvent: events.NewBaseEvent(events.EdgeDeletedEvent, instanceID),
		EdgeID:    edgeID,
	})

	return nil
}

func (s *Edge) loadMutable(ctx context.Context, instanceID string) (*models.Instance, error) {
	instance, err := s.persistence.InstanceByID(ctx, instanceID)
	if err != nil {
		if persistence.IsInstanceNotFound(err) {
			return nil, ErrInstanceNotFound
		}

		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	if instance.Status.Terminal() {
		return nil, ErrInstanceFinalized
	}

	return instance, nil
}

func (s *Edge) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event",
			"event_type", event.GetType(), "instance_id", key, "error", err)
	}
}

// IsEdgeNotFound checks if an error indicates an edge was not found.
func IsEdgeNotFound(err error) bool {
	return errors.Is(err, ErrEdgeNotFound)
}
