package statusfeed

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/runshine/secflow-console/pkg/eventbus"
	"github.com/runshine/secflow-console/pkg/events"
	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/otelhelper"
	"github.com/runshine/secflow-console/pkg/persistence"
)

// Syncer applies validated status reports to the store: it enforces the node
// state machine, appends carried log chunks, derives the instance status
// roll-up and publishes the resulting events.
type Syncer struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewSyncer creates a new syncer. The publisher and tracer may be nil.
func NewSyncer(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger, tracer trace.Tracer) *Syncer {
	return &Syncer{
		persistence: p,
		publisher:   publisher,
		logger:      logger,
		tracer:      tracer,
	}
}

// Apply validates one raw report payload and applies it. Duplicate reports of
// the current status are a no-op.
func (s *Syncer) Apply(ctx context.Context, payload []byte) error {
	report, err := ParseReport(payload)
	if err != nil {
		return err
	}

	var span trace.Span

	if s.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, s.tracer, "statusfeed.apply",
			attribute.String(otelhelper.InstanceIDKey, report.InstanceID),
			attribute.String(otelhelper.NodeIDKey, report.NodeID),
			attribute.String("secflow.node.status", string(report.Status)),
		)
		defer span.End()
	}

	if err := s.apply(ctx, report); err != nil {
		if span != nil {
			otelhelper.SetError(span, err)
		}

		return err
	}

	return nil
}

func (s *Syncer) apply(ctx context.Context, report *StatusReport) error {
	instance, err := s.persistence.InstanceByID(ctx, report.InstanceID)
	if err != nil {
		return fmt.Errorf("failed to load instance %s: %w", report.InstanceID, err)
	}

	node := instance.NodeByNodeID(report.NodeID)
	if node == nil {
		return persistence.NewNodeError("Apply", report.InstanceID, report.NodeID, persistence.ErrNodeNotFound)
	}

	if report.Logs != "" {
		if err := s.persistence.AppendNodeLogs(ctx, report.InstanceID, report.NodeID, report.Logs); err != nil {
			return fmt.Errorf("failed to append node logs: %w", err)
		}
	}

	if node.Status == report.Status {
		return nil
	}

	if !node.Status.CanTransitionTo(report.Status) {
		return &TransitionError{
			InstanceID: report.InstanceID,
			NodeID:     report.NodeID,
			From:       node.Status,
			To:         report.Status,
		}
	}

	if err := s.persistence.SetNodeStatus(ctx, report.InstanceID, report.NodeID, report.Status); err != nil {
		return fmt.Errorf("failed to set node status: %w", err)
	}

	s.logger.InfoContext(ctx, "node status applied",
		"instance_id", report.InstanceID, "node_id", report.NodeID,
		"from", node.Status, "to", report.Status)

	s.publish(ctx, report.InstanceID, events.NodeStatusChanged{
		BaseEvent: events.NewBaseEvent(events.NodeStatusChangedEvent, report.InstanceID),
		NodeID:    report.NodeID,
		From:      node.Status,
		To:        report.Status,
		Message:   report.Message,
	})

	node.Status = report.Status

	return s.rollup(ctx, instance)
}

// rollup recomputes the instance status over the post-transition node set.
func (s *Syncer) rollup(ctx context.Context, instance *models.Instance) error {
	previous := instance.Status

	derived := models.RollupInstanceStatus(instance.Nodes)
	if derived == previous {
		return nil
	}

	if err := s.persistence.SetInstanceStatus(ctx, instance.ID, derived); err != nil {
		return fmt.Errorf("failed to set instance status: %w", err)
	}

	s.publish(ctx, instance.ID, events.InstanceStatusChanged{
		BaseEvent: events.NewBaseEvent(events.InstanceStatusChangedEvent, instance.ID),
		From:      previous,
		To:        derived,
	})

	return nil
}

func (s *Syncer) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event",
			"event_type", event.GetType(), "instance_id", key, "error", err)
	}
}
