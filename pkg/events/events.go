// Package events defines the event types published on instance and node
// lifecycle changes.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/runshine/secflow-console/pkg/models"
)

type EventType string

// Kafka topics.
const Topic = "secflow.events"                          // Instance and node lifecycle events
const NodeStatusTopic = "secflow.node.statuses"         // Node status transitions from the execution platform
const InstanceStatusTopic = "secflow.instance.statuses" // Rolled-up instance status changes

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Instance lifecycle events.
	InstanceCreatedEvent       EventType = "instance.created"
	InstanceDeletedEvent       EventType = "instance.deleted"
	InstanceStatusChangedEvent EventType = "instance.status.changed"

	// Node lifecycle events.
	NodeCreatedEvent       EventType = "node.created"
	NodeUpdatedEvent       EventType = "node.updated"
	NodeDeletedEvent       EventType = "node.deleted"
	NodeStatusChangedEvent EventType = "node.status.changed"

	// Edge lifecycle events.
	EdgeCreatedEvent EventType = "edge.created"
	EdgeDeletedEvent EventType = "edge.deleted"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	InstanceID string         `json:"instance_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type InstanceCreated struct {
	BaseEvent

	Name      string `json:"name"`
	ProjectID string `json:"project_id,omitempty"`
}

func (e InstanceCreated) GetType() EventType {
	return InstanceCreatedEvent
}

type InstanceDeleted struct {
	BaseEvent
}

func (e InstanceDeleted) GetType() EventType {
	return InstanceDeletedEvent
}

// InstanceStatusChanged reports the rolled-up instance status derived from
// its node statuses.
type InstanceStatusChanged struct {
	BaseEvent

	From models.InstanceStatus `json:"from"`
	To   models.InstanceStatus `json:"to"`
}

func (e InstanceStatusChanged) GetType() EventType {
	return InstanceStatusChangedEvent
}

type NodeCreated struct {
	BaseEvent

	RecordID   string              `json:"record_id"`
	NodeID     string              `json:"node_id"`
	Kind       models.TemplateKind `json:"node_type"`
	TemplateID string              `json:"template_id"`
}

func (e NodeCreated) GetType() EventType {
	return NodeCreatedEvent
}

type NodeUpdated struct {
	BaseEvent

	RecordID string `json:"record_id"`
	NodeID   string `json:"node_id"`
}

func (e NodeUpdated) GetType() EventType {
	return NodeUpdatedEvent
}

type NodeDeleted struct {
	BaseEvent

	RecordID string `json:"record_id"`
	NodeID   string `json:"node_id"`
}

func (e NodeDeleted) GetType() EventType {
	return NodeDeletedEvent
}

// NodeStatusChanged reports a status transition observed from the execution
// platform. From and To always satisfy the node state machine; reports that
// violate it are rejected before an event is published.
type NodeStatusChanged struct {
	BaseEvent

	NodeID  string            `json:"node_id"`
	From    models.NodeStatus `json:"from"`
	To      models.NodeStatus `json:"to"`
	Message string            `json:"message,omitempty"`
}

func (e NodeStatusChanged) GetType() EventType {
	return NodeStatusChangedEvent
}

type EdgeCreated struct {
	BaseEvent

	EdgeID string `json:"edge_id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

func (e EdgeCreated) GetType() EventType {
	return EdgeCreatedEvent
}

type EdgeDeleted struct {
	BaseEvent

	EdgeID string `json:"edge_id"`
}

func (e EdgeDeleted) GetType() EventType {
	return EdgeDeletedEvent
}

func NewBaseEvent(eventType EventType, instanceID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		InstanceID: instanceID,
		Metadata:   make(map[string]any),
	}
}
