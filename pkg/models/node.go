package models

// NodeStatus defines the possible execution states of a node. The status is
// owned by the execution platform and read-only to the console.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusSucceeded NodeStatus = "succeeded"
	NodeStatusFailed    NodeStatus = "failed"
	NodeStatusStopped   NodeStatus = "stopped"
)

// Terminal reports whether the status admits no further transitions.
func (s NodeStatus) Terminal() bool {
	return s == NodeStatusSucceeded || s == NodeStatusFailed || s == NodeStatusStopped
}

// CanTransitionTo reports whether the state machine allows moving from s to
// next: pending → running → {succeeded, failed}, with stopped reachable from
// pending or running.
func (s NodeStatus) CanTransitionTo(next NodeStatus) bool {
	switch s {
	case NodeStatusPending:
		return next == NodeStatusRunning || next == NodeStatusStopped
	case NodeStatusRunning:
		return next == NodeStatusSucceeded || next == NodeStatusFailed || next == NodeStatusStopped
	default:
		return false
	}
}

// Position is the client-owned spatial layout of a node.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// EnvVar is one resolved environment variable of a node.
type EnvVar struct {
	Name  string `json:"name"  validate:"required"`
	Value string `json:"value"`
}

// VolumeMount binds a template-declared mount path to a PVC.
type VolumeMount struct {
	MountPath string `json:"mount_path" validate:"required"`
	PVCName   string `json:"pvc_name"`
	SubPath   string `json:"sub_path,omitempty"`
	ReadOnly  bool   `json:"read_only,omitempty"`
}

// Resources holds the requested/limited compute resources of a node. The
// console copies these verbatim; their semantics belong to the execution
// platform.
type Resources struct {
	CPURequest    string `json:"cpu_request,omitempty"`
	CPULimit      string `json:"cpu_limit,omitempty"`
	MemoryRequest string `json:"memory_request,omitempty"`
	MemoryLimit   string `json:"memory_limit,omitempty"`
}

// Node is one deployable unit within a workflow instance, bound to a
// template.
//
// NodeID is the graph-local identity: unique within the instance, assigned at
// creation and immutable thereafter. Edges reference NodeID, never ID. ID is
// the server-assigned record identity used for update and delete calls, and
// exists only once the server has persisted the node.
type Node struct {
	ID             string        `json:"id,omitempty"`
	NodeID         string        `json:"node_id"     validate:"required"`
	Kind           TemplateKind  `json:"node_type"   validate:"required,oneof=app job"`
	TemplateID     string        `json:"template_id" validate:"required"`
	Name           string        `json:"name"        validate:"required,min=1"`
	Position       Position      `json:"position"`
	Status         NodeStatus    `json:"status,omitempty"`
	EnvVars        []EnvVar      `json:"env_vars,omitempty"`
	VolumeMounts   []VolumeMount `json:"volume_mounts,omitempty"`
	DependsOn      []string      `json:"depends_on,omitempty"`
	Resources      *Resources    `json:"resources,omitempty"`
	TimeoutSeconds int           `json:"timeout_seconds,omitempty"`
}

// Edge is a directed dependency between two nodes of the same instance.
// Source and Target hold NodeIDs. EdgeID may be server-assigned; edges built
// client-side use the synthesized form "{source}-{target}".
type Edge struct {
	EdgeID string `json:"edge_id"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// SynthesizeEdgeID builds the client-side edge identity for an endpoint pair.
func SynthesizeEdgeID(source, target string) string {
	return source + "-" + target
}
