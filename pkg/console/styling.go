package console

import "github.com/runshine/secflow-console/pkg/models"

// Node border colors per status. Display-only: none of this is stored on the
// models.
const (
	colorPending   = "#909399"
	colorRunning   = "#409eff"
	colorSucceeded = "#67c23a"
	colorFailed    = "#f56c6c"
	colorStopped   = "#e6a23c"
	colorUnknown   = "#dcdfe6"
)

// NodeColor maps a node status to its border color. It is total: unknown
// status strings fall through to a neutral color instead of failing.
func NodeColor(status models.NodeStatus) string {
	switch status {
	case models.NodeStatusPending:
		return colorPending
	case models.NodeStatusRunning:
		return colorRunning
	case models.NodeStatusSucceeded:
		return colorSucceeded
	case models.NodeStatusFailed:
		return colorFailed
	case models.NodeStatusStopped:
		return colorStopped
	default:
		return colorUnknown
	}
}

// EdgesAnimated reports whether edges should render animated: exactly when
// the instance as a whole is running. Purely a visual affordance.
func EdgesAnimated(instance *models.Instance) bool {
	return instance != nil && instance.Status == models.InstanceStatusRunning
}

// NodeLabel produces the display label for a node. Presentation only; the
// node record never stores rendered labels.
func NodeLabel(node *models.Node) string {
	if node.Name != "" {
		return node.Name
	}

	return node.NodeID
}
