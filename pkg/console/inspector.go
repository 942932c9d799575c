package console

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/runshine/secflow-console/pkg/client"
	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/nodeconfig"
)

const copyOffset = 50

// SelectNode loads the full template a node is bound to, for read-only
// display in the inspector panel. Failures are logged and returned; they are
// never fatal to the view.
func (v *View) SelectNode(ctx context.Context, nodeID string) (*models.Template, error) {
	node, err := v.lookupNode(nodeID)
	if err != nil {
		return nil, err
	}

	ref := models.TemplateRef{ID: node.TemplateID, Kind: node.Kind}

	tpl, _, err := v.resolver.ResolveInputContract(ctx, ref)
	if err != nil {
		v.logger.WarnContext(ctx, "failed to load template for inspector",
			"node_id", nodeID, "template_id", node.TemplateID, "error", err)

		return nil, err
	}

	return tpl, nil
}

// NodeLogs fetches the execution log text for a node on demand. An empty
// string with a nil error means the node has produced no logs yet, which is
// distinct from a fetch error.
func (v *View) NodeLogs(ctx context.Context, nodeID string) (string, error) {
	return v.api.GetNodeLogs(ctx, v.instanceID, nodeID)
}

// CopyNode duplicates an existing node server-side: read the full record,
// create a sibling with a derived identity, offset position and the
// configuration copied verbatim. It is only available outside edit mode: it
// bypasses the edit/save reconciliation and takes effect immediately.
func (v *View) CopyNode(ctx context.Context, nodeID string) (*models.Node, error) {
	v.mu.Lock()
	editing := v.editing
	v.mu.Unlock()

	if editing {
		return nil, ErrEditing
	}

	original, err := v.api.GetNode(ctx, v.instanceID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read node %s: %w", nodeID, err)
	}

	req := &client.CreateNodeRequest{
		NodeID:     original.NodeID + "-" + uuid.New().String()[:8],
		Kind:       original.Kind,
		TemplateID: original.TemplateID,
		Name:       original.Name + " (Copy)",
		Position: models.Position{
			X: original.Position.X + copyOffset,
			Y: original.Position.Y + copyOffset,
		},
		EnvVars:        original.EnvVars,
		VolumeMounts:   original.VolumeMounts,
		Resources:      original.Resources,
		TimeoutSeconds: original.TimeoutSeconds,
	}

	created, err := v.api.CreateNode(ctx, v.instanceID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create node copy: %w", err)
	}

	if err := v.Load(ctx); err != nil {
		v.logger.WarnContext(ctx, "failed to reload instance after copy", "error", err)
	}

	return created, nil
}

// ModifyNode reads the full node record plus its template and reconstructs
// the edit configuration, with the node id structurally read-only.
func (v *View) ModifyNode(ctx context.Context, nodeID string) (*nodeconfig.Config, error) {
	node, err := v.api.GetNode(ctx, v.instanceID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read node %s: %w", nodeID, err)
	}

	ref := models.TemplateRef{ID: node.TemplateID, Kind: node.Kind}

	_, c, err := v.resolver.ResolveInputContract(ctx, ref)
	if err != nil {
		return nil, err
	}

	return nodeconfig.Edit(node, c), nil
}

// SubmitModify issues the direct node update for a configuration built by
// ModifyNode, then reloads the instance. This path is separate from the bulk
// save: it runs immediately and does not require edit mode.
func (v *View) SubmitModify(ctx context.Context, cfg *nodeconfig.Config) error {
	patch, err := cfg.UpdatePayload()
	if err != nil {
		return err
	}

	node, err := v.lookupNode(cfg.NodeID())
	if err != nil {
		return err
	}

	if _, err := v.api.UpdateNode(ctx, v.instanceID, node.ID, patch); err != nil {
		return fmt.Errorf("failed to update node %s: %w", cfg.NodeID(), err)
	}

	return v.Load(ctx)
}

// lookupNode finds a node in the last loaded snapshot.
func (v *View) lookupNode(nodeID string) (*models.Node, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.instance == nil {
		return nil, ErrNotLoaded
	}

	node := v.instance.NodeByNodeID(nodeID)
	if node == nil {
		return nil, fmt.Errorf("node %s: %w", nodeID, client.ErrNotFound)
	}

	return node, nil
}
