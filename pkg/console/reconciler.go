package console

import (
	"context"

	"github.com/runshine/secflow-console/pkg/client"
	"github.com/runshine/secflow-console/pkg/graph"
	"github.com/runshine/secflow-console/pkg/models"
)

// Save diffs the edit graph against a freshly re-fetched server snapshot and
// issues the minimal create/update/delete calls to reconcile, sequentially
// and each awaited before the next.
//
// Nodes are matched by node_id, never by position in the list; edges are
// matched by (source, target) value, so deleting and re-adding an edge with
// identical endpoints in one session is a no-op. On the first failing step
// the remaining steps are skipped, the error is returned and edit mode stays
// active with the client graph untouched; already-issued steps are not
// rolled back, so retry is the recovery path. On success the view exits edit
// mode, reloads the reconciled instance and resumes polling.
func (v *View) Save(ctx context.Context) error {
	v.mu.Lock()

	if !v.editing {
		v.mu.Unlock()

		return ErrNotEditing
	}

	if v.saving {
		v.mu.Unlock()

		return ErrSaveInProgress
	}

	v.saving = true
	local := v.graph.Snapshot()
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.saving = false
		v.mu.Unlock()
	}()

	// Step 1: re-fetch, guarding against concurrent external modification
	// since edit mode began.
	server, err := v.api.GetInstance(ctx, v.instanceID)
	if err != nil {
		return &ReconciliationError{Step: StepRefresh, Err: err}
	}

	if err := v.reconcileNodes(ctx, server, local); err != nil {
		return err
	}

	if err := v.reconcileEdges(ctx, server, local); err != nil {
		return err
	}

	v.mu.Lock()
	v.editing = false
	v.graph = nil
	resume := v.pollWanted
	v.mu.Unlock()

	if err := v.Load(ctx); err != nil {
		return &ReconciliationError{Step: StepReload, Err: err}
	}

	if resume {
		v.StartPolling(ctx)
	}

	return nil
}

func (v *View) reconcileNodes(ctx context.Context, server *models.Instance, local graph.Snapshot) error {
	clientNodes := make(map[string]*models.Node, len(local.Nodes))
	for i := range local.Nodes {
		clientNodes[local.Nodes[i].NodeID] = &local.Nodes[i]
	}

	// Step 2: nodes present only server-side are deleted, keyed by the
	// server-assigned record id.
	for _, serverNode := range server.Nodes {
		if _, ok := clientNodes[serverNode.NodeID]; ok {
			continue
		}

		if err := v.api.DeleteNode(ctx, v.instanceID, serverNode.ID); err != nil {
			return &ReconciliationError{Step: StepDeleteNode, ID: serverNode.NodeID, Err: err}
		}
	}

	// Step 3: upserts. Updates carry name and position only; configuration
	// changes go through the direct modify-node flow. Unchanged nodes
	// produce no call at all.
	for i := range local.Nodes {
		localNode := &local.Nodes[i]

		serverNode := server.NodeByNodeID(localNode.NodeID)
		if serverNode != nil {
			if serverNode.Name == localNode.Name && serverNode.Position == localNode.Position {
				continue
			}

			name := localNode.Name
			pos := localNode.Position
			patch := &client.UpdateNodeRequest{Name: &name, Position: &pos}

			if _, err := v.api.UpdateNode(ctx, v.instanceID, serverNode.ID, patch); err != nil {
				return &ReconciliationError{Step: StepUpdateNode, ID: localNode.NodeID, Err: err}
			}

			continue
		}

		req := &client.CreateNodeRequest{
			NodeID:         localNode.NodeID,
			Kind:           localNode.Kind,
			TemplateID:     localNode.TemplateID,
			Name:           localNode.Name,
			Position:       localNode.Position,
			EnvVars:        localNode.EnvVars,
			VolumeMounts:   localNode.VolumeMounts,
			Resources:      localNode.Resources,
			TimeoutSeconds: localNode.TimeoutSeconds,
		}

		if _, err := v.api.CreateNode(ctx, v.instanceID, req); err != nil {
			return &ReconciliationError{Step: StepCreateNode, ID: localNode.NodeID, Err: err}
		}
	}

	return nil
}

type endpointPair struct {
	source string
	target string
}

func (v *View) reconcileEdges(ctx context.Context, server *models.Instance, local graph.Snapshot) error {
	clientPairs := make(map[endpointPair]bool, len(local.Edges))
	for _, edge := range local.Edges {
		clientPairs[endpointPair{edge.Source, edge.Target}] = true
	}

	serverPairs := make(map[endpointPair]bool, len(server.Edges))
	for _, edge := range server.Edges {
		serverPairs[endpointPair{edge.Source, edge.Target}] = true
	}

	// Step 4: server edges with no matching endpoint pair client-side are
	// deleted by their edge id.
	for _, serverEdge := range server.Edges {
		if clientPairs[endpointPair{serverEdge.Source, serverEdge.Target}] {
			continue
		}

		req := &client.EdgeUpdateRequest{
			EdgeID: serverEdge.EdgeID,
			Action: client.EdgeActionDelete,
		}

		if err := v.api.UpdateEdge(ctx, v.instanceID, req); err != nil {
			return &ReconciliationError{Step: StepDeleteEdge, ID: serverEdge.EdgeID, Err: err}
		}
	}

	// Step 5: client edges absent server-side are created.
	for _, localEdge := range local.Edges {
		if serverPairs[endpointPair{localEdge.Source, localEdge.Target}] {
			continue
		}

		req := &client.EdgeUpdateRequest{
			EdgeID: localEdge.EdgeID,
			Source: localEdge.Source,
			Target: localEdge.Target,
			Action: client.EdgeActionAdd,
		}

		if err := v.api.UpdateEdge(ctx, v.instanceID, req); err != nil {
			return &ReconciliationError{Step: StepCreateEdge, ID: localEdge.EdgeID, Err: err}
		}
	}

	return nil
}
