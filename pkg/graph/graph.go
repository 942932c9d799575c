// Package graph holds the in-memory representation of a workflow instance
// graph: nodes keyed by their graph-local identity and directed edges between
// them. All operations are synchronous, perform no I/O, and keep the graph
// structurally valid: every edge endpoint references an existing node and
// node identities are unique.
package graph

import (
	"github.com/runshine/secflow-console/pkg/models"
)

// Graph is a mutable node/edge set for one workflow instance. It is not safe
// for concurrent use; callers own the synchronization.
type Graph struct {
	nodes     map[string]*models.Node
	nodeOrder []string
	edges     map[string]*models.Edge
	edgeOrder []string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*models.Node),
		edges: make(map[string]*models.Edge),
	}
}

// FromInstance seeds a graph from a server-side instance snapshot.
//
// Edges are derived with this precedence: an explicit edge list is used
// verbatim; otherwise one edge per (dep, node) pair is synthesized from each
// node's depends_on list. The fallback is a load-time normalization for
// instances saved before explicit edges existed, not a permanent dual path.
// Edges whose endpoints are missing are dropped at load; the next save
// removes them server-side.
func FromInstance(inst *models.Instance) *Graph {
	g := New()

	for _, n := range inst.Nodes {
		node := *n
		g.nodes[node.NodeID] = &node
		g.nodeOrder = append(g.nodeOrder, node.NodeID)
	}

	if len(inst.Edges) > 0 {
		for _, e := range inst.Edges {
			g.insertEdgeLenient(e.EdgeID, e.Source, e.Target)
		}

		return g
	}

	for _, n := range inst.Nodes {
		for _, dep := range n.DependsOn {
			g.insertEdgeLenient(models.SynthesizeEdgeID(dep, n.NodeID), dep, n.NodeID)
		}
	}

	return g
}

// insertEdgeLenient adds an edge during load, skipping dangling ones.
func (g *Graph) insertEdgeLenient(edgeID, source, target string) {
	if _, ok := g.nodes[source]; !ok {
		return
	}

	if _, ok := g.nodes[target]; !ok {
		return
	}

	if edgeID == "" {
		edgeID = models.SynthesizeEdgeID(source, target)
	}

	if _, ok := g.edges[edgeID]; ok {
		return
	}

	g.edges[edgeID] = &models.Edge{EdgeID: edgeID, Source: source, Target: target}
	g.edgeOrder = append(g.edgeOrder, edgeID)
}

// AddNode inserts a node into the graph.
func (g *Graph) AddNode(node *models.Node) error {
	if node.NodeID == "" {
		return &Error{Op: "AddNode", Err: ErrNodeNotFound}
	}

	if _, ok := g.nodes[node.NodeID]; ok {
		return &Error{Op: "AddNode", NodeID: node.NodeID, Err: ErrDuplicateNodeID}
	}

	copied := *node
	g.nodes[copied.NodeID] = &copied
	g.nodeOrder = append(g.nodeOrder, copied.NodeID)

	return nil
}

// RemoveNode removes the node and every edge whose source or target equals
// nodeID.
func (g *Graph) RemoveNode(nodeID string) error {
	if _, ok := g.nodes[nodeID]; !ok {
		return &Error{Op: "RemoveNode", NodeID: nodeID, Err: ErrNodeNotFound}
	}

	delete(g.nodes, nodeID)
	g.nodeOrder = removeString(g.nodeOrder, nodeID)

	for _, edgeID := range append([]string(nil), g.edgeOrder...) {
		edge := g.edges[edgeID]
		if edge.Source == nodeID || edge.Target == nodeID {
			delete(g.edges, edgeID)
			g.edgeOrder = removeString(g.edgeOrder, edgeID)
		}
	}

	return nil
}

// AddEdge inserts a directed edge between two existing nodes. Edges that
// would make the graph cyclic are rejected: a workflow with a dependency
// cycle can never be scheduled by the execution platform.
func (g *Graph) AddEdge(source, target string) (*models.Edge, error) {
	if _, ok := g.nodes[source]; !ok {
		return nil, &Error{Op: "AddEdge", NodeID: source, Err: ErrDanglingEdge}
	}

	if _, ok := g.nodes[target]; !ok {
		return nil, &Error{Op: "AddEdge", NodeID: target, Err: ErrDanglingEdge}
	}

	edgeID := models.SynthesizeEdgeID(source, target)
	if _, ok := g.edges[edgeID]; ok {
		return g.edges[edgeID], nil
	}

	if source == target || g.reachable(target, source) {
		return nil, &Error{Op: "AddEdge", EdgeID: edgeID, Err: ErrCycle}
	}

	edge := &models.Edge{EdgeID: edgeID, Source: source, Target: target}
	g.edges[edgeID] = edge
	g.edgeOrder = append(g.edgeOrder, edgeID)

	return edge, nil
}

// reachable reports whether `to` can be reached from `from` along directed
// edges.
func (g *Graph) reachable(from, to string) bool {
	visited := map[string]bool{from: true}
	queue := []string{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == to {
			return true
		}

		for _, edgeID := range g.edgeOrder {
			edge := g.edges[edgeID]
			if edge.Source == current && !visited[edge.Target] {
				visited[edge.Target] = true
				queue = append(queue, edge.Target)
			}
		}
	}

	return false
}

// RemoveEdge removes one edge by its identity.
func (g *Graph) RemoveEdge(edgeID string) error {
	if _, ok := g.edges[edgeID]; !ok {
		return &Error{Op: "RemoveEdge", EdgeID: edgeID, Err: ErrEdgeNotFound}
	}

	delete(g.edges, edgeID)
	g.edgeOrder = removeString(g.edgeOrder, edgeID)

	return nil
}

// MoveNode updates a node's position only.
func (g *Graph) MoveNode(nodeID string, pos models.Position) error {
	node, ok := g.nodes[nodeID]
	if !ok {
		return &Error{Op: "MoveNode", NodeID: nodeID, Err: ErrNodeNotFound}
	}

	node.Position = pos

	return nil
}

// RenameNode updates a node's display name only.
func (g *Graph) RenameNode(nodeID, name string) error {
	node, ok := g.nodes[nodeID]
	if !ok {
		return &Error{Op: "RenameNode", NodeID: nodeID, Err: ErrNodeNotFound}
	}

	node.Name = name

	return nil
}

// Node returns the node with the given graph-local identity, or nil.
func (g *Graph) Node(nodeID string) *models.Node {
	node, ok := g.nodes[nodeID]
	if !ok {
		return nil
	}

	copied := *node

	return &copied
}

// HasNode reports whether the graph contains the node.
func (g *Graph) HasNode(nodeID string) bool {
	_, ok := g.nodes[nodeID]

	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Snapshot captures node and edge lists in insertion order for diffing or
// persistence. The returned slices are deep copies; mutating them never
// affects the graph.
type Snapshot struct {
	Nodes []models.Node
	Edges []models.Edge
}

// Snapshot returns an immutable copy of the current graph state.
func (g *Graph) Snapshot() Snapshot {
	snap := Snapshot{
		Nodes: make([]models.Node, 0, len(g.nodeOrder)),
		Edges: make([]models.Edge, 0, len(g.edgeOrder)),
	}

	for _, nodeID := range g.nodeOrder {
		node := *g.nodes[nodeID]
		node.EnvVars = append([]models.EnvVar(nil), node.EnvVars...)
		node.VolumeMounts = append([]models.VolumeMount(nil), node.VolumeMounts...)
		node.DependsOn = append([]string(nil), node.DependsOn...)
		snap.Nodes = append(snap.Nodes, node)
	}

	for _, edgeID := range g.edgeOrder {
		snap.Edges = append(snap.Edges, *g.edges[edgeID])
	}

	return snap
}

func removeString(list []string, value string) []string {
	for i, v := range list {
		if v == value {
			return append(list[:i], list[i+1:]...)
		}
	}

	return list
}
