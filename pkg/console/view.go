// Package console implements the workflow instance detail view: the
// in-memory edit session over an instance graph, the diff-based save that
// reconciles client edits against server state, the status polling loop and
// the node inspector.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/runshine/secflow-console/pkg/client"
	"github.com/runshine/secflow-console/pkg/contract"
	"github.com/runshine/secflow-console/pkg/graph"
	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/nodeconfig"
)

// DefaultPollInterval is the fixed live-status refresh interval.
const DefaultPollInterval = 10 * time.Second

// View drives one workflow instance detail screen. It is in exactly one of
// two modes: live (instance re-fetched on an interval, read-only) or edit
// (graph mutated purely in memory, polling suspended). All exported methods
// are safe for concurrent use; the poller goroutine and UI-driven calls
// share the internal lock.
type View struct {
	api        client.API
	resolver   *contract.Resolver
	logger     *slog.Logger
	instanceID string

	pollInterval time.Duration

	mu       sync.Mutex
	instance *models.Instance
	graph    *graph.Graph
	editing  bool
	saving   bool

	poller     *poller
	pollWanted bool
	onSnapshot func(*models.Instance)
}

// Option configures a View.
type Option func(*View)

// WithPollInterval overrides the live refresh interval.
func WithPollInterval(d time.Duration) Option {
	return func(v *View) {
		v.pollInterval = d
	}
}

// WithSnapshotListener registers a callback invoked with every fresh
// instance snapshot (initial load, poll cycles, post-save reload). The
// callback runs with the view lock held and must not call back into it.
func WithSnapshotListener(fn func(*models.Instance)) Option {
	return func(v *View) {
		v.onSnapshot = fn
	}
}

// NewView creates a detail view for one instance.
func NewView(api client.API, logger *slog.Logger, instanceID string, opts ...Option) *View {
	v := &View{
		api:          api,
		resolver:     contract.NewResolver(api),
		logger:       logger.With("instance_id", instanceID),
		instanceID:   instanceID,
		pollInterval: DefaultPollInterval,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Load fetches the instance snapshot and makes it the displayed state.
func (v *View) Load(ctx context.Context) error {
	instance, err := v.api.GetInstance(ctx, v.instanceID)
	if err != nil {
		return fmt.Errorf("failed to load instance %s: %w", v.instanceID, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.applySnapshotLocked(instance)

	return nil
}

func (v *View) applySnapshotLocked(instance *models.Instance) {
	v.instance = instance

	if v.onSnapshot != nil {
		v.onSnapshot(instance)
	}
}

// Instance returns the last known-good snapshot. It is never discarded on
// error, only replaced on a subsequent successful fetch.
func (v *View) Instance() *models.Instance {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.instance
}

// Editing reports whether edit mode is active.
func (v *View) Editing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.editing
}

// BeginEdit switches the view from live to edit mode. Polling is cancelled
// before the graph is seeded so no poll cycle can clobber unsaved state.
func (v *View) BeginEdit() error {
	v.mu.Lock()

	if v.instance == nil {
		v.mu.Unlock()

		return ErrNotLoaded
	}

	if v.editing {
		v.mu.Unlock()

		return ErrEditing
	}

	p := v.poller
	v.poller = nil
	v.mu.Unlock()

	if p != nil {
		p.stop()
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.graph = graph.FromInstance(v.instance)
	v.editing = true

	return nil
}

// DiscardEdit abandons all unsaved edits and returns to live mode.
func (v *View) DiscardEdit(ctx context.Context) error {
	v.mu.Lock()

	if !v.editing {
		v.mu.Unlock()

		return ErrNotEditing
	}

	v.editing = false
	v.graph = nil
	resume := v.pollWanted
	v.mu.Unlock()

	if resume {
		v.StartPolling(ctx)
	}

	return nil
}

// NewNodeDraft resolves a template reference and returns an editable node
// configuration pre-filled with the template's defaults.
func (v *View) NewNodeDraft(ctx context.Context, ref models.TemplateRef) (*nodeconfig.Config, error) {
	tpl, c, err := v.resolver.ResolveInputContract(ctx, ref)
	if err != nil {
		return nil, err
	}

	return nodeconfig.New(tpl, c), nil
}

// AddNode materializes a draft configuration and inserts it into the edit
// graph. No network call is made; the node is persisted on Save.
func (v *View) AddNode(cfg *nodeconfig.Config, pos models.Position) error {
	node, err := cfg.BuildNode(pos)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.editing {
		return ErrNotEditing
	}

	return v.graph.AddNode(node)
}

// RemoveNode removes a node and its incident edges from the edit graph.
func (v *View) RemoveNode(nodeID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.editing {
		return ErrNotEditing
	}

	return v.graph.RemoveNode(nodeID)
}

// AddEdge connects two nodes in the edit graph.
func (v *View) AddEdge(source, target string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.editing {
		return ErrNotEditing
	}

	_, err := v.graph.AddEdge(source, target)

	return err
}

// RemoveEdge removes one edge from the edit graph.
func (v *View) RemoveEdge(edgeID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.editing {
		return ErrNotEditing
	}

	return v.graph.RemoveEdge(edgeID)
}

// MoveNode repositions a node in the edit graph.
func (v *View) MoveNode(nodeID string, pos models.Position) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.editing {
		return ErrNotEditing
	}

	return v.graph.MoveNode(nodeID, pos)
}

// RenameNode changes a node's display name in the edit graph.
func (v *View) RenameNode(nodeID, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.editing {
		return ErrNotEditing
	}

	return v.graph.RenameNode(nodeID, name)
}

// GraphSnapshot returns the current edit graph state.
func (v *View) GraphSnapshot() (graph.Snapshot, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.editing {
		return graph.Snapshot{}, ErrNotEditing
	}

	return v.graph.Snapshot(), nil
}
