package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence"
	"github.com/runshine/secflow-console/pkg/persistence/file"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	persistence persistence.Persistence
	instances   *Instance
	nodes       *Node
	edges       *Edge
	templates   *Template
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	logger := testLogger()

	return &fixture{
		persistence: p,
		instances:   NewInstance(p, nil, logger),
		nodes:       NewNode(p, nil, logger),
		edges:       NewEdge(p, nil, logger),
		templates:   NewTemplate(p),
	}
}

func (f *fixture) seedTemplate(t *testing.T, ctx context.Context, id string, kind models.TemplateKind) {
	t.Helper()

	require.NoError(t, f.persistence.SaveTemplate(ctx, &models.Template{
		ID:   id,
		Name: "Template " + id,
		Kind: kind,
		Containers: []*models.Container{
			{Name: "main", Image: "registry.local/" + id + ":latest"},
		},
	}))
}

func (f *fixture) seedInstance(t *testing.T, ctx context.Context) *models.Instance {
	t.Helper()

	instance, err := f.instances.CreateInstance(ctx, &CreateInstanceRequest{
		Name:      "recon",
		ProjectID: "proj-1",
	})
	require.NoError(t, err)

	return instance
}

func scannerRequest() *CreateNodeRequest {
	return &CreateNodeRequest{
		NodeID:     "scanner-1",
		Kind:       models.TemplateKindApp,
		TemplateID: "tpl-scanner",
		Name:       "Scanner",
		Position:   models.Position{X: 100, Y: 100},
		EnvVars: []models.EnvVar{
			{Name: "SCOPE", Value: "10.0.0.0/8"},
			{Name: "OPTIONAL", Value: ""},
		},
		VolumeMounts: []models.VolumeMount{
			{MountPath: "/data", PVCName: "pvc-results"},
			{MountPath: "/wordlists"},
		},
	}
}

func TestCreateNode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedTemplate(t, ctx, "tpl-scanner", models.TemplateKindApp)
	instance := f.seedInstance(t, ctx)

	node, err := f.nodes.CreateNode(ctx, instance.ID, scannerRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, node.ID)
	assert.Equal(t, "scanner-1", node.NodeID)
	assert.Equal(t, models.NodeStatusPending, node.Status)

	// Empty env values and unbound mounts are dropped, not stored as blanks.
	require.Len(t, node.EnvVars, 1)
	assert.Equal(t, "SCOPE", node.EnvVars[0].Name)
	require.Len(t, node.VolumeMounts, 1)
	assert.Equal(t, "/data", node.VolumeMounts[0].MountPath)

	loaded, err := f.instances.GetInstance(ctx, instance.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Nodes, 1)
}

func TestCreateNode_DuplicateNodeIDConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedTemplate(t, ctx, "tpl-scanner", models.TemplateKindApp)
	instance := f.seedInstance(t, ctx)

	_, err := f.nodes.CreateNode(ctx, instance.ID, scannerRequest())
	require.NoError(t, err)

	_, err = f.nodes.CreateNode(ctx, instance.ID, scannerRequest())
	require.ErrorIs(t, err, ErrNodeIDTaken)
	assert.True(t, IsConflictError(err))
}

func TestCreateNode_UnknownTemplateRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	instance := f.seedInstance(t, ctx)

	_, err := f.nodes.CreateNode(ctx, instance.ID, scannerRequest())
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.True(t, IsValidationError(err))
}

func TestCreateNode_InstanceNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedTemplate(t, ctx, "tpl-scanner", models.TemplateKindApp)

	_, err := f.nodes.CreateNode(ctx, "missing", scannerRequest())
	require.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestUpdateNode_PartialPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedTemplate(t, ctx, "tpl-scanner", models.TemplateKindApp)
	instance := f.seedInstance(t, ctx)

	node, err := f.nodes.CreateNode(ctx, instance.ID, scannerRequest())
	require.NoError(t, err)

	name := "Deep Scanner"
	updated, err := f.nodes.UpdateNode(ctx, instance.ID, node.ID, &UpdateNodeRequest{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, "Deep Scanner", updated.Name)
	assert.Equal(t, models.Position{X: 100, Y: 100}, updated.Position, "untouched fields survive")
	assert.Len(t, updated.EnvVars, 1)
}

func TestUpdateNode_UnknownRecordID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedTemplate(t, ctx, "tpl-scanner", models.TemplateKindApp)
	instance := f.seedInstance(t, ctx)

	name := "x"
	_, err := f.nodes.UpdateNode(ctx, instance.ID, "missing-record", &UpdateNodeRequest{Name: &name})
	require.ErrorIs(t, err, ErrNodeNotFound)
}

func TestDeleteNode_CascadesIncidentEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedTemplate(t, ctx, "tpl-scanner", models.TemplateKindApp)
	f.seedTemplate(t, ctx, "tpl-reporter", models.TemplateKindJob)
	instance := f.seedInstance(t, ctx)

	scanner, err := f.nodes.CreateNode(ctx, instance.ID, scannerRequest())
	require.NoError(t, err)

	_, err = f.nodes.CreateNode(ctx, instance.ID, &CreateNodeRequest{
		NodeID:     "reporter-1",
		Kind:       models.TemplateKindJob,
		TemplateID: "tpl-reporter",
		Name:       "Reporter",
	})
	require.NoError(t, err)

	require.NoError(t, f.edges.UpdateEdge(ctx, instance.ID, &EdgeUpdateRequest{
		Source: "scanner-1",
		Target: "reporter-1",
		Action: EdgeActionAdd,
	}))

	require.NoError(t, f.nodes.DeleteNode(ctx, instance.ID, scanner.ID))

	loaded, err := f.instances.GetInstance(ctx, instance.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Nodes, 1)
	assert.Empty(t, loaded.Edges, "edges referencing the deleted node are removed")
}

func TestNodeLogs_UnknownNode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	instance := f.seedInstance(t, ctx)

	_, err := f.nodes.NodeLogs(ctx, instance.ID, "ghost")
	require.ErrorIs(t, err, ErrNodeNotFound)
}

func TestMutationsRejectedOnTerminalInstance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedTemplate(t, ctx, "tpl-scanner", models.TemplateKindApp)
	instance := f.seedInstance(t, ctx)

	instance.Status = models.InstanceStatusSucceeded
	require.NoError(t, f.persistence.SaveInstance(ctx, instance))

	_, err := f.nodes.CreateNode(ctx, instance.ID, scannerRequest())
	require.ErrorIs(t, err, ErrInstanceFinalized)
	assert.True(t, IsConflictError(err))
}
