package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence"
)

func newTestPersistence(t *testing.T) persistence.Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func testInstance(id string) *models.Instance {
	return &models.Instance{
		ID:        id,
		Name:      "web recon",
		Status:    models.InstanceStatusPending,
		ProjectID: "proj-1",
		Nodes: []*models.Node{
			{
				ID:         "rec-1",
				NodeID:     "crawler-1",
				Kind:       models.TemplateKindApp,
				TemplateID: "tpl-crawler",
				Name:       "Crawler",
				Position:   models.Position{X: 10, Y: 20},
			},
		},
		Edges: []*models.Edge{},
	}
}

func TestInstanceRoundTrip(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SaveInstance(ctx, testInstance("inst-1")))

	loaded, err := p.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "web recon", loaded.Name)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, "crawler-1", loaded.Nodes[0].NodeID)
	assert.Equal(t, models.Position{X: 10, Y: 20}, loaded.Nodes[0].Position)
	assert.False(t, loaded.CreatedAt.IsZero())
}

func TestInstanceByID_NotFound(t *testing.T) {
	p := newTestPersistence(t)

	_, err := p.InstanceByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsInstanceNotFound(err))
}

func TestDeleteInstance_SoftDeleteHidesFromList(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SaveInstance(ctx, testInstance("inst-1")))
	require.NoError(t, p.SaveInstance(ctx, testInstance("inst-2")))
	require.NoError(t, p.DeleteInstance(ctx, "inst-1"))

	instances, err := p.Instances(ctx)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "inst-2", instances[0].ID)

	deleted, err := p.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.NotNil(t, deleted.DeletedAt)
}

func TestTemplateRoundTripAndFilter(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	nmap := &models.Template{
		ID:   "tpl-nmap",
		Name: "Port Scanner",
		Kind: models.TemplateKindJob,
		Containers: []*models.Container{
			{Name: "scan", Image: "registry.local/nmap:latest"},
		},
	}
	report := &models.Template{
		ID:   "tpl-report",
		Name: "Report Builder",
		Kind: models.TemplateKindJob,
		Containers: []*models.Container{
			{Name: "build", Image: "registry.local/report:latest"},
		},
	}

	require.NoError(t, p.SaveTemplate(ctx, nmap))
	require.NoError(t, p.SaveTemplate(ctx, report))

	all, err := p.Templates(ctx, models.TemplateKindJob, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := p.Templates(ctx, models.TemplateKindJob, "port")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "tpl-nmap", filtered[0].ID)

	apps, err := p.Templates(ctx, models.TemplateKindApp, "")
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestTemplateByID_NotFound(t *testing.T) {
	p := newTestPersistence(t)

	_, err := p.TemplateByID(context.Background(), models.TemplateKindApp, "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsTemplateNotFound(err))
}

func TestPVCsByProject(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SavePVC(ctx, &models.PVC{
		PVCName:      "pvc-results",
		Capacity:     "10Gi",
		ResourceName: "results-volume",
		ProjectID:    "proj-1",
	}))
	require.NoError(t, p.SavePVC(ctx, &models.PVC{
		PVCName:   "pvc-other",
		Capacity:  "1Gi",
		ProjectID: "proj-2",
	}))

	pvcs, err := p.PVCsByProject(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, pvcs, 1)
	assert.Equal(t, "pvc-results", pvcs[0].PVCName)

	empty, err := p.PVCsByProject(ctx, "proj-none")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSetNodeStatus(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SaveInstance(ctx, testInstance("inst-1")))
	require.NoError(t, p.SetNodeStatus(ctx, "inst-1", "crawler-1", models.NodeStatusRunning))

	loaded, err := p.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, models.NodeStatusRunning, loaded.NodeByNodeID("crawler-1").Status)

	err = p.SetNodeStatus(ctx, "inst-1", "ghost", models.NodeStatusRunning)
	require.Error(t, err)
	assert.True(t, persistence.IsNodeNotFound(err))
}

func TestSetInstanceStatus(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SaveInstance(ctx, testInstance("inst-1")))
	require.NoError(t, p.SetInstanceStatus(ctx, "inst-1", models.InstanceStatusRunning))

	loaded, err := p.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, models.InstanceStatusRunning, loaded.Status)

	err = p.SetInstanceStatus(ctx, "missing", models.InstanceStatusRunning)
	require.Error(t, err)
	assert.True(t, persistence.IsInstanceNotFound(err))
}

func TestPurgeDeletedInstances(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SaveInstance(ctx, testInstance("inst-live")))
	require.NoError(t, p.SaveInstance(ctx, testInstance("inst-gone")))
	require.NoError(t, p.DeleteInstance(ctx, "inst-gone"))

	// A cutoff before the deletion keeps the tombstone in place.
	purged, err := p.PurgeDeletedInstances(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, purged)

	purged, err = p.PurgeDeletedInstances(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = p.InstanceByID(ctx, "inst-gone")
	require.Error(t, err)
	assert.True(t, persistence.IsInstanceNotFound(err))

	_, err = p.InstanceByID(ctx, "inst-live")
	require.NoError(t, err)
}

func TestDeleteTemplate(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SaveTemplate(ctx, &models.Template{
		ID:   "tpl-nmap",
		Name: "Port Scanner",
		Kind: models.TemplateKindJob,
		Containers: []*models.Container{
			{Name: "scan", Image: "registry.local/nmap:latest"},
		},
	}))

	require.NoError(t, p.DeleteTemplate(ctx, models.TemplateKindJob, "tpl-nmap"))

	_, err := p.TemplateByID(ctx, models.TemplateKindJob, "tpl-nmap")
	require.Error(t, err)
	assert.True(t, persistence.IsTemplateNotFound(err))

	err = p.DeleteTemplate(ctx, models.TemplateKindJob, "tpl-nmap")
	require.Error(t, err)
	assert.True(t, persistence.IsTemplateNotFound(err))
}

func TestNodeLogs_AppendAndGet(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	logs, err := p.NodeLogs(ctx, "inst-1", "crawler-1")
	require.NoError(t, err)
	assert.Empty(t, logs)

	require.NoError(t, p.AppendNodeLogs(ctx, "inst-1", "crawler-1", "starting crawl\n"))
	require.NoError(t, p.AppendNodeLogs(ctx, "inst-1", "crawler-1", "200 pages fetched\n"))

	logs, err = p.NodeLogs(ctx, "inst-1", "crawler-1")
	require.NoError(t, err)
	assert.Equal(t, "starting crawl\n200 pages fetched\n", logs)
}
