package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence"
	"github.com/runshine/secflow-console/pkg/persistence/file"
	"github.com/runshine/secflow-console/pkg/services"
	"github.com/runshine/secflow-console/pkg/web"
)

type testEnv struct {
	app         *fiber.App
	persistence persistence.Persistence
	instances   *services.Instance
	nodes       *services.Node
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	instanceService := services.NewInstance(p, nil, logger)
	nodeService := services.NewNode(p, nil, logger)
	edgeService := services.NewEdge(p, nil, logger)
	templateService := services.NewTemplate(p)
	pvcService := services.NewPVC(p)

	handlers := web.NewAPIHandlers(
		instanceService,
		nodeService,
		edgeService,
		templateService,
		pvcService,
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()

	i := app.Group("/instances")
	i.Get("/", handlers.GetInstances)
	i.Post("/", handlers.CreateInstance)
	i.Get("/:id", handlers.GetInstance)
	i.Patch("/:id", handlers.UpdateInstance)
	i.Delete("/:id", handlers.DeleteInstance)
	i.Post("/:id/nodes", handlers.CreateNode)
	i.Get("/:id/nodes/:nodeId", handlers.GetNode)
	i.Get("/:id/nodes/:nodeId/logs", handlers.GetNodeLogs)
	i.Patch("/:id/nodes/records/:recordId", handlers.UpdateNode)
	i.Delete("/:id/nodes/records/:recordId", handlers.DeleteNode)
	i.Put("/:id/edges", handlers.UpdateEdges)

	app.Get("/templates/:kind", handlers.GetTemplates)
	app.Post("/templates/:kind", handlers.CreateTemplate)
	app.Get("/templates/:kind/:templateId", handlers.GetTemplate)
	app.Delete("/templates/:kind/:templateId", handlers.DeleteTemplate)
	app.Get("/projects/:projectId/pvcs", handlers.GetProjectPVCs)

	return &testEnv{
		app:         app,
		persistence: p,
		instances:   instanceService,
		nodes:       nodeService,
	}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer

	if body != nil {
		if str, ok := body.(string); ok {
			buf.WriteString(str)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()

	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (e *testEnv) seedTemplate(t *testing.T, id string, kind models.TemplateKind) {
	t.Helper()

	require.NoError(t, e.persistence.SaveTemplate(context.Background(), &models.Template{
		ID:   id,
		Name: "Template " + id,
		Kind: kind,
		Containers: []*models.Container{
			{Name: "main", Image: "registry.local/" + id + ":latest"},
		},
	}))
}

func (e *testEnv) seedInstance(t *testing.T) *models.Instance {
	t.Helper()

	instance, err := e.instances.CreateInstance(context.Background(), &services.CreateInstanceRequest{
		Name:      "recon",
		ProjectID: "proj-1",
	})
	require.NoError(t, err)

	return instance
}

func TestAPIHandlers_CreateInstance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name:           "successful creation",
			requestBody:    services.CreateInstanceRequest{Name: "recon", ProjectID: "proj-1"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "validation error - missing name",
			requestBody:    services.CreateInstanceRequest{ProjectID: "proj-1"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "validation error - missing project",
			requestBody:    services.CreateInstanceRequest{Name: "recon"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "not-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := setupTestApp(t)

			resp := env.request(t, http.MethodPost, "/instances/", tt.requestBody)

			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusCreated {
				var instance models.Instance

				decodeBody(t, resp, &instance)
				assert.NotEmpty(t, instance.ID)
				assert.Equal(t, "recon", instance.Name)
				assert.Equal(t, models.InstanceStatusPending, instance.Status)
				assert.Empty(t, instance.Nodes)
				assert.Empty(t, instance.Edges)
			}
		})
	}
}

func TestAPIHandlers_InstanceLifecycle(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	instance := env.seedInstance(t)

	resp := env.request(t, http.MethodGet, "/instances/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list web.InstanceListResponse

	decodeBody(t, resp, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, instance.ID, list.Items[0].ID)

	resp = env.request(t, http.MethodGet, "/instances/"+instance.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Instance

	decodeBody(t, resp, &fetched)
	assert.Equal(t, "recon", fetched.Name)

	name := "recon (renamed)"
	resp = env.request(t, http.MethodPatch, "/instances/"+instance.ID,
		services.UpdateInstanceRequest{Name: &name})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	decodeBody(t, resp, &fetched)
	assert.Equal(t, "recon (renamed)", fetched.Name)

	resp = env.request(t, http.MethodDelete, "/instances/"+instance.ID, nil)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/instances/"+instance.ID, nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_CreateNode(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.seedTemplate(t, "tpl-scanner", models.TemplateKindApp)
	instance := env.seedInstance(t)

	body := services.CreateNodeRequest{
		NodeID:     "scanner-1",
		Kind:       models.TemplateKindApp,
		TemplateID: "tpl-scanner",
		Name:       "Scanner",
		Position:   models.Position{X: 100, Y: 100},
		EnvVars: []models.EnvVar{
			{Name: "SCOPE", Value: "10.0.0.0/8"},
			{Name: "OPTIONAL", Value: ""},
		},
	}

	resp := env.request(t, http.MethodPost, "/instances/"+instance.ID+"/nodes", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var node models.Node

	decodeBody(t, resp, &node)
	assert.NotEmpty(t, node.ID)
	assert.Equal(t, "scanner-1", node.NodeID)
	assert.Len(t, node.EnvVars, 1, "blank env values are dropped")

	// Same graph-local id again conflicts.
	resp = env.request(t, http.MethodPost, "/instances/"+instance.ID+"/nodes", body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Unknown template is a validation failure.
	body.NodeID = "scanner-2"
	body.TemplateID = "tpl-ghost"
	resp = env.request(t, http.MethodPost, "/instances/"+instance.ID+"/nodes", body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown instance.
	body.TemplateID = "tpl-scanner"
	resp = env.request(t, http.MethodPost, "/instances/missing/nodes", body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_UpdateAndDeleteNode(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.seedTemplate(t, "tpl-scanner", models.TemplateKindApp)
	instance := env.seedInstance(t)

	created, err := env.nodes.CreateNode(context.Background(), instance.ID, &services.CreateNodeRequest{
		NodeID:     "scanner-1",
		Kind:       models.TemplateKindApp,
		TemplateID: "tpl-scanner",
		Name:       "Scanner",
		Position:   models.Position{X: 100, Y: 100},
	})
	require.NoError(t, err)

	name := "Deep Scanner"
	resp := env.request(t, http.MethodPatch,
		"/instances/"+instance.ID+"/nodes/records/"+created.ID,
		services.UpdateNodeRequest{Name: &name})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Node

	decodeBody(t, resp, &updated)
	assert.Equal(t, "Deep Scanner", updated.Name)
	assert.Equal(t, models.Position{X: 100, Y: 100}, updated.Position)

	// Patches address nodes by record id; the graph-local id misses.
	resp = env.request(t, http.MethodPatch,
		"/instances/"+instance.ID+"/nodes/records/scanner-1",
		services.UpdateNodeRequest{Name: &name})
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.request(t, http.MethodDelete,
		"/instances/"+instance.ID+"/nodes/records/"+created.ID, nil)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/instances/"+instance.ID+"/nodes/scanner-1", nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_UpdateEdges(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.seedTemplate(t, "tpl-scanner", models.TemplateKindApp)
	env.seedTemplate(t, "tpl-reporter", models.TemplateKindJob)
	instance := env.seedInstance(t)

	ctx := context.Background()

	_, err := env.nodes.CreateNode(ctx, instance.ID, &services.CreateNodeRequest{
		NodeID: "scanner-1", Kind: models.TemplateKindApp, TemplateID: "tpl-scanner", Name: "Scanner",
	})
	require.NoError(t, err)

	_, err = env.nodes.CreateNode(ctx, instance.ID, &services.CreateNodeRequest{
		NodeID: "reporter-1", Kind: models.TemplateKindJob, TemplateID: "tpl-reporter", Name: "Reporter",
	})
	require.NoError(t, err)

	edgesPath := "/instances/" + instance.ID + "/edges"

	resp := env.request(t, http.MethodPut, edgesPath, services.EdgeUpdateRequest{
		Source: "scanner-1", Target: "reporter-1", Action: services.EdgeActionAdd,
	})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.request(t, http.MethodPut, edgesPath, services.EdgeUpdateRequest{
		Source: "scanner-1", Target: "scanner-1", Action: services.EdgeActionAdd,
	})
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "self loops rejected")

	resp = env.request(t, http.MethodPut, edgesPath, services.EdgeUpdateRequest{
		Source: "scanner-1", Target: "ghost", Action: services.EdgeActionAdd,
	})
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing endpoint rejected")

	resp = env.request(t, http.MethodPut, edgesPath, services.EdgeUpdateRequest{
		EdgeID: "ghost-edge", Action: services.EdgeActionDelete,
	})
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.request(t, http.MethodPut, edgesPath, services.EdgeUpdateRequest{
		EdgeID: "scanner-1-reporter-1", Action: services.EdgeActionDelete,
	})
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPIHandlers_Templates(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.seedTemplate(t, "tpl-scanner", models.TemplateKindApp)
	env.seedTemplate(t, "tpl-proxy", models.TemplateKindApp)

	resp := env.request(t, http.MethodGet, "/templates/app", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list web.TemplateListResponse

	decodeBody(t, resp, &list)
	assert.Len(t, list.Items, 2)

	resp = env.request(t, http.MethodGet, "/templates/app?name=proxy", nil)

	decodeBody(t, resp, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "tpl-proxy", list.Items[0].ID)

	resp = env.request(t, http.MethodGet, "/templates/app/tpl-scanner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tpl models.Template

	decodeBody(t, resp, &tpl)
	assert.Equal(t, "tpl-scanner", tpl.ID)
	require.Len(t, tpl.Containers, 1)

	resp = env.request(t, http.MethodGet, "/templates/daemonset", nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/templates/job/tpl-ghost", nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_CreateAndDeleteTemplate(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := env.request(t, http.MethodPost, "/templates/job", models.Template{
		Name: "Report Builder",
		Containers: []*models.Container{
			{Name: "main", Image: "registry.local/report-builder:latest"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Template

	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.TemplateKindJob, created.Kind, "path kind wins")

	resp = env.request(t, http.MethodPost, "/templates/job", models.Template{Name: "No Containers"})
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, http.MethodDelete, "/templates/job/"+created.ID, nil)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.request(t, http.MethodDelete, "/templates/job/"+created.ID, nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_NodeLogs(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.seedTemplate(t, "tpl-scanner", models.TemplateKindApp)
	instance := env.seedInstance(t)

	ctx := context.Background()

	_, err := env.nodes.CreateNode(ctx, instance.ID, &services.CreateNodeRequest{
		NodeID: "scanner-1", Kind: models.TemplateKindApp, TemplateID: "tpl-scanner", Name: "Scanner",
	})
	require.NoError(t, err)

	require.NoError(t, env.persistence.AppendNodeLogs(ctx, instance.ID, "scanner-1", "scan started\n"))

	resp := env.request(t, http.MethodGet, "/instances/"+instance.ID+"/nodes/scanner-1/logs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var logs web.NodeLogsResponse

	decodeBody(t, resp, &logs)
	assert.Equal(t, "scanner-1", logs.NodeID)
	assert.Equal(t, "scan started\n", logs.Logs)

	resp = env.request(t, http.MethodGet, "/instances/"+instance.ID+"/nodes/ghost/logs", nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_ProjectPVCs(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	ctx := context.Background()

	require.NoError(t, env.persistence.SavePVC(ctx, &models.PVC{
		ProjectID: "proj-1", PVCName: "pvc-results", Capacity: "10Gi",
	}))
	require.NoError(t, env.persistence.SavePVC(ctx, &models.PVC{
		ProjectID: "proj-2", PVCName: "pvc-other", Capacity: "1Gi",
	}))

	resp := env.request(t, http.MethodGet, "/projects/proj-1/pvcs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list web.PVCListResponse

	decodeBody(t, resp, &list)
	assert.Equal(t, "proj-1", list.ProjectID)
	require.Len(t, list.PVCs, 1)
	assert.Equal(t, "pvc-results", list.PVCs[0].PVCName)
}
