package nodeconfig

import (
	"testing"

	"github.com/runshine/secflow-console/pkg/contract"
	"github.com/runshine/secflow-console/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appTemplate() *models.Template {
	return &models.Template{
		ID:   "tpl-nginx",
		Name: "nginx-app",
		Kind: models.TemplateKindApp,
		Containers: []*models.Container{
			{
				Name:  "nginx",
				Image: "nginx:1.27",
				InputEnvVars: []models.InputEnvVar{
					{Name: "PORT", DefaultValue: "80"},
				},
			},
		},
	}
}

func TestNew_DefaultsFromTemplate(t *testing.T) {
	tpl := appTemplate()
	cfg := New(tpl, contract.FromTemplate(tpl))

	assert.Equal(t, "nginx-app", cfg.Name)
	assert.Equal(t, models.TemplateKindApp, cfg.Kind)
	assert.Equal(t, "tpl-nginx", cfg.TemplateID)
	assert.True(t, len(cfg.NodeID()) > len("nginx-app"))
	assert.Contains(t, cfg.NodeID(), "nginx-app-")

	require.Len(t, cfg.EnvVars, 1)
	assert.Equal(t, models.EnvVar{Name: "PORT", Value: "80"}, cfg.EnvVars[0])
}

func TestNew_NodeIDOverridable(t *testing.T) {
	tpl := appTemplate()
	cfg := New(tpl, contract.FromTemplate(tpl))

	require.NoError(t, cfg.SetNodeID("web-1"))
	assert.Equal(t, "web-1", cfg.NodeID())
}

func TestEdit_NodeIDIsReadOnly(t *testing.T) {
	node := &models.Node{
		NodeID:     "scanner-1",
		Kind:       models.TemplateKindJob,
		TemplateID: "tpl-scan",
		Name:       "scanner",
	}

	cfg := Edit(node, &contract.InputContract{})

	assert.Equal(t, "scanner-1", cfg.NodeID())

	err := cfg.SetNodeID("other")
	require.ErrorIs(t, err, ErrNodeIDImmutable)
	assert.Equal(t, "scanner-1", cfg.NodeID())
}

func TestEdit_ValueResolutionOrder(t *testing.T) {
	node := &models.Node{
		NodeID:     "n1",
		Name:       "n1",
		Kind:       models.TemplateKindApp,
		TemplateID: "tpl",
		EnvVars:    []models.EnvVar{{Name: "STORED", Value: "kept"}},
		VolumeMounts: []models.VolumeMount{
			{MountPath: "/data", PVCName: "pvc-data"},
		},
	}
	c := &contract.InputContract{
		EnvSlots: []contract.EnvSlot{
			{Name: "STORED", DefaultValue: "default-ignored"},
			{Name: "DEFAULTED", DefaultValue: "from-template"},
			{Name: "EMPTY"},
		},
		VolumeSlots: []contract.VolumeSlot{
			{MountPath: "/data"},
			{MountPath: "/fresh"},
		},
	}

	cfg := Edit(node, c)

	require.Len(t, cfg.EnvVars, 3)
	assert.Equal(t, "kept", cfg.EnvVars[0].Value)
	assert.Equal(t, "from-template", cfg.EnvVars[1].Value)
	assert.Equal(t, "", cfg.EnvVars[2].Value)

	require.Len(t, cfg.VolumeMounts, 2)
	assert.Equal(t, "pvc-data", cfg.VolumeMounts[0].PVCName)
	assert.Equal(t, "", cfg.VolumeMounts[1].PVCName)
}

func TestBuildNode_OmitsUnconfiguredSlots(t *testing.T) {
	tpl := &models.Template{
		ID:   "tpl",
		Name: "worker",
		Kind: models.TemplateKindJob,
		Containers: []*models.Container{
			{
				Name:  "main",
				Image: "worker:latest",
				InputEnvVars: []models.InputEnvVar{
					{Name: "SET", DefaultValue: "v"},
					{Name: "UNSET"},
				},
				InputVolumeMounts: []models.InputVolumeMount{
					{MountPath: "/bound"},
					{MountPath: "/unbound"},
				},
			},
		},
	}

	cfg := New(tpl, contract.FromTemplate(tpl))
	cfg.BindVolume("/bound", "pvc-1")

	node, err := cfg.BuildNode(models.Position{X: 10, Y: 20})
	require.NoError(t, err)

	require.Len(t, node.EnvVars, 1)
	assert.Equal(t, "SET", node.EnvVars[0].Name)

	require.Len(t, node.VolumeMounts, 1)
	assert.Equal(t, "/bound", node.VolumeMounts[0].MountPath)
	assert.Equal(t, "pvc-1", node.VolumeMounts[0].PVCName)

	assert.Equal(t, models.Position{X: 10, Y: 20}, node.Position)
}

func TestBuildNode_ValidatesRequiredFields(t *testing.T) {
	tpl := appTemplate()

	cfg := New(tpl, contract.FromTemplate(tpl))
	cfg.Name = "   "

	_, err := cfg.BuildNode(models.Position{})
	require.ErrorIs(t, err, ErrNameRequired)
	assert.True(t, IsValidationError(err))

	cfg = New(tpl, contract.FromTemplate(tpl))
	require.NoError(t, cfg.SetNodeID(""))

	_, err = cfg.BuildNode(models.Position{})
	require.ErrorIs(t, err, ErrNodeIDRequired)
}

func TestUpdatePayload_NeverCarriesNodeID(t *testing.T) {
	node := &models.Node{
		NodeID:     "fixed-id",
		Kind:       models.TemplateKindApp,
		TemplateID: "tpl",
		Name:       "renamed",
	}

	cfg := Edit(node, &contract.InputContract{})

	patch, err := cfg.UpdatePayload()
	require.NoError(t, err)
	require.NotNil(t, patch.Name)
	assert.Equal(t, "renamed", *patch.Name)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "nginx-app", Slug("Nginx App"))
	assert.Equal(t, "scan-2", Slug("  scan--2!  "))
	assert.Equal(t, "", Slug("***"))
}
