// Package mocks provides shared mock implementations for testing.
package mocks

import (
	"context"

	"github.com/runshine/secflow-console/pkg/client"
	"github.com/runshine/secflow-console/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockAPI is a mock implementation of the client.API interface.
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) GetInstance(ctx context.Context, id string) (*models.Instance, error) {
	args := m.Called(ctx, id)

	instance, _ := args.Get(0).(*models.Instance)

	return instance, args.Error(1)
}

func (m *MockAPI) GetNode(ctx context.Context, instanceID, nodeID string) (*models.Node, error) {
	args := m.Called(ctx, instanceID, nodeID)

	node, _ := args.Get(0).(*models.Node)

	return node, args.Error(1)
}

func (m *MockAPI) CreateNode(ctx context.Context, instanceID string, req *client.CreateNodeRequest) (*models.Node, error) {
	args := m.Called(ctx, instanceID, req)

	node, _ := args.Get(0).(*models.Node)

	return node, args.Error(1)
}

func (m *MockAPI) UpdateNode(ctx context.Context, instanceID, id string, patch *client.UpdateNodeRequest) (*models.Node, error) {
	args := m.Called(ctx, instanceID, id, patch)

	node, _ := args.Get(0).(*models.Node)

	return node, args.Error(1)
}

func (m *MockAPI) DeleteNode(ctx context.Context, instanceID, id string) error {
	args := m.Called(ctx, instanceID, id)

	return args.Error(0)
}

func (m *MockAPI) UpdateEdge(ctx context.Context, instanceID string, req *client.EdgeUpdateRequest) error {
	args := m.Called(ctx, instanceID, req)

	return args.Error(0)
}

func (m *MockAPI) GetAppTemplate(ctx context.Context, id string) (*models.Template, error) {
	args := m.Called(ctx, id)

	tpl, _ := args.Get(0).(*models.Template)

	return tpl, args.Error(1)
}

func (m *MockAPI) GetJobTemplate(ctx context.Context, id string) (*models.Template, error) {
	args := m.Called(ctx, id)

	tpl, _ := args.Get(0).(*models.Template)

	return tpl, args.Error(1)
}

func (m *MockAPI) ListAppTemplates(ctx context.Context, filter client.TemplateFilter) ([]*models.TemplateSummary, error) {
	args := m.Called(ctx, filter)

	items, _ := args.Get(0).([]*models.TemplateSummary)

	return items, args.Error(1)
}

func (m *MockAPI) ListJobTemplates(ctx context.Context, filter client.TemplateFilter) ([]*models.TemplateSummary, error) {
	args := m.Called(ctx, filter)

	items, _ := args.Get(0).([]*models.TemplateSummary)

	return items, args.Error(1)
}

func (m *MockAPI) GetNodeLogs(ctx context.Context, instanceID, nodeID string) (string, error) {
	args := m.Called(ctx, instanceID, nodeID)

	return args.String(0), args.Error(1)
}

func (m *MockAPI) GetPVCs(ctx context.Context, projectID string) ([]*models.PVC, error) {
	args := m.Called(ctx, projectID)

	pvcs, _ := args.Get(0).([]*models.PVC)

	return pvcs, args.Error(1)
}
