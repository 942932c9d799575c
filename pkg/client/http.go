package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/runshine/secflow-console/pkg/models"
)

const defaultTimeout = 30 * time.Second

// HTTPClient implements API over the management server's REST surface.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
	logger  *slog.Logger
}

// NewHTTPClient creates an API client for the given base URL.
func NewHTTPClient(baseURL string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return &RequestError{Method: method, Path: path, Err: err}
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return &RequestError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Err:    statusError(resp.StatusCode),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func statusError(status int) error {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrBadRequest
	default:
		return fmt.Errorf("unexpected status %d", status)
	}
}

func (c *HTTPClient) GetInstance(ctx context.Context, id string) (*models.Instance, error) {
	var instance models.Instance

	err := c.do(ctx, http.MethodGet, "/instances/"+url.PathEscape(id), nil, &instance)
	if err != nil {
		return nil, err
	}

	return &instance, nil
}

func (c *HTTPClient) GetNode(ctx context.Context, instanceID, nodeID string) (*models.Node, error) {
	var node models.Node

	path := "/instances/" + url.PathEscape(instanceID) + "/nodes/" + url.PathEscape(nodeID)
	if err := c.do(ctx, http.MethodGet, path, nil, &node); err != nil {
		return nil, err
	}

	return &node, nil
}

func (c *HTTPClient) CreateNode(ctx context.Context, instanceID string, req *CreateNodeRequest) (*models.Node, error) {
	var node models.Node

	path := "/instances/" + url.PathEscape(instanceID) + "/nodes"
	if err := c.do(ctx, http.MethodPost, path, req, &node); err != nil {
		return nil, err
	}

	return &node, nil
}

func (c *HTTPClient) UpdateNode(ctx context.Context, instanceID, id string, patch *UpdateNodeRequest) (*models.Node, error) {
	var node models.Node

	path := "/instances/" + url.PathEscape(instanceID) + "/nodes/records/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPatch, path, patch, &node); err != nil {
		return nil, err
	}

	return &node, nil
}

func (c *HTTPClient) DeleteNode(ctx context.Context, instanceID, id string) error {
	path := "/instances/" + url.PathEscape(instanceID) + "/nodes/records/" + url.PathEscape(id)

	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) UpdateEdge(ctx context.Context, instanceID string, req *EdgeUpdateRequest) error {
	path := "/instances/" + url.PathEscape(instanceID) + "/edges"

	return c.do(ctx, http.MethodPut, path, req, nil)
}

func (c *HTTPClient) GetAppTemplate(ctx context.Context, id string) (*models.Template, error) {
	return c.getTemplate(ctx, models.TemplateKindApp, id)
}

func (c *HTTPClient) GetJobTemplate(ctx context.Context, id string) (*models.Template, error) {
	return c.getTemplate(ctx, models.TemplateKindJob, id)
}

func (c *HTTPClient) getTemplate(ctx context.Context, kind models.TemplateKind, id string) (*models.Template, error) {
	var tpl models.Template

	path := "/templates/" + string(kind) + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, &tpl); err != nil {
		return nil, err
	}

	return &tpl, nil
}

func (c *HTTPClient) ListAppTemplates(ctx context.Context, filter TemplateFilter) ([]*models.TemplateSummary, error) {
	return c.listTemplates(ctx, models.TemplateKindApp, filter)
}

func (c *HTTPClient) ListJobTemplates(ctx context.Context, filter TemplateFilter) ([]*models.TemplateSummary, error) {
	return c.listTemplates(ctx, models.TemplateKindJob, filter)
}

func (c *HTTPClient) listTemplates(ctx context.Context, kind models.TemplateKind, filter TemplateFilter) ([]*models.TemplateSummary, error) {
	path := "/templates/" + string(kind)
	if filter.Name != "" {
		path += "?name=" + url.QueryEscape(filter.Name)
	}

	var result struct {
		Items []*models.TemplateSummary `json:"items"`
	}

	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	return result.Items, nil
}

func (c *HTTPClient) GetNodeLogs(ctx context.Context, instanceID, nodeID string) (string, error) {
	path := "/instances/" + url.PathEscape(instanceID) + "/nodes/" + url.PathEscape(nodeID) + "/logs"

	var result struct {
		Logs string `json:"logs"`
	}

	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return "", err
	}

	return result.Logs, nil
}

func (c *HTTPClient) GetPVCs(ctx context.Context, projectID string) ([]*models.PVC, error) {
	path := "/projects/" + url.PathEscape(projectID) + "/pvcs"

	var result struct {
		PVCs []*models.PVC `json:"pvcs"`
	}

	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	return result.PVCs, nil
}
