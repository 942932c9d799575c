package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/services"
)

type APIHandlers struct {
	instanceService *services.Instance
	nodeService     *services.Node
	edgeService     *services.Edge
	templateService *services.Template
	pvcService      *services.PVC
	validator       *validator.Validate
}

func NewAPIHandlers(
	instanceService *services.Instance,
	nodeService *services.Node,
	edgeService *services.Edge,
	templateService *services.Template,
	pvcService *services.PVC,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		instanceService: instanceService,
		nodeService:     nodeService,
		edgeService:     edgeService,
		templateService: templateService,
		pvcService:      pvcService,
		validator:       validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.instanceService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "secflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "secflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetInstances(c fiber.Ctx) error {
	instances, err := h.instanceService.ListInstances(c.Context(), c.Query("project_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(InstanceListResponse{Items: instances})
}

func (h *APIHandlers) GetInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	instance, err := h.instanceService.GetInstance(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instance)
}

func (h *APIHandlers) CreateInstance(c fiber.Ctx) error {
	var req services.CreateInstanceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.instanceService.CreateInstance(c.Context(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	var req services.UpdateInstanceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.instanceService.UpdateInstance(c.Context(), id, &req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	if err := h.instanceService.DeleteInstance(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateNode(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	var req services.CreateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := h.nodeService.CreateNode(c.Context(), id, &req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(node)
}

// GetNode resolves a node by its graph-local id, the stable name edges and
// status reports use.
func (h *APIHandlers) GetNode(c fiber.Ctx) error {
	id := c.Params("id")
	nodeID := c.Params("nodeId")

	if id == "" || nodeID == "" {
		return badRequest(c, "Instance ID and node ID are required")
	}

	node, err := h.nodeService.GetNode(c.Context(), id, nodeID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) GetNodeLogs(c fiber.Ctx) error {
	id := c.Params("id")
	nodeID := c.Params("nodeId")

	if id == "" || nodeID == "" {
		return badRequest(c, "Instance ID and node ID are required")
	}

	logs, err := h.nodeService.NodeLogs(c.Context(), id, nodeID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(NodeLogsResponse{
		InstanceID: id,
		NodeID:     nodeID,
		Logs:       logs,
	})
}

// UpdateNode patches a node addressed by its server-assigned record id, not
// the graph-local node id.
func (h *APIHandlers) UpdateNode(c fiber.Ctx) error {
	id := c.Params("id")
	recordID := c.Params("recordId")

	if id == "" || recordID == "" {
		return badRequest(c, "Instance ID and node record ID are required")
	}

	var req services.UpdateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := h.nodeService.UpdateNode(c.Context(), id, recordID, &req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) DeleteNode(c fiber.Ctx) error {
	id := c.Params("id")
	recordID := c.Params("recordId")

	if id == "" || recordID == "" {
		return badRequest(c, "Instance ID and node record ID are required")
	}

	if err := h.nodeService.DeleteNode(c.Context(), id, recordID); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) UpdateEdges(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	var req services.EdgeUpdateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.edgeService.UpdateEdge(c.Context(), id, &req); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	kind := models.TemplateKind(c.Params("kind"))

	summaries, err := h.templateService.ListTemplates(c.Context(), kind, c.Query("name"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TemplateListResponse{Items: summaries})
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	kind := models.TemplateKind(c.Params("kind"))

	id := c.Params("templateId")
	if id == "" {
		return badRequest(c, "Template ID is required")
	}

	template, err := h.templateService.GetTemplate(c.Context(), kind, id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

func (h *APIHandlers) CreateTemplate(c fiber.Ctx) error {
	kind := models.TemplateKind(c.Params("kind"))

	var template models.Template
	if err := c.Bind().JSON(&template); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	// The path segment wins over whatever the body claims.
	template.Kind = kind

	if err := h.validator.Struct(template); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.templateService.SaveTemplate(c.Context(), &template); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(template)
}

func (h *APIHandlers) DeleteTemplate(c fiber.Ctx) error {
	kind := models.TemplateKind(c.Params("kind"))

	id := c.Params("templateId")
	if id == "" {
		return badRequest(c, "Template ID is required")
	}

	if err := h.templateService.DeleteTemplate(c.Context(), kind, id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetProjectPVCs(c fiber.Ctx) error {
	projectID := c.Params("projectId")
	if projectID == "" {
		return badRequest(c, "Project ID is required")
	}

	pvcs, err := h.pvcService.ListByProject(c.Context(), projectID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(PVCListResponse{
		ProjectID: projectID,
		PVCs:      pvcs,
	})
}
