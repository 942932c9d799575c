// Package main provides the secflow management API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/runshine/secflow-console/pkg/eventbus"
	"github.com/runshine/secflow-console/pkg/persistence"
	"github.com/runshine/secflow-console/pkg/services"
	"github.com/runshine/secflow-console/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	instanceService := services.NewInstance(a.persistence, a.eventBus, a.logger)
	nodeService := services.NewNode(a.persistence, a.eventBus, a.logger)
	edgeService := services.NewEdge(a.persistence, a.eventBus, a.logger)
	templateService := services.NewTemplate(a.persistence)
	pvcService := services.NewPVC(a.persistence)

	handlers := web.NewAPIHandlers(
		instanceService, nodeService, edgeService, templateService, pvcService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("secflow management API")
	})

	i := app.Group("/instances")
	i.Get("/", handlers.GetInstances)
	i.Post("/", handlers.CreateInstance)
	i.Get("/:id", handlers.GetInstance)
	i.Patch("/:id", handlers.UpdateInstance)
	i.Delete("/:id", handlers.DeleteInstance)

	// Node endpoints. Reads address the graph-local node id; mutations the
	// server record id.
	i.Post("/:id/nodes", handlers.CreateNode)
	i.Get("/:id/nodes/:nodeId", handlers.GetNode)
	i.Get("/:id/nodes/:nodeId/logs", handlers.GetNodeLogs)
	i.Patch("/:id/nodes/records/:recordId", handlers.UpdateNode)
	i.Delete("/:id/nodes/records/:recordId", handlers.DeleteNode)

	i.Put("/:id/edges", handlers.UpdateEdges)

	tpl := app.Group("/templates")
	tpl.Get("/:kind", handlers.GetTemplates)
	tpl.Post("/:kind", handlers.CreateTemplate)
	tpl.Get("/:kind/:templateId", handlers.GetTemplate)
	tpl.Delete("/:kind/:templateId", handlers.DeleteTemplate)

	app.Get("/projects/:projectId/pvcs", handlers.GetProjectPVCs)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
