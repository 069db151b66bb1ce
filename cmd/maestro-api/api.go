// Package main provides the Maestro API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/maestrohq/maestro/pkg/eventbus"
	"github.com/maestrohq/maestro/pkg/lease"
	"github.com/maestrohq/maestro/pkg/persistence"
	"github.com/maestrohq/maestro/pkg/providers"
	"github.com/maestrohq/maestro/pkg/registry"
	"github.com/maestrohq/maestro/pkg/runner"
	"github.com/maestrohq/maestro/pkg/services"
	"github.com/maestrohq/maestro/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	catalog     *providers.Catalog
	registry    *registry.Registry
	runner      *runner.Runner
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persist persistence.Persistence,
	catalog *providers.Catalog,
	reg *registry.Registry,
	eventBus eventbus.EventBus,
	locker lease.Locker,
) *API {
	return &API{
		logger:      logger,
		persistence: persist,
		catalog:     catalog,
		registry:    reg,
		runner:      runner.NewRunner(persist, reg, eventBus, locker, logger),
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	orchestrator := services.NewOrchestrator(a.persistence, a.registry, a.runner, a.eventBus, a.logger)
	connections := services.NewConnection(a.persistence, a.catalog, a.logger)

	handlers := web.NewAPIHandlers(orchestrator, connections, a.registry, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Maestro API")
	})

	g := app.Group("/graphs")
	g.Get("/", handlers.GetGraphs)
	g.Post("/", handlers.CreateGraph)
	g.Get("/:id", handlers.GetGraph)
	g.Patch("/:id", handlers.UpdateGraph)
	g.Delete("/:id", handlers.DeleteGraph)
	g.Post("/:id/run", handlers.RunGraph)
	g.Get("/:id/runs", handlers.GetGraphRuns)

	app.Get("/runs/:id", handlers.GetRun)
	app.Post("/callbacks/:token", handlers.HandleCallback)

	cn := app.Group("/connections")
	cn.Get("/", handlers.GetConnections)
	cn.Post("/", handlers.Connect)
	cn.Post("/:id/test", handlers.TestConnection)
	cn.Delete("/:id", handlers.Disconnect)
	cn.Get("/:id/workflows", handlers.GetRemoteWorkflows)
	cn.Get("/:id/workflows/:workflowId", handlers.GetWorkflowPreview)

	app.Get("/nodes", handlers.GetNodeTypes)
	app.Get("/health", handlers.HealthCheck)

	return app
}

// Monitor builds the periodic connection health sweeper.
func (a *API) Monitor(schedule string) *services.ConnectionMonitor {
	connections := services.NewConnection(a.persistence, a.catalog, a.logger)

	return services.NewConnectionMonitor(connections, schedule, a.logger)
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
