// Package web provides HTTP handlers and REST API endpoints for graph and
// run management.
package web

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/registry"
	"github.com/maestrohq/maestro/pkg/services"
)

type APIHandlers struct {
	orchestrator *services.Orchestrator
	connections  *services.Connection
	registry     *registry.Registry
	validator    *validator.Validate
}

func NewAPIHandlers(
	orchestrator *services.Orchestrator,
	connections *services.Connection,
	registry *registry.Registry,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		orchestrator: orchestrator,
		connections:  connections,
		registry:     registry,
		validator:    validator,
	}
}

func (h *APIHandlers) GetGraphs(c fiber.Ctx) error {
	graphs, err := h.orchestrator.Graphs(c.Context(), c.Query("workspace_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"graphs": graphs,
		"count":  len(graphs),
	})
}

func (h *APIHandlers) GetGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	graph, err := h.orchestrator.GraphByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(graph)
}

func (h *APIHandlers) CreateGraph(c fiber.Ctx) error {
	var req CreateGraphRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	graph := &models.GraphDefinition{
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
		Description: req.Description,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
	}

	created, err := h.orchestrator.SaveGraph(c.Context(), graph)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	var req UpdateGraphRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.orchestrator.GraphByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Nodes != nil {
		existing.Nodes = req.Nodes
	}

	if req.Edges != nil {
		existing.Edges = req.Edges
	}

	updated, err := h.orchestrator.SaveGraph(c.Context(), existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	if err := h.orchestrator.DeleteGraph(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RunGraph starts an asynchronous run and returns the pending record.
func (h *APIHandlers) RunGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	var req RunRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	run, err := h.orchestrator.Run(c.Context(), id, req.Inputs)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(run)
}

func (h *APIHandlers) GetGraphRuns(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	runs, err := h.orchestrator.Runs(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"runs":  runs,
		"count": len(runs),
	})
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	run, err := h.orchestrator.RunByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(run)
}

// HandleCallback resumes a waiting run identified by the callback token.
func (h *APIHandlers) HandleCallback(c fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return badRequest(c, "Callback token is required")
	}

	var payload map[string]any
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&payload); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	run, err := h.orchestrator.HandleCallback(c.Context(), token, payload)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(run)
}

func (h *APIHandlers) Connect(c fiber.Ctx) error {
	var req ConnectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	conn, err := h.connections.Connect(c.Context(), req.WorkspaceID, req.Provider, req.Credentials)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(conn)
}

func (h *APIHandlers) GetConnections(c fiber.Ctx) error {
	conns, err := h.connections.List(c.Context(), c.Query("workspace_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"connections": conns,
		"count":       len(conns),
	})
}

func (h *APIHandlers) TestConnection(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Connection ID is required")
	}

	conn, err := h.connections.Test(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(conn)
}

func (h *APIHandlers) Disconnect(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Connection ID is required")
	}

	if err := h.connections.Disconnect(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetRemoteWorkflows(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Connection ID is required")
	}

	workflows, err := h.connections.RemoteWorkflows(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows": workflows,
		"count":     len(workflows),
	})
}

func (h *APIHandlers) GetWorkflowPreview(c fiber.Ctx) error {
	id := c.Params("id")
	workflowID := c.Params("workflowId")

	if id == "" || workflowID == "" {
		return badRequest(c, "Connection ID and workflow ID are required")
	}

	preview, err := h.connections.WorkflowPreview(c.Context(), id, workflowID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(preview)
}

// GetNodeTypes returns the catalog of registered node types, sorted by type.
func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	factories := h.registry.NodeFactories()

	nodeTypes := make([]NodeTypeResponse, 0, len(factories))
	for _, factory := range factories {
		nodeTypes = append(nodeTypes, NodeTypeResponse{
			Type:        factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	sort.Slice(nodeTypes, func(i, j int) bool {
		return nodeTypes[i].Type < nodeTypes[j].Type
	})

	return c.JSON(fiber.Map{
		"node_types": nodeTypes,
		"count":      len(nodeTypes),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.orchestrator.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Maestro API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Maestro API is healthy"
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
