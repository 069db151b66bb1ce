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

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/persistence/file"
	"github.com/maestrohq/maestro/pkg/providers"
	"github.com/maestrohq/maestro/pkg/registry"
	"github.com/maestrohq/maestro/pkg/runner"
	"github.com/maestrohq/maestro/pkg/services"
	"github.com/maestrohq/maestro/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, *services.Orchestrator) {
	t.Helper()

	persist := file.NewPersistence(t.TempDir())
	catalog := providers.NewCatalog(persist)
	reg := registry.NewDefaultRegistry(slog.Default(), catalog, "")
	run := runner.NewRunner(persist, reg, nil, nil, slog.Default())
	orchestrator := services.NewOrchestrator(persist, reg, run, nil, slog.Default())
	connections := services.NewConnection(persist, catalog, slog.Default())
	validate := validator.New(validator.WithRequiredStructEnabled())

	handlers := web.NewAPIHandlers(orchestrator, connections, reg, validate)

	app := fiber.New()

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
	cn.Delete("/:id", handlers.Disconnect)

	app.Get("/nodes", handlers.GetNodeTypes)
	app.Get("/health", handlers.HealthCheck)

	return app, orchestrator
}

func mapperGraphRequest(name string) web.CreateGraphRequest {
	return web.CreateGraphRequest{
		Name:        name,
		Description: "maps a value",
		Nodes: []*models.Node{
			{
				ID:   "m1",
				Type: models.NodeTypeDataMapper,
				Name: "Map",
				Config: map[string]any{
					"mappings": []any{
						map[string]any{"from": "value", "to": "value"},
					},
				},
			},
		},
	}
}

func createGraph(t *testing.T, app *fiber.App, req web.CreateGraphRequest) models.GraphDefinition {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq := httptest.NewRequest(http.MethodPost, "/graphs/", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(httpReq)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var graph models.GraphDefinition

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &graph))

	return graph
}

func TestAPIHandlers_CreateGraph(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		validateResult func(t *testing.T, body []byte)
	}{
		{
			name:           "successful creation",
			requestBody:    mapperGraphRequest("Order Pipeline"),
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				var graph models.GraphDefinition
				require.NoError(t, json.Unmarshal(body, &graph))
				assert.Equal(t, "Order Pipeline", graph.Name)
				assert.NotEmpty(t, graph.ID)
				assert.Equal(t, 1, graph.Version)
			},
		},
		{
			name: "name too short",
			requestBody: web.CreateGraphRequest{
				Name:  "ab",
				Nodes: mapperGraphRequest("x").Nodes,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing nodes",
			requestBody: web.CreateGraphRequest{
				Name: "Empty Graph",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid json",
			requestBody:    "{not json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			var body []byte
			if s, ok := tt.requestBody.(string); ok {
				body = []byte(s)
			} else {
				var err error
				body, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/graphs/", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateResult != nil {
				raw, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				tt.validateResult(t, raw)
			}
		})
	}
}

func TestAPIHandlers_GetGraph(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	graph := createGraph(t, app, mapperGraphRequest("Fetch Me"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/graphs/"+graph.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.GraphDefinition

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &fetched))
	assert.Equal(t, graph.ID, fetched.ID)
	assert.Equal(t, "Fetch Me", fetched.Name)
}

func TestAPIHandlers_GetGraph_NotFound(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/graphs/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_UpdateGraph(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	graph := createGraph(t, app, mapperGraphRequest("Before Rename"))

	body, err := json.Marshal(map[string]any{"name": "After Rename"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/graphs/"+graph.ID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.GraphDefinition

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &updated))
	assert.Equal(t, "After Rename", updated.Name)
	assert.Equal(t, 2, updated.Version)
}

func TestAPIHandlers_DeleteGraph(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	graph := createGraph(t, app, mapperGraphRequest("Short Lived"))

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/graphs/"+graph.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/graphs/"+graph.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_RunGraph(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	graph := createGraph(t, app, mapperGraphRequest("Runnable"))

	body, err := json.Marshal(web.RunRequest{Inputs: map[string]any{"value": "hello"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graphs/"+graph.ID+"/run", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var run models.RunRecord

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &run))
	assert.Equal(t, graph.ID, run.GraphID)
	assert.NotEmpty(t, run.ID)
	assert.NotEmpty(t, run.CorrelationToken)
}

func TestAPIHandlers_RunGraph_UnknownGraph(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/graphs/missing/run", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GetRun(t *testing.T) {
	t.Parallel()

	app, orchestrator := setupTestApp(t)
	graph := createGraph(t, app, mapperGraphRequest("Inspectable"))

	run, err := orchestrator.RunSync(context.Background(), graph.ID, map[string]any{"value": 7})
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/runs/"+run.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.RunRecord

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &fetched))
	assert.Equal(t, run.ID, fetched.ID)
	assert.Equal(t, models.RunStatusCompleted, fetched.Status)
}

func TestAPIHandlers_GetGraphRuns(t *testing.T) {
	t.Parallel()

	app, orchestrator := setupTestApp(t)
	graph := createGraph(t, app, mapperGraphRequest("Busy Graph"))

	for range 2 {
		_, err := orchestrator.RunSync(context.Background(), graph.ID, map[string]any{"value": 1})
		require.NoError(t, err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/graphs/"+graph.ID+"/runs", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Runs  []*models.RunRecord `json:"runs"`
		Count int                 `json:"count"`
	}

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, 2, result.Count)
	assert.Len(t, result.Runs, 2)
}

func TestAPIHandlers_HandleCallback(t *testing.T) {
	t.Parallel()

	app, orchestrator := setupTestApp(t)

	graph := createGraph(t, app, web.CreateGraphRequest{
		Name: "Waits For Approval",
		Nodes: []*models.Node{
			{ID: "wait", Type: models.NodeTypeWaitCallback, Name: "Wait"},
		},
	})

	run, err := orchestrator.RunSync(context.Background(), graph.ID, map[string]any{"order": 42})
	require.NoError(t, err)
	require.Equal(t, models.RunStatusWaiting, run.Status)

	body, err := json.Marshal(map[string]any{"approved": true})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/callbacks/"+run.CorrelationToken, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var resumed models.RunRecord

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &resumed))
	assert.Equal(t, models.RunStatusCompleted, resumed.Status)
}

func TestAPIHandlers_HandleCallback_UnknownToken(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/callbacks/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_Connect_UnknownProvider(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	body, err := json.Marshal(web.ConnectRequest{
		WorkspaceID: "ws-1",
		Provider:    "nonexistent",
		Credentials: "key",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/connections/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_GetConnections_Empty(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/connections/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Count int `json:"count"`
	}

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, 0, result.Count)
}

func TestAPIHandlers_GetNodeTypes(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nodes", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		NodeTypes []web.NodeTypeResponse `json:"node_types"`
		Count     int                    `json:"count"`
	}

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, len(result.NodeTypes), result.Count)

	seen := make(map[string]bool)
	for _, nt := range result.NodeTypes {
		seen[nt.Type] = true

		assert.NotEmpty(t, nt.Name)
		assert.NotEmpty(t, nt.Schema)
	}

	assert.True(t, seen[models.NodeTypeDataMapper])
	assert.True(t, seen[models.NodeTypeCondition])
	assert.True(t, seen[models.NodeTypeWaitCallback])
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Status string `json:"status"`
	}

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, "healthy", result.Status)
}
