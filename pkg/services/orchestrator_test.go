package services_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/persistence"
	"github.com/maestrohq/maestro/pkg/persistence/file"
	"github.com/maestrohq/maestro/pkg/providers"
	"github.com/maestrohq/maestro/pkg/registry"
	"github.com/maestrohq/maestro/pkg/runner"
	"github.com/maestrohq/maestro/pkg/services"
)

func newOrchestrator(t *testing.T) (*services.Orchestrator, persistence.Persistence) {
	t.Helper()

	persist := file.NewPersistence(t.TempDir())
	catalog := providers.NewCatalog(persist)
	reg := registry.NewDefaultRegistry(slog.Default(), catalog, "")
	run := runner.NewRunner(persist, reg, nil, nil, slog.Default())

	return services.NewOrchestrator(persist, reg, run, nil, slog.Default()), persist
}

func mapperNode(id string) *models.Node {
	return &models.Node{
		ID:   id,
		Type: models.NodeTypeDataMapper,
		Config: map[string]any{
			"mappings": []any{
				map[string]any{"from": "value", "to": "value"},
			},
		},
	}
}

func TestSaveGraphAssignsIdentityAndVersion(t *testing.T) {
	t.Parallel()

	svc, _ := newOrchestrator(t)

	graph, err := svc.SaveGraph(context.Background(), &models.GraphDefinition{
		Name:  "orders",
		Nodes: []*models.Node{mapperNode("m1")},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, graph.ID)
	assert.Equal(t, 1, graph.Version)
	assert.False(t, graph.CreatedAt.IsZero())

	graph.Description = "updated"
	updated, err := svc.SaveGraph(context.Background(), graph)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, graph.CreatedAt, updated.CreatedAt)
}

func TestSaveGraphValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newOrchestrator(t)
	ctx := context.Background()

	_, err := svc.SaveGraph(ctx, nil)
	assert.ErrorIs(t, err, services.ErrGraphNil)

	_, err = svc.SaveGraph(ctx, &models.GraphDefinition{Name: "no nodes"})
	assert.ErrorIs(t, err, services.ErrNodesRequired)

	_, err = svc.SaveGraph(ctx, &models.GraphDefinition{
		Name:  "ab",
		Nodes: []*models.Node{mapperNode("m1")},
	})
	require.Error(t, err, "name below minimum length")
	assert.True(t, services.IsValidationError(err))

	_, err = svc.SaveGraph(ctx, &models.GraphDefinition{
		Name:  "bad edge",
		Nodes: []*models.Node{mapperNode("m1")},
		Edges: []*models.Edge{{Source: "m1", Target: "ghost"}},
	})
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))

	_, err = svc.SaveGraph(ctx, &models.GraphDefinition{
		Name:  "bad config",
		Nodes: []*models.Node{{ID: "m1", Type: models.NodeTypeDataMapper}},
	})
	require.Error(t, err, "node config must validate against its schema")
	assert.True(t, services.IsValidationError(err))
}

func TestRunSyncExecutesToCompletion(t *testing.T) {
	t.Parallel()

	svc, persist := newOrchestrator(t)
	ctx := context.Background()

	graph, err := svc.SaveGraph(ctx, &models.GraphDefinition{
		Name:  "single mapper",
		Nodes: []*models.Node{mapperNode("m1")},
	})
	require.NoError(t, err)

	inputs := map[string]any{"value": 7.0}

	run, err := svc.RunSync(ctx, graph.ID, inputs)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, inputs, run.Inputs)
	assert.NotEmpty(t, run.CorrelationToken)

	saved, err := persist.RunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, saved.Status)
	assert.Equal(t, map[string]any{"value": 7.0}, saved.NodeOutputs()["m1"])
}

func TestRunUnknownGraph(t *testing.T) {
	t.Parallel()

	svc, _ := newOrchestrator(t)

	_, err := svc.RunSync(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.True(t, services.IsNotFoundError(err))
}

func TestRunsReturnsNewestFirst(t *testing.T) {
	t.Parallel()

	svc, _ := newOrchestrator(t)
	ctx := context.Background()

	graph, err := svc.SaveGraph(ctx, &models.GraphDefinition{
		Name:  "repeat",
		Nodes: []*models.Node{mapperNode("m1")},
	})
	require.NoError(t, err)

	first, err := svc.RunSync(ctx, graph.ID, nil)
	require.NoError(t, err)

	second, err := svc.RunSync(ctx, graph.ID, nil)
	require.NoError(t, err)

	runs, err := svc.Runs(ctx, graph.ID)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)

	_, err = svc.Runs(ctx, "missing")
	assert.True(t, services.IsNotFoundError(err))
}

func TestHandleCallbackResumesWaitingRun(t *testing.T) {
	t.Parallel()

	svc, _ := newOrchestrator(t)
	ctx := context.Background()

	graph, err := svc.SaveGraph(ctx, &models.GraphDefinition{
		Name: "approval flow",
		Nodes: []*models.Node{
			{ID: "wait", Type: models.NodeTypeWaitCallback},
			mapperNode("m1"),
		},
		Edges: []*models.Edge{{Source: "wait", Target: "m1"}},
	})
	require.NoError(t, err)

	run, err := svc.RunSync(ctx, graph.ID, nil)
	require.NoError(t, err)
	require.Equal(t, models.RunStatusWaiting, run.Status)

	resumed, err := svc.HandleCallback(ctx, run.CorrelationToken, map[string]any{"value": 3.0})
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, resumed.Status)
	assert.Equal(t, map[string]any{"value": 3.0}, resumed.NodeOutputs()["m1"])
}

func TestHandleCallbackResolvesEncodedTokens(t *testing.T) {
	t.Parallel()

	svc, _ := newOrchestrator(t)
	ctx := context.Background()

	graph, err := svc.SaveGraph(ctx, &models.GraphDefinition{
		Name: "approval flow",
		Nodes: []*models.Node{
			{ID: "wait", Type: models.NodeTypeWaitCallback},
		},
	})
	require.NoError(t, err)

	run, err := svc.RunSync(ctx, graph.ID, nil)
	require.NoError(t, err)
	require.Equal(t, models.RunStatusWaiting, run.Status)

	token := runner.EncodeCallbackToken(graph.ID, run.ID, "wait")

	resumed, err := svc.HandleCallback(ctx, token, map[string]any{"ok": true})
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, resumed.Status)
}

func TestHandleCallbackUnknownToken(t *testing.T) {
	t.Parallel()

	svc, _ := newOrchestrator(t)

	_, err := svc.HandleCallback(context.Background(), "nope", nil)
	require.Error(t, err)
	assert.True(t, services.IsNotFoundError(err))
}

func TestRunReturnsSnapshotUntouchedByBackgroundExecution(t *testing.T) {
	t.Parallel()

	svc, persist := newOrchestrator(t)

	graph, err := svc.SaveGraph(context.Background(), &models.GraphDefinition{
		Name:  "detached",
		Nodes: []*models.Node{mapperNode("m1")},
	})
	require.NoError(t, err)

	returned, err := svc.Run(context.Background(), graph.ID, map[string]any{"value": 1})
	require.NoError(t, err)
	require.Equal(t, models.RunStatusPending, returned.Status)

	require.Eventually(t, func() bool {
		stored, err := persist.RunByID(context.Background(), returned.ID)

		return err == nil && stored.Status == models.RunStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	// The caller's record is a snapshot: the background runner mutates its
	// own copy, never the one handed back.
	assert.Equal(t, models.RunStatusPending, returned.Status)
	assert.Nil(t, returned.StartedAt)
	assert.Empty(t, returned.Metadata[models.MetaCompletedNodes])
}
