package file_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/persistence"
	"github.com/maestrohq/maestro/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*file.Persistence, context.Context) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	ctx := context.Background()
	require.NoError(t, p.HealthCheck(ctx))

	return p, ctx
}

func TestGraphLifecycle(t *testing.T) {
	p, ctx := setup(t)

	graph := &models.GraphDefinition{
		ID:          uuid.New().String(),
		WorkspaceID: "ws-1",
		Name:        "Order sync",
		Version:     1,
		Nodes:       []*models.Node{{ID: "a", Type: models.NodeTypeDataMapper}},
	}

	require.NoError(t, p.SaveGraph(ctx, graph))

	loaded, err := p.GraphByID(ctx, graph.ID)
	require.NoError(t, err)
	assert.Equal(t, graph.Name, loaded.Name)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, "a", loaded.Nodes[0].ID)

	all, err := p.Graphs(ctx, "ws-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	other, err := p.Graphs(ctx, "ws-other")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, p.DeleteGraph(ctx, graph.ID))

	_, err = p.GraphByID(ctx, graph.ID)
	assert.True(t, persistence.IsGraphNotFound(err))
}

func TestGraphByID_NotFound(t *testing.T) {
	p, ctx := setup(t)

	_, err := p.GraphByID(ctx, "missing")
	assert.True(t, persistence.IsGraphNotFound(err))
}

func TestGraphByID_RejectsPathTraversal(t *testing.T) {
	p, ctx := setup(t)

	_, err := p.GraphByID(ctx, "../escape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid characters")
}

func TestRunLifecycle(t *testing.T) {
	p, ctx := setup(t)

	graphID := uuid.New().String()

	older := &models.RunRecord{
		ID:               uuid.New().String(),
		GraphID:          graphID,
		Status:           models.RunStatusCompleted,
		CorrelationToken: uuid.New().String(),
		CreatedAt:        time.Now().UTC().Add(-time.Hour),
	}
	newer := &models.RunRecord{
		ID:               uuid.New().String(),
		GraphID:          graphID,
		Status:           models.RunStatusRunning,
		CorrelationToken: uuid.New().String(),
		CreatedAt:        time.Now().UTC(),
	}

	require.NoError(t, p.SaveRun(ctx, older))
	require.NoError(t, p.SaveRun(ctx, newer))

	byToken, err := p.RunByCorrelationToken(ctx, older.CorrelationToken)
	require.NoError(t, err)
	assert.Equal(t, older.ID, byToken.ID)

	runs, err := p.RunsByGraphID(ctx, graphID)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID, "runs should be newest first")

	_, err = p.RunByCorrelationToken(ctx, "unknown-token")
	assert.True(t, persistence.IsRunNotFound(err))
}

func TestRunMetadataSurvivesRoundTrip(t *testing.T) {
	p, ctx := setup(t)

	run := &models.RunRecord{
		ID:      uuid.New().String(),
		GraphID: "g",
		Status:  models.RunStatusWaiting,
	}
	run.MarkNodeCompleted("a")
	run.MarkNodeCompleted("b")
	run.AppendLog("info", "suspended", nil)

	require.NoError(t, p.SaveRun(ctx, run))

	loaded, err := p.RunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, loaded.CompletedNodes())
	require.Len(t, loaded.Logs(), 1)
}

func TestConnectionLifecycle(t *testing.T) {
	p, ctx := setup(t)

	stale := &models.ProviderConnection{
		ID:          uuid.New().String(),
		WorkspaceID: "ws-1",
		Provider:    "n8n",
		Status:      models.ConnectionStatusActive,
		CreatedAt:   time.Now().UTC().Add(-time.Hour),
	}
	fresh := &models.ProviderConnection{
		ID:          uuid.New().String(),
		WorkspaceID: "ws-1",
		Provider:    "n8n",
		Status:      models.ConnectionStatusActive,
		CreatedAt:   time.Now().UTC(),
	}

	require.NoError(t, p.SaveConnection(ctx, stale))
	require.NoError(t, p.SaveConnection(ctx, fresh))

	active, err := p.ActiveConnection(ctx, "ws-1", "n8n")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, active.ID, "most recent active connection wins")

	_, err = p.ActiveConnection(ctx, "ws-1", "zapier")
	assert.True(t, persistence.IsConnectionNotFound(err))

	require.NoError(t, p.DeleteConnection(ctx, stale.ID))

	conns, err := p.Connections(ctx, "ws-1")
	require.NoError(t, err)
	assert.Len(t, conns, 1)
}
