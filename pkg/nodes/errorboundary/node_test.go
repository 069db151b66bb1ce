package errorboundary_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/nodes/errorboundary"
	"github.com/maestrohq/maestro/pkg/protocol"
)

func TestNewNodeRequiresFallback(t *testing.T) {
	t.Parallel()

	_, err := errorboundary.NewNode("eb1", map[string]any{})
	assert.ErrorIs(t, err, errorboundary.ErrFallbackRequired)
}

func TestExecuteSelectsProtectedBranchOnly(t *testing.T) {
	t.Parallel()

	node, err := errorboundary.NewNode("eb1", map[string]any{"fallback": "recover"})
	require.NoError(t, err)

	graph := &models.GraphDefinition{
		ID:   "g1",
		Name: "boundary",
		Nodes: []*models.Node{
			{ID: "eb1", Type: models.NodeTypeErrorBoundary},
			{ID: "risky", Type: "stub"},
			{ID: "recover", Type: "stub"},
		},
		Edges: []*models.Edge{
			{Source: "eb1", Target: "risky"},
			{Source: "eb1", Target: "recover"},
		},
	}

	data := map[string]any{"seed": 1}

	outcome, err := node.Execute(context.Background(), protocol.ExecutionScope{
		Graph:   graph,
		Current: data,
		Logger:  slog.Default(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"risky"}, outcome.SelectedTargets)
	assert.Equal(t, data, outcome.Data)
}
