package runner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/pkg/runner"
)

func TestCallbackTokenRoundTrip(t *testing.T) {
	t.Parallel()

	token := runner.EncodeCallbackToken("graph-1", "run-1", "node-1")

	graphID, runID, nodeID, err := runner.DecodeCallbackToken(token)
	require.NoError(t, err)
	assert.Equal(t, "graph-1", graphID)
	assert.Equal(t, "run-1", runID)
	assert.Equal(t, "node-1", nodeID)
}

func TestCallbackTokenEmptyNodeID(t *testing.T) {
	t.Parallel()

	token := runner.EncodeCallbackToken("graph-1", "run-1", "")

	graphID, runID, nodeID, err := runner.DecodeCallbackToken(token)
	require.NoError(t, err)
	assert.Equal(t, "graph-1", graphID)
	assert.Equal(t, "run-1", runID)
	assert.Empty(t, nodeID)
}

func TestDecodeCallbackTokenRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "too few parts", token: "graph-1:run-1"},
		{name: "too many parts", token: "a:b:c:d"},
		{name: "missing graph id", token: ":run-1:node-1"},
		{name: "missing run id", token: "graph-1::node-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, _, err := runner.DecodeCallbackToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestNewCorrelationTokenIsUnique(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, runner.NewCorrelationToken(), runner.NewCorrelationToken())
}
