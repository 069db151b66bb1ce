package models_test

import (
	"testing"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    models.RunStatus
		to      models.RunStatus
		allowed bool
	}{
		{models.RunStatusPending, models.RunStatusRunning, true},
		{models.RunStatusPending, models.RunStatusFailed, true},
		{models.RunStatusRunning, models.RunStatusWaiting, true},
		{models.RunStatusRunning, models.RunStatusCompleted, true},
		{models.RunStatusRunning, models.RunStatusFailed, true},
		{models.RunStatusWaiting, models.RunStatusRunning, true},
		{models.RunStatusWaiting, models.RunStatusFailed, true},
		{models.RunStatusCompleted, models.RunStatusRunning, false},
		{models.RunStatusFailed, models.RunStatusRunning, false},
		{models.RunStatusWaiting, models.RunStatusCompleted, false},
		{models.RunStatusPending, models.RunStatusWaiting, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestRunRecord_Transition_StampsFinishedAt(t *testing.T) {
	run := &models.RunRecord{Status: models.RunStatusRunning}

	require.NoError(t, run.Transition(models.RunStatusCompleted))
	require.NotNil(t, run.FinishedAt)
	assert.True(t, run.Status.IsTerminal())
}

func TestRunRecord_Transition_Invalid(t *testing.T) {
	run := &models.RunRecord{Status: models.RunStatusCompleted}

	err := run.Transition(models.RunStatusRunning)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run status transition")
	assert.Equal(t, models.RunStatusCompleted, run.Status)
}

func TestRunRecord_AppendLog_RoundTrip(t *testing.T) {
	run := &models.RunRecord{}

	run.AppendLog("info", "executing node a", map[string]any{"node_id": "a"})
	run.AppendLog("error", "node b failed", nil)

	entries := run.Logs()
	require.Len(t, entries, 2)
	assert.Equal(t, "executing node a", entries[0].Message)
	assert.Equal(t, "a", entries[0].Data["node_id"])
	assert.Equal(t, "error", entries[1].Level)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestRunRecord_Logs_MalformedBlob(t *testing.T) {
	run := &models.RunRecord{LogBlob: "{not json"}

	assert.Empty(t, run.Logs())
}

func TestRunRecord_CompletedNodes_Ledger(t *testing.T) {
	run := &models.RunRecord{}

	run.MarkNodeCompleted("a")
	run.MarkNodeCompleted("b")
	run.MarkNodeCompleted("a") // idempotent

	assert.Equal(t, []string{"a", "b"}, run.CompletedNodes())
}

func TestRunRecord_CompletedNodes_AfterJSONRoundTrip(t *testing.T) {
	// Metadata decoded from JSON carries []any, not []string.
	run := &models.RunRecord{
		Metadata: map[string]any{
			models.MetaCompletedNodes: []any{"a", "b"},
		},
	}

	assert.Equal(t, []string{"a", "b"}, run.CompletedNodes())

	run.MarkNodeCompleted("c")
	assert.Equal(t, []string{"a", "b", "c"}, run.CompletedNodes())
}

func TestRunRecord_Clone_DetachesMaps(t *testing.T) {
	t.Parallel()

	run := &models.RunRecord{
		ID:       "run-1",
		GraphID:  "graph-1",
		Status:   models.RunStatusPending,
		Inputs:   map[string]any{"a": 1},
		Metadata: map[string]any{},
	}

	clone := run.Clone()

	run.MarkNodeCompleted("n1")
	run.Inputs["b"] = 2
	require.NoError(t, run.Transition(models.RunStatusRunning))

	assert.Equal(t, models.RunStatusPending, clone.Status)
	assert.Empty(t, clone.CompletedNodes())
	assert.Equal(t, map[string]any{"a": 1}, clone.Inputs)
}
