package n8n_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/providers/n8n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func credsFor(server *httptest.Server) string {
	raw, _ := json.Marshal(map[string]string{
		"base_url": server.URL,
		"api_key":  "test-key",
	})

	return string(raw)
}

func workflowFixture() map[string]any {
	return map[string]any{
		"id":     "wf-1",
		"name":   "Order intake",
		"active": true,
		"nodes": []map[string]any{
			{
				"id":         "n1",
				"name":       "Webhook",
				"type":       "n8n-nodes-base.webhook",
				"parameters": map[string]any{"path": "order-intake"},
			},
			{
				"id":         "n2",
				"name":       "Set",
				"type":       "n8n-nodes-base.set",
				"parameters": map[string]any{},
			},
		},
		"connections": map[string]any{
			"Webhook": map[string]any{
				"main": []any{
					[]any{map[string]any{"node": "Set"}},
				},
			},
		},
	}
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantOK  bool
		wantErr bool
	}{
		{"valid key", http.StatusOK, true, false},
		{"invalid key", http.StatusUnauthorized, false, false},
		{"forbidden", http.StatusForbidden, false, false},
		{"server error", http.StatusInternalServerError, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "test-key", r.Header.Get("X-N8N-API-KEY"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"data":[]}`))
			}))
			defer server.Close()

			ok, err := n8n.NewAdapter().Authenticate(context.Background(), credsFor(server))
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestAuthenticate_MalformedCredentials(t *testing.T) {
	ok, err := n8n.NewAdapter().Authenticate(context.Background(), "{not json")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestListWorkflows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workflows", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "wf-1", "name": "Order intake", "active": true},
				{"id": "wf-2", "name": "Weekly report", "active": false},
			},
		})
	}))
	defer server.Close()

	workflows, err := n8n.NewAdapter().ListWorkflows(context.Background(), credsFor(server))
	require.NoError(t, err)
	require.Len(t, workflows, 2)
	assert.Equal(t, "wf-1", workflows[0].ID)
	assert.Equal(t, "n8n", workflows[0].Provider)
	assert.True(t, workflows[0].Active)
}

func TestListWorkflows_APIErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := n8n.NewAdapter().ListWorkflows(context.Background(), credsFor(server))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestGetWorkflowPreview_ExtractsWebhookURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workflows/wf-1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(workflowFixture())
	}))
	defer server.Close()

	preview, err := n8n.NewAdapter().GetWorkflowPreview(context.Background(), credsFor(server), "wf-1")
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/webhook/order-intake", preview.WebhookURL)
	require.Len(t, preview.Nodes, 2)
	require.Len(t, preview.Edges, 1)
	assert.Equal(t, "n1", preview.Edges[0].Source)
	assert.Equal(t, "n2", preview.Edges[0].Target)
}

func TestGetWorkflowPreview_NoWebhookIsNotAnError(t *testing.T) {
	fixture := workflowFixture()
	fixture["nodes"] = []map[string]any{
		{"id": "n2", "name": "Set", "type": "n8n-nodes-base.set", "parameters": map[string]any{}},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(fixture)
	}))
	defer server.Close()

	preview, err := n8n.NewAdapter().GetWorkflowPreview(context.Background(), credsFor(server), "wf-1")
	require.NoError(t, err)
	assert.Empty(t, preview.WebhookURL)
}

func TestExecuteWorkflow_Success(t *testing.T) {
	var webhookBody map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/workflows/wf-1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(workflowFixture())
	})
	mux.HandleFunc("/webhook/order-intake", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&webhookBody))
		w.Header().Set("X-N8N-Execution-Id", "exec-9")
		_, _ = w.Write([]byte(`{"ok": true}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	result, err := n8n.NewAdapter().ExecuteWorkflow(
		context.Background(), credsFor(server), "wf-1", map[string]any{"value": 42})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "exec-9", result.ExecutionID)
	assert.Equal(t, map[string]any{"ok": true}, result.Output)
	assert.Equal(t, float64(42), webhookBody["value"])
}

func TestExecuteWorkflow_FailureCapturedInResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/workflows/wf-1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(workflowFixture())
	})
	mux.HandleFunc("/webhook/order-intake", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	result, err := n8n.NewAdapter().ExecuteWorkflow(
		context.Background(), credsFor(server), "wf-1", nil)
	require.NoError(t, err, "execution failures are captured, not thrown")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "500")
}

func TestPollExecution(t *testing.T) {
	tests := []struct {
		name     string
		response map[string]any
		want     models.ExecutionStatus
	}{
		{"finished", map[string]any{"finished": true, "status": "success"}, models.ExecutionStatusCompleted},
		{"running", map[string]any{"finished": false, "status": "running"}, models.ExecutionStatusRunning},
		{"errored", map[string]any{"finished": true, "status": "error"}, models.ExecutionStatusFailed},
		{"waiting", map[string]any{"finished": false, "status": "waiting"}, models.ExecutionStatusPending},
		{"unknown", map[string]any{"finished": false, "status": "???"}, models.ExecutionStatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/executions/exec-9", r.URL.Path)
				_ = json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			status, err := n8n.NewAdapter().PollExecution(context.Background(), credsFor(server), "exec-9")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}
