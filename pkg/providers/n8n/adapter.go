// Package n8n implements the provider adapter for an n8n automation
// back-end, driven through its public REST API and webhook triggers.
package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maestrohq/maestro/pkg/models"
)

const (
	ProviderName = "n8n"

	apiKeyHeader   = "X-N8N-API-KEY"
	defaultTimeout = 30 * time.Second
)

// credentials is the serialized payload stored on an n8n connection.
type credentials struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
}

// Adapter talks to one n8n instance per credential payload.
type Adapter struct {
	client *http.Client
}

// NewAdapter creates an n8n adapter with a default HTTP client.
func NewAdapter() *Adapter {
	return &Adapter{
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// Name returns the provider tag this adapter accepts.
func (a *Adapter) Name() string {
	return ProviderName
}

func parseCredentials(raw string) (*credentials, error) {
	var creds credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, fmt.Errorf("malformed n8n credentials: %w", err)
	}

	if creds.BaseURL == "" {
		return nil, fmt.Errorf("n8n credentials missing base_url")
	}

	return &creds, nil
}

// Authenticate issues a minimal workflow listing to validate the API key.
// A 401/403 yields (false, nil); transport failures propagate as errors.
func (a *Adapter) Authenticate(ctx context.Context, rawCreds string) (bool, error) {
	creds, err := parseCredentials(rawCreds)
	if err != nil {
		return false, err
	}

	status, _, err := a.get(ctx, creds, "/api/v1/workflows?limit=1")
	if err != nil {
		return false, err
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return false, nil
	}

	if status >= 400 {
		return false, fmt.Errorf("n8n auth check returned status %d", status)
	}

	return true, nil
}

type workflowListResponse struct {
	Data []workflowDetail `json:"data"`
}

type workflowDetail struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Active    bool           `json:"active"`
	UpdatedAt *time.Time     `json:"updatedAt"`
	Nodes     []workflowNode `json:"nodes"`
	// Connections maps source node name -> output group -> targets.
	Connections map[string]map[string][][]connectionTarget `json:"connections"`
	Tags        []map[string]any                           `json:"tags"`
}

type workflowNode struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters"`
}

type connectionTarget struct {
	Node string `json:"node"`
}

// ListWorkflows returns summaries of every workflow on the instance.
func (a *Adapter) ListWorkflows(ctx context.Context, rawCreds string) ([]models.RemoteWorkflow, error) {
	creds, err := parseCredentials(rawCreds)
	if err != nil {
		return nil, err
	}

	status, body, err := a.get(ctx, creds, "/api/v1/workflows")
	if err != nil {
		return nil, fmt.Errorf("failed to list n8n workflows: %w", err)
	}

	if status >= 400 {
		return nil, fmt.Errorf("n8n workflow listing returned status %d", status)
	}

	var listing workflowListResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode n8n workflow listing: %w", err)
	}

	workflows := make([]models.RemoteWorkflow, 0, len(listing.Data))
	for _, wf := range listing.Data {
		workflows = append(workflows, models.RemoteWorkflow{
			ID:        wf.ID,
			Name:      wf.Name,
			Provider:  ProviderName,
			Active:    wf.Active,
			UpdatedAt: wf.UpdatedAt,
		})
	}

	return workflows, nil
}

// GetWorkflowPreview fetches a workflow's structure and extracts its
// webhook trigger URL best-effort. A workflow without a webhook trigger
// yields an empty URL, not an error.
func (a *Adapter) GetWorkflowPreview(ctx context.Context, rawCreds, workflowID string) (*models.WorkflowPreview, error) {
	creds, err := parseCredentials(rawCreds)
	if err != nil {
		return nil, err
	}

	status, body, err := a.get(ctx, creds, "/api/v1/workflows/"+workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch n8n workflow %s: %w", workflowID, err)
	}

	if status >= 400 {
		return nil, fmt.Errorf("n8n workflow fetch returned status %d", status)
	}

	var detail workflowDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode n8n workflow %s: %w", workflowID, err)
	}

	preview := &models.WorkflowPreview{
		WorkflowID: detail.ID,
		Name:       detail.Name,
		WebhookURL: extractWebhookURL(creds.BaseURL, detail.Nodes),
		Nodes:      make([]models.PreviewNode, 0, len(detail.Nodes)),
		Metadata: map[string]any{
			"active": detail.Active,
			"tags":   detail.Tags,
		},
	}

	nameToID := make(map[string]string, len(detail.Nodes))

	for _, node := range detail.Nodes {
		nameToID[node.Name] = node.ID
		preview.Nodes = append(preview.Nodes, models.PreviewNode{
			ID:   node.ID,
			Name: node.Name,
			Type: node.Type,
		})
	}

	for sourceName, groups := range detail.Connections {
		for _, group := range groups {
			for _, targets := range group {
				for _, target := range targets {
					preview.Edges = append(preview.Edges, models.PreviewEdge{
						Source: nameToID[sourceName],
						Target: nameToID[target.Node],
					})
				}
			}
		}
	}

	return preview, nil
}

// extractWebhookURL finds the first webhook trigger node and builds its
// production URL. The path parameter format varies across n8n versions, so
// extraction is heuristic.
func extractWebhookURL(baseURL string, nodes []workflowNode) string {
	for _, node := range nodes {
		if !strings.Contains(strings.ToLower(node.Type), "webhook") {
			continue
		}

		path, ok := node.Parameters["path"].(string)
		if !ok || path == "" {
			continue
		}

		return strings.TrimSuffix(baseURL, "/") + "/webhook/" + strings.TrimPrefix(path, "/")
	}

	return ""
}

// ExecuteWorkflow triggers a workflow through its webhook URL. Failures are
// captured into the result rather than returned as errors.
func (a *Adapter) ExecuteWorkflow(ctx context.Context, rawCreds, workflowID string, data map[string]any) (*models.ExecutionResult, error) {
	preview, err := a.GetWorkflowPreview(ctx, rawCreds, workflowID)
	if err != nil {
		return &models.ExecutionResult{Success: false, Error: err.Error()}, nil
	}

	if preview.WebhookURL == "" {
		return &models.ExecutionResult{
			Success: false,
			Error:   fmt.Sprintf("workflow %s has no webhook trigger to execute", workflowID),
		}, nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return &models.ExecutionResult{Success: false, Error: err.Error()}, nil
	}

	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, preview.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return &models.ExecutionResult{Success: false, Error: err.Error()}, nil
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return &models.ExecutionResult{Success: false, Error: err.Error()}, nil
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.ExecutionResult{Success: false, Error: err.Error()}, nil
	}

	result := &models.ExecutionResult{
		Duration:    time.Since(started),
		ExecutionID: resp.Header.Get("X-N8N-Execution-Id"),
	}

	if resp.StatusCode >= 400 {
		result.Error = fmt.Sprintf("webhook returned status %d: %s", resp.StatusCode, string(body))

		return result, nil
	}

	result.Success = true

	var output map[string]any
	if err := json.Unmarshal(body, &output); err == nil {
		result.Output = output
	} else if len(body) > 0 {
		result.Output = map[string]any{"body": string(body)}
	}

	return result, nil
}

type executionDetail struct {
	Finished bool   `json:"finished"`
	Status   string `json:"status"`
}

// PollExecution reports the state of an asynchronous execution.
func (a *Adapter) PollExecution(ctx context.Context, rawCreds, executionID string) (models.ExecutionStatus, error) {
	creds, err := parseCredentials(rawCreds)
	if err != nil {
		return models.ExecutionStatusUnknown, err
	}

	status, body, err := a.get(ctx, creds, "/api/v1/executions/"+executionID)
	if err != nil {
		return models.ExecutionStatusUnknown, fmt.Errorf("failed to poll n8n execution %s: %w", executionID, err)
	}

	if status >= 400 {
		return models.ExecutionStatusUnknown, fmt.Errorf("n8n execution poll returned status %d", status)
	}

	var detail executionDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return models.ExecutionStatusUnknown, fmt.Errorf("failed to decode n8n execution %s: %w", executionID, err)
	}

	switch {
	case detail.Status == "error" || detail.Status == "crashed" || detail.Status == "failed":
		return models.ExecutionStatusFailed, nil
	case detail.Finished || detail.Status == "success":
		return models.ExecutionStatusCompleted, nil
	case detail.Status == "running":
		return models.ExecutionStatusRunning, nil
	case detail.Status == "waiting" || detail.Status == "new":
		return models.ExecutionStatusPending, nil
	default:
		return models.ExecutionStatusUnknown, nil
	}
}

func (a *Adapter) get(ctx context.Context, creds *credentials, path string) (int, []byte, error) {
	url := strings.TrimSuffix(creds.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(apiKeyHeader, creds.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, body, nil
}
