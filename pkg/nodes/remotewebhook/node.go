// Package remotewebhook provides the node that triggers a remote workflow,
// either through a registered provider adapter or by calling a webhook URL
// directly.
package remotewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/protocol"
	"github.com/maestrohq/maestro/pkg/providers"
	"github.com/maestrohq/maestro/pkg/runner"
	"github.com/maestrohq/maestro/pkg/template"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = 1000 * time.Millisecond
)

var (
	ErrTargetRequired     = errors.New("remote webhook node requires a 'url' or a 'provider' with 'workflow_id'")
	ErrExecutionFailed    = errors.New("remote execution failed")
	ErrPollingExhausted   = errors.New("polling attempts exhausted")
	ErrPollingUnsupported = errors.New("provider does not support execution polling")
)

// RetryConfig controls the retry wrapper around dispatch. Delay is the
// initial backoff; it doubles after each failed attempt.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// PollingConfig controls how long the node waits for an asynchronous
// remote execution to settle.
type PollingConfig struct {
	Enabled     bool
	MaxAttempts int
	Interval    time.Duration
}

// Node dispatches to a remote workflow and returns its output downstream.
// Provider-tagged nodes resolve credentials through the catalog; untagged
// nodes post directly to the configured URL.
type Node struct {
	id         string
	URL        string
	Method     string
	Headers    map[string]string
	Body       string
	Timeout    time.Duration
	Retry      RetryConfig
	Provider   string
	WorkflowID string
	// ConnectionID pins a specific stored credential. Empty means the
	// workspace's most recent active connection for the provider.
	ConnectionID string
	Polling      PollingConfig

	catalog *providers.Catalog
	client  *http.Client
}

func NewNode(id string, config map[string]any, catalog *providers.Catalog) (*Node, error) {
	url, _ := config["url"].(string)
	provider, _ := config["provider"].(string)
	workflowID, _ := config["workflow_id"].(string)

	if url == "" && (provider == "" || workflowID == "") {
		return nil, ErrTargetRequired
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodPost
	}

	headers := make(map[string]string)

	if headersConfig, ok := config["headers"].(map[string]any); ok {
		for key, value := range headersConfig {
			if str, ok := value.(string); ok {
				headers[key] = str
			}
		}
	}

	body, _ := config["body"].(string)
	connectionID, _ := config["connection_id"].(string)

	timeout := defaultTimeout
	if seconds, ok := config["timeout"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	return &Node{
		id:           id,
		URL:          url,
		Method:       strings.ToUpper(method),
		Headers:      headers,
		Body:         body,
		Timeout:      timeout,
		Retry:        parseRetryConfig(config["retries"]),
		Provider:     provider,
		WorkflowID:   workflowID,
		ConnectionID: connectionID,
		Polling:      parsePollingConfig(config["polling"]),
		catalog:      catalog,
		client:       &http.Client{Timeout: timeout},
	}, nil
}

func parseRetryConfig(raw any) RetryConfig {
	retry := RetryConfig{Attempts: 0, Delay: defaultRetryDelay}

	retryMap, ok := raw.(map[string]any)
	if !ok {
		return retry
	}

	if attempts, ok := retryMap["attempts"].(float64); ok {
		retry.Attempts = int(attempts)
	}

	if delay, ok := retryMap["delay"].(float64); ok {
		retry.Delay = time.Duration(delay) * time.Millisecond
	}

	return retry
}

func parsePollingConfig(raw any) PollingConfig {
	polling := PollingConfig{Enabled: false, MaxAttempts: 10, Interval: 2 * time.Second}

	pollingMap, ok := raw.(map[string]any)
	if !ok {
		return polling
	}

	if enabled, ok := pollingMap["enabled"].(bool); ok {
		polling.Enabled = enabled
	}

	if attempts, ok := pollingMap["max_attempts"].(float64); ok && attempts > 0 {
		polling.MaxAttempts = int(attempts)
	}

	if interval, ok := pollingMap["interval"].(float64); ok && interval > 0 {
		polling.Interval = time.Duration(interval) * time.Millisecond
	}

	return polling
}

func (n *Node) ID() string {
	return n.id
}

func (n *Node) Type() string {
	return models.NodeTypeRemoteWebhook
}

func (n *Node) Execute(ctx context.Context, scope protocol.ExecutionScope) (protocol.NodeOutcome, error) {
	if n.Provider != "" {
		return n.executeProvider(ctx, scope)
	}

	return n.executeDirect(ctx, scope)
}

// executeProvider dispatches through the provider adapter. Results with
// Success=false are normalized to errors so the retry wrapper treats
// captured failures and transport failures the same way.
func (n *Node) executeProvider(ctx context.Context, scope protocol.ExecutionScope) (protocol.NodeOutcome, error) {
	adapter, credentials, err := n.resolveAdapter(ctx, scope)
	if err != nil {
		return protocol.NodeOutcome{}, err
	}

	payload, _ := scope.Current.(map[string]any)

	var result *models.ExecutionResult

	err = runner.RetryWithBackoff(ctx, n.Retry.Attempts, n.Retry.Delay, func() error {
		var execErr error

		result, execErr = adapter.ExecuteWorkflow(ctx, credentials, n.WorkflowID, payload)
		if execErr != nil {
			return execErr
		}

		if !result.Success {
			if result.Error != "" {
				return fmt.Errorf("%w: %s", ErrExecutionFailed, result.Error)
			}

			return ErrExecutionFailed
		}

		return nil
	})
	if err != nil {
		return protocol.NodeOutcome{}, err
	}

	scope.Logger.Info("Remote workflow executed",
		"provider", n.Provider, "workflow_id", n.WorkflowID, "execution_id", result.ExecutionID)

	if n.Polling.Enabled && result.ExecutionID != "" {
		if err := n.pollExecution(ctx, adapter, credentials, result.ExecutionID, scope); err != nil {
			return protocol.NodeOutcome{}, err
		}
	}

	return protocol.NodeOutcome{Data: providerOutput(result)}, nil
}

func (n *Node) resolveAdapter(ctx context.Context, scope protocol.ExecutionScope) (protocol.ProviderAdapter, string, error) {
	if n.ConnectionID != "" {
		return n.catalog.ResolveConnection(ctx, n.ConnectionID, n.Provider)
	}

	adapter, conn, err := n.catalog.ResolveActive(ctx, scope.Graph.WorkspaceID, n.Provider)
	if err != nil {
		return nil, "", err
	}

	return adapter, conn.Credentials, nil
}

// pollExecution waits for the remote execution to reach a terminal status,
// checking at a fixed interval. Running out of attempts is its own error,
// distinct from a failed execution.
func (n *Node) pollExecution(
	ctx context.Context,
	adapter protocol.ProviderAdapter,
	credentials, executionID string,
	scope protocol.ExecutionScope,
) error {
	poller, ok := adapter.(protocol.ExecutionPoller)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPollingUnsupported, n.Provider)
	}

	for attempt := 1; attempt <= n.Polling.MaxAttempts; attempt++ {
		status, err := poller.PollExecution(ctx, credentials, executionID)
		if err != nil {
			return fmt.Errorf("poll execution %s: %w", executionID, err)
		}

		scope.Logger.Debug("Polled remote execution",
			"execution_id", executionID, "status", status, "attempt", attempt)

		if status == models.ExecutionStatusFailed {
			return fmt.Errorf("%w: execution %s", ErrExecutionFailed, executionID)
		}

		if status.IsTerminal() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.Polling.Interval):
		}
	}

	return fmt.Errorf("%w: execution %s after %d attempts", ErrPollingExhausted, executionID, n.Polling.MaxAttempts)
}

func providerOutput(result *models.ExecutionResult) any {
	if result.Output != nil {
		return result.Output
	}

	return map[string]any{"execution_id": result.ExecutionID}
}

// executeDirect posts to the configured URL, rendering templates in the
// URL, headers and body against the current data.
func (n *Node) executeDirect(ctx context.Context, scope protocol.ExecutionScope) (protocol.NodeOutcome, error) {
	var output any

	err := runner.RetryWithBackoff(ctx, n.Retry.Attempts, n.Retry.Delay, func() error {
		req, err := n.buildRequest(ctx, scope.Current)
		if err != nil {
			return err
		}

		resp, err := n.client.Do(req)
		if err != nil {
			return fmt.Errorf("webhook request failed: %w", err)
		}

		defer func() {
			_ = resp.Body.Close()
		}()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read webhook response: %w", err)
		}

		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("webhook returned status %d: %s",
				resp.StatusCode, strings.TrimSpace(string(body)))
		}

		var parsed any
		if err := json.Unmarshal(body, &parsed); err != nil {
			parsed = string(body)
		}

		output = map[string]any{
			"status_code": resp.StatusCode,
			"body":        parsed,
		}

		return nil
	})
	if err != nil {
		return protocol.NodeOutcome{}, err
	}

	scope.Logger.Info("Webhook dispatched", "method", n.Method)

	return protocol.NodeOutcome{Data: output}, nil
}

func (n *Node) buildRequest(ctx context.Context, current any) (*http.Request, error) {
	url := template.Render(n.URL, current)
	body := template.Render(n.Body, current)

	req, err := http.NewRequestWithContext(ctx, n.Method, url, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create webhook request: %w", err)
	}

	if n.Body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, value := range n.Headers {
		req.Header.Set(key, template.Render(value, current))
	}

	return req, nil
}
