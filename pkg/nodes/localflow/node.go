// Package localflow provides the node that executes a flow hosted on the
// local flow engine over its prediction HTTP API.
package localflow

import (
	"bytes"
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
)

const defaultTimeout = 60 * time.Second

var (
	ErrFlowIDRequired  = errors.New("local flow node requires a 'flow_id'")
	ErrBaseURLRequired = errors.New("local flow node requires a 'base_url'")
)

// Node posts the current data as a prediction request and returns the
// engine's JSON response downstream.
type Node struct {
	id      string
	FlowID  string
	BaseURL string
	Timeout time.Duration

	client *http.Client
}

func NewNode(id string, config map[string]any, defaultBaseURL string) (*Node, error) {
	flowID, _ := config["flow_id"].(string)
	if flowID == "" {
		return nil, ErrFlowIDRequired
	}

	baseURL, _ := config["base_url"].(string)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	timeout := defaultTimeout
	if seconds, ok := config["timeout"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	return &Node{
		id:      id,
		FlowID:  flowID,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (n *Node) ID() string {
	return n.id
}

func (n *Node) Type() string {
	return models.NodeTypeLocalFlow
}

func (n *Node) Execute(ctx context.Context, scope protocol.ExecutionScope) (protocol.NodeOutcome, error) {
	payload, err := json.Marshal(n.buildRequest(scope.Current))
	if err != nil {
		return protocol.NodeOutcome{}, fmt.Errorf("marshal prediction request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/prediction/%s", n.BaseURL, n.FlowID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return protocol.NodeOutcome{}, fmt.Errorf("create prediction request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	scope.Logger.Info("Executing local flow", "flow_id", n.FlowID)

	resp, err := n.client.Do(req)
	if err != nil {
		return protocol.NodeOutcome{}, fmt.Errorf("execute flow %s: %w", n.FlowID, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return protocol.NodeOutcome{}, fmt.Errorf("read flow response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return protocol.NodeOutcome{}, fmt.Errorf("flow %s returned status %d: %s",
			n.FlowID, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		result = map[string]any{"text": string(body)}
	}

	return protocol.NodeOutcome{Data: result}, nil
}

// buildRequest shapes the engine payload. String data becomes the question
// directly; structured data is passed as the question plus overrides so
// flows can address individual fields.
func (n *Node) buildRequest(current any) map[string]any {
	switch value := current.(type) {
	case nil:
		return map[string]any{"question": ""}
	case string:
		return map[string]any{"question": value}
	case map[string]any:
		question, _ := value["question"].(string)
		if question == "" {
			encoded, err := json.Marshal(value)
			if err == nil {
				question = string(encoded)
			}
		}

		return map[string]any{
			"question":      question,
			"overrideConfig": value,
		}
	default:
		return map[string]any{"question": fmt.Sprintf("%v", value)}
	}
}
