package models

import "time"

// RemoteWorkflow is a summary of a workflow hosted on an external
// automation back-end.
type RemoteWorkflow struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Provider    string     `json:"provider"`
	Active      bool       `json:"active"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// PreviewNode is one node of a remote workflow's normalized visualization.
type PreviewNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// PreviewEdge connects two preview nodes.
type PreviewEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// WorkflowPreview is the structural detail of a remote workflow. WebhookURL
// extraction is heuristic and back-end specific: an empty URL means "none
// found", not an error.
type WorkflowPreview struct {
	WorkflowID string         `json:"workflow_id"`
	Name       string         `json:"name"`
	WebhookURL string         `json:"webhook_url,omitempty"`
	Nodes      []PreviewNode  `json:"nodes"`
	Edges      []PreviewEdge  `json:"edges"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ExecutionResult captures the outcome of a remote workflow execution.
// Failures are carried in Success/Error rather than thrown so the runner
// can normalize them with transport errors into one retry path.
type ExecutionResult struct {
	Success     bool           `json:"success"`
	Output      map[string]any `json:"output,omitempty"`
	ExecutionID string         `json:"execution_id,omitempty"`
	Error       string         `json:"error,omitempty"`
	Duration    time.Duration  `json:"duration,omitempty"`
}

// ExecutionStatus is the polled state of an asynchronous remote execution.
type ExecutionStatus string

const (
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusUnknown   ExecutionStatus = "unknown"
)

// IsTerminal reports whether polling can stop.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}
