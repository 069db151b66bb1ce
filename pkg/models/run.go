package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RunStatus represents the lifecycle state of a run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusWaiting   RunStatus = "waiting"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// validTransitions encodes the run state machine. Transitions are monotonic:
// once terminal, a run never changes status again.
var validTransitions = map[RunStatus][]RunStatus{
	RunStatusPending: {RunStatusRunning, RunStatusFailed},
	RunStatusRunning: {RunStatusWaiting, RunStatusCompleted, RunStatusFailed},
	RunStatusWaiting: {RunStatusRunning, RunStatusFailed},
}

// CanTransitionTo reports whether the state machine allows moving to next.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// LogEntry is one line of a run's append-only audit trail.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message"`
	Level     string         `json:"level,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Metadata keys used by the runner. Completed node IDs are persisted here so
// traversal state survives a process restart between suspension and resume.
const (
	MetaCompletedNodes  = "completed_nodes"
	MetaNodeOutputs     = "node_outputs"
	MetaSelectedTargets = "selected_targets"
	MetaSuspendedNode   = "suspended_node"
	MetaCallbackData    = "callback_data"
	MetaCallbackAt      = "callback_received_at"
)

// RunRecord is one execution instance of a GraphDefinition. It is created
// by the service and mutated exclusively by the runner.
type RunRecord struct {
	ID               string         `json:"id"`
	GraphID          string         `json:"graph_id"          validate:"required"`
	Status           RunStatus      `json:"status"            validate:"required"`
	LogBlob          string         `json:"logs"`
	CorrelationToken string         `json:"correlation_token"`
	Inputs           map[string]any `json:"inputs,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	StartedAt        *time.Time     `json:"started_at,omitempty"`
	FinishedAt       *time.Time     `json:"finished_at,omitempty"`
}

// Transition moves the run to next, stamping FinishedAt on terminal states.
// An invalid transition is an error so state-machine violations surface at
// the call site instead of being silently persisted.
func (r *RunRecord) Transition(next RunStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("invalid run status transition %s -> %s", r.Status, next)
	}

	r.Status = next

	if next.IsTerminal() {
		now := time.Now().UTC()
		r.FinishedAt = &now
	}

	return nil
}

// AppendLog parses the serialized log blob, appends an entry and rewrites
// the blob wholesale. The blob is the single persisted representation of
// the audit trail.
func (r *RunRecord) AppendLog(level, message string, data map[string]any) {
	entries := r.Logs()
	entries = append(entries, LogEntry{
		Timestamp: time.Now().UTC(),
		Message:   message,
		Level:     level,
		Data:      data,
	})

	blob, err := json.Marshal(entries)
	if err != nil {
		// Log data is best-effort observability. Keep the previous blob
		// rather than corrupting it with a partial write.
		return
	}

	r.LogBlob = string(blob)
}

// Logs decodes the serialized log blob. A missing or malformed blob yields
// an empty trail.
func (r *RunRecord) Logs() []LogEntry {
	if r.LogBlob == "" {
		return []LogEntry{}
	}

	var entries []LogEntry
	if err := json.Unmarshal([]byte(r.LogBlob), &entries); err != nil {
		return []LogEntry{}
	}

	return entries
}

// CompletedNodes returns the durable per-node completion ledger.
func (r *RunRecord) CompletedNodes() []string {
	raw, ok := r.Metadata[MetaCompletedNodes]
	if !ok {
		return nil
	}

	switch values := raw.(type) {
	case []string:
		return values
	case []any:
		ids := make([]string, 0, len(values))

		for _, v := range values {
			if id, ok := v.(string); ok {
				ids = append(ids, id)
			}
		}

		return ids
	default:
		return nil
	}
}

// MarkNodeCompleted appends a node ID to the completion ledger.
func (r *RunRecord) MarkNodeCompleted(nodeID string) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}

	for _, id := range r.CompletedNodes() {
		if id == nodeID {
			return
		}
	}

	r.Metadata[MetaCompletedNodes] = append(r.CompletedNodes(), nodeID)
}

// NodeOutputs returns the persisted per-node outputs recorded during
// traversal. Downstream nodes read their predecessors' entries from this
// map, so it must survive a save/load round trip.
func (r *RunRecord) NodeOutputs() map[string]any {
	outputs, ok := r.Metadata[MetaNodeOutputs].(map[string]any)
	if !ok {
		return map[string]any{}
	}

	return outputs
}

// SetNodeOutput stores the output a node produced so later nodes and
// resumed traversals can consume it.
func (r *RunRecord) SetNodeOutput(nodeID string, output any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}

	outputs := r.NodeOutputs()
	outputs[nodeID] = output
	r.Metadata[MetaNodeOutputs] = outputs
}

// SelectedTargets returns the persisted branch selection for a node, or nil
// when the node never narrowed its successors.
func (r *RunRecord) SelectedTargets(nodeID string) []string {
	byNode, ok := r.Metadata[MetaSelectedTargets].(map[string]any)
	if !ok {
		return nil
	}

	switch targets := byNode[nodeID].(type) {
	case []string:
		return targets
	case []any:
		ids := make([]string, 0, len(targets))

		for _, t := range targets {
			if id, ok := t.(string); ok {
				ids = append(ids, id)
			}
		}

		return ids
	default:
		return nil
	}
}

// SetSelectedTargets persists the successors a branching node selected so a
// resumed traversal prunes the same paths.
func (r *RunRecord) SetSelectedTargets(nodeID string, targets []string) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}

	byNode, ok := r.Metadata[MetaSelectedTargets].(map[string]any)
	if !ok {
		byNode = make(map[string]any)
	}

	byNode[nodeID] = targets
	r.Metadata[MetaSelectedTargets] = byNode
}

// Clone returns a snapshot of the record with its own Inputs and Metadata
// maps. Callers that hand the original to a concurrent writer (the runner)
// must expose only the clone.
func (r *RunRecord) Clone() *RunRecord {
	clone := *r

	if r.Inputs != nil {
		clone.Inputs = make(map[string]any, len(r.Inputs))
		for k, v := range r.Inputs {
			clone.Inputs[k] = v
		}
	}

	if r.Metadata != nil {
		clone.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			clone.Metadata[k] = v
		}
	}

	return &clone
}
