// Package protocol defines the interfaces and contracts for pluggable node
// handlers and provider adapters.
package protocol

import (
	"context"
	"log/slog"

	"github.com/maestrohq/maestro/pkg/models"
)

// ExecutionScope carries everything a node handler may consult. Inputs maps
// each predecessor node ID to that predecessor's output, so fan-in merge
// policy belongs to the handler, not to traversal order. Current is the
// most recently produced predecessor output, kept for handlers with a
// simple pipeline view of the data.
type ExecutionScope struct {
	Graph   *models.GraphDefinition
	Run     *models.RunRecord
	Node    *models.Node
	Inputs  map[string]any
	Current any
	Logger  *slog.Logger
}

// NodeOutcome is the result of one node execution.
type NodeOutcome struct {
	// Data is passed downstream as the node's output.
	Data any

	// Suspend signals the run must pause awaiting an external callback.
	// Suspension is a normal pause, not a failure.
	Suspend bool

	// SelectedTargets, when non-nil, restricts traversal to the named
	// successor node IDs (branch selection). Nil means all successors.
	SelectedTargets []string
}

// NodeHandler executes one typed step of a graph.
type NodeHandler interface {
	ID() string
	Type() string
	Execute(ctx context.Context, scope ExecutionScope) (NodeOutcome, error)
}

// NodeFactory creates NodeHandler instances from node configuration.
type NodeFactory interface {
	Create(ctx context.Context, id string, config map[string]any) (NodeHandler, error)
	ID() string
	Name() string
	Description() string
	// Schema returns the JSON schema the node's Config is validated against.
	Schema() map[string]any
}
