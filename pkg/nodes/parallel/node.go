// Package parallel provides the fan-out/fan-in marker node.
package parallel

import (
	"context"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/protocol"
)

// Node fans execution out to every successor and joins converging
// branches. With a single predecessor it passes the current data through;
// with several it emits the per-predecessor input map so downstream nodes
// can address each branch's output by node ID.
type Node struct {
	id string
}

func NewNode(id string, _ map[string]any) (*Node, error) {
	return &Node{id: id}, nil
}

func (n *Node) ID() string {
	return n.id
}

func (n *Node) Type() string {
	return models.NodeTypeParallel
}

func (n *Node) Execute(_ context.Context, scope protocol.ExecutionScope) (protocol.NodeOutcome, error) {
	if len(scope.Inputs) > 1 {
		merged := make(map[string]any, len(scope.Inputs))
		for nodeID, output := range scope.Inputs {
			merged[nodeID] = output
		}

		return protocol.NodeOutcome{Data: merged}, nil
	}

	return protocol.NodeOutcome{Data: scope.Current}, nil
}
