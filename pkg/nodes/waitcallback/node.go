// Package waitcallback provides the node that pauses a run until an
// external callback arrives.
package waitcallback

import (
	"context"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/protocol"
)

// Node suspends traversal at its position. The runner persists the run in
// waiting status and a later callback resumes from the successors with the
// callback payload as the current data.
type Node struct {
	id          string
	Description string
}

func NewNode(id string, config map[string]any) (*Node, error) {
	description, _ := config["description"].(string)

	return &Node{
		id:          id,
		Description: description,
	}, nil
}

func (n *Node) ID() string {
	return n.id
}

func (n *Node) Type() string {
	return models.NodeTypeWaitCallback
}

// Execute signals suspension. Suspension is a pause, never an error.
func (n *Node) Execute(_ context.Context, scope protocol.ExecutionScope) (protocol.NodeOutcome, error) {
	scope.Logger.Info("Suspending run until callback", "description", n.Description)

	return protocol.NodeOutcome{
		Data:    scope.Current,
		Suspend: true,
	}, nil
}
