// Package errorboundary provides the node that shields its downstream
// branch: when a protected node fails, traversal reroutes to the
// boundary's fallback node instead of failing the run.
package errorboundary

import (
	"context"
	"errors"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/protocol"
)

var ErrFallbackRequired = errors.New("error boundary node requires a 'fallback' node id")

// Node passes the current data through. Its successors minus the fallback
// form the protected branch; the runner derives the protected set from the
// graph so protection survives suspension and resume.
type Node struct {
	id       string
	Fallback string
}

func NewNode(id string, config map[string]any) (*Node, error) {
	fallback, _ := config["fallback"].(string)
	if fallback == "" {
		return nil, ErrFallbackRequired
	}

	return &Node{
		id:       id,
		Fallback: fallback,
	}, nil
}

func (n *Node) ID() string {
	return n.id
}

func (n *Node) Type() string {
	return models.NodeTypeErrorBoundary
}

// Execute selects every successor except the fallback, so the fallback
// branch only runs when a protected node fails.
func (n *Node) Execute(_ context.Context, scope protocol.ExecutionScope) (protocol.NodeOutcome, error) {
	selected := []string{}

	for _, succ := range scope.Graph.Successors()[n.id] {
		if succ != n.Fallback {
			selected = append(selected, succ)
		}
	}

	return protocol.NodeOutcome{
		Data:            scope.Current,
		SelectedTargets: selected,
	}, nil
}
