// Package datamapper provides the node that reshapes data between steps.
package datamapper

import (
	"context"
	"errors"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/protocol"
	"github.com/maestrohq/maestro/pkg/template"
)

var ErrMappingsRequired = errors.New("data mapper node requires 'mappings'")

// Mapping copies one value from a dotted path in the incoming data to a
// dotted path in the output.
type Mapping struct {
	From string
	To   string
}

// Node builds a fresh output object containing only the mapped fields.
// Source paths that resolve to nothing are skipped, not errors.
type Node struct {
	id       string
	Mappings []Mapping
}

func NewNode(id string, config map[string]any) (*Node, error) {
	raw, ok := config["mappings"].([]any)
	if !ok || len(raw) == 0 {
		return nil, ErrMappingsRequired
	}

	mappings := make([]Mapping, 0, len(raw))

	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		from, _ := entry["from"].(string)
		to, _ := entry["to"].(string)

		if from == "" || to == "" {
			continue
		}

		mappings = append(mappings, Mapping{From: from, To: to})
	}

	if len(mappings) == 0 {
		return nil, ErrMappingsRequired
	}

	return &Node{
		id:       id,
		Mappings: mappings,
	}, nil
}

func (n *Node) ID() string {
	return n.id
}

func (n *Node) Type() string {
	return models.NodeTypeDataMapper
}

func (n *Node) Execute(_ context.Context, scope protocol.ExecutionScope) (protocol.NodeOutcome, error) {
	output := make(map[string]any)

	for _, mapping := range n.Mappings {
		value, found := template.Lookup(scope.Current, mapping.From)
		if !found {
			scope.Logger.Debug("Mapping source path not found", "from", mapping.From)

			continue
		}

		template.Set(output, mapping.To, value)
	}

	return protocol.NodeOutcome{Data: output}, nil
}
