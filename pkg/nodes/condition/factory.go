package condition

import (
	"context"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/protocol"
)

// Factory creates condition nodes.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.NodeHandler, error) {
	return NewNode(id, config)
}

func (f *Factory) ID() string {
	return models.NodeTypeCondition
}

func (f *Factory) Name() string {
	return "Condition"
}

func (f *Factory) Description() string {
	return "Evaluates a comparison against the current data and selects the successors to follow."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Dotted path into the current data, e.g. 'order.total'.",
			},
			"operator": map[string]any{
				"type":    "string",
				"default": "eq",
				"enum":    []string{"eq", "neq", "gt", "gte", "lt", "lte", "contains", "exists"},
			},
			"value": map[string]any{
				"description": "Right-hand side of the comparison.",
			},
			"true_targets": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Successor node IDs followed when the condition holds. Omitted means all successors.",
			},
			"false_targets": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Successor node IDs followed when the condition fails. Omitted means none.",
			},
		},
		"required":             []string{"path"},
		"additionalProperties": false,
	}
}
