package errorboundary

import (
	"context"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/protocol"
)

// Factory creates error boundary nodes.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.NodeHandler, error) {
	return NewNode(id, config)
}

func (f *Factory) ID() string {
	return models.NodeTypeErrorBoundary
}

func (f *Factory) Name() string {
	return "Error Boundary"
}

func (f *Factory) Description() string {
	return "Routes execution to a fallback node when any protected downstream node fails."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fallback": map[string]any{
				"type":        "string",
				"description": "Node ID executed when a protected node fails.",
			},
		},
		"required":             []string{"fallback"},
		"additionalProperties": false,
	}
}
