package waitcallback

import (
	"context"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/protocol"
)

// Factory creates wait-for-callback nodes.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.NodeHandler, error) {
	return NewNode(id, config)
}

func (f *Factory) ID() string {
	return models.NodeTypeWaitCallback
}

func (f *Factory) Name() string {
	return "Wait For Callback"
}

func (f *Factory) Description() string {
	return "Pauses the run until an external system calls back with data."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{
				"type":        "string",
				"description": "Human-readable note about what the run is waiting for.",
			},
		},
		"additionalProperties": false,
	}
}
