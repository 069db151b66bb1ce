package localflow

import (
	"context"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/protocol"
)

// Factory creates local flow nodes. BaseURL is the engine address used
// when a node's configuration does not override it.
type Factory struct {
	BaseURL string
}

func NewFactory(baseURL string) *Factory {
	return &Factory{BaseURL: baseURL}
}

func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.NodeHandler, error) {
	return NewNode(id, config, f.BaseURL)
}

func (f *Factory) ID() string {
	return models.NodeTypeLocalFlow
}

func (f *Factory) Name() string {
	return "Local Flow"
}

func (f *Factory) Description() string {
	return "Executes a flow on the local flow engine and returns its response."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"flow_id": map[string]any{
				"type":        "string",
				"description": "Identifier of the flow to execute.",
			},
			"base_url": map[string]any{
				"type":        "string",
				"description": "Engine address. Defaults to the service-wide setting.",
			},
			"timeout": map[string]any{
				"type":        "integer",
				"description": "Request timeout in seconds.",
				"minimum":     1,
			},
		},
		"required":             []string{"flow_id"},
		"additionalProperties": false,
	}
}
