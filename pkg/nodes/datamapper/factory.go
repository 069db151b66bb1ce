package datamapper

import (
	"context"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/protocol"
)

// Factory creates data mapper nodes.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.NodeHandler, error) {
	return NewNode(id, config)
}

func (f *Factory) ID() string {
	return models.NodeTypeDataMapper
}

func (f *Factory) Name() string {
	return "Data Mapper"
}

func (f *Factory) Description() string {
	return "Builds a new object by copying values between dotted paths."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mappings": map[string]any{
				"type":        "array",
				"description": "Field copies applied to the incoming data.",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"from": map[string]any{
							"type":        "string",
							"description": "Dotted path read from the incoming data.",
						},
						"to": map[string]any{
							"type":        "string",
							"description": "Dotted path written in the output object.",
						},
					},
					"required": []string{"from", "to"},
				},
				"minItems": 1,
			},
		},
		"required":             []string{"mappings"},
		"additionalProperties": false,
	}
}
