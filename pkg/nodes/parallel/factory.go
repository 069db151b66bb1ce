package parallel

import (
	"context"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/protocol"
)

// Factory creates parallel nodes.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.NodeHandler, error) {
	return NewNode(id, config)
}

func (f *Factory) ID() string {
	return models.NodeTypeParallel
}

func (f *Factory) Name() string {
	return "Parallel"
}

func (f *Factory) Description() string {
	return "Fans execution out to all successors and joins converging branches."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
}
