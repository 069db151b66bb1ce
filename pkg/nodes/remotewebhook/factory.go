package remotewebhook

import (
	"context"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/protocol"
	"github.com/maestrohq/maestro/pkg/providers"
)

// Factory creates remote webhook nodes bound to the provider catalog.
type Factory struct {
	catalog *providers.Catalog
}

func NewFactory(catalog *providers.Catalog) *Factory {
	return &Factory{catalog: catalog}
}

func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.NodeHandler, error) {
	return NewNode(id, config, f.catalog)
}

func (f *Factory) ID() string {
	return models.NodeTypeRemoteWebhook
}

func (f *Factory) Name() string {
	return "Remote Webhook"
}

func (f *Factory) Description() string {
	return "Triggers a remote workflow via a provider connection or a direct webhook URL."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Webhook URL for direct dispatch. Supports templating against the current data.",
			},
			"method": map[string]any{
				"type":    "string",
				"default": "POST",
				"enum":    []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			},
			"headers": map[string]any{
				"type":                 "object",
				"description":          "Request headers. Values support templating.",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"body": map[string]any{
				"type":        "string",
				"format":      "code",
				"description": "Request body template.",
			},
			"timeout": map[string]any{
				"type":        "integer",
				"description": "Request timeout in seconds.",
				"minimum":     1,
			},
			"provider": map[string]any{
				"type":        "string",
				"description": "Provider name for adapter-based dispatch, e.g. 'n8n'.",
			},
			"workflow_id": map[string]any{
				"type":        "string",
				"description": "Remote workflow identifier, required with 'provider'.",
			},
			"connection_id": map[string]any{
				"type":        "string",
				"description": "Stored connection to use. Defaults to the workspace's active connection.",
			},
			"retries": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"attempts": map[string]any{
						"type":        "integer",
						"description": "Retry attempts after the first failure.",
						"default":     0,
						"minimum":     0,
					},
					"delay": map[string]any{
						"type":        "integer",
						"description": "Initial backoff in milliseconds. Doubles per attempt.",
						"default":     1000,
						"minimum":     1,
					},
				},
			},
			"polling": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"enabled": map[string]any{
						"type":    "boolean",
						"default": false,
					},
					"max_attempts": map[string]any{
						"type":    "integer",
						"default": 10,
						"minimum": 1,
					},
					"interval": map[string]any{
						"type":        "integer",
						"description": "Delay between polls in milliseconds.",
						"default":     2000,
						"minimum":     1,
					},
				},
			},
		},
		"additionalProperties": false,
	}
}
