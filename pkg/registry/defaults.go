package registry

import (
	"log/slog"

	"github.com/maestrohq/maestro/pkg/nodes/condition"
	"github.com/maestrohq/maestro/pkg/nodes/datamapper"
	"github.com/maestrohq/maestro/pkg/nodes/errorboundary"
	"github.com/maestrohq/maestro/pkg/nodes/localflow"
	"github.com/maestrohq/maestro/pkg/nodes/parallel"
	"github.com/maestrohq/maestro/pkg/nodes/remotewebhook"
	"github.com/maestrohq/maestro/pkg/nodes/waitcallback"
	"github.com/maestrohq/maestro/pkg/providers"
)

// NewDefaultRegistry returns a registry with every built-in node type
// registered. flowEngineURL is the default local flow engine address and
// may be empty when local flow nodes carry their own base_url.
func NewDefaultRegistry(logger *slog.Logger, catalog *providers.Catalog, flowEngineURL string) *Registry {
	registry := NewRegistry(logger)

	registry.RegisterNode(remotewebhook.NewFactory(catalog))
	registry.RegisterNode(localflow.NewFactory(flowEngineURL))
	registry.RegisterNode(datamapper.NewFactory())
	registry.RegisterNode(waitcallback.NewFactory())
	registry.RegisterNode(condition.NewFactory())
	registry.RegisterNode(parallel.NewFactory())
	registry.RegisterNode(errorboundary.NewFactory())

	return registry
}
