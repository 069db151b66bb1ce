// Package registry maps node types to their handler factories and
// validates node configuration against each factory's schema.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/protocol"
)

type Registry struct {
	logger        *slog.Logger
	nodeFactories map[string]protocol.NodeFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		logger:        logger,
		nodeFactories: make(map[string]protocol.NodeFactory),
	}
}

func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.nodeFactories[factory.ID()] = factory
}

// NodeFactories returns the registered factories keyed by node type, for
// the catalog endpoint that feeds the authoring UI.
func (r *Registry) NodeFactories() map[string]protocol.NodeFactory {
	factories := make(map[string]protocol.NodeFactory, len(r.nodeFactories))
	for nodeType, factory := range r.nodeFactories {
		factories[nodeType] = factory
	}

	return factories
}

// CreateNode builds a handler for the node, validating its configuration
// against the factory's schema first. Nodes of an unregistered type get a
// pass-through handler: traversal continues with the data unmodified, so a
// graph saved before a type was retired still runs end to end.
func (r *Registry) CreateNode(ctx context.Context, node *models.Node) (protocol.NodeHandler, error) {
	factory, ok := r.nodeFactories[node.Type]
	if !ok {
		r.logger.Warn("No factory for node type, passing data through",
			"node_id", node.ID, "node_type", node.Type)

		return &passthroughHandler{id: node.ID, nodeType: node.Type}, nil
	}

	if err := validateConfig(factory.Schema(), node.Config); err != nil {
		return nil, fmt.Errorf("invalid configuration for node %s: %w", node.ID, err)
	}

	return factory.Create(ctx, node.ID, node.Config)
}

// ValidateGraphNodes checks every node in a graph against its factory
// schema without instantiating handlers. Used at save time so authors get
// configuration errors before the first run.
func (r *Registry) ValidateGraphNodes(graph *models.GraphDefinition) error {
	for _, node := range graph.Nodes {
		factory, ok := r.nodeFactories[node.Type]
		if !ok {
			return fmt.Errorf("node %s has unknown type %q", node.ID, node.Type)
		}

		if err := validateConfig(factory.Schema(), node.Config); err != nil {
			return fmt.Errorf("node %s: %w", node.ID, err)
		}
	}

	return nil
}

func validateConfig(schema, config map[string]any) error {
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(config))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(descriptions, "; "))
	}

	return nil
}

// passthroughHandler stands in for node types with no registered factory.
type passthroughHandler struct {
	id       string
	nodeType string
}

func (h *passthroughHandler) ID() string   { return h.id }
func (h *passthroughHandler) Type() string { return h.nodeType }

func (h *passthroughHandler) Execute(_ context.Context, scope protocol.ExecutionScope) (protocol.NodeOutcome, error) {
	return protocol.NodeOutcome{Data: scope.Current}, nil
}
