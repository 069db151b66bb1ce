// Package persistence provides the data storage abstraction for graph
// definitions, run records and provider connections.
package persistence

import (
	"context"

	"github.com/maestrohq/maestro/pkg/models"
)

// GraphRepository persists user-authored graph definitions.
type GraphRepository interface {
	Graphs(ctx context.Context, workspaceID string) ([]*models.GraphDefinition, error)
	GraphByID(ctx context.Context, id string) (*models.GraphDefinition, error)
	SaveGraph(ctx context.Context, graph *models.GraphDefinition) error
	DeleteGraph(ctx context.Context, id string) error
}

// RunRepository persists run records. Runs are never deleted by the runner;
// retention is an external concern.
type RunRepository interface {
	SaveRun(ctx context.Context, run *models.RunRecord) error
	RunByID(ctx context.Context, id string) (*models.RunRecord, error)
	RunByCorrelationToken(ctx context.Context, token string) (*models.RunRecord, error)
	// RunsByGraphID returns runs newest first.
	RunsByGraphID(ctx context.Context, graphID string) ([]*models.RunRecord, error)
}

// ConnectionRepository persists provider credentials per workspace.
type ConnectionRepository interface {
	SaveConnection(ctx context.Context, conn *models.ProviderConnection) error
	ConnectionByID(ctx context.Context, id string) (*models.ProviderConnection, error)
	// ActiveConnection returns the most recently created active connection
	// for the (workspace, provider) pair. Multiple active rows are resolved
	// by recency, not treated as an error.
	ActiveConnection(ctx context.Context, workspaceID, provider string) (*models.ProviderConnection, error)
	Connections(ctx context.Context, workspaceID string) ([]*models.ProviderConnection, error)
	DeleteConnection(ctx context.Context, id string) error
}

// Persistence aggregates every repository backed by one store.
type Persistence interface {
	GraphRepository
	RunRepository
	ConnectionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
