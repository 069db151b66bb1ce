package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/persistence"
)

// SaveGraph upserts a graph definition.
func (p *Persistence) SaveGraph(ctx context.Context, graph *models.GraphDefinition) error {
	nodesJSON, err := json.Marshal(graph.Nodes)
	if err != nil {
		return persistence.NewGraphError("Save", graph.ID, fmt.Errorf("failed to marshal nodes: %w", err))
	}

	edgesJSON, err := json.Marshal(graph.Edges)
	if err != nil {
		return persistence.NewGraphError("Save", graph.ID, fmt.Errorf("failed to marshal edges: %w", err))
	}

	query := `
		INSERT INTO graphs (id, workspace_id, name, description, nodes, edges, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			workspace_id = EXCLUDED.workspace_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
	`

	_, err = p.db.ExecContext(ctx, query,
		graph.ID,
		graph.WorkspaceID,
		graph.Name,
		graph.Description,
		nodesJSON,
		edgesJSON,
		graph.Version,
		graph.CreatedAt,
		graph.UpdatedAt,
	)
	if err != nil {
		return persistence.NewGraphError("Save", graph.ID, err)
	}

	return nil
}

// GraphByID returns the graph definition with the given ID.
func (p *Persistence) GraphByID(ctx context.Context, id string) (*models.GraphDefinition, error) {
	query := `
		SELECT id, workspace_id, name, description, nodes, edges, version, created_at, updated_at
		FROM graphs
		WHERE id = $1
	`

	graph, err := scanGraph(p.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewGraphError("GetByID", id, persistence.ErrGraphNotFound)
	}

	if err != nil {
		return nil, persistence.NewGraphError("GetByID", id, err)
	}

	return graph, nil
}

// Graphs returns every graph definition, optionally filtered by workspace.
func (p *Persistence) Graphs(ctx context.Context, workspaceID string) ([]*models.GraphDefinition, error) {
	query := `
		SELECT id, workspace_id, name, description, nodes, edges, version, created_at, updated_at
		FROM graphs
		WHERE ($1 = '' OR workspace_id = $1)
		ORDER BY updated_at DESC
	`

	rows, err := p.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query graphs: %w", err)
	}

	defer p.closeRows(ctx, rows)

	var graphs []*models.GraphDefinition

	for rows.Next() {
		graph, err := scanGraph(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan graph: %w", err)
		}

		graphs = append(graphs, graph)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating graphs: %w", err)
	}

	return graphs, nil
}

// DeleteGraph removes a graph definition.
func (p *Persistence) DeleteGraph(ctx context.Context, id string) error {
	result, err := p.db.ExecContext(ctx, "DELETE FROM graphs WHERE id = $1", id)
	if err != nil {
		return persistence.NewGraphError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewGraphError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewGraphError("Delete", id, persistence.ErrGraphNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGraph(row rowScanner) (*models.GraphDefinition, error) {
	var (
		graph     models.GraphDefinition
		nodesJSON []byte
		edgesJSON []byte
	)

	err := row.Scan(
		&graph.ID,
		&graph.WorkspaceID,
		&graph.Name,
		&graph.Description,
		&nodesJSON,
		&edgesJSON,
		&graph.Version,
		&graph.CreatedAt,
		&graph.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(nodesJSON, &graph.Nodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
	}

	if err := json.Unmarshal(edgesJSON, &graph.Edges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges: %w", err)
	}

	return &graph, nil
}
