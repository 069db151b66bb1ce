package file

import (
	"context"
	"errors"
	"os"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/persistence"
)

// Graphs returns every graph definition, optionally filtered by workspace.
func (p *Persistence) Graphs(_ context.Context, workspaceID string) ([]*models.GraphDefinition, error) {
	ids, err := p.listIDs(graphsDir)
	if err != nil {
		return make([]*models.GraphDefinition, 0), nil
	}

	graphs := make([]*models.GraphDefinition, 0, len(ids))

	for _, id := range ids {
		var graph models.GraphDefinition
		if err := p.readRecord(graphsDir, id, &graph); err != nil {
			return nil, persistence.NewGraphError("List", id, err)
		}

		if workspaceID != "" && graph.WorkspaceID != workspaceID {
			continue
		}

		graphs = append(graphs, &graph)
	}

	return graphs, nil
}

// GraphByID returns the graph definition with the given ID.
func (p *Persistence) GraphByID(_ context.Context, id string) (*models.GraphDefinition, error) {
	var graph models.GraphDefinition

	err := p.readRecord(graphsDir, id, &graph)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.NewGraphError("GetByID", id, persistence.ErrGraphNotFound)
	}

	if err != nil {
		return nil, persistence.NewGraphError("GetByID", id, err)
	}

	return &graph, nil
}

// SaveGraph writes a graph definition.
func (p *Persistence) SaveGraph(_ context.Context, graph *models.GraphDefinition) error {
	if err := p.writeRecord(graphsDir, graph.ID, graph); err != nil {
		return persistence.NewGraphError("Save", graph.ID, err)
	}

	return nil
}

// DeleteGraph removes a graph definition.
func (p *Persistence) DeleteGraph(_ context.Context, id string) error {
	err := p.deleteRecord(graphsDir, id)
	if errors.Is(err, os.ErrNotExist) {
		return persistence.NewGraphError("Delete", id, persistence.ErrGraphNotFound)
	}

	if err != nil {
		return persistence.NewGraphError("Delete", id, err)
	}

	return nil
}
