package file

import (
	"context"
	"errors"
	"os"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/persistence"
)

// SaveConnection writes a provider connection.
func (p *Persistence) SaveConnection(_ context.Context, conn *models.ProviderConnection) error {
	if err := p.writeRecord(connectionsDir, conn.ID, conn); err != nil {
		return err
	}

	return nil
}

// ConnectionByID returns the connection with the given ID.
func (p *Persistence) ConnectionByID(_ context.Context, id string) (*models.ProviderConnection, error) {
	var conn models.ProviderConnection

	err := p.readRecord(connectionsDir, id, &conn)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.ErrConnectionNotFound
	}

	if err != nil {
		return nil, err
	}

	return &conn, nil
}

// ActiveConnection returns the most recently created active connection for
// the (workspace, provider) pair.
func (p *Persistence) ActiveConnection(ctx context.Context, workspaceID, provider string) (*models.ProviderConnection, error) {
	conns, err := p.Connections(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	var newest *models.ProviderConnection

	for _, conn := range conns {
		if conn.Provider != provider || conn.Status != models.ConnectionStatusActive {
			continue
		}

		if newest == nil || conn.CreatedAt.After(newest.CreatedAt) {
			newest = conn
		}
	}

	if newest == nil {
		return nil, persistence.ErrConnectionNotFound
	}

	return newest, nil
}

// Connections returns every connection, optionally filtered by workspace.
func (p *Persistence) Connections(_ context.Context, workspaceID string) ([]*models.ProviderConnection, error) {
	ids, err := p.listIDs(connectionsDir)
	if err != nil {
		return make([]*models.ProviderConnection, 0), nil
	}

	conns := make([]*models.ProviderConnection, 0, len(ids))

	for _, id := range ids {
		var conn models.ProviderConnection
		if err := p.readRecord(connectionsDir, id, &conn); err != nil {
			return nil, err
		}

		if workspaceID != "" && conn.WorkspaceID != workspaceID {
			continue
		}

		conns = append(conns, &conn)
	}

	return conns, nil
}

// DeleteConnection removes a connection.
func (p *Persistence) DeleteConnection(_ context.Context, id string) error {
	err := p.deleteRecord(connectionsDir, id)
	if errors.Is(err, os.ErrNotExist) {
		return persistence.ErrConnectionNotFound
	}

	return err
}
