package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/persistence"
)

const connectionColumns = `id, workspace_id, provider, credentials, status, last_sync_at, created_at`

// SaveConnection upserts a provider connection.
func (p *Persistence) SaveConnection(ctx context.Context, conn *models.ProviderConnection) error {
	query := `
		INSERT INTO provider_connections (` + connectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			credentials = EXCLUDED.credentials,
			status = EXCLUDED.status,
			last_sync_at = EXCLUDED.last_sync_at
	`

	_, err := p.db.ExecContext(ctx, query,
		conn.ID,
		conn.WorkspaceID,
		conn.Provider,
		conn.Credentials,
		conn.Status,
		conn.LastSyncAt,
		conn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save connection %s: %w", conn.ID, err)
	}

	return nil
}

// ConnectionByID returns the connection with the given ID.
func (p *Persistence) ConnectionByID(ctx context.Context, id string) (*models.ProviderConnection, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM provider_connections WHERE id = $1`, id)

	conn, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrConnectionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get connection %s: %w", id, err)
	}

	return conn, nil
}

// ActiveConnection returns the most recently created active connection for
// the (workspace, provider) pair.
func (p *Persistence) ActiveConnection(ctx context.Context, workspaceID, provider string) (*models.ProviderConnection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM provider_connections
		WHERE workspace_id = $1 AND provider = $2 AND status = $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	row := p.db.QueryRowContext(ctx, query, workspaceID, provider, models.ConnectionStatusActive)

	conn, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrConnectionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get active connection: %w", err)
	}

	return conn, nil
}

// Connections returns every connection, optionally filtered by workspace.
func (p *Persistence) Connections(ctx context.Context, workspaceID string) ([]*models.ProviderConnection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM provider_connections
		WHERE ($1 = '' OR workspace_id = $1)
		ORDER BY created_at DESC
	`

	rows, err := p.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	defer p.closeRows(ctx, rows)

	var conns []*models.ProviderConnection

	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}

		conns = append(conns, conn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return conns, nil
}

// DeleteConnection removes a connection.
func (p *Persistence) DeleteConnection(ctx context.Context, id string) error {
	result, err := p.db.ExecContext(ctx, "DELETE FROM provider_connections WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete connection %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return persistence.ErrConnectionNotFound
	}

	return nil
}

func scanConnection(row rowScanner) (*models.ProviderConnection, error) {
	var conn models.ProviderConnection

	err := row.Scan(
		&conn.ID,
		&conn.WorkspaceID,
		&conn.Provider,
		&conn.Credentials,
		&conn.Status,
		&conn.LastSyncAt,
		&conn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conn, nil
}
