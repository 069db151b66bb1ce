package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/persistence"
	"github.com/maestrohq/maestro/pkg/providers"
)

// Connection manages provider connections: credential verification,
// storage and the remote workflow directory used by the authoring UI.
type Connection struct {
	persistence persistence.Persistence
	catalog     *providers.Catalog
	logger      *slog.Logger
}

func NewConnection(persist persistence.Persistence, catalog *providers.Catalog, logger *slog.Logger) *Connection {
	if logger == nil {
		logger = slog.Default()
	}

	return &Connection{
		persistence: persist,
		catalog:     catalog,
		logger:      logger.With("module", "connection_service"),
	}
}

// Connect verifies credentials against the provider and stores them as an
// active connection. Invalid credentials are a validation failure, not a
// stored error-state connection.
func (c *Connection) Connect(ctx context.Context, workspaceID, provider, credentials string) (*models.ProviderConnection, error) {
	adapter, err := c.catalog.Adapter(provider)
	if err != nil {
		return nil, err
	}

	ok, err := adapter.Authenticate(ctx, credentials)
	if err != nil {
		return nil, fmt.Errorf("verify %s credentials: %w", provider, err)
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s rejected the credentials", ErrAuthenticationFailed, provider)
	}

	now := time.Now().UTC()
	conn := &models.ProviderConnection{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Provider:    provider,
		Credentials: credentials,
		Status:      models.ConnectionStatusActive,
		LastSyncAt:  &now,
		CreatedAt:   now,
	}

	if err := c.persistence.SaveConnection(ctx, conn); err != nil {
		return nil, fmt.Errorf("save connection: %w", err)
	}

	c.logger.Info("Provider connected", "provider", provider, "workspace_id", workspaceID)

	return conn.Redacted(), nil
}

func (c *Connection) Disconnect(ctx context.Context, connectionID string) error {
	if _, err := c.persistence.ConnectionByID(ctx, connectionID); err != nil {
		return err
	}

	return c.persistence.DeleteConnection(ctx, connectionID)
}

// Test re-verifies a stored connection and updates its status. The updated
// status is persisted either way so the UI reflects reality.
func (c *Connection) Test(ctx context.Context, connectionID string) (*models.ProviderConnection, error) {
	conn, err := c.persistence.ConnectionByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	adapter, err := c.catalog.Adapter(conn.Provider)
	if err != nil {
		return nil, err
	}

	ok, err := adapter.Authenticate(ctx, conn.Credentials)

	now := time.Now().UTC()
	conn.LastSyncAt = &now

	if err != nil || !ok {
		conn.Status = models.ConnectionStatusError
	} else {
		conn.Status = models.ConnectionStatusActive
	}

	if saveErr := c.persistence.SaveConnection(ctx, conn); saveErr != nil {
		return nil, fmt.Errorf("save connection state: %w", saveErr)
	}

	if err != nil {
		return conn.Redacted(), fmt.Errorf("verify %s credentials: %w", conn.Provider, err)
	}

	return conn.Redacted(), nil
}

// List returns the workspace's connections with credentials stripped.
func (c *Connection) List(ctx context.Context, workspaceID string) ([]*models.ProviderConnection, error) {
	conns, err := c.persistence.Connections(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	redacted := make([]*models.ProviderConnection, 0, len(conns))
	for _, conn := range conns {
		redacted = append(redacted, conn.Redacted())
	}

	return redacted, nil
}

// RemoteWorkflows lists the workflows available behind a connection.
func (c *Connection) RemoteWorkflows(ctx context.Context, connectionID string) ([]models.RemoteWorkflow, error) {
	conn, err := c.persistence.ConnectionByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	adapter, credentials, err := c.catalog.ResolveConnection(ctx, connectionID, conn.Provider)
	if err != nil {
		return nil, err
	}

	return adapter.ListWorkflows(ctx, credentials)
}

// WorkflowPreview fetches the structural preview of a remote workflow.
func (c *Connection) WorkflowPreview(ctx context.Context, connectionID, workflowID string) (*models.WorkflowPreview, error) {
	conn, err := c.persistence.ConnectionByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	adapter, credentials, err := c.catalog.ResolveConnection(ctx, connectionID, conn.Provider)
	if err != nil {
		return nil, err
	}

	return adapter.GetWorkflowPreview(ctx, credentials, workflowID)
}
