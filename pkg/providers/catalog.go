// Package providers maintains the catalog of provider adapters and resolves
// connections to authenticated adapters.
package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/persistence"
	"github.com/maestrohq/maestro/pkg/protocol"
)

var (
	// ErrUnknownProvider indicates no adapter is registered for a provider name.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrProviderMismatch indicates a connection's provider tag does not match
	// the adapter it was resolved against. This is a hard configuration
	// error, never a silent fallback.
	ErrProviderMismatch = errors.New("connection provider mismatch")
)

// Catalog registers provider adapters and resolves stored connections to
// (adapter, credentials) pairs.
type Catalog struct {
	adapters    map[string]protocol.ProviderAdapter
	connections persistence.ConnectionRepository
}

// NewCatalog creates an empty catalog backed by a connection store.
func NewCatalog(connections persistence.ConnectionRepository) *Catalog {
	return &Catalog{
		adapters:    make(map[string]protocol.ProviderAdapter),
		connections: connections,
	}
}

// Register adds an adapter under its own name.
func (c *Catalog) Register(adapter protocol.ProviderAdapter) {
	c.adapters[adapter.Name()] = adapter
}

// Adapter returns the adapter registered under name.
func (c *Catalog) Adapter(name string) (protocol.ProviderAdapter, error) {
	adapter, ok := c.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}

	return adapter, nil
}

// ResolveConnection loads a connection by ID and returns the matching
// adapter with the stored credentials. A provider tag mismatch between the
// connection and the requested provider is a hard error.
func (c *Catalog) ResolveConnection(ctx context.Context, connectionID, provider string) (protocol.ProviderAdapter, string, error) {
	adapter, err := c.Adapter(provider)
	if err != nil {
		return nil, "", err
	}

	conn, err := c.connections.ConnectionByID(ctx, connectionID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up connection %s: %w", connectionID, err)
	}

	if conn.Provider != adapter.Name() {
		return nil, "", fmt.Errorf("%w: connection %s is for %q, adapter is %q",
			ErrProviderMismatch, connectionID, conn.Provider, adapter.Name())
	}

	return adapter, conn.Credentials, nil
}

// ResolveActive resolves the workspace's most recent active connection for
// a provider.
func (c *Catalog) ResolveActive(ctx context.Context, workspaceID, provider string) (protocol.ProviderAdapter, *models.ProviderConnection, error) {
	adapter, err := c.Adapter(provider)
	if err != nil {
		return nil, nil, err
	}

	conn, err := c.connections.ActiveConnection(ctx, workspaceID, provider)
	if err != nil {
		return nil, nil, fmt.Errorf("no active %s connection for workspace %s: %w", provider, workspaceID, err)
	}

	return adapter, conn, nil
}
