package models

import "time"

// ConnectionStatus represents the lifecycle state of a provider connection.
type ConnectionStatus string

const (
	ConnectionStatusActive ConnectionStatus = "active"
	ConnectionStatusError  ConnectionStatus = "error"
)

// ProviderConnection stores a workspace's credentials for one external
// automation back-end. The credential payload is opaque to everything but
// the matching provider adapter.
type ProviderConnection struct {
	ID          string           `json:"id"`
	WorkspaceID string           `json:"workspace_id" validate:"required"`
	Provider    string           `json:"provider"     validate:"required"`
	Credentials string           `json:"credentials"`
	Status      ConnectionStatus `json:"status"`
	LastSyncAt  *time.Time       `json:"last_sync_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Redacted returns a copy safe for listing over the API.
func (c *ProviderConnection) Redacted() *ProviderConnection {
	clone := *c
	clone.Credentials = ""

	return &clone
}
