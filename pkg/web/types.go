// Package web provides HTTP request and response types for the graph API.
package web

import "github.com/maestrohq/maestro/pkg/models"

// CreateGraphRequest represents the request body for creating a new graph.
type CreateGraphRequest struct {
	WorkspaceID string         `json:"workspace_id"`
	Name        string         `json:"name"         validate:"required,min=3"`
	Description string         `json:"description"`
	Nodes       []*models.Node `json:"nodes"        validate:"required,min=1,dive"`
	Edges       []*models.Edge `json:"edges"        validate:"dive"`
}

// UpdateGraphRequest represents the request body for updating an existing
// graph. All fields are optional to support partial updates; nodes and edges
// replace the stored definition wholesale when provided.
type UpdateGraphRequest struct {
	Name        *string        `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string        `json:"description,omitempty"`
	Nodes       []*models.Node `json:"nodes,omitempty"       validate:"omitempty,min=1,dive"`
	Edges       []*models.Edge `json:"edges,omitempty"       validate:"omitempty,dive"`
}

// RunRequest represents the request body for starting a run.
type RunRequest struct {
	Inputs map[string]any `json:"inputs"`
}

// ConnectRequest represents the request body for connecting a provider.
type ConnectRequest struct {
	WorkspaceID string `json:"workspace_id" validate:"required"`
	Provider    string `json:"provider"     validate:"required"`
	Credentials string `json:"credentials"  validate:"required"`
}

// NodeTypeResponse describes one registered node type in the catalog.
type NodeTypeResponse struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}
