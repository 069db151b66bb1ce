// Package models defines the core domain models for graph orchestration.
package models

import (
	"fmt"
	"time"
)

// Node is one step in a graph definition, typed by its step type and
// carrying opaque configuration interpreted by the matching handler.
type Node struct {
	ID     string         `json:"id"     validate:"required"`
	Type   string         `json:"type"   validate:"required"`
	Name   string         `json:"name"`
	Config map[string]any `json:"config"`
}

// Edge expresses "target depends on source's output".
type Edge struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// GraphDefinition is a user-authored orchestration graph. It is produced
// by the authoring UI and read-only to the runner.
type GraphDefinition struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	Name        string    `json:"name"    validate:"required,min=3"`
	Description string    `json:"description"`
	Nodes       []*Node   `json:"nodes"`
	Edges       []*Edge   `json:"edges"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NodeByID returns the node with the given ID.
func (g *GraphDefinition) NodeByID(id string) (*Node, bool) {
	for _, node := range g.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// EntryNodes returns the nodes with no incoming edge. Execution starts here.
func (g *GraphDefinition) EntryNodes() []*Node {
	hasIncoming := make(map[string]bool, len(g.Nodes))
	for _, edge := range g.Edges {
		hasIncoming[edge.Target] = true
	}

	entries := make([]*Node, 0, len(g.Nodes))

	for _, node := range g.Nodes {
		if !hasIncoming[node.ID] {
			entries = append(entries, node)
		}
	}

	return entries
}

// Successors returns an adjacency map from each node ID to its direct
// successor node IDs, in edge declaration order.
func (g *GraphDefinition) Successors() map[string][]string {
	adjacency := make(map[string][]string, len(g.Nodes))
	for _, edge := range g.Edges {
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
	}

	return adjacency
}

// Predecessors returns the inverse adjacency map.
func (g *GraphDefinition) Predecessors() map[string][]string {
	incoming := make(map[string][]string, len(g.Nodes))
	for _, edge := range g.Edges {
		incoming[edge.Target] = append(incoming[edge.Target], edge.Source)
	}

	return incoming
}

// ValidateStructure checks that every edge references existing node IDs and
// that node IDs are unique. Cycle detection is left to traversal: a graph
// may contain cycles in storage as long as none is reachable from an entry
// node at execution time.
func (g *GraphDefinition) ValidateStructure() error {
	seen := make(map[string]bool, len(g.Nodes))

	for _, node := range g.Nodes {
		if seen[node.ID] {
			return fmt.Errorf("duplicate node id %q", node.ID)
		}

		seen[node.ID] = true
	}

	for _, edge := range g.Edges {
		if !seen[edge.Source] {
			return fmt.Errorf("edge references unknown source node %q", edge.Source)
		}

		if !seen[edge.Target] {
			return fmt.Errorf("edge references unknown target node %q", edge.Target)
		}
	}

	return nil
}
