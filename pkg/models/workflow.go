// Package models defines the core domain models for graph-based workflow automation.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft     WorkflowStatus = "draft"     // Editable, not executable
	WorkflowStatusActive    WorkflowStatus = "active"    // Executable
	WorkflowStatusPaused    WorkflowStatus = "paused"    // Temporarily not executable
	WorkflowStatusCompleted WorkflowStatus = "completed" // Finished, kept for history
	WorkflowStatusArchived  WorkflowStatus = "archived"  // Retired
)

// AllWorkflowStatuses enumerates every valid workflow status.
func AllWorkflowStatuses() []WorkflowStatus {
	return []WorkflowStatus{
		WorkflowStatusDraft,
		WorkflowStatusActive,
		WorkflowStatusPaused,
		WorkflowStatusCompleted,
		WorkflowStatusArchived,
	}
}

// Workflow represents a graph of nodes and transitions with versioning support.
type Workflow struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"        validate:"required,min=3,max=100"`
	Description  string         `json:"description"`
	Status       WorkflowStatus `json:"status"      validate:"required"`
	Version      int            `json:"version"`
	Nodes        []*Node        `json:"nodes,omitempty"`
	Transitions  []*Transition  `json:"transitions,omitempty"`
	Subworkflows []*Workflow    `json:"subworkflows,omitempty"`
	Variables    map[string]any `json:"variables,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Owner        string         `json:"owner,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// WorkflowVersion is an immutable snapshot of a workflow definition. Every edit
// of a stored workflow produces a new version; snapshots are never mutated.
type WorkflowVersion struct {
	ID         string    `json:"id"`
	WorkflowID string    `json:"workflow_id"`
	Version    int       `json:"version"`
	Definition *Workflow `json:"definition"`
	CreatedAt  time.Time `json:"created_at"`
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}
