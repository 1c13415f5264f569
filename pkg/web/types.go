// Package web provides the HTTP handlers and request/response types of the
// workflow API.
package web

import "github.com/weftlabs/weft/pkg/models"

// CreateWorkflowRequest represents the request body for creating a workflow.
type CreateWorkflowRequest struct {
	Name        string                `json:"name"        validate:"required,min=3,max=100"`
	Description string                `json:"description"`
	Status      string                `json:"status,omitempty"`
	Nodes       []*models.Node        `json:"nodes"       validate:"required"`
	Transitions []*models.Transition  `json:"transitions"`
	Variables   map[string]any        `json:"variables,omitempty"`
	Metadata    map[string]any        `json:"metadata,omitempty"`
	Owner       string                `json:"owner,omitempty"`
}

// UpdateWorkflowRequest represents the request body for updating a workflow.
// The full definition is replaced; the previous one is kept as an immutable
// version snapshot.
type UpdateWorkflowRequest struct {
	Name        string               `json:"name"        validate:"required,min=3,max=100"`
	Description string               `json:"description"`
	Status      string               `json:"status,omitempty"`
	Nodes       []*models.Node       `json:"nodes"       validate:"required"`
	Transitions []*models.Transition `json:"transitions"`
	Variables   map[string]any       `json:"variables,omitempty"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
}

// ExecuteWorkflowRequest represents the request body for triggering a run.
type ExecuteWorkflowRequest struct {
	Variables map[string]any `json:"variables,omitempty"`
}

// RegisterConnectorRequest represents the request body for registering a
// connector.
type RegisterConnectorRequest struct {
	Protocol string         `json:"protocol" validate:"required"`
	Config   map[string]any `json:"config"   validate:"required"`
}

// ConnectorResponse is the filtered representation of a registered connector.
type ConnectorResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
}
