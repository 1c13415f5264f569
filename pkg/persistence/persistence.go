// Package persistence provides the data storage abstraction for workflows and
// executions.
package persistence

import (
	"context"

	"github.com/weftlabs/weft/pkg/models"
)

// Persistence is the narrow contract the core consumes from the storage layer.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions and their immutable version
// snapshots.
type WorkflowRepository interface {
	GetAll(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error

	// SaveVersion stores an immutable snapshot. Snapshots are append-only.
	SaveVersion(ctx context.Context, version *models.WorkflowVersion) error
	Versions(ctx context.Context, workflowID string) ([]*models.WorkflowVersion, error)
}

// ExecutionRepository stores execution records.
type ExecutionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Execution, error)
	Save(ctx context.Context, execution *models.Execution) error
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error)
}
