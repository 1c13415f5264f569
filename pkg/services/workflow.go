package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/persistence"
	"github.com/weftlabs/weft/pkg/validator"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Workflow implements workflow CRUD with immutable version snapshots: every
// update stores the previous definition under its version number before the
// new definition replaces it.
type Workflow struct {
	persistence persistence.Persistence
	validator   *validator.WorkflowValidator
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, wfValidator *validator.WorkflowValidator) *Workflow {
	return &Workflow{
		persistence: persistence,
		validator:   wfValidator,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns all workflows.
func (w *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.WorkflowRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// Get returns the workflow with the given id.
func (w *Workflow) Get(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// Create validates and stores a new workflow at version 1. An empty id is
// assigned; an empty status defaults to draft.
func (w *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusDraft
	}

	now := time.Now().UTC()
	workflow.Version = 1
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if err := w.validator.Validate(workflow); err != nil {
		return nil, NewValidationError("create_workflow", "WORKFLOW_INVALID", err.Error(), err)
	}

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	return workflow, nil
}

// Update validates the new definition, snapshots the current stored
// definition as an immutable version, then stores the new definition with a
// bumped version number. Archived workflows cannot be updated.
func (w *Workflow) Update(ctx context.Context, id string, updated *models.Workflow) (*models.Workflow, error) {
	if updated == nil {
		return nil, ErrWorkflowNil
	}

	repo := w.persistence.WorkflowRepository()

	current, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.Status == models.WorkflowStatusArchived {
		return nil, ErrCannotModifyArchived
	}

	updated.ID = current.ID
	updated.Version = current.Version + 1
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if updated.Status == "" {
		updated.Status = current.Status
	}

	if err := w.validator.Validate(updated); err != nil {
		return nil, NewValidationError("update_workflow", "WORKFLOW_INVALID", err.Error(), err)
	}

	snapshot := &models.WorkflowVersion{
		ID:         uuid.New().String(),
		WorkflowID: current.ID,
		Version:    current.Version,
		Definition: current.Clone(),
		CreatedAt:  time.Now().UTC(),
	}

	if err := repo.SaveVersion(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to snapshot workflow version: %w", err)
	}

	if err := repo.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	return updated, nil
}

// Delete removes the workflow.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	if err := w.persistence.WorkflowRepository().Delete(ctx, id); err != nil {
		return err
	}

	return nil
}

// Versions returns the stored immutable snapshots of the workflow, oldest
// first.
func (w *Workflow) Versions(ctx context.Context, id string) ([]*models.WorkflowVersion, error) {
	if _, err := w.persistence.WorkflowRepository().GetByID(ctx, id); err != nil {
		return nil, err
	}

	versions, err := w.persistence.WorkflowRepository().Versions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow versions: %w", err)
	}

	return versions, nil
}

// Executions returns the execution records of the workflow.
func (w *Workflow) Executions(ctx context.Context, id string) ([]*models.Execution, error) {
	if _, err := w.persistence.WorkflowRepository().GetByID(ctx, id); err != nil {
		return nil, err
	}

	executions, err := w.persistence.ExecutionRepository().ListByWorkflow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return executions, nil
}

// Execution returns a single execution record.
func (w *Workflow) Execution(ctx context.Context, executionID string) (*models.Execution, error) {
	execution, err := w.persistence.ExecutionRepository().GetByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	return execution, nil
}
