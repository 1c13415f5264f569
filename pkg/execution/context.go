// Package execution implements the runtime half of the pipeline: the shared
// execution context, the per-step executor and the orchestrating engine.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/persistence"
	"github.com/weftlabs/weft/pkg/validator"
)

// Context is the single point of truth for workflow and execution lookups
// during a run. Fetched records are cached for the process lifetime; entries
// are never invalidated here, staleness management belongs to the store
// layer. The caches are guarded so concurrent runs can share one instance.
type Context struct {
	mu         sync.RWMutex
	workflows  map[string]*models.Workflow
	executions map[string]*models.Execution

	persistence persistence.Persistence
	validator   *validator.WorkflowValidator
	logger      *slog.Logger
}

func NewContext(persistence persistence.Persistence, wfValidator *validator.WorkflowValidator, logger *slog.Logger) *Context {
	return &Context{
		workflows:   make(map[string]*models.Workflow),
		executions:  make(map[string]*models.Execution),
		persistence: persistence,
		validator:   wfValidator,
		logger:      logger.With("module", "execution_context"),
	}
}

// WorkflowData returns the workflow for the given id, from cache when
// available. A freshly fetched workflow is re-validated before caching, so an
// invalid stored workflow surfaces as an error at read time.
func (c *Context) WorkflowData(ctx context.Context, workflowID string) (*models.Workflow, error) {
	c.mu.RLock()
	workflow, cached := c.workflows[workflowID]
	c.mu.RUnlock()

	if cached {
		return workflow, nil
	}

	workflow, err := c.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	if err := c.validator.Validate(workflow); err != nil {
		return nil, fmt.Errorf("stored workflow %s is invalid: %w", workflowID, err)
	}

	c.mu.Lock()
	c.workflows[workflowID] = workflow
	c.mu.Unlock()

	c.logger.Debug("Cached workflow", "workflow_id", workflowID)

	return workflow, nil
}

// ExecutionData returns the execution for the given id, from cache when
// available.
func (c *Context) ExecutionData(ctx context.Context, executionID string) (*models.Execution, error) {
	c.mu.RLock()
	execution, cached := c.executions[executionID]
	c.mu.RUnlock()

	if cached {
		return execution, nil
	}

	execution, err := c.persistence.ExecutionRepository().GetByID(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch execution %s: %w", executionID, err)
	}

	c.mu.Lock()
	c.executions[executionID] = execution
	c.mu.Unlock()

	return execution, nil
}

// SaveExecution persists the execution and refreshes the cache entry.
func (c *Context) SaveExecution(ctx context.Context, execution *models.Execution) error {
	if err := c.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		return fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
	}

	c.mu.Lock()
	c.executions[execution.ID] = execution
	c.mu.Unlock()

	return nil
}

// ExecutionsByWorkflow lists the stored executions of a workflow, bypassing
// the cache.
func (c *Context) ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	return c.persistence.ExecutionRepository().ListByWorkflow(ctx, workflowID)
}

// ClearCache drops all cached workflows and executions.
func (c *Context) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.workflows = make(map[string]*models.Workflow)
	c.executions = make(map[string]*models.Execution)
}
