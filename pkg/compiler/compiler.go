// Package compiler turns an optimized workflow into an executable execution
// record.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/weftlabs/weft/pkg/execution"
	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/optimizer"
	"github.com/weftlabs/weft/pkg/validator"
)

// Compiler synthesizes execution records from workflow definitions. Every
// call produces a fresh execution id; compiling the same workflow twice
// yields two independent records.
type Compiler struct {
	validator   *validator.WorkflowValidator
	optimizer   *optimizer.Optimizer
	execContext *execution.Context
	logger      *slog.Logger
}

func New(wfValidator *validator.WorkflowValidator, wfOptimizer *optimizer.Optimizer, execContext *execution.Context, logger *slog.Logger) *Compiler {
	return &Compiler{
		validator:   wfValidator,
		optimizer:   wfOptimizer,
		execContext: execContext,
		logger:      logger.With("module", "compiler"),
	}
}

// Compile validates and optimizes the workflow, re-fetches its stored
// definition, and produces a pending execution carrying the optimized step
// payloads. Any stage failure propagates; no partial state is retained.
func (c *Compiler) Compile(ctx context.Context, workflow *models.Workflow) (*models.Execution, error) {
	if err := c.validator.Validate(workflow); err != nil {
		return nil, fmt.Errorf("compilation failed at validation: %w", err)
	}

	optimized, err := c.optimizer.Optimize(workflow)
	if err != nil {
		return nil, fmt.Errorf("compilation failed at optimization: %w", err)
	}

	stored, err := c.execContext.WorkflowData(ctx, workflow.ID)
	if err != nil {
		return nil, fmt.Errorf("compilation failed fetching workflow data: %w", err)
	}

	now := time.Now().UTC()

	steps := make(map[string]*models.Step, len(optimized.Nodes))

	for _, node := range optimized.Nodes {
		if node.Step != nil {
			steps[node.ID] = node.Step
		}
	}

	exec := &models.Execution{
		ID:         uuid.New().String(),
		WorkflowID: workflow.ID,
		Status:     models.ExecutionStatusPending,
		State: &models.ExecutionState{
			Variables: map[string]any{},
			Metadata: map[string]any{
				"original_workflow_status": string(stored.Status),
				"optimization_applied":     true,
				"compiled_at":              now.Format(time.RFC3339),
			},
			Steps:       steps,
			StepResults: make(map[string]*models.StepResult),
		},
		StartedAt:   now,
		CompletedAt: nil,
	}

	if err := c.execContext.SaveExecution(ctx, exec); err != nil {
		return nil, fmt.Errorf("compilation failed saving execution: %w", err)
	}

	c.logger.Info("Compiled workflow", "workflow_id", workflow.ID, "execution_id", exec.ID)

	return exec, nil
}
